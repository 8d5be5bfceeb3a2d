// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meshintel/telescan/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in       string
		wantType IdentifierType
		wantNorm string
	}{
		{"34567890", TypePMID, "34567890"},
		{" 123 ", TypePMID, "123"},
		{"PMC8123456", TypePMCID, "PMC8123456"},
		{"pmc8123456", TypePMCID, "PMC8123456"},
		{"10.1177/1357633X211010000", TypeDOI, "10.1177/1357633X211010000"},
		{"https://example.org/paper.pdf", TypeURL, "https://example.org/paper.pdf"},
		{"not an id", TypeUnknown, "not an id"},
		{"123456789", TypeUnknown, "123456789"}, // nine digits is too long for a PMID
	}
	for _, tt := range tests {
		gotType, gotNorm := Classify(tt.in)
		if gotType != tt.wantType || gotNorm != tt.wantNorm {
			t.Errorf("Classify(%q) = %v, %q, want %v, %q", tt.in, gotType, gotNorm, tt.wantType, tt.wantNorm)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		idType IdentifierType
		norm   string
		want   string
	}{
		{TypePMID, "34567890", "34567890"},
		{TypePMCID, "PMC8123456", "PMC8123456"},
		{TypeDOI, "10.1177/1357633X211010000", "10.1177-1357633X211010000"},
		{TypeURL, "https://example.org/articles/telehealth.pdf", "telehealth"},
	}
	for _, tt := range tests {
		if got := Slug(tt.idType, tt.norm); got != tt.want {
			t.Errorf("Slug(%v, %q) = %q, want %q", tt.idType, tt.norm, got, tt.want)
		}
	}
}

func TestSlugURLWithoutPath(t *testing.T) {
	got := Slug(TypeURL, "https://example.org/")
	if !strings.HasPrefix(got, "url-") {
		t.Errorf("Slug() = %q, want url- hash prefix", got)
	}
	// Stable across calls.
	if again := Slug(TypeURL, "https://example.org/"); again != got {
		t.Errorf("Slug() not stable: %q vs %q", got, again)
	}
}

func TestPDFURL(t *testing.T) {
	tests := []struct {
		idType IdentifierType
		norm   string
		want   string
	}{
		{TypePMCID, "PMC8123456", "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC8123456/pdf"},
		{TypeDOI, "10.1/abc", "https://doi.org/10.1/abc"},
		{TypeURL, "https://example.org/p.pdf", "https://example.org/p.pdf"},
		{TypePMID, "123", ""},
	}
	for _, tt := range tests {
		if got := PDFURL(tt.idType, tt.norm); got != tt.want {
			t.Errorf("PDFURL(%v, %q) = %q, want %q", tt.idType, tt.norm, got, tt.want)
		}
	}
}

func TestResolvePMCID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("dbfrom"); got != "pubmed" {
			t.Errorf("dbfrom = %q", got)
		}
		fmt.Fprint(w, `{"linksets": [{"linksetdbs": [{"dbto": "pmc", "links": [8123456]}]}]}`)
	}))
	defer server.Close()

	oldBase := elinkBase
	elinkBase = server.URL
	defer func() { elinkBase = oldBase }()

	pmcid, err := resolvePMCID(context.Background(), http.DefaultClient, "34567890", types.AcquisitionConfig{})
	if err != nil {
		t.Fatalf("resolvePMCID() error: %v", err)
	}
	if pmcid != "PMC8123456" {
		t.Errorf("pmcid = %q", pmcid)
	}
}

func TestResolvePMCIDNoDeposit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"linksets": [{"linksetdbs": []}]}`)
	}))
	defer server.Close()

	oldBase := elinkBase
	elinkBase = server.URL
	defer func() { elinkBase = oldBase }()

	pmcid, err := resolvePMCID(context.Background(), http.DefaultClient, "34567890", types.AcquisitionConfig{})
	if err != nil {
		t.Fatalf("resolvePMCID() error: %v", err)
	}
	if pmcid != "" {
		t.Errorf("pmcid = %q, want empty", pmcid)
	}
}
