// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package measures

import (
	"reflect"
	"testing"

	"github.com/meshintel/telescan/pkg/types"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "co-occurrence required",
			text: "Telehealth visit rate per month increased. Patients were satisfied overall.",
			want: 1,
		},
		{
			name: "domain term alone is not enough",
			text: "Telehealth expanded during the pandemic. Many clinics participated.",
			want: 0,
		},
		{
			name: "measurement term alone is not enough",
			text: "The visit rate was stable. Enrollment was steady.",
			want: 0,
		},
		{
			name: "multiple candidates in order",
			text: "The percentage of telemedicine encounters rose. Unrelated sentence. The number of video visits doubled.",
			want: 2,
		},
		{
			name: "empty text",
			text: "",
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if len(got) != tt.want {
				t.Errorf("Extract() returned %d candidates, want %d: %v", len(got), tt.want, got)
			}
		})
	}
}

func TestExtractKeepsSentencesVerbatim(t *testing.T) {
	text := "Background.  The telehealth visit rate per month increased sharply. Conclusions follow."
	got := Extract(text)
	if len(got) != 1 {
		t.Fatalf("Extract() returned %d candidates, want 1", len(got))
	}
	if got[0].Description != "The telehealth visit rate per month increased sharply" {
		t.Errorf("Description = %q", got[0].Description)
	}
	if !reflect.DeepEqual(got[0].Categories, []string{"Rate"}) {
		t.Errorf("Categories = %v, want [Rate]", got[0].Categories)
	}
}

func TestExtractNewlinesJoinSentences(t *testing.T) {
	text := "The rate of\ntelehealth visits\nincreased. Done."
	got := Extract(text)
	if len(got) != 1 {
		t.Fatalf("Extract() returned %d candidates, want 1", len(got))
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		want     []string
	}{
		{"rate and count", "the rate and number of telehealth visits", []string{"Rate", "Count"}},
		{"percentage", "30% of encounters were virtual", []string{"Percentage"}},
		{"none", "telehealth was convenient for visits", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.sentence); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Categorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategorySet(t *testing.T) {
	tests := []struct {
		name       string
		candidates []types.MeasureCandidate
		want       string
	}{
		{
			name: "union in declaration order",
			candidates: []types.MeasureCandidate{
				{Description: "a", Categories: []string{"Rate"}},
				{Description: "b", Categories: []string{"Percentage", "Count"}},
			},
			want: "Percentage, Rate, Count",
		},
		{
			name: "uncategorized candidates fall back",
			candidates: []types.MeasureCandidate{
				{Description: "a"},
			},
			want: "Other/Undefined",
		},
		{
			name:       "no candidates",
			candidates: nil,
			want:       "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorySet(tt.candidates); got != tt.want {
				t.Errorf("CategorySet() = %q, want %q", got, tt.want)
			}
		})
	}
}
