// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fields extracts scalar metadata fields from article text: title,
// authors, publication year, sample size, and study duration. Extractors
// return a value plus an ok flag; callers decide what a miss means.
// Implements: prd002-analysis (R1.2, R1.3).
package fields

import (
	"regexp"
	"strconv"
	"strings"
)

// Window sizes for extractors that only scan the head of the text, where
// the metadata they target normally appears.
const (
	authorWindow = 1000
	yearWindow   = 2000
)

var authorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)by\s+([\w\s,\.]+)`),
	regexp.MustCompile(`(?i)authors?[:\s]+([\w\s,\.]+)`),
	regexp.MustCompile(`(?i)([\w\s,\.]+)\s+Department of`),
	regexp.MustCompile(`(?i)([\w\s,\.]+)\s+University`),
}

var (
	citationYearPattern = regexp.MustCompile(`\(\s*(20\d{2}|19\d{2})\s*\)`)
	bareYearPattern     = regexp.MustCompile(`\b(20\d{2}|199[0-9])\b`)
)

var samplePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[nN]\s*=\s*(\d+(?:,\d+)*)`),
	regexp.MustCompile(`(?i)(?:sample|cohort|population|participants|subjects|patients)\s+(?:size|of)\s+(?:was|were|of)?\s*(?::|was|were)?\s*(\d+(?:,\d+)*)`),
	regexp.MustCompile(`(?i)(?:included|enrolled|recruited|analyzed)\s+(\d+(?:,\d+)*)\s+(?:patients|participants|subjects|individuals)`),
	regexp.MustCompile(`(?i)(\d+(?:,\d+)*)\s+(?:patients|participants|subjects|individuals)\s+(?:were|was)\s+(?:included|enrolled|recruited|analyzed)`),
	regexp.MustCompile(`(?i)data\s+(?:was|were)\s+collected\s+from\s+(\d+(?:,\d+)*)\s+(?:patients|participants|subjects|individuals)`),
}

// Sample sizes at or below this are treated as stray numbers (section
// counts, reference markers) rather than cohorts.
const minSampleSize = 10

type durationKind int

const (
	durationScalar durationKind = iota
	durationRange
	durationDates
)

type durationPattern struct {
	re   *regexp.Regexp
	kind durationKind
}

var durationPatterns = []durationPattern{
	{regexp.MustCompile(`(?i)(?:study|trial|analysis)\s+(?:(?:period|duration)\s+)?(?:was|of|over|for|lasted)\s+(\d+)\s+(day|week|month|year)s?`), durationScalar},
	{regexp.MustCompile(`(?i)(?:followed|monitored|tracked)\s+(?:for|over)\s+(?:a\s+period\s+of\s+)?(\d+)\s+(day|week|month|year)s?`), durationScalar},
	{regexp.MustCompile(`(?i)(?:data\s+(?:were|was)\s+collected|study\s+was\s+conducted)\s+(?:over|during|for)\s+(?:a\s+period\s+of\s+)?(\d+)\s+(day|week|month|year)s?`), durationScalar},
	{regexp.MustCompile(`(?i)(\d+)(?:-|\s+to\s+)(\d+)\s+(day|week|month|year)s?\s+(?:study|period|duration)`), durationRange},
	{regexp.MustCompile(`(?i)between\s+(\w+\s+\d{4})\s+and\s+(\w+\s+\d{4})`), durationDates},
}

// Title returns the first plausible title line from the text: a trimmed line
// among the first ten that is longer than 15 characters and is not a URL.
// When no line qualifies it falls back to the file stem with underscores
// replaced by spaces, or "Untitled" for an empty stem.
func Title(text, stem string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > 15 && !strings.HasPrefix(line, "http") {
			return line
		}
	}
	fallback := strings.TrimSpace(strings.ReplaceAll(stem, "_", " "))
	if fallback == "" {
		return "Untitled"
	}
	return fallback
}

// Authors scans the head of the text for an author byline.
func Authors(text string) (string, bool) {
	head := text
	if len(head) > authorWindow {
		head = head[:authorWindow]
	}
	for _, re := range authorPatterns {
		if m := re.FindStringSubmatch(head); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// PublicationYear extracts the publication year from the text. Parenthesized
// citation years anywhere in the text take precedence; otherwise the most
// recent plausible year in the head of the text wins. Years after
// currentYear are rejected in both passes.
func PublicationYear(text string, currentYear int) (string, bool) {
	for _, m := range citationYearPattern.FindAllStringSubmatch(text, -1) {
		year, err := strconv.Atoi(m[1])
		if err == nil && year <= currentYear {
			return m[1], true
		}
	}

	head := text
	if len(head) > yearWindow {
		head = head[:yearWindow]
	}
	best := 0
	for _, m := range bareYearPattern.FindAllStringSubmatch(head, -1) {
		year, err := strconv.Atoi(m[1])
		if err == nil && year <= currentYear && year > best {
			best = year
		}
	}
	if best == 0 {
		return "", false
	}
	return strconv.Itoa(best), true
}

// SampleSize extracts the study sample size. Each pattern contributes its
// first match; sizes of minSampleSize or fewer are discarded as stray
// numbers, and the largest survivor wins.
func SampleSize(text string) (int, bool) {
	best := 0
	for _, re := range samplePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || n <= minSampleSize {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best == 0 {
		return 0, false
	}
	return best, true
}

// StudyDuration extracts the study duration as a display string, e.g.
// "6 months", "6-12 months", or "January 2020 to December 2021". Patterns
// are tried in order and the first match wins.
func StudyDuration(text string) (string, bool) {
	for _, p := range durationPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		switch p.kind {
		case durationScalar:
			return formatDuration(m[1], m[2]), true
		case durationRange:
			// Pluralization follows the end of the range.
			return m[1] + "-" + formatDuration(m[2], m[3]), true
		case durationDates:
			return m[1] + " to " + m[2], true
		}
	}
	return "", false
}

// formatDuration renders "<value> <unit>", pluralizing the unit only for
// values above one.
func formatDuration(value, unit string) string {
	n, err := strconv.Atoi(value)
	if err == nil && n > 1 {
		unit += "s"
	}
	return value + " " + unit
}
