// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package patterns holds the compiled trigger sets used by the rule-based
// classifiers. Labels and their triggers are declared as ordered sequences;
// classification is first-match in declaration order, so earlier entries
// take precedence. Implements: prd002-analysis (R2.1, R2.2).
package patterns

import (
	"regexp"
	"strings"
)

// Matcher reports whether a lowered text triggers it.
type Matcher interface {
	Match(lowered string) bool
}

// Keyword matches when the text contains it as a substring. The keyword
// itself must already be lowercase.
type Keyword string

// Match implements Matcher.
func (k Keyword) Match(lowered string) bool {
	return strings.Contains(lowered, string(k))
}

// Keywords builds a trigger list from literal substrings.
func Keywords(words ...string) []Matcher {
	ms := make([]Matcher, len(words))
	for i, w := range words {
		ms[i] = Keyword(w)
	}
	return ms
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) Match(lowered string) bool {
	return m.re.MatchString(lowered)
}

// Regex returns a Matcher backed by a compiled regular expression.
// It panics on a malformed expression, so it is for package-level trigger
// tables only.
func Regex(expr string) Matcher {
	return regexMatcher{re: regexp.MustCompile(expr)}
}

// Any reports whether any matcher in the list triggers on the text.
func Any(ms []Matcher, lowered string) bool {
	for _, m := range ms {
		if m.Match(lowered) {
			return true
		}
	}
	return false
}

// Category pairs a label with its ordered trigger list.
type Category struct {
	Label    string
	Triggers []Matcher
}

// Matches reports whether any trigger fires on the lowered text.
func (c Category) Matches(lowered string) bool {
	return Any(c.Triggers, lowered)
}

// First returns the label of the first category triggered by the lowered
// text, in declaration order.
func First(cats []Category, lowered string) (string, bool) {
	for _, c := range cats {
		if c.Matches(lowered) {
			return c.Label, true
		}
	}
	return "", false
}

// All returns the labels of every triggered category, in declaration order.
func All(cats []Category, lowered string) []string {
	var labels []string
	for _, c := range cats {
		if c.Matches(lowered) {
			labels = append(labels, c.Label)
		}
	}
	return labels
}

// ScopedRule pairs a label with triggers scoped to two separate texts,
// such as an abstract and the article type, or an abstract and MeSH terms.
type ScopedRule struct {
	Label string

	// Primary triggers are tested against the primary text only.
	Primary []Matcher

	// Secondary triggers are tested against the secondary text only.
	Secondary []Matcher

	// Either triggers are tested against both texts.
	Either []Matcher
}

// Matches reports whether any trigger fires on its scoped text.
func (r ScopedRule) Matches(primary, secondary string) bool {
	if Any(r.Primary, primary) || Any(r.Secondary, secondary) {
		return true
	}
	return Any(r.Either, primary) || Any(r.Either, secondary)
}

// FirstScoped returns the label of the first rule triggered by the two
// lowered texts, in declaration order.
func FirstScoped(rules []ScopedRule, primary, secondary string) (string, bool) {
	for _, r := range rules {
		if r.Matches(primary, secondary) {
			return r.Label, true
		}
	}
	return "", false
}

// StudyDesigns returns the ordered study design categories for full
// article text. The two trailing entries are fallbacks for articles that
// name no specific design.
func StudyDesigns() []Category {
	return []Category{
		{Label: "Randomized Controlled Trial (RCT)", Triggers: Keywords("randomized controlled trial", "rct", "randomized clinical trial")},
		{Label: "Cohort Study", Triggers: Keywords("cohort study", "longitudinal study", "prospective cohort", "retrospective cohort")},
		{Label: "Case-Control Study", Triggers: Keywords("case-control", "case control")},
		{Label: "Cross-Sectional Study", Triggers: Keywords("cross-sectional", "cross sectional")},
		{Label: "Qualitative Study", Triggers: Keywords("qualitative study", "qualitative research", "interview study", "focus group")},
		{Label: "Systematic Review", Triggers: Keywords("systematic review", "systematic literature review")},
		{Label: "Meta-Analysis", Triggers: Keywords("meta-analysis", "meta analysis")},
		{Label: "Review Article", Triggers: Keywords("review article", "literature review", "narrative review")},
		{Label: "Mixed Methods", Triggers: Keywords("mixed methods", "mixed-methods")},
		{Label: "Quasi-Experimental", Triggers: Keywords("quasi-experimental", "quasi experimental", "non-randomized trial")},
		{Label: "Case Series", Triggers: Keywords("case series", "case report")},
		{Label: "Observational Study", Triggers: Keywords("observational study", "observational research")},
		{Label: "Pre-Post Study", Triggers: Keywords("pre-post", "pre post", "before and after", "before-after")},
		{Label: "Secondary Analysis", Triggers: Keywords("secondary analysis", "secondary data", "retrospective analysis")},
		{Label: "Pilot/Feasibility Study", Triggers: Keywords("pilot study", "pilot trial", "feasibility study")},
	}
}

// DataSources returns the ordered data source categories for full article
// text.
func DataSources() []Category {
	return []Category{
		{Label: "Electronic Health Records (EHR)", Triggers: Keywords("electronic health record", "ehr", "electronic medical record", "emr", "medical record")},
		{Label: "Insurance Claims", Triggers: Keywords("claims data", "insurance claims", "medicare claims", "medicaid claims", "billing data")},
		{Label: "Survey/Questionnaire", Triggers: Keywords("survey", "questionnaire", "self-report", "self report", "patient-reported", "patient reported")},
		{Label: "Interviews/Focus Groups", Triggers: Keywords("interview", "focus group", "qualitative data", "semi-structured interview")},
		{Label: "Registry/Database", Triggers: Keywords("registry", "database", "data repository", "data warehouse")},
		{Label: "Veterans Health Administration (VHA) Data", Triggers: Keywords("veterans", "va ", "veterans health administration", "vha", "va health")},
		{Label: "Clinical Trial Data", Triggers: Keywords("clinical trial", "trial data", "randomized trial data")},
		{Label: "Administrative Data", Triggers: Keywords("administrative data", "administrative records")},
		{Label: "Social Media Data", Triggers: Keywords("social media", "twitter", "facebook", "instagram", "online platform")},
		{Label: "Wearable/Sensor Data", Triggers: Keywords("wearable", "sensor", "monitoring device", "remote monitoring")},
		{Label: "Mobile App Data", Triggers: Keywords("mobile app", "smartphone app", "application data", "app-based")},
	}
}

// Populations returns the ordered population categories. Unlike study
// design and data source, population classification keeps every match.
func Populations() []Category {
	return []Category{
		{Label: "General Adult Population", Triggers: Keywords("adult", "adults", "general population")},
		{Label: "Pediatric/Youth", Triggers: Keywords("pediatric", "children", "adolescent", "youth", "child", "teen")},
		{Label: "Elderly", Triggers: Keywords("elderly", "older adult", "geriatric", "senior", "aged 65", "65 years and older")},
		{Label: "Veterans", Triggers: Keywords("veteran", "military", "service member", "armed forces")},
		{Label: "Rural Population", Triggers: Keywords("rural", "remote area", "underserved area")},
		{Label: "Urban Population", Triggers: Keywords("urban", "city", "metropolitan")},
		{Label: "Low-Income", Triggers: Keywords("low income", "low-income", "poverty", "disadvantaged", "medicaid")},
		{Label: "Chronic Disease Patients", Triggers: Keywords("chronic disease", "chronic condition", "chronic illness")},
		{Label: "Mental Health Patients", Triggers: Keywords("mental health", "psychiatric", "depression", "anxiety", "psychological")},
		{Label: "Healthcare Providers", Triggers: Keywords("provider", "physician", "clinician", "doctor", "nurse", "healthcare professional")},
		{Label: "Specific Ethnic Groups", Triggers: Keywords("ethnic", "racial", "minority", "hispanic", "latino", "african american", "black", "asian")},
		{Label: "Pregnant Women", Triggers: Keywords("pregnant", "pregnancy", "maternal", "prenatal")},
		{Label: "COVID-19 Patients", Triggers: Keywords("covid", "covid-19", "coronavirus", "sars-cov-2", "pandemic patient")},
	}
}

// OtherMeasureCategory labels measure candidates that match no specific
// category.
const OtherMeasureCategory = "Other/Undefined"

// MeasureCategories returns the ordered measure categories. A candidate
// sentence can match several.
func MeasureCategories() []Category {
	return []Category{
		{Label: "Binary", Triggers: Keywords("binary", "yes/no", "yes or no", "presence", "absence", "used or not", "adoption", "implemented")},
		{Label: "Percentage", Triggers: Keywords("percentage", "percent", "%", "proportion", "ratio")},
		{Label: "Rate", Triggers: Keywords("rate", "per patient", "per visit", "per provider", "per day", "per month", "per year")},
		{Label: "Count", Triggers: Keywords("count", "number", "frequency", "volume", "quantity")},
	}
}

// DomainTerms returns the telehealth vocabulary a sentence must mention to
// qualify as a measure candidate.
func DomainTerms() []Matcher {
	return Keywords("telehealth", "telemedicine", "virtual care", "video visit",
		"remote monitoring", "telemonitoring", "ehealth", "e-health",
		"virtual visit", "remote consultation", "teleconsultation")
}

// MeasurementTerms returns the measurement vocabulary a candidate sentence
// must mention alongside a domain term.
func MeasurementTerms() []Matcher {
	return Keywords("utilization", "usage", "use", "adoption", "implementation",
		"rate", "percentage", "proportion", "number", "count", "frequency",
		"visits", "consultations", "encounters", "sessions")
}

// AbstractStudyDesigns returns the ordered study design rules for abstracts
// fetched from PubMed. Primary is the abstract text, secondary is the
// article type string.
func AbstractStudyDesigns() []ScopedRule {
	return []ScopedRule{
		{Label: "Randomized Controlled Trial (RCT)", Primary: Keywords("rct"), Secondary: Keywords("randomized controlled trial")},
		{Label: "Cohort Study", Primary: Keywords("cohort", "longitudinal")},
		{Label: "Case-Control Study", Primary: Keywords("case-control")},
		{Label: "Cross-Sectional Study", Primary: Keywords("cross-sectional")},
		{Label: "Qualitative Study", Primary: Keywords("qualitative", "interview", "focus group")},
		{Label: "Systematic Review", Either: Keywords("systematic review")},
		{Label: "Meta-Analysis", Either: Keywords("meta-analysis")},
		{Label: "Review Article", Secondary: Keywords("review")},
		{Label: "Retrospective Study", Primary: Keywords("retrospective")},
		{Label: "Prospective Study", Primary: Keywords("prospective")},
	}
}

// AbstractDataSources returns the ordered data source rules for abstracts.
// Primary is the abstract text, secondary is the MeSH term string.
func AbstractDataSources() []ScopedRule {
	return []ScopedRule{
		{Label: "Electronic Health Records (EHR)", Either: Keywords("electronic health record", "ehr", "emr", "electronic medical record")},
		{Label: "Insurance Claims Data", Either: Keywords("claims data", "insurance claims", "medicare claims", "medicaid claims")},
		{Label: "Survey/Questionnaire", Either: Keywords("survey", "questionnaire", "self-report")},
		{Label: "Qualitative (Interviews/Focus Groups)", Either: Keywords("interview", "focus group", "qualitative")},
		{Label: "Registry/Database", Either: Keywords("registry", "database", "data repository")},
		{Label: "Veterans Health Administration (VHA) Data", Either: Keywords("veterans"), Primary: Keywords("va")},
	}
}
