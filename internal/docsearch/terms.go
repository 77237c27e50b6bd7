package docsearch

import "strings"

// Medical vocabulary used to derive search terms from a free-text question.
// The lists are process-wide, read-only constants grouped by what they
// describe; Terms() is the only consumer.
var (
	examTypeTerms = []string{
		"vision", "hearing", "drug", "screen", "test", "examination",
		"medical", "fitness", "certificate", "physical",
	}

	resultStatusTerms = []string{
		"fit", "unfit", "pass", "fail", "normal", "abnormal",
		"positive", "negative", "clear", "restriction",
	}

	bodySystemTerms = []string{
		"blood", "urine", "lung", "heart", "eye", "ear",
		"pressure", "sugar", "cholesterol",
	}

	followUpTerms = []string{
		"follow", "recheck", "monitor", "condition", "problem",
		"issue", "concern",
	}
)

// ExtractSearchTerms derives the deduplicated term set for a query: every
// vocabulary term the query mentions, plus every query token longer than two
// characters (names, id numbers, free-form terms).
func ExtractSearchTerms(query string) []string {
	lowered := strings.ToLower(query)
	seen := make(map[string]struct{})
	var terms []string

	add := func(term string) {
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	for _, group := range [][]string{examTypeTerms, resultStatusTerms, bodySystemTerms, followUpTerms} {
		for _, term := range group {
			if strings.Contains(lowered, term) {
				add(term)
			}
		}
	}

	for _, word := range strings.Fields(lowered) {
		if len(word) > 2 {
			add(word)
		}
	}

	return terms
}
