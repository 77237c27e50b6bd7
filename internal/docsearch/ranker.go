package docsearch

import (
	"sort"
	"strings"
)

// Relevance weights. Structured and certificate fields outrank raw OCR text
// because they represent machine-validated extraction rather than noisy
// scanner output; the exact-phrase bonus dominates term-scatter. The relative
// ordering matters, the exact constants are tunable.
const (
	rawContentWeight  = 1
	structuredWeight  = 3
	certificateWeight = 5
	exactPhraseBonus  = 10
	medicalTypeBonus  = 2
)

// Document type labels that earn the medical-type bonus.
var medicalTypeKeywords = []string{"medical", "certificate", "examination", "fitness", "health"}

// Rank scores each candidate against the query's search terms and returns
// the relevant ones sorted validated-first, then by descending score, then by
// document ID for a stable order. Documents scoring zero are excluded
// entirely.
func Rank(candidates []CandidateDocument, query string, terms []string) []ScoredDocument {
	queryLower := strings.ToLower(query)

	scored := make([]ScoredDocument, 0, len(candidates))
	for _, doc := range candidates {
		score := relevanceScore(doc, queryLower, terms)
		if score == 0 {
			continue
		}
		scored = append(scored, ScoredDocument{CandidateDocument: doc, RelevanceScore: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		iValidated := scored[i].ValidationStatus == StatusValidated
		jValidated := scored[j].ValidationStatus == StatusValidated
		if iValidated != jValidated {
			return iValidated
		}
		if scored[i].RelevanceScore != scored[j].RelevanceScore {
			return scored[i].RelevanceScore > scored[j].RelevanceScore
		}
		return scored[i].ID < scored[j].ID
	})

	return scored
}

func relevanceScore(doc CandidateDocument, queryLower string, terms []string) int {
	raw, structured, certificate := doc.searchableContent()

	score := 0
	for _, term := range terms {
		term = strings.ToLower(term)
		if term == "" {
			continue
		}
		score += strings.Count(raw, term) * rawContentWeight
		score += strings.Count(structured, term) * structuredWeight
		score += strings.Count(certificate, term) * certificateWeight
	}

	combined := raw + " " + structured + " " + certificate
	if queryLower != "" && strings.Contains(combined, queryLower) {
		score += exactPhraseBonus
	}

	docType := strings.ToLower(doc.Extracted.DocumentType)
	if docType == "" {
		docType = strings.ToLower(doc.DocumentType)
	}
	for _, keyword := range medicalTypeKeywords {
		if strings.Contains(docType, keyword) {
			score += medicalTypeBonus
			break
		}
	}

	return score
}
