package rag

import "strings"

// Score computes keyword-overlap relevance between a query and a chunk text.
// Both strings are lower-cased and split on whitespace into word sets; the
// score is the fraction of distinct query words present in the chunk, always
// in [0,1]. An empty query scores 0 against everything.
//
// This is a deliberately simple bag-of-words measure; the vector retrieval
// mode provides an embedding-based alternative behind the same contract.
func Score(query, chunkText string) float64 {
	queryWords := wordSet(query)
	if len(queryWords) == 0 {
		return 0
	}

	chunkWords := wordSet(chunkText)
	if len(chunkWords) == 0 {
		return 0
	}

	matched := 0
	for word := range queryWords {
		if _, ok := chunkWords[word]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(queryWords))
}

// wordSet lower-cases text and collapses it into a set of whitespace-
// separated words.
func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
