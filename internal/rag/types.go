package rag

import "fmt"

// Retrieval is the transient result of one retrieval pass: ordered context
// texts and their de-duplicated citations. It is assembled per query and
// discarded after the response is built.
type Retrieval struct {
	// Contexts are chunk texts ordered by descending relevance.
	Contexts []string
	// Citations reference the source of each context, de-duplicated while
	// preserving first-seen order.
	Citations []string
}

// Empty reports whether the retrieval produced no usable context.
func (r Retrieval) Empty() bool {
	return len(r.Contexts) == 0
}

// Citation renders the human-readable reference for a chunk. The index shown
// is 1-based.
func Citation(filename string, chunkIndex int) string {
	return fmt.Sprintf("%s (chunk %d)", filename, chunkIndex+1)
}
