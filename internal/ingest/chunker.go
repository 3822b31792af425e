package ingest

import "strings"

// Default chunking parameters, overridable via configuration.
const (
	DefaultMaxChunkSize = 700
	DefaultOverlap      = 100
)

// Chunk splits text into an ordered sequence of sentence-aligned chunks.
// Sentences accumulate into a buffer until adding the next one would exceed
// maxSize characters, at which point the buffer is emitted. A new buffer is
// seeded with the trailing sentences of the previous chunk, up to overlap
// characters, so adjacent chunks share context.
//
// The function is pure and deterministic: the same input always yields the
// same sequence. Empty or whitespace-only input yields zero chunks. A single
// sentence longer than maxSize is emitted whole rather than truncated.
func Chunk(text string, maxSize, overlap int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var buffer []string
	bufferLen := 0

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(buffer, " "))
		buffer = overlapTail(buffer, overlap)
		bufferLen = joinedLen(buffer)
	}

	for _, sentence := range sentences {
		added := len(sentence)
		if len(buffer) > 0 {
			added++ // joining space
		}
		if len(buffer) > 0 && bufferLen+added > maxSize {
			flush()
			added = len(sentence)
			if len(buffer) > 0 {
				added++
			}
		}
		buffer = append(buffer, sentence)
		bufferLen += added
	}

	if len(buffer) > 0 {
		chunks = append(chunks, strings.Join(buffer, " "))
	}

	return chunks
}

// splitSentences splits text on period boundaries, trimming whitespace and
// dropping empties. The terminating period is kept on each sentence.
func splitSentences(text string) []string {
	parts := strings.Split(text, ".")
	sentences := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// The final fragment may legitimately lack a period.
		if i < len(parts)-1 {
			part += "."
		}
		sentences = append(sentences, part)
	}
	return sentences
}

// overlapTail returns the trailing sentences of buffer whose joined length
// fits within overlap characters.
func overlapTail(buffer []string, overlap int) []string {
	if overlap <= 0 {
		return nil
	}
	total := 0
	start := len(buffer)
	for i := len(buffer) - 1; i >= 0; i-- {
		added := len(buffer[i])
		if total > 0 {
			added++
		}
		if total+added > overlap {
			break
		}
		total += added
		start = i
	}
	if start == len(buffer) {
		return nil
	}
	return append([]string(nil), buffer[start:]...)
}

func joinedLen(parts []string) int {
	if len(parts) == 0 {
		return 0
	}
	total := len(parts) - 1 // joining spaces
	for _, p := range parts {
		total += len(p)
	}
	return total
}
