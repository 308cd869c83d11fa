package quizgen

import (
	"learnnest/internal/domain"
)

// DefaultMaxChunkChars is the window size used when callers pass a non-positive limit.
const DefaultMaxChunkChars = 12000

// sentenceCutRatio is how far into a window the last period must sit before we
// prefer it over a hard cut.
const sentenceCutRatio = 0.6

// Chunk splits text into ordered, non-overlapping windows of at most maxChars
// characters. A window that does not reach the end of the text is cut just after
// its last period when that period lies at or beyond 60% of maxChars, otherwise it is
// cut at maxChars. Offsets count runes, so multi-byte text is never split inside
// a character.
func Chunk(text string, maxChars int) []domain.Chunk {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}

	runes := []rune(text)
	threshold := int(float64(maxChars) * sentenceCutRatio)

	var chunks []domain.Chunk
	for start := 0; start < len(runes); {
		end := min(start+maxChars, len(runes))
		if end < len(runes) {
			if cut := lastPeriod(runes[start:end]); cut >= threshold {
				end = start + cut + 1
			}
		}
		chunks = append(chunks, domain.Chunk{
			Text:   string(runes[start:end]),
			Start:  start,
			End:    end,
			Weight: end - start,
		})
		start = end
	}
	return chunks
}

// lastPeriod returns the index of the last '.' in window, or -1.
func lastPeriod(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' {
			return i
		}
	}
	return -1
}

// chunkWeights extracts the weight of every chunk.
func chunkWeights(chunks []domain.Chunk) []int {
	weights := make([]int, len(chunks))
	for i, c := range chunks {
		weights[i] = c.Weight
	}
	return weights
}
