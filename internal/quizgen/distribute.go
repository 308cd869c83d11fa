package quizgen

// Distribute splits total across parts in proportion to weights. Every part gets
// the floor of its weighted share; the leftover units are then handed out one at
// a time starting from part 0. The result always sums to total.
//
// Missing weights, a length mismatch, or a non-positive weight sum fall back to
// equal weights.
func Distribute(total, parts int, weights []int) []int {
	if parts <= 0 {
		return []int{}
	}
	if total < 0 {
		total = 0
	}

	sum := 0
	if len(weights) == parts {
		for _, w := range weights {
			if w > 0 {
				sum += w
			}
		}
	}
	if sum <= 0 {
		weights = make([]int, parts)
		for i := range weights {
			weights[i] = 1
		}
		sum = parts
	}

	out := make([]int, parts)
	assigned := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		out[i] = total * w / sum
		assigned += out[i]
	}

	for i := 0; assigned < total; i = (i + 1) % parts {
		out[i]++
		assigned++
	}
	return out
}
