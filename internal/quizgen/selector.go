package quizgen

import (
	"sort"

	"learnnest/internal/domain"
)

// Selection is the outcome of merging structural and semantic verdicts.
type Selection struct {
	Accepted     []domain.Question
	Rejected     []domain.RejectedQuestion
	Passed       int
	UsedFallback bool
}

// Select keeps the questions that the semantic validator marked valid and that
// have no structural or semantic reasons against them, in their original order,
// up to requested. When that leaves nothing but candidates exist, it instead
// returns the requested number of candidates with the fewest structural
// reasons, ties broken by original order.
//
// structural and semantic are index-aligned with questions; a missing semantic
// verdict counts as valid.
func Select(questions []domain.Question, structural [][]string, semantic []domain.ValidationVerdict, requested int) Selection {
	if requested < 0 {
		requested = 0
	}

	merged := make([]domain.ValidationVerdict, len(questions))
	for i, q := range questions {
		local := domain.ValidationVerdict{QuestionID: q.ID, Valid: true}
		if i < len(structural) {
			local.Reasons = structural[i]
		}
		remote := domain.ValidationVerdict{QuestionID: q.ID, Valid: true}
		if i < len(semantic) {
			remote.Valid = semantic[i].Valid
			remote.Reasons = semantic[i].Reasons
		}
		merged[i] = local.Merge(remote)
	}

	var sel Selection
	var passedIdx []int
	for i, v := range merged {
		if v.Valid && len(v.Reasons) == 0 {
			passedIdx = append(passedIdx, i)
		}
	}
	sel.Passed = len(passedIdx)

	chosen := passedIdx
	if len(chosen) > requested {
		chosen = chosen[:requested]
	}

	if len(chosen) == 0 && len(questions) > 0 && requested > 0 {
		sel.UsedFallback = true
		order := make([]int, len(questions))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return structuralCount(structural, order[a]) < structuralCount(structural, order[b])
		})
		chosen = order[:min(requested, len(order))]
		sort.Ints(chosen)
	}

	picked := make(map[int]struct{}, len(chosen))
	for _, i := range chosen {
		picked[i] = struct{}{}
		sel.Accepted = append(sel.Accepted, questions[i])
	}

	for i, v := range merged {
		if _, ok := picked[i]; ok {
			continue
		}
		if v.Valid && len(v.Reasons) == 0 {
			// Passed but cut by the requested count; not a rejection.
			continue
		}
		reasons := v.Reasons
		if len(reasons) == 0 {
			reasons = []string{"rejected by semantic validation"}
		}
		sel.Rejected = append(sel.Rejected, domain.RejectedQuestion{ID: questions[i].ID, Reasons: reasons})
	}
	return sel
}

func structuralCount(structural [][]string, i int) int {
	if i < len(structural) {
		return len(structural[i])
	}
	return 0
}
