package tutor

// CalculateScore reduces a session's ledger to a single score in [0,1]
// for one grade source. nil means the session is not yet scorable for
// that source. Pure function of the session's responses; no store
// access, no mutation.
//
// Policy:
//   - every response must carry at least one graded entry for the
//     source, otherwise the whole session is unscorable (nil)
//   - per expectation index, the score is the mean of Good=1,
//     Neutral=0.5, Bad=0 over the responses graded at that index;
//     ungraded entries are excluded, not counted as zero
//   - the session score is the mean over expectation indices that
//     received at least one grade; an index graded nowhere contributes
//     no term
//   - invalidated entries count as ungraded throughout
//
// An index structurally absent from a response (short expectationScores
// slice) and an empty-string entry are equivalent: both ungraded.
func CalculateScore(s Session, field GradeField) *float64 {
	if len(s.UserResponses) == 0 {
		return nil
	}
	var sums []float64
	var counts []int
	for _, r := range s.UserResponses {
		graded := false
		for j, es := range r.ExpectationScores {
			if !es.Graded(field) {
				continue
			}
			graded = true
			for len(sums) <= j {
				sums = append(sums, 0)
				counts = append(counts, 0)
			}
			sums[j] += es.grade(field).points()
			counts[j]++
		}
		// each response needs at least one grade
		if !graded {
			return nil
		}
	}
	total := 0.0
	n := 0
	for j := range sums {
		if counts[j] == 0 {
			continue
		}
		total += sums[j] / float64(counts[j])
		n++
	}
	if n == 0 {
		return nil
	}
	score := total / float64(n)
	return &score
}
