package simulate

// Agreement is the fraction of book pairs the served ranking orders the same
// way as the hidden strengths. Equal skills count as half. 1 is a perfect
// recovery, 0.5 is what a coin would do.
func Agreement(entries []Entry, truth map[int64]int) float64 {
	var agree float64
	var pairs int
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			ta, okA := truth[a.ID]
			tb, okB := truth[b.ID]
			if !okA || !okB {
				continue
			}
			pairs++
			switch {
			case a.Skill == b.Skill:
				agree += 0.5
			case (a.Skill > b.Skill) == (ta > tb):
				agree++
			}
		}
	}
	if pairs == 0 {
		return 0
	}
	return agree / float64(pairs)
}
