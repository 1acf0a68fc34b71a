package bingo

import "sort"

// RankKey is what ranking compares: full completion first, then score.
type RankKey struct {
	Full  bool
	Score int
}

// KeyFor builds the rank key for a board against the drawn names.
func KeyFor(b Board, drawn []string) RankKey {
	score := CountBingoLines(b, drawn)
	return RankKey{Full: b.Complete() && score == MaxLines, Score: score}
}

func (k RankKey) less(o RankKey) bool {
	if k.Full != o.Full {
		return k.Full
	}
	return k.Score > o.Score
}

// SortByRank orders idx by the keys it points at, best first. The sort is stable.
func SortByRank(keys []RankKey) []int {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].less(keys[idx[b]])
	})
	return idx
}

// Ranks assigns competition ranks to keys that are already sorted best first.
// Equal keys share a rank; the next distinct key ranks at its position (1,2,3,3,3,6).
func Ranks(sorted []RankKey) []int {
	out := make([]int, len(sorted))
	for i, k := range sorted {
		if i > 0 && k == sorted[i-1] {
			out[i] = out[i-1]
			continue
		}
		out[i] = i + 1
	}
	return out
}
