package outline

import (
	"sort"

	"github.com/dgallion1/docrank/internal/doc"
)

// tierMap orders the distinct font signatures of accepted candidates and
// maps the top three to H1/H2/H3. A signature is (rounded size, bold):
// equal sizes split by boldness, bolder sorting shallower. Signatures
// past the third tier clamp to H3; fewer signatures compress (two
// signatures produce H1/H2 only).
type tierMap struct {
	sigs []tierSig
}

type tierSig struct {
	size float64
	bold bool
}

func buildTierMap(cands []doc.HeadingCandidate) tierMap {
	seen := make(map[tierSig]int)
	var sigs []tierSig
	for i, c := range cands {
		sig := tierSig{size: roundSize(c.Block.FontSize), bold: c.Block.Bold}
		if _, ok := seen[sig]; !ok {
			seen[sig] = i // first occurrence keeps sort stable
			sigs = append(sigs, sig)
		}
	}
	sort.SliceStable(sigs, func(i, j int) bool {
		if sigs[i].size != sigs[j].size {
			return sigs[i].size > sigs[j].size
		}
		if sigs[i].bold != sigs[j].bold {
			return sigs[i].bold
		}
		return seen[sigs[i]] < seen[sigs[j]]
	})
	return tierMap{sigs: sigs}
}

// tierFor returns the raw tier (1..3) for a candidate's signature.
func (m tierMap) tierFor(c doc.HeadingCandidate) int {
	sig := tierSig{size: roundSize(c.Block.FontSize), bold: c.Block.Bold}
	for i, s := range m.sigs {
		if s == sig {
			if i > 2 {
				return 3
			}
			return i + 1
		}
	}
	return 3
}

// levelStack is the level-smoothing state machine. It tracks the open
// heading levels and clamps skips so no heading is emitted more than one
// level deeper than the nearest preceding shallower heading. Restartable
// via Reset.
type levelStack struct {
	open []int
}

func (s *levelStack) Reset() {
	s.open = s.open[:0]
}

// Push accepts a raw tier (1..3) and returns the emitted level after
// popping closed levels and clamping skips.
func (s *levelStack) Push(raw int) int {
	for len(s.open) > 0 && s.open[len(s.open)-1] >= raw {
		s.open = s.open[:len(s.open)-1]
	}
	level := raw
	if top := s.top(); level > top+1 {
		level = top + 1
	}
	s.open = append(s.open, level)
	return level
}

func (s *levelStack) top() int {
	if len(s.open) == 0 {
		return 0
	}
	return s.open[len(s.open)-1]
}

func levelForTier(tier int) doc.Level {
	switch tier {
	case 1:
		return doc.LevelH1
	case 2:
		return doc.LevelH2
	case 3:
		return doc.LevelH3
	}
	return doc.LevelNone
}
