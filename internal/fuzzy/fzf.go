package fuzzy

import (
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Slab sizes match fzf's own defaults.
const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

var (
	algoInit sync.Once

	// Slabs are scratch space for FuzzyMatchV2 and must not be shared
	// between concurrent calls.
	slabPool = sync.Pool{
		New: func() any { return util.MakeSlab(slab16Size, slab32Size) },
	}
)

// FuzzyScore returns fzf's match score of pattern within text, scaled so a
// perfect match of the pattern against itself scores 100. Returns 0 when
// pattern is not a subsequence of text.
func FuzzyScore(pattern, text string) float64 {
	if pattern == "" || text == "" {
		return 0
	}
	algoInit.Do(func() { algo.Init("default") })

	p := []rune(strings.ToLower(pattern))

	slab := slabPool.Get().(*util.Slab)
	defer slabPool.Put(slab)

	input := util.ToChars([]byte(strings.ToLower(text)))
	got, _ := algo.FuzzyMatchV2(false, true, true, &input, p, false, slab)
	if got.Start < 0 || got.Score <= 0 {
		return 0
	}

	self := util.ToChars([]byte(string(p)))
	perfect, _ := algo.FuzzyMatchV2(false, true, true, &self, p, false, slab)
	if perfect.Score <= 0 {
		return 0
	}

	score := 100 * float64(got.Score) / float64(perfect.Score)
	if score > 100 {
		score = 100
	}
	return score
}
