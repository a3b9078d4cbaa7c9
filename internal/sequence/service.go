package sequence

import (
	"math/rand"
	"sync"

	"github.com/spotforge/spotforge-agent/internal/catalog"
)

// Generator wraps Generate with a shared random source. *rand.Rand is not
// safe for concurrent use, so draws are serialized here; generation is
// cheap and never blocks on IO.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

func (g *Generator) Generate(clips []catalog.Clip) ([]Sequence, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Generate(clips, g.rng)
}
