package sequence

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/spotforge/spotforge-agent/internal/catalog"
)

const (
	// MaxSequences is the most sequences one generation run produces.
	MaxSequences = 10

	// maxSellingPoints bounds the middle of a sequence.
	maxSellingPoints = 3

	// maxStalledDraws bounds consecutive duplicate draws. Near combination
	// exhaustion random draws can keep colliding with keys already taken;
	// once this many draws in a row produce nothing new, generation stops
	// and returns what it has instead of spinning.
	maxStalledDraws = 1000

	// combinationLimit clamps the combination count so 2^n over a large
	// selling-point pool cannot overflow. The target count saturates at
	// MaxSequences long before this matters.
	combinationLimit = 1 << 30
)

// InsufficientInputError reports that generation cannot start because the
// catalog has no clip of a required role.
type InsufficientInputError struct {
	Role catalog.Role
}

func (e *InsufficientInputError) Error() string {
	return fmt.Sprintf("cannot generate sequences: no %s clips in catalog", e.Role)
}

// Generate draws up to MaxSequences structurally distinct sequences from a
// catalog snapshot. Two draws that pick the same hook, CTA and set of
// selling points count as duplicates even when the selling points were
// drawn in a different order; the produced sequence still keeps its drawn
// order. The catalog is not mutated.
//
// Randomness comes from the injected rng so callers can seed it for
// reproducible output.
func Generate(clips []catalog.Clip, rng *rand.Rand) ([]Sequence, error) {
	var hooks, sellingPoints, ctas []catalog.Clip
	for _, c := range clips {
		switch c.Role {
		case catalog.RoleHook:
			hooks = append(hooks, c)
		case catalog.RoleSellingPoint:
			sellingPoints = append(sellingPoints, c)
		case catalog.RoleCTA:
			ctas = append(ctas, c)
		}
	}

	if len(hooks) == 0 {
		return nil, &InsufficientInputError{Role: catalog.RoleHook}
	}
	if len(ctas) == 0 {
		return nil, &InsufficientInputError{Role: catalog.RoleCTA}
	}

	target := maxCombinations(len(hooks), len(sellingPoints), len(ctas))
	if target > MaxSequences {
		target = MaxSequences
	}

	seen := make(map[string]bool, target)
	sequences := make([]Sequence, 0, target)
	stalled := 0

	for len(sequences) < target && stalled < maxStalledDraws {
		hook := hooks[rng.Intn(len(hooks))]
		cta := ctas[rng.Intn(len(ctas))]
		chosen := drawSellingPoints(sellingPoints, rng)

		key := dedupKey(hook, chosen, cta)
		if seen[key] {
			stalled++
			continue
		}
		seen[key] = true
		stalled = 0

		seqClips := make([]catalog.Clip, 0, len(chosen)+2)
		seqClips = append(seqClips, hook)
		seqClips = append(seqClips, chosen...)
		seqClips = append(seqClips, cta)

		duration := 0.0
		for _, c := range seqClips {
			duration += c.Duration
		}

		sequences = append(sequences, Sequence{
			ID:       NewID(),
			Clips:    seqClips,
			Duration: duration,
		})
	}

	return sequences, nil
}

// drawSellingPoints picks a uniform count in 1..min(3, len(pool)), then
// that many clips by shuffling the pool and taking a prefix. An empty pool
// yields zero selling points.
func drawSellingPoints(pool []catalog.Clip, rng *rand.Rand) []catalog.Clip {
	if len(pool) == 0 {
		return nil
	}

	max := len(pool)
	if max > maxSellingPoints {
		max = maxSellingPoints
	}
	count := rng.Intn(max) + 1

	chosen := make([]catalog.Clip, 0, count)
	for _, idx := range rng.Perm(len(pool))[:count] {
		chosen = append(chosen, pool[idx])
	}
	return chosen
}

// dedupKey normalizes a draw's identity: selling-point order is irrelevant.
func dedupKey(hook catalog.Clip, sellingPoints []catalog.Clip, cta catalog.Clip) string {
	ids := make([]string, len(sellingPoints))
	for i, c := range sellingPoints {
		ids[i] = c.ID
	}
	sort.Strings(ids)
	return hook.ID + "|" + strings.Join(ids, ",") + "|" + cta.ID
}

// maxCombinations is |hooks| * |ctas| * 2^|sellingPoints|, the count of
// distinct {hook, selling-point subset, cta} triples, clamped to avoid
// overflow.
func maxCombinations(hooks, sellingPoints, ctas int) int {
	n := hooks * ctas
	if n <= 0 || n >= combinationLimit {
		return combinationLimit
	}
	for i := 0; i < sellingPoints; i++ {
		n *= 2
		if n >= combinationLimit {
			return combinationLimit
		}
	}
	return n
}
