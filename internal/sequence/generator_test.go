package sequence

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/spotforge/spotforge-agent/internal/catalog"
)

func testCatalog() []catalog.Clip {
	return []catalog.Clip{
		{ID: "h1", Name: "Hook A", Duration: 2.5, Role: catalog.RoleHook},
		{ID: "h2", Name: "Hook B", Duration: 3.0, Role: catalog.RoleHook},
		{ID: "s1", Name: "SP1", Duration: 2.0, Role: catalog.RoleSellingPoint},
		{ID: "s2", Name: "SP2", Duration: 2.5, Role: catalog.RoleSellingPoint},
		{ID: "s3", Name: "SP3", Duration: 3.0, Role: catalog.RoleSellingPoint},
		{ID: "c1", Name: "CTA A", Duration: 2.0, Role: catalog.RoleCTA},
		{ID: "c2", Name: "CTA B", Duration: 2.5, Role: catalog.RoleCTA},
	}
}

func assertShape(t *testing.T, seq Sequence) {
	t.Helper()

	if len(seq.Clips) < 2 || len(seq.Clips) > 2+maxSellingPoints {
		t.Fatalf("sequence has %d clips", len(seq.Clips))
	}
	if seq.Clips[0].Role != catalog.RoleHook {
		t.Errorf("first clip role = %s, want hook", seq.Clips[0].Role)
	}
	if seq.Clips[len(seq.Clips)-1].Role != catalog.RoleCTA {
		t.Errorf("last clip role = %s, want cta", seq.Clips[len(seq.Clips)-1].Role)
	}
	for _, c := range seq.Clips[1 : len(seq.Clips)-1] {
		if c.Role != catalog.RoleSellingPoint {
			t.Errorf("middle clip %s role = %s, want selling_point", c.Name, c.Role)
		}
	}
}

func TestGenerate_FullCatalogYieldsTenUniqueSequences(t *testing.T) {
	// 2 hooks * 2 CTAs * 2^3 selling-point subsets = 32 combinations,
	// so generation must hit the ten-sequence target.
	seqs, err := Generate(testCatalog(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(seqs) != MaxSequences {
		t.Fatalf("len(seqs) = %d, want %d", len(seqs), MaxSequences)
	}

	keys := make(map[string]bool)
	for _, seq := range seqs {
		assertShape(t, seq)

		if seq.ID == "" {
			t.Error("sequence has empty id")
		}
		if seq.Duration < 6.5 || seq.Duration > 13.0 {
			t.Errorf("duration = %v, want between 6.5 and 13.0", seq.Duration)
		}

		key := dedupKey(seq.Clips[0], seq.Clips[1:len(seq.Clips)-1], seq.Clips[len(seq.Clips)-1])
		if keys[key] {
			t.Errorf("duplicate dedup key %q", key)
		}
		keys[key] = true
	}
}

func TestGenerate_DurationIsSumOfClipDurations(t *testing.T) {
	seqs, err := Generate(testCatalog(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, seq := range seqs {
		sum := 0.0
		for _, c := range seq.Clips {
			sum += c.Duration
		}
		if seq.Duration != sum {
			t.Errorf("sequence %s duration = %v, want %v", seq.ID, seq.Duration, sum)
		}
	}
}

func TestGenerate_NoHooks(t *testing.T) {
	clips := []catalog.Clip{
		{ID: "s1", Role: catalog.RoleSellingPoint},
		{ID: "c1", Role: catalog.RoleCTA},
	}

	_, err := Generate(clips, rand.New(rand.NewSource(1)))

	var insufficient *InsufficientInputError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %v, want InsufficientInputError", err)
	}
	if insufficient.Role != catalog.RoleHook {
		t.Errorf("missing role = %s, want hook", insufficient.Role)
	}
}

func TestGenerate_NoCTAs(t *testing.T) {
	clips := []catalog.Clip{
		{ID: "h1", Role: catalog.RoleHook},
		{ID: "s1", Role: catalog.RoleSellingPoint},
	}

	_, err := Generate(clips, rand.New(rand.NewSource(1)))

	var insufficient *InsufficientInputError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %v, want InsufficientInputError", err)
	}
	if insufficient.Role != catalog.RoleCTA {
		t.Errorf("missing role = %s, want cta", insufficient.Role)
	}
}

func TestGenerate_NoSellingPoints(t *testing.T) {
	// Selling points are optional: sequences collapse to [hook, cta].
	clips := []catalog.Clip{
		{ID: "h1", Duration: 2, Role: catalog.RoleHook},
		{ID: "h2", Duration: 3, Role: catalog.RoleHook},
		{ID: "c1", Duration: 1, Role: catalog.RoleCTA},
	}

	seqs, err := Generate(clips, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// 2 hooks * 1 CTA * 2^0 = 2 combinations.
	if len(seqs) != 2 {
		t.Fatalf("len(seqs) = %d, want 2", len(seqs))
	}
	for _, seq := range seqs {
		if len(seq.Clips) != 2 {
			t.Errorf("sequence has %d clips, want 2", len(seq.Clips))
		}
		assertShape(t, seq)
	}
}

func TestGenerate_SingleCombination(t *testing.T) {
	clips := []catalog.Clip{
		{ID: "h1", Duration: 2, Role: catalog.RoleHook},
		{ID: "c1", Duration: 1, Role: catalog.RoleCTA},
	}

	seqs, err := Generate(clips, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(seqs) != 1 {
		t.Fatalf("len(seqs) = %d, want 1", len(seqs))
	}
}

func TestGenerate_TerminatesWhenCombinationsUnreachable(t *testing.T) {
	// One hook, one CTA, one selling point: the combination formula counts
	// the empty selling-point subset (2 combinations) but draws always take
	// at least one selling point, so only one distinct sequence exists. The
	// stall bound must kick in rather than the loop spinning forever.
	clips := []catalog.Clip{
		{ID: "h1", Duration: 1, Role: catalog.RoleHook},
		{ID: "s1", Duration: 1, Role: catalog.RoleSellingPoint},
		{ID: "c1", Duration: 1, Role: catalog.RoleCTA},
	}

	seqs, err := Generate(clips, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(seqs) != 1 {
		t.Fatalf("len(seqs) = %d, want 1", len(seqs))
	}
}

func TestGenerate_SeededRNGIsReproducible(t *testing.T) {
	a, err := Generate(testCatalog(), rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := Generate(testCatalog(), rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		var aNames, bNames []string
		for _, c := range a[i].Clips {
			aNames = append(aNames, c.Name)
		}
		for _, c := range b[i].Clips {
			bNames = append(bNames, c.Name)
		}
		if !reflect.DeepEqual(aNames, bNames) {
			t.Errorf("sequence %d differs between seeded runs: %v vs %v", i, aNames, bNames)
		}
	}
}

func TestGenerate_DoesNotMutateInput(t *testing.T) {
	clips := testCatalog()
	original := make([]catalog.Clip, len(clips))
	copy(original, clips)

	if _, err := Generate(clips, rand.New(rand.NewSource(3))); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !reflect.DeepEqual(clips, original) {
		t.Error("Generate() mutated its input slice")
	}
}

func TestMaxCombinations(t *testing.T) {
	tests := []struct {
		name                       string
		hooks, sellingPoints, ctas int
		want                       int
	}{
		{name: "scenario", hooks: 2, sellingPoints: 3, ctas: 2, want: 32},
		{name: "no selling points", hooks: 2, sellingPoints: 0, ctas: 1, want: 2},
		{name: "single", hooks: 1, sellingPoints: 0, ctas: 1, want: 1},
		{name: "large pool clamps", hooks: 4, sellingPoints: 64, ctas: 4, want: combinationLimit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := maxCombinations(tc.hooks, tc.sellingPoints, tc.ctas)
			if got != tc.want {
				t.Fatalf("maxCombinations(%d, %d, %d) = %d, want %d",
					tc.hooks, tc.sellingPoints, tc.ctas, got, tc.want)
			}
		})
	}
}

func TestRetagAfterGenerationDoesNotChangeSequences(t *testing.T) {
	store := catalog.NewStore()
	hook := store.Add(catalog.Clip{Name: "Hook A", Duration: 2.5, Role: catalog.RoleHook})
	store.Add(catalog.Clip{Name: "CTA A", Duration: 2.0, Role: catalog.RoleCTA})

	seqs, err := Generate(store.Clips(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	store.Retag(hook.ID, catalog.RoleCTA)

	if seqs[0].Clips[0].Role != catalog.RoleHook {
		t.Error("retagging a catalog clip changed an already-generated sequence")
	}
	if seqs[0].Duration != 4.5 {
		t.Errorf("duration changed after retag: %v", seqs[0].Duration)
	}

	// Only a future generation sees the new tag: with no hooks left it fails.
	if _, err := Generate(store.Clips(), rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected generation to fail after the only hook was retagged")
	}
}
