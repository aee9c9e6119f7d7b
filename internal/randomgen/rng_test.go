package randomgen

import "testing"

func TestRNGDeterministicForSameSeed(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Uint32(), b.Uint32(); x != y {
			t.Fatalf("seeded RNGs diverged at step %d: %d != %d", i, x, y)
		}
	}
}

func TestRNGFloat64Bounds(t *testing.T) {
	r := NewRNG(1)
	for i := 0; i < 10000; i++ {
		f := r.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64() = %f, want [0,1)", f)
		}
	}
}

func TestIntRangeBounds(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 1000; i++ {
		n := r.IntRange(5, 10)
		if n < 5 || n > 10 {
			t.Fatalf("IntRange(5,10) = %d, out of bounds", n)
		}
	}
}

func TestWeightedPickRespectsZeroWeights(t *testing.T) {
	r := NewRNG(3)
	weights := []float64{0, 1, 0}
	for i := 0; i < 200; i++ {
		if idx := r.WeightedPick(weights); idx != 1 {
			t.Fatalf("WeightedPick chose index %d, want 1 (only nonzero weight)", idx)
		}
	}
}

func TestBoolEdgeProbabilities(t *testing.T) {
	r := NewRNG(9)
	for i := 0; i < 50; i++ {
		if r.Bool(0) {
			t.Fatal("Bool(0) returned true")
		}
		if !r.Bool(1) {
			t.Fatal("Bool(1) returned false")
		}
	}
}
