package divik

import (
	"math"
	"testing"
)

func TestDunnIndexSeparatedBlobs(t *testing.T) {
	data := twoBlobs(newRand(30), 25, [2]float64{0, 0}, [2]float64{100, 100}, 1.0)
	two := fitKMeansRestarts(data, 2, 10, 300, 1e-4, 3, 1)

	score := dunnIndex(data, two)
	if math.IsNaN(score) {
		t.Fatal("expected a finite Dunn index")
	}
	// Separation ~141 against radii of a few units.
	if score < 1 {
		t.Errorf("well-separated blobs should score high, got %g", score)
	}

	one := singleClusterKMeans(data)
	if !math.IsNaN(dunnIndex(data, one)) {
		t.Error("a single-cluster candidate has no Dunn index")
	}
}

func TestDunnPickerScoreAndSelect(t *testing.T) {
	data := twoBlobs(newRand(31), 25, [2]float64{0, 0}, [2]float64{100, 100}, 1.0)
	candidates := []*KMeans{
		singleClusterKMeans(data),
		fitKMeansRestarts(data, 2, 10, 300, 1e-4, 3, 1),
		fitKMeansRestarts(data, 3, 10, 300, 1e-4, 3, 1),
	}
	p := &DunnPicker{}

	scores, err := p.Score(data, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(scores[0]) {
		t.Errorf("k=1 candidate should score NaN, got %g", scores[0])
	}

	winner, ok := p.Select(scores)
	if !ok {
		t.Fatal("expected a winner")
	}
	if candidates[winner].NClusters != 2 {
		t.Errorf("want the k=2 candidate, got k=%d (scores %v)", candidates[winner].NClusters, scores)
	}
}

func TestDunnPickerSelectRules(t *testing.T) {
	p := &DunnPicker{}
	tests := []struct {
		name    string
		scores  []float64
		wantIdx int
		wantOK  bool
	}{
		{"argmax", []float64{0.1, 0.9, 0.5}, 1, true},
		{"tie prefers smaller count", []float64{0.5, 0.5}, 0, true},
		{"NaN skipped", []float64{math.NaN(), 0.2}, 1, true},
		{"all NaN", []float64{math.NaN()}, -1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			idx, ok := p.Select(tc.scores)
			if idx != tc.wantIdx || ok != tc.wantOK {
				t.Errorf("Select(%v) = (%d, %v), want (%d, %v)", tc.scores, idx, ok, tc.wantIdx, tc.wantOK)
			}
		})
	}
}

func TestDunnPickerParallelMatchesSequential(t *testing.T) {
	data := twoBlobs(newRand(32), 25, [2]float64{0, 0}, [2]float64{50, 50}, 1.0)
	candidates := []*KMeans{
		fitKMeansRestarts(data, 2, 10, 300, 1e-4, 3, 1),
		fitKMeansRestarts(data, 3, 10, 300, 1e-4, 3, 1),
		fitKMeansRestarts(data, 4, 10, 300, 1e-4, 3, 1),
	}

	sequential, err := (&DunnPicker{Workers: 1}).Score(data, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parallel, err := (&DunnPicker{Workers: 3}).Score(data, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range sequential {
		if sequential[i] != parallel[i] {
			t.Errorf("score[%d] differs across worker counts: %g vs %g", i, sequential[i], parallel[i])
		}
	}
}
