package divik

import (
	"math"
	"math/rand"
	"testing"
)

// twoBlobs returns n points around each of two centers with the given noise,
// first blob first.
func twoBlobs(rng *rand.Rand, n int, c1, c2 [2]float64, sd float64) [][]float64 {
	data := make([][]float64, 0, 2*n)
	for _, c := range [][2]float64{c1, c2} {
		for i := 0; i < n; i++ {
			data = append(data, []float64{
				c[0] + rng.NormFloat64()*sd,
				c[1] + rng.NormFloat64()*sd,
			})
		}
	}
	return data
}

func TestFitKMeansTwoBlobs(t *testing.T) {
	data := twoBlobs(newRand(1), 25, [2]float64{0, 0}, [2]float64{10, 10}, 0.5)
	km := fitKMeansRestarts(data, 2, 10, 300, 1e-4, 99, 1)

	if km.NClusters != 2 {
		t.Fatalf("NClusters: want 2, got %d", km.NClusters)
	}
	if len(km.Labels) != 50 {
		t.Fatalf("labels length: want 50, got %d", len(km.Labels))
	}
	first := km.Labels[0]
	for i := 0; i < 25; i++ {
		if km.Labels[i] != first {
			t.Fatalf("blob one split across clusters at row %d", i)
		}
	}
	second := km.Labels[25]
	if second == first {
		t.Fatal("both blobs landed in the same cluster")
	}
	for i := 25; i < 50; i++ {
		if km.Labels[i] != second {
			t.Fatalf("blob two split across clusters at row %d", i)
		}
	}
}

func TestFitKMeansInertia(t *testing.T) {
	data := twoBlobs(newRand(2), 25, [2]float64{0, 0}, [2]float64{10, 10}, 0.5)
	one := singleClusterKMeans(data)
	two := fitKMeansRestarts(data, 2, 10, 300, 1e-4, 7, 1)
	if two.Inertia >= one.Inertia {
		t.Errorf("two clusters should fit tighter: k=1 inertia %g, k=2 inertia %g", one.Inertia, two.Inertia)
	}
	if two.Inertia <= 0 {
		t.Errorf("inertia should be positive for noisy data, got %g", two.Inertia)
	}
}

func TestFitKMeansAllLabelsUsed(t *testing.T) {
	tests := []struct {
		name string
		data [][]float64
		k    int
	}{
		{
			name: "more clusters than structure",
			data: twoBlobs(newRand(3), 10, [2]float64{0, 0}, [2]float64{5, 5}, 0.1),
			k:    4,
		},
		{
			name: "identical points",
			data: [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}},
			k:    2,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			km := fitKMeans(tc.data, tc.k, 300, 1e-4, newRand(5), 1)
			if !allLabelsUsed(km.Labels, tc.k) {
				t.Errorf("labels %v do not use every value in 0..%d", km.Labels, tc.k-1)
			}
		})
	}
}

func TestFitKMeansDeterminism(t *testing.T) {
	data := twoBlobs(newRand(4), 20, [2]float64{0, 0}, [2]float64{3, 3}, 1.0)

	a := fitKMeansRestarts(data, 3, 5, 300, 1e-4, 42, 1)
	b := fitKMeansRestarts(data, 3, 5, 300, 1e-4, 42, 4)
	if a.Inertia != b.Inertia {
		t.Fatalf("inertia differs across worker counts: %g vs %g", a.Inertia, b.Inertia)
	}
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			t.Fatalf("labels differ at row %d: %d vs %d", i, a.Labels[i], b.Labels[i])
		}
	}
}

func TestSingleClusterKMeans(t *testing.T) {
	data := [][]float64{{0, 0}, {2, 0}, {4, 6}}
	km := singleClusterKMeans(data)
	if km.NClusters != 1 {
		t.Fatalf("NClusters: want 1, got %d", km.NClusters)
	}
	for i, label := range km.Labels {
		if label != 0 {
			t.Errorf("label[%d]: want 0, got %d", i, label)
		}
	}
	wantCenter := []float64{2, 2}
	for j, want := range wantCenter {
		if math.Abs(km.ClusterCenters[0][j]-want) > 1e-12 {
			t.Errorf("center[%d]: want %g, got %g", j, want, km.ClusterCenters[0][j])
		}
	}
	// Total scatter: (4+4) + (0+4) + (4+16).
	if math.Abs(km.Inertia-32) > 1e-12 {
		t.Errorf("inertia: want 32, got %g", km.Inertia)
	}
}

func TestAllLabelsUsed(t *testing.T) {
	tests := []struct {
		name   string
		labels []int
		k      int
		want   bool
	}{
		{"complete", []int{0, 1, 2, 1}, 3, true},
		{"missing label", []int{0, 0, 2, 2}, 3, false},
		{"out of range", []int{0, 3}, 3, false},
		{"negative", []int{0, -1}, 2, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := allLabelsUsed(tc.labels, tc.k); got != tc.want {
				t.Errorf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestWithinDispersion(t *testing.T) {
	data := [][]float64{{0}, {2}, {10}, {12}}
	labels := []int{0, 0, 1, 1}
	centers := [][]float64{{1}, {11}}
	if got := withinDispersion(data, labels, centers); math.Abs(got-4) > 1e-12 {
		t.Errorf("dispersion: want 4, got %g", got)
	}
}
