package divik

import (
	"testing"
)

func TestAutoKMeansTwoBlobs(t *testing.T) {
	data := twoBlobs(newRand(10), 50, [2]float64{0, 0}, [2]float64{100, 100}, 1.0)

	a := &AutoKMeans{MinClusters: 2, MaxClusters: 2, RandomSeed: 1}
	if err := a.Fit(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.NClusters != 2 {
		t.Fatalf("NClusters: want 2, got %d", a.NClusters)
	}

	// Zero misassignment: each blob uniformly labeled, labels distinct.
	first, second := a.Labels[0], a.Labels[50]
	if first == second {
		t.Fatal("blobs were not separated")
	}
	for i := 0; i < 50; i++ {
		if a.Labels[i] != first {
			t.Errorf("row %d of blob one mislabeled", i)
		}
	}
	for i := 50; i < 100; i++ {
		if a.Labels[i] != second {
			t.Errorf("row %d of blob two mislabeled", i)
		}
	}
	if len(a.ClusterCenters) != 2 {
		t.Errorf("want 2 centers, got %d", len(a.ClusterCenters))
	}
}

func TestAutoKMeansBaselineCandidate(t *testing.T) {
	data := twoBlobs(newRand(11), 30, [2]float64{0, 0}, [2]float64{50, 50}, 1.0)
	a := &AutoKMeans{MinClusters: 2, MaxClusters: 4, RandomSeed: 2}
	if err := a.Fit(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A k=1 baseline is prepended so the picker can prefer "no split".
	if len(a.Estimators) != 4 {
		t.Fatalf("want 4 estimators (k=1 baseline + k=2..4), got %d", len(a.Estimators))
	}
	if a.Estimators[0].NClusters != 1 {
		t.Errorf("first estimator should be the k=1 baseline, got k=%d", a.Estimators[0].NClusters)
	}
	for i, est := range a.Estimators {
		if !allLabelsUsed(est.Labels, est.NClusters) {
			t.Errorf("estimator %d (k=%d) has unused labels", i, est.NClusters)
		}
	}
	if len(a.Scores) != len(a.Estimators) {
		t.Errorf("scores length %d does not match estimators %d", len(a.Scores), len(a.Estimators))
	}
	if a.NClusters != 2 {
		t.Errorf("NClusters: want 2 for two blobs, got %d", a.NClusters)
	}
}

func TestAutoKMeansHomogeneousBlob(t *testing.T) {
	rng := newRand(12)
	data := make([][]float64, 200)
	for i := range data {
		data[i] = []float64{rng.NormFloat64(), rng.NormFloat64()}
	}

	a := &AutoKMeans{MinClusters: 2, MaxClusters: 4, RandomSeed: 3}
	if err := a.Fit(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.NClusters != 1 {
		t.Errorf("NClusters: want 1 for a homogeneous blob, got %d", a.NClusters)
	}
	for i, label := range a.Labels {
		if label != 0 {
			t.Fatalf("label[%d]: want 0, got %d", i, label)
		}
	}
}

func TestAutoKMeansDegenerateInputs(t *testing.T) {
	t.Run("fewer rows than MinClusters", func(t *testing.T) {
		data := [][]float64{{0, 1}, {2, 3}, {4, 5}}
		a := &AutoKMeans{MinClusters: 5, MaxClusters: 8}
		if err := a.Fit(data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.NClusters != 1 {
			t.Errorf("NClusters: want 1, got %d", a.NClusters)
		}
	})
	t.Run("zero variance", func(t *testing.T) {
		data := make([][]float64, 10)
		for i := range data {
			data[i] = []float64{7, 7}
		}
		a := &AutoKMeans{MinClusters: 2, MaxClusters: 4}
		if err := a.Fit(data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.NClusters != 1 {
			t.Errorf("NClusters: want 1, got %d", a.NClusters)
		}
	})
	t.Run("single row", func(t *testing.T) {
		a := &AutoKMeans{MinClusters: 1, MaxClusters: 3}
		if err := a.Fit([][]float64{{1, 2}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.NClusters != 1 || len(a.Labels) != 1 {
			t.Errorf("want a single-cluster result, got k=%d labels=%v", a.NClusters, a.Labels)
		}
	})
}

func TestAutoKMeansValidation(t *testing.T) {
	tests := []struct {
		name string
		a    *AutoKMeans
	}{
		{"negative MinClusters", &AutoKMeans{MinClusters: -1, MaxClusters: 3}},
		{"MaxClusters below MinClusters", &AutoKMeans{MinClusters: 5, MaxClusters: 3}},
		{"negative restarts", &AutoKMeans{MinClusters: 2, MaxClusters: 3, NRestarts: -2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.a.Fit([][]float64{{1}, {2}, {3}}); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
	t.Run("zero rows", func(t *testing.T) {
		a := &AutoKMeans{MinClusters: 2, MaxClusters: 3}
		if err := a.Fit(nil); err == nil {
			t.Error("expected an error for zero rows")
		}
	})
}

func TestAutoKMeansSegmentationMatrix(t *testing.T) {
	data := twoBlobs(newRand(13), 20, [2]float64{0, 0}, [2]float64{40, 40}, 1.0)
	a := &AutoKMeans{MinClusters: 2, MaxClusters: 3, RandomSeed: 4}
	if err := a.Fit(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matrix := a.SegmentationMatrix()
	if len(matrix) != 40 {
		t.Fatalf("want 40 rows, got %d", len(matrix))
	}
	for i, row := range matrix {
		if len(row) != len(a.Estimators) {
			t.Fatalf("row %d: want %d columns, got %d", i, len(a.Estimators), len(row))
		}
	}
	// Column c replays estimator c's labels.
	for c, est := range a.Estimators {
		for i := range matrix {
			if matrix[i][c] != est.Labels[i] {
				t.Fatalf("matrix[%d][%d] = %d, estimator says %d", i, c, matrix[i][c], est.Labels[i])
			}
		}
	}
}

func TestAutoKMeansReport(t *testing.T) {
	data := twoBlobs(newRand(14), 20, [2]float64{0, 0}, [2]float64{40, 40}, 1.0)
	a := &AutoKMeans{MinClusters: 2, MaxClusters: 3, RandomSeed: 5}
	if err := a.Fit(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report := a.Report()
	if len(report) != len(a.Estimators) {
		t.Fatalf("report rows: want %d, got %d", len(a.Estimators), len(report))
	}
	for i, row := range report {
		if row.NClusters != a.Estimators[i].NClusters {
			t.Errorf("report[%d].NClusters = %d, estimator says %d", i, row.NClusters, a.Estimators[i].NClusters)
		}
		if row.Score != a.Scores[i] {
			t.Errorf("report[%d].Score = %g, scores say %g", i, row.Score, a.Scores[i])
		}
	}
}
