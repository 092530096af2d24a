package divik

// Picker scores a family of candidate clusterings of the same data and
// selects the best-supported one. Implementations are interchangeable
// strategies; AutoKMeans and the divisive driver are agnostic to which one
// is plugged in.
type Picker interface {
	// Score returns one scalar per candidate, higher is better. A candidate
	// whose internal statistics are numerically unstable gets NaN and is
	// excluded from selection; an error means no candidate could be scored.
	// Scoring is pure computation and may fan out over a worker pool.
	Score(data [][]float64, candidates []*KMeans) ([]float64, error)

	// Select applies the strategy's decision rule to pick the winning
	// candidate index. ok is false when no candidate qualifies, which
	// callers interpret as "do not split".
	Select(scores []float64) (index int, ok bool)

	// Report produces a diagnostic table of cluster count, score and
	// auxiliary statistics per candidate. It has no effect on Select.
	Report(candidates []*KMeans, scores []float64) []PickerReportRow
}

// PickerReportRow is one candidate's entry in a Picker diagnostic report.
type PickerReportRow struct {
	// NClusters is the candidate's cluster count.
	NClusters int

	// Score is the strategy's quality score for the candidate.
	Score float64

	// Dispersion is the candidate's within-cluster sum of squared distances.
	Dispersion float64
}

func pickerReport(candidates []*KMeans, scores []float64) []PickerReportRow {
	rows := make([]PickerReportRow, len(candidates))
	for i, cand := range candidates {
		rows[i] = PickerReportRow{
			NClusters:  cand.NClusters,
			Score:      scores[i],
			Dispersion: cand.Inertia,
		}
	}
	return rows
}
