// Package divik implements DiviK: divisive, recursive clustering of
// high-dimensional numeric data such as pixel spectra in imaging.
//
// At each level of the recursion DiviK filters uninformative features with a
// Gaussian-mixture-based selector, discovers the best-supported number of
// groups with an automatically tuned k-means, splits the data and recurses
// into each sufficiently large group. The output is a partition tree plus a
// flat label vector over the original rows.
//
// Basic usage:
//
//	cfg := divik.DefaultConfig()
//	cfg.MaxClusters = 5
//	result, err := divik.Fit(data, cfg)
//	// result.Labels[i] is the final cluster ID for row i
//	// result.Root is the partition tree (nil when the data never split)
//
// The building blocks are exported and usable on their own:
//
//   - [HighAbundanceAndVarianceSelector] and [GMMSelector] perform
//     unsupervised feature filtering.
//   - [AutoKMeans] fits candidate clusterings over a range of cluster counts
//     and picks the best-supported one.
//   - [Picker] is the pluggable scoring strategy; [GapPicker] (default) uses
//     the gap statistic with bootstrap references, [DunnPicker] uses a
//     centroid-based Dunn index.
//
// All randomized steps are driven by explicit seeds threaded through the
// call tree, so results are reproducible for a fixed Config.RandomSeed
// regardless of the worker count.
package divik
