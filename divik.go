package divik

import (
	"errors"
	"fmt"
	"sync"
)

// Config controls DiviK partitioning.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// MinClusters and MaxClusters bound the cluster-count search at every
	// node. MinClusters must be >= 1. Defaults: 2 and 10.
	MinClusters int
	MaxClusters int

	// NRestarts is the number of seeded k-means restarts per candidate
	// cluster count. Must be >= 1. Default: 10.
	NRestarts int

	// MaxComponents caps the Gaussian-mixture decomposition in feature
	// selection. Must be >= 1. Default: 10.
	MaxComponents int

	// MinFeatures is the minimum feature count that must survive selection
	// at every node. Default: 1.
	MinFeatures int

	// MinFeaturesRate is like MinFeatures but relative to the node's feature
	// count; the larger bound applies. Must be in [0, 1]. Default: 0.
	MinFeaturesRate float64

	// UseLog thresholds feature characteristics on a log scale. Requires
	// strictly positive means and variances. Default: false.
	UseLog bool

	// Picker is the scoring strategy that chooses the cluster count at every
	// node. Default: GapPicker seeded from RandomSeed.
	Picker Picker

	// MinSplitSize is the smallest region still considered for splitting.
	// Must be >= 2. Default: 2.
	MinSplitSize int

	// MaxDepth bounds the number of split levels; 0 means unbounded.
	// Default: 0.
	MaxDepth int

	// Workers controls the goroutine fan-out for candidate scoring and
	// sibling recursion. <= 1 runs strictly sequentially with identical
	// results. Default: 1.
	Workers int

	// RandomSeed makes every randomized step reproducible. Default: 0.
	RandomSeed int64
}

// Result is the output of DiviK partitioning.
type Result struct {
	// Root is the partition tree. It is nil when the data never split, in
	// which case every row shares label 0.
	Root *Node

	// Labels assigns each original row the ID of the leaf region it ended up
	// in; IDs are consecutive integers in depth-first tree order.
	Labels []int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MinClusters:   2,
		MaxClusters:   10,
		NRestarts:     10,
		MaxComponents: 10,
		MinFeatures:   1,
		MinSplitSize:  2,
		Workers:       1,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.MinClusters == 0 {
		cfg.MinClusters = 2
	}
	if cfg.MaxClusters == 0 {
		cfg.MaxClusters = 10
	}
	if cfg.NRestarts == 0 {
		cfg.NRestarts = 10
	}
	if cfg.MaxComponents == 0 {
		cfg.MaxComponents = 10
	}
	if cfg.MinFeatures == 0 {
		cfg.MinFeatures = 1
	}
	if cfg.MinSplitSize == 0 {
		cfg.MinSplitSize = 2
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Picker == nil {
		cfg.Picker = &GapPicker{Workers: cfg.Workers, RandomSeed: deriveSeed(cfg.RandomSeed, 0)}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.MinClusters < 1 {
		return fmt.Errorf("divik: MinClusters must be >= 1, got %d", cfg.MinClusters)
	}
	if cfg.MaxClusters < cfg.MinClusters {
		return fmt.Errorf("divik: MaxClusters must be >= MinClusters, got %d < %d", cfg.MaxClusters, cfg.MinClusters)
	}
	if cfg.NRestarts < 1 {
		return fmt.Errorf("divik: NRestarts must be >= 1, got %d", cfg.NRestarts)
	}
	if cfg.MaxComponents < 1 {
		return fmt.Errorf("divik: MaxComponents must be >= 1, got %d", cfg.MaxComponents)
	}
	if cfg.MinFeatures < 1 {
		return fmt.Errorf("divik: MinFeatures must be >= 1, got %d", cfg.MinFeatures)
	}
	if cfg.MinFeaturesRate < 0 || cfg.MinFeaturesRate > 1 {
		return fmt.Errorf("divik: MinFeaturesRate must be in [0, 1], got %f", cfg.MinFeaturesRate)
	}
	if cfg.MinSplitSize < 2 {
		return fmt.Errorf("divik: MinSplitSize must be >= 2, got %d", cfg.MinSplitSize)
	}
	if cfg.MaxDepth < 0 {
		return fmt.Errorf("divik: MaxDepth must be >= 0 (0 means unbounded), got %d", cfg.MaxDepth)
	}
	return nil
}

// Fit recursively partitions data and returns the partition tree together
// with the derived flat label vector. data is read-only for the whole
// recursion; every row must have the same column count.
func Fit(data [][]float64, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	n := len(data)
	if n == 0 {
		return nil, fmt.Errorf("divik: cannot fit on zero rows")
	}
	dims := len(data[0])
	if dims == 0 {
		return nil, fmt.Errorf("divik: cannot fit on zero columns")
	}
	for i, row := range data {
		if len(row) != dims {
			return nil, fmt.Errorf("divik: row %d has %d columns, expected %d", i, len(row), dims)
		}
	}

	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}

	root, err := divide(data, rows, &cfg, 0, cfg.RandomSeed)
	if err != nil {
		return nil, err
	}
	return &Result{Root: root, Labels: flatLabels(root, n)}, nil
}

// divide builds one node of the partition tree from the given subset of
// original rows. It returns nil when the subset should stay unsplit: too
// small, too deep, degenerate, or the picker judged one cluster best.
func divide(data [][]float64, rows []int, cfg *Config, depth int, seed int64) (*Node, error) {
	if len(rows) < cfg.MinSplitSize {
		return nil, nil
	}
	if cfg.MaxDepth > 0 && depth >= cfg.MaxDepth {
		return nil, nil
	}

	subset := gatherRows(data, rows)

	// Feature selection is re-fit at every node: features informative for
	// the whole dataset need not be informative within a subregion.
	selector := &HighAbundanceAndVarianceSelector{
		UseLog:          cfg.UseLog,
		MinFeatures:     cfg.MinFeatures,
		MinFeaturesRate: cfg.MinFeaturesRate,
		MaxComponents:   cfg.MaxComponents,
	}
	if err := selector.Fit(subset); err != nil {
		if depth > 0 && errors.Is(err, errNonPositiveLog) {
			// The subregion's statistics degenerated; stop recursing here.
			return nil, nil
		}
		return nil, fmt.Errorf("divik: feature selection on %d rows at depth %d: %w", len(rows), depth, err)
	}
	if selector.NSelected() < cfg.MinFeatures {
		return nil, nil
	}
	filtered, err := selector.Transform(subset)
	if err != nil {
		return nil, err
	}

	clustering := &AutoKMeans{
		MinClusters: cfg.MinClusters,
		MaxClusters: cfg.MaxClusters,
		NRestarts:   cfg.NRestarts,
		Picker:      cfg.Picker,
		Workers:     cfg.Workers,
		RandomSeed:  deriveSeed(seed, 0),
	}
	if err := clustering.Fit(filtered); err != nil {
		return nil, fmt.Errorf("divik: clustering %d rows at depth %d: %w", len(rows), depth, err)
	}
	if clustering.NClusters < 2 {
		return nil, nil
	}

	node := &Node{
		Clustering: clustering,
		Selector:   selector,
		Merged:     clustering.Labels,
		Subregions: make([]*Node, clustering.NClusters),
	}

	groups := groupRows(rows, clustering.Labels, clustering.NClusters)
	errs := make([]error, clustering.NClusters)

	recurse := func(c int) {
		// Single-member clusters are permitted but never split further.
		if len(groups[c]) < 2 {
			return
		}
		child, err := divide(data, groups[c], cfg, depth+1, deriveSeed(seed, uint64(c)+1))
		if err != nil {
			errs[c] = fmt.Errorf("divik: subregion %d (%d rows): %w", c, len(groups[c]), err)
			return
		}
		node.Subregions[c] = child
	}

	if cfg.Workers > 1 {
		var wg sync.WaitGroup
		for c := range node.Subregions {
			wg.Add(1)
			go func(c int) {
				defer wg.Done()
				recurse(c)
			}(c)
		}
		wg.Wait()
	} else {
		for c := range node.Subregions {
			recurse(c)
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// gatherRows collects the selected rows of data into a dense subset. The row
// slices themselves are shared read-only; no node ever mutates them.
func gatherRows(data [][]float64, rows []int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = data[r]
	}
	return out
}
