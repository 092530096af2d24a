// Command divik runs DiviK partitioning over a CSV feature matrix and saves
// the resulting segmentation.
//
// Usage:
//
//	divik -data spectra.csv -out results/ [-xy coords.csv] [-config divik.yaml]
//
// The data file holds one observation per line, comma-separated features.
// The optional xy file holds one "x,y" coordinate pair per observation and
// enables the PNG visualization. The optional YAML config overrides the
// defaults; flags override the config file.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/spectremap/divik"
)

// fileConfig mirrors divik.Config for YAML configuration files.
type fileConfig struct {
	MinClusters     int     `yaml:"min_clusters"`
	MaxClusters     int     `yaml:"max_clusters"`
	NRestarts       int     `yaml:"n_restarts"`
	MaxComponents   int     `yaml:"max_components"`
	MinFeatures     int     `yaml:"min_features"`
	MinFeaturesRate float64 `yaml:"min_features_rate"`
	UseLog          bool    `yaml:"use_log"`
	Picker          string  `yaml:"picker"`
	MinSplitSize    int     `yaml:"min_split_size"`
	MaxDepth        int     `yaml:"max_depth"`
	Workers         int     `yaml:"workers"`
	RandomSeed      int64   `yaml:"random_seed"`
	NormalizeRows   bool    `yaml:"normalize_rows"`
}

func main() {
	dataPath := flag.String("data", "", "CSV file with one observation per line (required)")
	xyPath := flag.String("xy", "", "CSV file with one x,y coordinate pair per observation (optional)")
	configPath := flag.String("config", "", "YAML configuration file (optional)")
	outDir := flag.String("out", ".", "Directory for result files")
	workers := flag.Int("workers", 0, "Worker goroutines; overrides the config file")
	seed := flag.Int64("seed", -1, "Random seed; overrides the config file")
	picker := flag.String("picker", "", "Scoring strategy: gap or dunn; overrides the config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *dataPath == "" {
		log.Error("missing required -data flag")
		flag.Usage()
		os.Exit(2)
	}

	fc := fileConfig{}
	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			log.Error("cannot read config file", "path", *configPath, "error", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			log.Error("cannot parse config file", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	if *workers != 0 {
		fc.Workers = *workers
	}
	if *seed >= 0 {
		fc.RandomSeed = *seed
	}
	if *picker != "" {
		fc.Picker = *picker
	}

	cfg, err := buildConfig(fc)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	data, err := readMatrix(*dataPath)
	if err != nil {
		log.Error("cannot read data", "path", *dataPath, "error", err)
		os.Exit(1)
	}
	log.Info("loaded data", "rows", len(data), "columns", len(data[0]))

	var xy [][2]int
	if *xyPath != "" {
		xy, err = readCoordinates(*xyPath)
		if err != nil {
			log.Error("cannot read coordinates", "path", *xyPath, "error", err)
			os.Exit(1)
		}
		if len(xy) != len(data) {
			log.Error("coordinate count does not match data", "coordinates", len(xy), "rows", len(data))
			os.Exit(1)
		}
	}

	if fc.NormalizeRows {
		data = divik.NormalizeRows(data)
	}

	result, err := divik.Fit(data, cfg)
	if err != nil {
		log.Error("partitioning failed", "error", err)
		os.Exit(1)
	}
	log.Info("partitioning finished", "depth", result.Root.Depth(), "leaves", result.Root.Leaves())

	if err := save(result, xy, *outDir); err != nil {
		log.Error("cannot save results", "dir", *outDir, "error", err)
		os.Exit(1)
	}
	log.Info("results saved", "dir", *outDir)
}

func buildConfig(fc fileConfig) (divik.Config, error) {
	cfg := divik.DefaultConfig()
	if fc.MinClusters != 0 {
		cfg.MinClusters = fc.MinClusters
	}
	if fc.MaxClusters != 0 {
		cfg.MaxClusters = fc.MaxClusters
	}
	if fc.NRestarts != 0 {
		cfg.NRestarts = fc.NRestarts
	}
	if fc.MaxComponents != 0 {
		cfg.MaxComponents = fc.MaxComponents
	}
	if fc.MinFeatures != 0 {
		cfg.MinFeatures = fc.MinFeatures
	}
	cfg.MinFeaturesRate = fc.MinFeaturesRate
	cfg.UseLog = fc.UseLog
	if fc.MinSplitSize != 0 {
		cfg.MinSplitSize = fc.MinSplitSize
	}
	cfg.MaxDepth = fc.MaxDepth
	if fc.Workers != 0 {
		cfg.Workers = fc.Workers
	}
	cfg.RandomSeed = fc.RandomSeed

	switch fc.Picker {
	case "", "gap":
		// DefaultConfig leaves Picker nil, which resolves to GapPicker.
	case "dunn":
		cfg.Picker = &divik.DunnPicker{Workers: cfg.Workers}
	default:
		return cfg, fmt.Errorf("unknown picker %q (want gap or dunn)", fc.Picker)
	}
	return cfg, nil
}

func readMatrix(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no rows in %s", path)
	}

	data := make([][]float64, len(records))
	for i, record := range records {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, field %d: %w", i+1, j+1, err)
			}
			row[j] = v
		}
		data[i] = row
	}
	return data, nil
}

func readCoordinates(path string) ([][2]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	xy := make([][2]int, len(records))
	for i, record := range records {
		if len(record) != 2 {
			return nil, fmt.Errorf("line %d: expected x,y, got %d fields", i+1, len(record))
		}
		x, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		y, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		xy[i] = [2]int{x, y}
	}
	return xy, nil
}

// save writes the final partition, the root node's candidate partitions and
// score report, and (with coordinates) a PNG visualization.
func save(result *divik.Result, xy [][2]int, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := writeFile(dir, "final_partition.csv", func(f *os.File) error {
		return divik.WriteLabels(f, result.Labels)
	}); err != nil {
		return err
	}

	if result.Root != nil {
		if err := writeFile(dir, "partitions.csv", func(f *os.File) error {
			return divik.WritePartitionMatrix(f, result.Root.Clustering.SegmentationMatrix())
		}); err != nil {
			return err
		}
		if err := writeFile(dir, "scores.csv", func(f *os.File) error {
			return divik.WriteScoreReport(f, result.Root.Clustering.Report())
		}); err != nil {
			return err
		}
	}

	if xy != nil {
		if err := writeFile(dir, "partition.png", func(f *os.File) error {
			return divik.WriteLabelImage(f, result.Labels, xy)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(dir, name string, write func(*os.File) error) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
