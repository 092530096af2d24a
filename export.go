package divik

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// NormalizeRows centers every row at zero mean and scales it to unit L2
// norm. Spectra often need this before clustering so that intensity offsets
// between pixels do not dominate the distances. The input is not modified.
func NormalizeRows(data [][]float64) [][]float64 {
	out := make([][]float64, len(data))
	for i, row := range data {
		normalized := make([]float64, len(row))
		mean := 0.0
		for _, v := range row {
			mean += v
		}
		mean /= float64(len(row))
		norm := 0.0
		for j, v := range row {
			normalized[j] = v - mean
			norm += normalized[j] * normalized[j]
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for j := range normalized {
				normalized[j] /= norm
			}
		}
		out[i] = normalized
	}
	return out
}

// WriteLabels writes one label per line as CSV.
func WriteLabels(w io.Writer, labels []int) error {
	cw := csv.NewWriter(w)
	for _, label := range labels {
		if err := cw.Write([]string{strconv.Itoa(label)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePartitionMatrix writes a rows × candidates label matrix as CSV, one
// input row per line.
func WritePartitionMatrix(w io.Writer, matrix [][]int) error {
	cw := csv.NewWriter(w)
	record := []string{}
	for _, row := range matrix {
		record = record[:0]
		for _, label := range row {
			record = append(record, strconv.Itoa(label))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteScoreReport writes a picker diagnostic table as CSV with a header.
func WriteScoreReport(w io.Writer, rows []PickerReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"n_clusters", "score", "dispersion"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.NClusters),
			strconv.FormatFloat(row.Score, 'g', -1, 64),
			strconv.FormatFloat(row.Dispersion, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LabelImage renders a label vector as an image keyed by per-row spatial
// coordinates (xy[i] = {x, y} of row i). The y axis is flipped so that the
// image is oriented the way the acquisition was. Pixels without a row stay
// black; labels get evenly spaced hues.
func LabelImage(labels []int, xy [][2]int) (*image.RGBA, error) {
	if len(labels) != len(xy) {
		return nil, fmt.Errorf("divik: got %d labels but %d coordinates", len(labels), len(xy))
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("divik: cannot render an empty labeling")
	}

	maxX, maxY, maxLabel := 0, 0, 0
	for i, c := range xy {
		if c[0] < 0 || c[1] < 0 {
			return nil, fmt.Errorf("divik: coordinate %d is negative: (%d, %d)", i, c[0], c[1])
		}
		maxX = max(maxX, c[0])
		maxY = max(maxY, c[1])
		maxLabel = max(maxLabel, labels[i])
	}

	palette := make([]color.RGBA, maxLabel+1)
	for i := range palette {
		hue := 360 * float64(i) / float64(len(palette))
		r, g, b := colorful.Hsv(hue, 0.7, 0.9).RGB255()
		palette[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}

	img := image.NewRGBA(image.Rect(0, 0, maxX+1, maxY+1))
	for i, c := range xy {
		img.SetRGBA(c[0], maxY-c[1], palette[labels[i]])
	}
	return img, nil
}

// WriteLabelImage renders the labeling with LabelImage and encodes it as PNG.
func WriteLabelImage(w io.Writer, labels []int, xy [][2]int) error {
	img, err := LabelImage(labels, xy)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
