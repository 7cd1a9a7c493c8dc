// Package evaluate measures the pipeline against a labelled set of images.
//
// The input is a CSV of image,expected rows with image paths relative to the
// CSV file. Each image is located and read, and the outcome is compared with
// the expected display text.
package evaluate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"potwatch/internal/imageops"
	"potwatch/internal/pipeline"

	"gocv.io/x/gocv"
)

// Case is one labelled image.
type Case struct {
	Image    string // as written in the CSV
	Path     string // resolved against the CSV's directory
	Expected string
}

// Result is the outcome of one case.
type Result struct {
	Case
	Found  bool
	Actual string // empty unless the display was read
	Err    error  // image could not be loaded
}

// Correct reports whether the display was read and matched the label.
func (r Result) Correct() bool {
	return r.Found && r.Err == nil && r.Actual == r.Expected && r.Actual != ""
}

// Summary aggregates a run.
type Summary struct {
	Total   int
	Found   int
	Correct int
}

// FoundPercent is the share of images where the panel was found.
func (s Summary) FoundPercent() float64 { return percent(s.Found, s.Total) }

// CorrectPercent is the share of images read correctly.
func (s Summary) CorrectPercent() float64 { return percent(s.Correct, s.Total) }

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// Reader reads one frame. *pipeline.Pipeline implements it.
type Reader interface {
	Read(frame gocv.Mat) pipeline.Reading
}

// ReadCases loads the case list from a CSV file. Blank lines and a leading
// image,expected header are skipped.
func ReadCases(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cases: %w", err)
	}
	defer f.Close()

	base := filepath.Dir(path)
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var cases []Case
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cases: %w", err)
		}
		if len(rec) != 2 {
			return nil, fmt.Errorf("%s:%d: want 2 fields, got %d", path, line, len(rec))
		}
		if line == 1 && strings.EqualFold(rec[0], "image") && strings.EqualFold(rec[1], "expected") {
			continue
		}
		c := Case{Image: rec[0], Path: rec[0], Expected: rec[1]}
		if !filepath.IsAbs(c.Path) {
			c.Path = filepath.Join(base, c.Path)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// Run reads every case. A dot is written to progress every 10 images; progress
// may be nil.
func Run(reader Reader, cases []Case, progress io.Writer) ([]Result, Summary) {
	results := make([]Result, 0, len(cases))
	sum := Summary{Total: len(cases)}

	for i, c := range cases {
		if progress != nil && i%10 == 0 {
			fmt.Fprint(progress, ".")
		}
		res := runCase(reader, c)
		if res.Found {
			sum.Found++
		}
		if res.Correct() {
			sum.Correct++
		}
		results = append(results, res)
	}
	return results, sum
}

func runCase(reader Reader, c Case) Result {
	res := Result{Case: c}
	img, err := imageops.Load(c.Path)
	if err != nil {
		slog.Warn("skipping image", "image", c.Image, "error", err)
		res.Err = err
		return res
	}
	defer img.Close()

	reading := reader.Read(img)
	res.Found = reading.PanelFound
	if reading.Valid {
		res.Actual = reading.Text
	}
	slog.Debug("case evaluated", "image", c.Image, "expected", c.Expected, "found", res.Found, "actual", res.Actual)
	return res
}

// WriteResults writes image,expected,found,actual rows.
func WriteResults(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	for _, r := range results {
		rec := []string{r.Image, r.Expected, strconv.FormatBool(r.Found), r.Actual}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
