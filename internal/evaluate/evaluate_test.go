package evaluate

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"potwatch/internal/pipeline"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// widthReader answers by frame width, so each test image picks its reading.
type widthReader map[int]pipeline.Reading

func (r widthReader) Read(frame gocv.Mat) pipeline.Reading {
	return r[frame.Cols()]
}

func writeImage(t *testing.T, path string, width int) {
	t.Helper()
	os.MkdirAll(filepath.Dir(path), 0o755)
	img := imaging.New(width, 10, color.NRGBA{G: 128, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatal(err)
	}
}

func TestReadCases(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "cases.csv")
	body := "image,expected\nframes/a.png,1234\n\n/abs/b.png, L0\n"
	os.WriteFile(csvPath, []byte(body), 0o644)

	cases, err := ReadCases(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	want := []Case{
		{Image: "frames/a.png", Path: filepath.Join(dir, "frames/a.png"), Expected: "1234"},
		{Image: "/abs/b.png", Path: "/abs/b.png", Expected: "L0"},
	}
	if len(cases) != len(want) {
		t.Fatalf("got %d cases, want %d", len(cases), len(want))
	}
	for i := range want {
		if cases[i] != want[i] {
			t.Errorf("case %d: got %+v, want %+v", i, cases[i], want[i])
		}
	}
}

func TestReadCasesErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadCases(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.csv")
	os.WriteFile(bad, []byte("a.png,1234,extra\n"), 0o644)
	if _, err := ReadCases(bad); err == nil {
		t.Error("expected error for a three-field row")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	var cases []Case
	reader := widthReader{}
	// 12 images: widths 20..31. Width 20 reads 1234 correctly, 21 reads the
	// wrong text, 22 finds the panel but not the display, the rest find nothing.
	for i := 0; i < 12; i++ {
		name := filepath.Join("img", "f"+string(rune('a'+i))+".png")
		writeImage(t, filepath.Join(dir, name), 20+i)
		cases = append(cases, Case{Image: name, Path: filepath.Join(dir, name), Expected: "1234"})
	}
	reader[20] = pipeline.Reading{PanelFound: true, Valid: true, Text: "1234"}
	reader[21] = pipeline.Reading{PanelFound: true, Valid: true, Text: "1284"}
	reader[22] = pipeline.Reading{PanelFound: true}
	cases = append(cases, Case{Image: "gone.png", Path: filepath.Join(dir, "gone.png"), Expected: "1234"})

	var progress bytes.Buffer
	results, sum := Run(reader, cases, &progress)

	if progress.String() != ".." {
		t.Errorf("progress: got %q, want two dots", progress.String())
	}
	if sum != (Summary{Total: 13, Found: 3, Correct: 1}) {
		t.Errorf("summary: got %+v", sum)
	}
	if len(results) != 13 {
		t.Fatalf("results: got %d", len(results))
	}
	if !results[0].Correct() || results[1].Correct() || results[2].Correct() {
		t.Error("unexpected correctness flags")
	}
	if results[1].Actual != "1284" || results[2].Actual != "" {
		t.Errorf("actuals: got %q and %q", results[1].Actual, results[2].Actual)
	}
	if results[12].Err == nil || results[12].Found {
		t.Errorf("missing image: got %+v", results[12])
	}
}

func TestSummaryPercent(t *testing.T) {
	s := Summary{Total: 8, Found: 6, Correct: 2}
	if s.FoundPercent() != 75 || s.CorrectPercent() != 25 {
		t.Errorf("got %v%% and %v%%", s.FoundPercent(), s.CorrectPercent())
	}
	if (Summary{}).FoundPercent() != 0 {
		t.Error("empty summary should report 0%")
	}
}

func TestWriteResults(t *testing.T) {
	results := []Result{
		{Case: Case{Image: "a.png", Expected: "1234"}, Found: true, Actual: "1234"},
		{Case: Case{Image: "b, c.png", Expected: "L0"}},
	}
	var buf bytes.Buffer
	if err := WriteResults(&buf, results); err != nil {
		t.Fatal(err)
	}
	want := "a.png,1234,true,1234\n\"b, c.png\",L0,false,\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("missing trailing newline")
	}
}
