// Command readtest locates the control panel in one photo and reads its display.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"potwatch/internal/debug"
	"potwatch/internal/imageops"
	"potwatch/internal/locator"
	"potwatch/internal/pipeline"
	"potwatch/internal/settings"
	"potwatch/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to the photo (PNG, JPEG, TIFF or WebP)")
	templatePath := flag.String("template", "", "Path to the reference control panel image")
	settingsPath := flag.String("settings", "", "Optional YAML settings file with parameter overrides")
	debugDir := flag.String("debug", "", "Write intermediate images to this directory")
	backend := flag.String("backend", "", "Feature backend: orb or sift (default from settings)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *imagePath == "" || *templatePath == "" {
		fmt.Println("Usage: readtest -image <photo> -template <panel> [-settings file.yaml] [-debug dir] [-backend orb|sift]")
		os.Exit(1)
	}

	template, err := imageops.Load(*templatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load template: %v\n", err)
		os.Exit(1)
	}
	defer template.Close()

	frame, err := imageops.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	defer frame.Close()
	fmt.Printf("Template: %dx%d pixels\n", template.Cols(), template.Rows())
	fmt.Printf("Image:    %dx%d pixels\n", frame.Cols(), frame.Rows())

	var store settings.Store = settings.NewMemory()
	if *settingsPath != "" {
		f, err := settings.OpenFile(*settingsPath, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open settings: %v\n", err)
			os.Exit(1)
		}
		store = f
	}

	var opts []pipeline.Option
	if *backend != "" {
		b, err := locator.BackendByName(*backend)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		opts = append(opts, pipeline.WithBackend(b))
	}
	if *debugDir != "" {
		sink, err := debug.NewDir(*debugDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create debug directory: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, pipeline.WithSink(sink))
	}

	p, err := pipeline.FromStore(context.Background(), template, store, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	lp, dp := p.LocatorParams(), p.DigitParams()
	fmt.Printf("\nLocator parameters:\n")
	fmt.Printf("  Max dimension: %d\n", lp.MaxDimension)
	fmt.Printf("  Match ratio: %.2f (min %d good matches)\n", lp.MatchRatio, lp.MinGoodMatches)
	fmt.Printf("  RANSAC: %d iterations, %.1f px threshold, seed %d\n",
		lp.RANSACIterations, lp.RANSACThreshold, lp.RANSACSeed)
	fmt.Printf("Digit parameters:\n")
	fmt.Printf("  LED HSV: H(%d-%d) SV(%d-%d)\n", dp.HueMin, dp.HueMax, dp.SVMin, dp.SVMax)
	fmt.Printf("  Segment fill: %.2f\n", dp.SegmentFill)

	fmt.Printf("\nReading panel...\n")
	r := p.Read(frame)
	if !r.PanelFound {
		fmt.Println("Panel not found")
		os.Exit(2)
	}
	fmt.Printf("Panel found: %d good matches, %d inliers\n", r.GoodMatches, r.Inliers)
	if r.Scan.Display.Empty() {
		fmt.Println("Display not lit")
	} else {
		fmt.Printf("Display: %v\n", r.Scan.Display)
	}

	fmt.Printf("\n%-6s %16s %8s %8s\n", "Glyph", "Bounds", "Area", "Height")
	for i, g := range r.Scan.Glyphs {
		fmt.Printf("%-6d %16v %8d %8d\n", i, g.Bounds, g.Area, g.Height)
	}

	if !r.Valid {
		fmt.Println("\nReading: <unreadable>")
		os.Exit(2)
	}
	fmt.Printf("\nReading: %s\n", r.Text)
	if *debugDir != "" {
		fmt.Printf("Debug images written to %s\n", *debugDir)
	}
}
