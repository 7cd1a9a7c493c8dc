// Command evaluate runs the reader over a labelled image set and reports how
// often it finds the panel and reads the display correctly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"potwatch/internal/evaluate"
	"potwatch/internal/imageops"
	"potwatch/internal/locator"
	"potwatch/internal/pipeline"
	"potwatch/internal/settings"
	"potwatch/internal/version"
)

func main() {
	templatePath := flag.String("template", "", "Path to the reference control panel image")
	settingsPath := flag.String("settings", "", "Optional YAML settings file with parameter overrides")
	backend := flag.String("backend", "", "Feature backend: orb or sift (default from settings)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: evaluate -template <panel> [-settings file.yaml] [-backend orb|sift] <cases.csv> [results.csv]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *templatePath == "" || flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(1)
	}
	casesPath := flag.Arg(0)

	cases, err := evaluate.ReadCases(casesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read cases: %v\n", err)
		os.Exit(1)
	}
	if len(cases) == 0 {
		fmt.Fprintf(os.Stderr, "No cases in %s\n", casesPath)
		os.Exit(1)
	}

	template, err := imageops.Load(*templatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load template: %v\n", err)
		os.Exit(1)
	}
	defer template.Close()

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

	p, err := pipeline.FromStore(context.Background(), template, store, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	fmt.Printf("Processing %d images...", len(cases))
	results, sum := evaluate.Run(p, cases, os.Stdout)
	fmt.Println()

	fmt.Printf("Found the pot in %d images: %.2f%%\n", sum.Found, sum.FoundPercent())
	fmt.Printf("Correctly detected digits in %d images: %.2f%%\n", sum.Correct, sum.CorrectPercent())

	if flag.NArg() == 2 {
		out, err := os.Create(flag.Arg(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create results file: %v\n", err)
			os.Exit(1)
		}
		if err := evaluate.WriteResults(out, results); err != nil {
			out.Close()
			fmt.Fprintf(os.Stderr, "Failed to write results: %v\n", err)
			os.Exit(1)
		}
		if err := out.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write results: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote results to: %s\n", flag.Arg(1))
	}
}
