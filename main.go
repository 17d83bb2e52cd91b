// Command archframe evaluates a frame script, writes one STL file per frame
// and optionally a PNG preview.
//
// Usage:
//
//	archframe [-o dir] [-preview file.png] [-view plan|front|side] [-cells n] script.frame
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chazu/archframe/pkg/kernel/sdfx"
	"github.com/chazu/archframe/pkg/preview"
)

func main() {
	outDir := flag.String("o", ".", "output directory for STL files")
	previewPath := flag.String("preview", "", "write a PNG preview to this file")
	viewName := flag.String("view", "plan", "preview projection: plan, front or side")
	cells := flag.Int("cells", 200, "mesh resolution along the longest axis")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] script.frame\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	view, err := preview.ParseView(*viewName)
	if err != nil {
		log.Fatal(err)
	}

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	app := NewApp(sdfx.WithCells(*cells))
	result := app.Evaluate(string(source))
	for _, w := range result.Warnings {
		log.Printf("warning: %s", w.Message)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			if e.Line > 0 {
				log.Printf("error: line %d: %s", e.Line, e.Message)
			} else {
				log.Printf("error: %s", e.Message)
			}
		}
		os.Exit(1)
	}

	paths, err := app.ExportSTL(*outDir)
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range paths {
		log.Printf("wrote %s", p)
	}

	if *previewPath != "" {
		if err := app.Preview(*previewPath, preview.WithView(view)); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", *previewPath)
	}
}
