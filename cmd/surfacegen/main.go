// cmd/surfacegen analyzes an OpenAPI document into a per-resource
// operation catalogue.
//
// Usage: surfacegen -in openapi.json -out gen/surface
//
// Output: <out>/surface.json — the resource list in document order, each
// with its canonical list/get/create/update/delete operations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adminforge/adminforge/internal/surface"
)

func main() {
	in := flag.String("in", "openapi.json", "OpenAPI document to analyze")
	out := flag.String("out", "gen/surface", "output directory")
	flag.Parse()

	doc, err := os.ReadFile(*in)
	if err != nil {
		fatal("reading %s: %v", *in, err)
	}

	resources, err := surface.Analyze(doc)
	if err != nil {
		fatal("analyzing %s: %v", *in, err)
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		fatal("creating %s: %v", *out, err)
	}

	target := filepath.Join(*out, "surface.json")
	encoded, err := json.MarshalIndent(resources, "", "  ")
	if err != nil {
		fatal("encoding catalogue: %v", err)
	}
	if err := os.WriteFile(target, append(encoded, '\n'), 0o644); err != nil {
		fatal("writing %s: %v", target, err)
	}

	fmt.Printf("wrote %s (%d resources)\n", target, len(resources))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "surfacegen: "+format+"\n", args...)
	os.Exit(1)
}
