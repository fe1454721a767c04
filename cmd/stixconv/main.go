package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/black-cross/blackcross/internal/stix"
)

// stixconv converts between internal entity collections and STIX 2.1 bundles
// offline, without a running API server.
//
//	stixconv -mode export -in entities.json > bundle.json
//	stixconv -mode import -in bundle.json > entities.json
func main() {
	mode := flag.String("mode", "export", "Conversion direction: 'export' (entities -> bundle) or 'import' (bundle -> entities)")
	in := flag.String("in", "", "Input JSON file (default: stdin)")
	out := flag.String("out", "", "Output JSON file (default: stdout)")
	flag.Parse()

	data, err := readInput(*in)
	if err != nil {
		log.Fatalf("❌ error reading input: %v", err)
	}

	var result interface{}

	switch *mode {
	case "export":
		var input stix.ExportInput
		if err := json.Unmarshal(data, &input); err != nil {
			log.Fatalf("❌ invalid entity collections: %v", err)
		}
		bundle := stix.ExportBundle(input)
		fmt.Fprintf(os.Stderr, "✅ exported %d object(s) into bundle %s\n", len(bundle.Objects), bundle.ID)
		result = bundle

	case "import":
		var bundle stix.Bundle
		if err := json.Unmarshal(data, &bundle); err != nil {
			log.Fatalf("❌ invalid STIX bundle: %v", err)
		}
		imported := stix.ImportBundle(bundle)
		if n := len(imported.Dropped); n > 0 {
			fmt.Fprintf(os.Stderr, "⚠️  dropped %d object(s) of unsupported kinds\n", n)
		}
		result = imported

	default:
		log.Fatalf("❌ unknown mode %q (use 'export' or 'import')", *mode)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("❌ error encoding output: %v", err)
	}
	encoded = append(encoded, '\n')

	if err := writeOutput(*out, encoded); err != nil {
		log.Fatalf("❌ error writing output: %v", err)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
