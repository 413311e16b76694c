// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command sketch extracts API-usage sketches from Java sources.
//
// Usage:
//
//	sketch extract ./src --output corpus.json
//	sketch extract ./src --output s3://training/corpus.json --store ~/.aleutian/sketch/corpus
//	sketch enumerate ir.json --max-sequences 32
//	sketch corpus export --store ~/.aleutian/sketch/corpus --output corpus.json
//	sketch serve --port 8080 --engine-url http://localhost:8084
//
// A .env file in the working directory is loaded before flags are parsed.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
