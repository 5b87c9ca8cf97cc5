package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raine/telegram-shafa-bot/internal/extract"
)

func main() {
	var vocabularyPath, brands string

	flag.StringVar(&vocabularyPath, "vocabulary", os.Getenv("SHAFA_VOCABULARY_PATH"), "YAML file overriding the keyword tables")
	flag.StringVar(&brands, "brands", "", "Comma separated brand names to recognize")
	flag.Parse()

	var text []byte
	var err error
	if flag.NArg() > 0 {
		text, err = os.ReadFile(flag.Arg(0))
	} else {
		text, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading message: %v\n", err)
		os.Exit(1)
	}

	var vocab *extract.Vocabulary
	if vocabularyPath != "" {
		if vocab, err = extract.LoadVocabulary(vocabularyPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading vocabulary: %v\n", err)
			os.Exit(1)
		}
	}

	var names []string
	for _, b := range strings.Split(brands, ",") {
		if b = strings.TrimSpace(b); b != "" {
			names = append(names, b)
		}
	}

	listing := extract.Parse(string(text), extract.NewLookupContext(vocab, names))

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listing); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
		os.Exit(1)
	}
}
