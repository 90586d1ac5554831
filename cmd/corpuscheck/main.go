package main

import (
	"fmt"
	"os"
	"strings"

	"mythos-curation-be/pkg/corpus"

	"github.com/fatih/color"
)

// corpuscheck verifies the embedded artwork dataset and prints a summary.
// Run it after editing pkg/corpus/data/artworks.json.
func main() {
	color.Cyan("🎨 Verifying artwork corpus\n")

	gallery, err := corpus.Load()
	if err != nil {
		color.Red("Corpus verification failed: %v", err)
		os.Exit(1)
	}

	color.Green("Loaded %d artworks (centuries %d-%d)", gallery.Len(), gallery.MinCentury(), gallery.MaxCentury())

	byCentury := map[int]int{}
	byMood := map[string]int{}
	motifs := map[string]struct{}{}
	themes := map[string]struct{}{}
	for _, a := range gallery.Artworks {
		byCentury[a.Century]++
		byMood[a.Mood]++
		for _, m := range a.Motifs {
			motifs[m] = struct{}{}
		}
		for _, t := range a.Themes {
			themes[t] = struct{}{}
		}
	}

	color.Yellow("\nCenturies:")
	for c := gallery.MinCentury(); c <= gallery.MaxCentury(); c++ {
		if n := byCentury[c]; n > 0 {
			fmt.Printf("  %2d: %d\n", c, n)
		}
	}

	color.Yellow("\nMoods:")
	for _, m := range corpus.Moods {
		fmt.Printf("  %-13s %d\n", m, byMood[m])
		if byMood[m] == 0 {
			color.Red("  ⚠ mood %q has no artworks; prompts resolved to it will rank on tags only", m)
		}
	}

	color.Yellow("\nVocabulary: %d distinct motifs, %d distinct themes", len(motifs), len(themes))
	fmt.Println(strings.Repeat("-", 40))
	color.Green("✅ Corpus OK")
}
