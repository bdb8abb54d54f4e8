// Package main - test-runner
// Plays the scripted headless scenarios and exits non-zero when one fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/MRamiBalles/GridSnake/internal/platform/logger"
	"github.com/MRamiBalles/GridSnake/internal/scenario"
)

func main() {
	verbose := flag.Bool("v", false, "log session activity to stderr")
	only := flag.String("run", "", "only run scenarios whose name contains this text")
	flag.Parse()

	header := color.New(color.FgCyan, color.Bold)
	header.Println("GRIDSNAKE - SCENARIO SUITE")
	header.Println(strings.Repeat("=", 60))

	log := logger.Discard()
	if *verbose {
		log = logger.NewLoggerTo(os.Stderr)
	}

	var selected []scenario.Scenario
	for _, s := range scenario.All() {
		if *only == "" || strings.Contains(strings.ToLower(s.Name), strings.ToLower(*only)) {
			selected = append(selected, s)
		}
	}

	ctx := context.Background()
	passed, failed := 0, 0
	for _, s := range selected {
		fmt.Printf("\nRunning: %s\n", s.Name)
		r := s.Run(ctx, log)
		fmt.Printf("   Expected: %s\n", r.Expected)
		fmt.Printf("   Actual:   %s\n", r.Actual)
		if r.Passed {
			passed++
			color.Green("   PASS")
		} else {
			failed++
			color.Red("   FAIL: %s", r.Reason)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	header.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	color.Green("   Passed: %d", passed)
	if failed > 0 {
		color.Red("   Failed: %d", failed)
		os.Exit(1)
	}
	fmt.Printf("   Failed: %d\n", failed)
	if passed == 0 {
		color.Yellow("No scenario matched %q", *only)
		os.Exit(1)
	}
}
