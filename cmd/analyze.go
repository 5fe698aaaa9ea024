package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/commitlens/internal/engine"
	"github.com/commitlens/pkg/models"
)

// AnalyzeCommand returns the analyze command
func AnalyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Group uncommitted changes into proposed commits without committing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ai",
				Aliases: []string{"a"},
				Usage:   "Override the AI provider to use",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the proposed groups as JSON",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose output for this command",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	eng, cleanup, err := buildEngine(ctx, c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if !c.Bool("json") {
		// Show groups as they stream in.
		seen := 0
		eng.Subscribe(func(groups []*models.CommitGroup) {
			if len(groups) < seen {
				seen = len(groups)
				return
			}
			for ; seen < len(groups); seen++ {
				g := groups[seen]
				fmt.Printf("  found group: %s (%d files)\n", g.Name, len(g.Files))
			}
		})
		fmt.Println("Analyzing uncommitted changes...")
	}

	groups, err := eng.Analyze(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrNoChanges) {
			fmt.Println("Nothing to group: the working tree has no changes to analyze.")
			return nil
		}
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}

	printGroups(groups)
	fmt.Println("\nRun `commitlens commit` to turn these groups into commits.")
	return nil
}

func printGroups(groups []*models.CommitGroup) {
	fmt.Printf("\nProposed commits (%d):\n", len(groups))
	for i, g := range groups {
		fmt.Printf("\n%d. %s  [%s]\n", i+1, g.Name, shortID(g.ID))
		fmt.Printf("   message: %s\n", g.Message)
		if g.Reasoning != "" {
			fmt.Printf("   reasoning: %s\n", g.Reasoning)
		}
		for _, f := range g.Files {
			fmt.Printf("   - %s (%s, +%d -%d)\n", f.Path, f.Status, f.Additions, f.Deletions)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
