package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/commitlens/internal/engine"
	"github.com/commitlens/pkg/models"
)

// CommitCommand returns the commit command
func CommitCommand() *cli.Command {
	return &cli.Command{
		Name:  "commit",
		Usage: "Analyze uncommitted changes and commit the proposed groups",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ai",
				Aliases: []string{"a"},
				Usage:   "Override the AI provider to use",
			},
			&cli.StringSliceFlag{
				Name:    "only",
				Aliases: []string{"o"},
				Usage:   "Commit only the groups matching `REF` (id prefix or name); repeatable",
			},
			&cli.StringFlag{
				Name:  "hook-strategy",
				Usage: "Pre-commit hook strategy: once, per-group, or skip",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Commit without asking for confirmation",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose output for this command",
			},
		},
		Action: runCommit,
	}
}

func runCommit(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	strategy := engine.HookStrategy(cfg.General.HookStrategy)
	if override := c.String("hook-strategy"); override != "" {
		switch override {
		case "once", "per-group", "skip":
			strategy = engine.HookStrategy(override)
		default:
			return fmt.Errorf("invalid hook-strategy %q (want once, per-group, or skip)", override)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	eng, cleanup, err := buildEngine(ctx, c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println("Analyzing uncommitted changes...")
	groups, err := eng.Analyze(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrNoChanges) {
			fmt.Println("Nothing to commit: the working tree has no changes to analyze.")
			return nil
		}
		return err
	}

	var ids []string
	if refs := c.StringSlice("only"); len(refs) > 0 {
		for _, ref := range refs {
			g, err := ResolveGroupRef(groups, ref)
			if err != nil {
				return err
			}
			ids = append(ids, g.ID)
		}
	}

	printGroups(groups)

	if !c.Bool("yes") {
		ok, err := confirm(fmt.Sprintf("\nCommit %s? [y/N] ", describeSelection(len(ids), len(groups))))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	result, err := eng.CommitBatch(ctx, ids, strategy, func(done, total int, g *models.CommitGroup) {
		fmt.Printf("[%d/%d] committing %s...\n", done+1, total, g.Name)
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nDone: %d committed, %d failed, %d cancelled.\n",
		result.Success, result.Failed, result.Cancelled)
	if result.Failed > 0 {
		return fmt.Errorf("%d group(s) failed to commit", result.Failed)
	}
	return nil
}

func describeSelection(selected, total int) string {
	if selected == 0 {
		return fmt.Sprintf("all %d groups", total)
	}
	return fmt.Sprintf("%d of %d groups", selected, total)
}

func confirm(prompt string) (bool, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
