package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/thomasaiwilcox/strictswift/internal/cache"
	"github.com/thomasaiwilcox/strictswift/internal/output"
	"github.com/thomasaiwilcox/strictswift/internal/progress"
	"github.com/thomasaiwilcox/strictswift/pkg/analyzer"
	"github.com/thomasaiwilcox/strictswift/pkg/analyzer/deadcode"
	"github.com/thomasaiwilcox/strictswift/pkg/config"
	"github.com/urfave/cli/v2"
)

// resultCacheKey derives the cache key from everything besides file contents
// that can change the report: the module name and classification settings.
func resultCacheKey(cfg *config.Config) string {
	data, _ := json.Marshal(struct {
		Module   string
		DeadCode config.DeadCodeConfig
	}{cfg.Module, cfg.DeadCode})
	return "deadcode-" + cache.HashBytes(data)
}

func deadcodeCmd() *cli.Command {
	return &cli.Command{
		Name:      "deadcode",
		Aliases:   []string{"dc"},
		Usage:     "Detect declarations unreachable from any entry point",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "show-ignored",
				Usage: "List ignored declarations alongside dead ones",
			},
		},
		Action: runDeadCodeCmd,
	}
}

func runDeadCodeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, err := collectFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No Swift files found")
		return nil
	}

	useCache := cfg.Cache.Enabled && !c.Bool("no-cache")
	manifestPath := filepath.Join(cfg.Cache.Dir, "manifest.json")

	var store *cache.Cache
	var snap *cache.Manifest
	var snapDigest string
	var result *deadcode.Result

	if useCache {
		var err error
		store, err = cache.New(cfg.Cache.Dir, 0, true)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}

		snap = cache.Snapshot(files)
		snapDigest = snap.Digest()

		if c.Bool("verbose") {
			if prev, err := cache.LoadManifest(manifestPath); err == nil {
				added, modified, removed := prev.Diff(snap)
				fmt.Fprintf(os.Stderr, "since last run: %d added, %d modified, %d removed\n",
					len(added), len(modified), len(removed))
			}
		}

		// Same file set, same contents, same config hash: reuse the report.
		if data, ok := store.GetWithHash(resultCacheKey(cfg), snapDigest); ok {
			var cached deadcode.Result
			if json.Unmarshal(data, &cached) == nil {
				result = &cached
				if c.Bool("verbose") {
					fmt.Fprintln(os.Stderr, "using cached result")
				}
			}
		}
	}

	if result == nil {
		bar := progress.NewTracker("Analyzing Swift sources...", len(files))
		tracker := analyzer.NewTracker(func(current, total int, path string) {
			bar.Tick()
		})
		ctx := analyzer.WithTracker(context.Background(), tracker)

		dc := deadcode.New(cfg.DeadCode, deadcode.WithModule(cfg.Module))
		defer dc.Close()

		var err error
		result, err = dc.Analyze(ctx, files)
		if err != nil {
			bar.FinishError(err)
			return fmt.Errorf("analysis failed: %w", err)
		}
		bar.FinishSuccess()

		if useCache {
			if data, err := json.Marshal(result); err == nil {
				if err := store.SetWithHash(resultCacheKey(cfg), snapDigest, data); err != nil && c.Bool("verbose") {
					fmt.Fprintf(os.Stderr, "could not cache result: %v\n", err)
				}
			}
			if err := snap.Save(manifestPath); err != nil && c.Bool("verbose") {
				fmt.Fprintf(os.Stderr, "could not save manifest: %v\n", err)
			}
		}
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(result)
	}

	if len(result.Dead) > 0 {
		var rows [][]string
		for _, f := range result.Dead {
			access := string(f.Accessibility)
			if f.Accessibility == "private" || f.Accessibility == "fileprivate" {
				access = color.YellowString(access)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%s:%d", f.File, f.Line),
				truncate(f.QualifiedName, 60),
				string(f.Kind),
				access,
			})
		}

		table := output.NewTable(
			"Dead Declarations",
			[]string{"Location", "Symbol", "Kind", "Access"},
			rows,
			nil,
			nil,
		)
		if err := formatter.Output(table); err != nil {
			return err
		}
	} else {
		formatter.Success("No dead declarations found")
	}

	if c.Bool("show-ignored") && result.Statistics.IgnoredCount > 0 {
		fmt.Fprintf(formatter.Writer(), "\nIgnored: %d declarations excluded by pattern or kind\n",
			result.Statistics.IgnoredCount)
	}

	if c.Bool("verbose") && len(result.Unresolved) > 0 {
		color.Yellow("\nUnresolved references (%d):", len(result.Unresolved))
		for _, ref := range result.Unresolved {
			fmt.Fprintf(formatter.Writer(), "  - %s (%s) at %s:%d\n",
				ref.ReferencedName, ref.Kind, ref.Location.File, ref.Location.Line)
		}
	}

	stats := result.Statistics
	fmt.Fprintf(formatter.Writer(),
		"\nSummary: %d symbols (%d entry points, %d live, %d dead, %d ignored) in %dms\n",
		stats.TotalSymbols,
		stats.EntryPointCount,
		stats.LiveCount,
		stats.DeadCount,
		stats.IgnoredCount,
		stats.AnalysisTimeMs)

	return nil
}
