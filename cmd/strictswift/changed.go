package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/thomasaiwilcox/strictswift/internal/output"
	"github.com/thomasaiwilcox/strictswift/internal/vcs"
	"github.com/thomasaiwilcox/strictswift/pkg/parser"
	"github.com/urfave/cli/v2"
)

func changedCmd() *cli.Command {
	return &cli.Command{
		Name:      "changed",
		Usage:     "List Swift files changed since a git revision",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rev",
				Aliases: []string{"r"},
				Value:   "HEAD~1",
				Usage:   "Base revision to diff against HEAD",
			},
		},
		Action: runChangedCmd,
	}
}

func runChangedCmd(c *cli.Context) error {
	rev := c.String("rev")

	absPath, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	repo, err := vcs.DefaultOpener().PlainOpenWithDetect(absPath)
	if err != nil {
		return fmt.Errorf("not a git repository: %w", err)
	}

	changed, err := repo.ChangedFiles(rev)
	if err != nil {
		return fmt.Errorf("failed to diff against %s: %w", rev, err)
	}

	var swiftFiles []string
	for _, path := range changed {
		if parser.IsSwiftFile(path) {
			swiftFiles = append(swiftFiles, path)
		}
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(struct {
			Revision string   `json:"revision" toon:"revision"`
			Files    []string `json:"files" toon:"files"`
		}{rev, swiftFiles})
	}

	if len(swiftFiles) == 0 {
		color.Yellow("No Swift files changed since %s", rev)
		return nil
	}

	rows := make([][]string, 0, len(swiftFiles))
	for _, path := range swiftFiles {
		rows = append(rows, []string{path})
	}

	table := output.NewTable(
		fmt.Sprintf("Swift Files Changed Since %s", rev),
		[]string{"File"},
		rows,
		[]string{fmt.Sprintf("Total: %d", len(swiftFiles))},
		nil,
	)
	return formatter.Output(table)
}
