package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/thomasaiwilcox/strictswift/internal/fileproc"
	"github.com/thomasaiwilcox/strictswift/internal/output"
	"github.com/thomasaiwilcox/strictswift/internal/progress"
	"github.com/thomasaiwilcox/strictswift/pkg/parser"
	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
	"github.com/thomasaiwilcox/strictswift/pkg/symbolgraph"
	"github.com/urfave/cli/v2"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"dag"},
		Usage:     "Build the reference graph (Mermaid output)",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Include PageRank and cycle metrics",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: 5,
				Usage: "Show top N symbols by PageRank",
			},
		},
		Action: runGraphCmd,
	}
}

func runGraphCmd(c *cli.Context) error {
	includeMetrics := c.Bool("metrics")
	topN := c.Int("top")

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

	bar := progress.NewTracker("Building symbol graph...", len(files))
	producer := parser.NewProducer(cfg.Module)
	inputs := fileproc.MapFilesWithProgress(files,
		func(p *parser.Parser, path string) (symbol.FileInput, error) {
			fi, err := producer.ProduceFile(p, path)
			if err != nil {
				return symbol.FileInput{}, err
			}
			return *fi, nil
		},
		bar.Tick,
	)
	g := symbolgraph.New()
	if err := g.Build(context.Background(), inputs); err != nil {
		bar.FinishError(err)
		return fmt.Errorf("graph build failed: %w", err)
	}
	bar.FinishSuccess()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(g.ComputeMetrics())
	}

	w := formatter.Writer()
	fmt.Fprintln(w, "```mermaid")
	fmt.Fprintln(w, "graph TD")
	for _, s := range g.AllSymbols() {
		fmt.Fprintf(w, "    %s[\"%s\"]\n", sanitizeID(string(s.ID)), s.QualifiedName)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(w, "    %s --> %s\n", sanitizeID(string(e.From)), sanitizeID(string(e.To)))
	}
	fmt.Fprintln(w, "```")

	if includeMetrics {
		metrics := g.ComputeMetrics()
		fmt.Fprintln(w)
		if formatter.Colored() {
			color.Cyan("Graph Metrics:")
		} else {
			fmt.Fprintln(w, "Graph Metrics:")
		}
		fmt.Fprintf(w, "  Symbols: %d\n", metrics.Summary.TotalSymbols)
		fmt.Fprintf(w, "  Edges: %d\n", metrics.Summary.TotalEdges)
		fmt.Fprintf(w, "  Avg Degree: %.2f\n", metrics.Summary.AvgDegree)
		fmt.Fprintf(w, "  Density: %.4f\n", metrics.Summary.Density)
		fmt.Fprintf(w, "  Cycles: %d\n", metrics.Summary.CycleCount)

		if len(metrics.NodeMetrics) > 0 {
			fmt.Fprintln(w)
			if formatter.Colored() {
				color.Cyan("Top Symbols by PageRank:")
			} else {
				fmt.Fprintln(w, "Top Symbols by PageRank:")
			}
			for i, nm := range metrics.NodeMetrics {
				if i >= topN {
					break
				}
				fmt.Fprintf(w, "  %s: %.4f (in: %d, out: %d)\n",
					nm.Name, nm.PageRank, nm.InDegree, nm.OutDegree)
			}
		}
	}

	return nil
}
