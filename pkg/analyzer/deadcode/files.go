package deadcode

import (
	"context"
	"fmt"

	"github.com/thomasaiwilcox/strictswift/internal/fileproc"
	"github.com/thomasaiwilcox/strictswift/pkg/analyzer"
	"github.com/thomasaiwilcox/strictswift/pkg/config"
	"github.com/thomasaiwilcox/strictswift/pkg/parser"
	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
	"github.com/thomasaiwilcox/strictswift/pkg/symbolgraph"
)

// Analyzer is the file-level pipeline: parse the sources in parallel, build
// the symbol graph, then classify it.
type Analyzer struct {
	cfg    config.DeadCodeConfig
	module string
	graph  *symbolgraph.Graph
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithModule sets the module name used when deriving symbol identities.
func WithModule(name string) Option {
	return func(a *Analyzer) {
		a.module = name
	}
}

// New creates an analyzer with the given classification config.
func New(cfg config.DeadCodeConfig, opts ...Option) *Analyzer {
	a := &Analyzer{cfg: cfg, module: "Main"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compile-time interface check.
var _ analyzer.FileAnalyzer[*Result] = (*Analyzer)(nil)

// Analyze parses the files, builds the graph, and classifies it. Files that
// fail to parse are skipped; analysis fails only when nothing parsed at all.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Result, error) {
	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.SetTotal(len(files))
	}

	producer := parser.NewProducer(a.module)
	inputs, errs := fileproc.MapFilesWithContextAndProgress(ctx, files,
		func(p *parser.Parser, path string) (symbol.FileInput, error) {
			fi, err := producer.ProduceFile(p, path)
			if err != nil {
				return symbol.FileInput{}, err
			}
			return *fi, nil
		},
		func() {
			if tracker != nil {
				tracker.Tick("")
			}
		},
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 && errs != nil {
		return nil, fmt.Errorf("no files parsed: %w", errs)
	}

	g := symbolgraph.New()
	if err := g.Build(ctx, inputs); err != nil {
		return nil, err
	}
	a.graph = g

	return AnalyzeGraph(ctx, g, a.cfg)
}

// Graph returns the symbol graph built by the last Analyze call, for callers
// that want metrics or incremental updates on top of it.
func (a *Analyzer) Graph() *symbolgraph.Graph {
	return a.graph
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {}
