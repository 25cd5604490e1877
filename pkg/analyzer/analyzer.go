// Package analyzer defines the contract shared by the analysis passes and the
// progress plumbing the CLI threads through them.
package analyzer

import "context"

// FileAnalyzer is implemented by analyses that consume a set of source files
// and produce a typed result.
type FileAnalyzer[T any] interface {
	// Analyze processes the files and returns the result. The context is
	// used for cancellation and carries the optional progress tracker.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
