package preflight

import (
	"context"

	"editpdf/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckQueueDatabase(ctx, cfg.QueueDBPath()))

	if cfg.Converter.BaseURL != "" {
		results = append(results, CheckConverter(ctx, cfg.Converter.BaseURL, cfg.Converter.APIToken))
	} else {
		results = append(results, Result{Name: "Converter", Detail: "converter.base_url not configured"})
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
