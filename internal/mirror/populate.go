package mirror

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/mirror/internal/descriptor"
)

// Policy decides what bulk population does when one path fails.
type Policy int

const (
	// FailFast stops at the first failing path.
	FailFast Policy = iota
	// SkipAndLog logs the failure and continues with the next path.
	SkipAndLog
)

func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail"
	case SkipAndLog:
		return "skip"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "fail" and "skip".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail", "":
		return FailFast, nil
	case "skip":
		return SkipAndLog, nil
	default:
		return FailFast, fmt.Errorf("unknown population policy %q: must be fail or skip", s)
	}
}

// PathSpec is one path to mirror with its terminal options.
// ConstructionArgs holds decoded YAML or TOML values; setting any implies
// RequiresConstruction.
type PathSpec struct {
	Path                 string `toml:"path" yaml:"path"`
	ReturnType           string `toml:"return_type" yaml:"return_type,omitempty"`
	Static               *bool  `toml:"static" yaml:"static,omitempty"`
	RequiresConstruction bool   `toml:"requires_construction" yaml:"requires_construction,omitempty"`
	ConstructionArgs     []any  `toml:"construction_args" yaml:"construction_args,omitempty"`
}

func (s PathSpec) options() (AddOptions, error) {
	opts := AddOptions{
		ReturnType:           s.ReturnType,
		Static:               s.Static,
		RequiresConstruction: s.RequiresConstruction || len(s.ConstructionArgs) > 0,
	}
	for i, a := range s.ConstructionArgs {
		v, err := descriptor.ValueOf(a)
		if err != nil {
			return AddOptions{}, &Error{Code: CodeUsage, Path: SplitPath(s.Path), Err: fmt.Errorf("%w: construction_args[%d]: %w", ErrUsage, i, err)}
		}
		opts.ConstructionArgs = append(opts.ConstructionArgs, v)
	}
	return opts, nil
}

// Validate checks the path entry without touching a tree.
func (s PathSpec) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("path is required")
	}
	_, err := s.options()
	return err
}

// PathError is one failed path in a population run.
type PathError struct {
	Path string
	Err  error
}

// PopulateReport summarizes a population run.
type PopulateReport struct {
	Added   int
	Skipped []PathError
}

// Populate mirrors every spec in order. Under FailFast the first error is
// returned with the report so far. Under SkipAndLog failures are logged,
// collected in the report, and the returned error is nil.
func (t *Tree) Populate(specs []PathSpec, policy Policy) (PopulateReport, error) {
	var report PopulateReport
	for _, s := range specs {
		opts, err := s.options()
		if err == nil {
			err = t.Add(s.Path, opts)
		}
		if err != nil {
			if policy == FailFast {
				return report, fmt.Errorf("populate %s: %w", s.Path, err)
			}
			slog.Warn("skipping path",
				"path", s.Path,
				"error", err,
			)
			report.Skipped = append(report.Skipped, PathError{Path: s.Path, Err: err})
			continue
		}
		report.Added++
	}
	return report, nil
}

// TablePaths lists every path the table publishes, parents before children.
func TablePaths(table *descriptor.Table) []PathSpec {
	var specs []PathSpec
	table.Walk(func(_ descriptor.Ref, e descriptor.Entry, _ int) {
		specs = append(specs, PathSpec{Path: e.Path})
	})
	return specs
}
