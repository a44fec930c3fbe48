package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mirror/internal/config"
	"github.com/roach88/mirror/internal/mirror"
	"github.com/roach88/mirror/internal/store"
	"github.com/roach88/mirror/internal/transport"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Config   string
	Database string // overrides journal.db
	Args     []string
	Kwargs   []string
	Static   bool
}

// CallResult is the call payload.
type CallResult struct {
	ID        string `json:"id"`
	Location  string `json:"location"`
	TypePath  string `json:"type_path"`
	Type      string `json:"pointer_type"`
	Delivered int    `json:"delivered"`
	LastSeq   int64  `json:"last_seq"`
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <path>",
		Short: "Dispatch a bound call and journal the resulting actions",
		Long: `Mirror <path>, dispatch a bound call on it and print the placeholder
pointer for the result. Argument uploads and the run action are delivered
to the configured address and journaled in SQLite.

Arguments are JSON. Integers stay integers; other numbers are floats.

Example:
  mirror call lib.python.List.append --config mirror.toml --arg '[1,2]' --kwarg 'x="y"'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "mirror.toml", "path to TOML config")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database (overrides journal.db)")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "positional argument as JSON (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Kwargs, "kwarg", nil, "keyword argument as name=JSON (repeatable)")
	cmd.Flags().BoolVar(&opts.Static, "static", false, "dispatch without a bound instance")

	return cmd
}

func runCall(opts *CallOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid config", err)
	}
	level, _ := cfg.Level()
	setupLogging(cmd.ErrOrStderr(), opts.Verbose, level)

	args, kwargs, err := parseCallArgs(opts.Args, opts.Kwargs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeArgument, "invalid argument", err)
	}

	table, err := loadTable(formatter, cfg.Mirror.Descriptors)
	if err != nil {
		return err
	}

	tree := mirror.New(table)
	policy, _ := cfg.Policy()
	report, err := tree.Populate(cfg.Mirror.Paths, policy)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeMirror, "cannot mirror configured paths", err)
	}
	slog.Debug("mirror populated", "added", report.Added, "skipped", len(report.Skipped))

	addOpts := mirror.AddOptions{}
	if cmd.Flags().Changed("static") {
		static := opts.Static
		addOpts.Static = &static
	}
	if err := tree.Add(path, addOpts); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeMirror, "cannot mirror "+path, err)
	}
	node, err := tree.Get(path)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeMirror, "cannot mirror "+path, err)
	}

	dbPath := cfg.Journal.DB
	if opts.Database != "" {
		dbPath = opts.Database
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, "cannot open journal", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	lastSeq, err := st.LastSeq(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, "cannot read journal", err)
	}

	addr, _ := cfg.Address()
	clock := transport.NewClockAt(lastSeq)
	collector := transport.NewCollector()
	client := transport.NewClient(table, addr, transport.Fanout(st.Handler(), collector), transport.WithClock(clock))

	p, err := node.Call(ctx, client, args, kwargs)
	if err != nil {
		client.Close()
		return formatter.Fail(ExitFailure, ErrCodeDispatch, "dispatch failed", err)
	}
	slog.Info("call dispatched", "path", path, "result", p.ID.String(), "queued", client.Pending())

	if err := client.Flush(ctx); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeDispatch, "delivery interrupted", err)
	}

	result := CallResult{
		ID:        p.ID.String(),
		Location:  p.Location.String(),
		TypePath:  p.TypePath,
		Type:      p.PointerType,
		Delivered: collector.Len(),
		LastSeq:   clock.Current(),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s %s\n", result.Type, result.ID)
	fmt.Fprintf(formatter.Writer, "  type:      %s\n", result.TypePath)
	fmt.Fprintf(formatter.Writer, "  location:  %s\n", result.Location)
	fmt.Fprintf(formatter.Writer, "  delivered: %d message(s), last seq %d\n", result.Delivered, result.LastSeq)
	return nil
}

// parseCallArgs decodes --arg and --kwarg values.
func parseCallArgs(rawArgs, rawKwargs []string) ([]any, map[string]any, error) {
	args := make([]any, 0, len(rawArgs))
	for i, raw := range rawArgs {
		v, err := decodeJSONArg(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("--arg %d: %w", i, err)
		}
		args = append(args, v)
	}

	kwargs := make(map[string]any, len(rawKwargs))
	for _, raw := range rawKwargs {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("--kwarg %q: expected name=JSON", raw)
		}
		if _, dup := kwargs[name]; dup {
			return nil, nil, fmt.Errorf("--kwarg %q: duplicate name", name)
		}
		v, err := decodeJSONArg(value)
		if err != nil {
			return nil, nil, fmt.Errorf("--kwarg %s: %w", name, err)
		}
		kwargs[name] = v
	}
	return args, kwargs, nil
}

// decodeJSONArg parses one JSON value, keeping integers as int64.
func decodeJSONArg(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid JSON: trailing data")
	}
	return fromJSONNumbers(v)
}

func fromJSONNumbers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", val, err)
		}
		return f, nil
	case []any:
		for i, elem := range val {
			conv, err := fromJSONNumbers(elem)
			if err != nil {
				return nil, err
			}
			val[i] = conv
		}
		return val, nil
	case map[string]any:
		for k, elem := range val {
			conv, err := fromJSONNumbers(elem)
			if err != nil {
				return nil, err
			}
			val[k] = conv
		}
		return val, nil
	default:
		return v, nil
	}
}
