package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/ir"
	"github.com/roach88/mirror/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	Address  string
	Kind     string
}

// JournalEntry is one journaled message in journal output.
type JournalEntry struct {
	Seq      int64           `json:"seq"`
	Kind     string          `json:"kind"`
	ID       string          `json:"id"`
	Address  string          `json:"address"`
	Envelope json.RawMessage `json:"envelope"`
}

// JournalResult is the journal payload.
type JournalResult struct {
	Messages []JournalEntry `json:"messages"`
	Counts   map[string]int `json:"counts"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journaled messages in delivery order",
		Long: `List the messages recorded by previous calls, ordered by delivery
sequence.

Example:
  mirror journal --db ./mirror.db --address net/dom/dev/vm0 --kind run`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	cmd.Flags().StringVar(&opts.Address, "address", "", "only messages for this destination")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only messages of this kind")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var addr ir.Address
	if opts.Address != "" {
		parsed, err := ir.ParseAddress(opts.Address)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid --address", err)
		}
		addr = parsed
	}

	// Open would create an empty journal; reading a missing one is an error.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "journal not found: "+opts.Database, err)
	}

	st, err := store.Open(opts.Database)
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

	records, err := st.ReadMessages(ctx, addr)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, "cannot read journal", err)
	}
	counts, err := st.CountByKind(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, "cannot read journal", err)
	}

	result := JournalResult{Messages: []JournalEntry{}, Counts: counts}
	for _, rec := range records {
		if opts.Kind != "" && rec.Message.Kind() != opts.Kind {
			continue
		}
		envelope, err := action.Encode(rec.Message)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeJournal, "cannot encode message", err)
		}
		result.Messages = append(result.Messages, JournalEntry{
			Seq:      rec.Seq,
			Kind:     rec.Message.Kind(),
			ID:       rec.Message.ID().String(),
			Address:  rec.Message.Destination().String(),
			Envelope: envelope,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, e := range result.Messages {
		fmt.Fprintf(formatter.Writer, "%6d  %-22s %s -> %s\n", e.Seq, e.Kind, e.ID, e.Address)
		formatter.VerboseLog("        %s", e.Envelope)
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	fmt.Fprintf(formatter.Writer, "%d message(s)", len(result.Messages))
	for _, k := range kinds {
		fmt.Fprintf(formatter.Writer, ", %s=%d", k, counts[k])
	}
	fmt.Fprintln(formatter.Writer)
	return nil
}
