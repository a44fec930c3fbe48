package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/ir"
	"github.com/roach88/mirror/internal/transport"
)

// WriteDelivery journals one delivered message.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - redelivery is a no-op.
//
// For a RunAction every argument pointer is recorded in message_args in
// the same transaction, so the consumers of a result can be queried.
func (s *Store) WriteDelivery(ctx context.Context, d transport.Delivery) error {
	if d.Message == nil {
		return fmt.Errorf("write delivery: nil message")
	}
	envelope, err := action.Encode(d.Message)
	if err != nil {
		return fmt.Errorf("write delivery: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write delivery: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages
		(id, seq, kind, address, envelope, wire_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		d.Message.ID().String(),
		d.Seq,
		d.Message.Kind(),
		d.Message.Destination().String(),
		string(envelope),
		ir.WireVersion,
	)
	if err != nil {
		return fmt.Errorf("write delivery: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write delivery: %w", err)
	}

	if run, ok := d.Message.(action.RunAction); ok && inserted > 0 {
		for _, arg := range runArgs(run) {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO message_args (message_id, position, pointer_id, type_path)
				VALUES (?, ?, ?, ?)
				ON CONFLICT DO NOTHING
			`, run.ResultID.String(), arg.Position, arg.PointerID.String(), arg.TypePath)
			if err != nil {
				return fmt.Errorf("write delivery: arg %s: %w", arg.Position, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write delivery: commit: %w", err)
	}
	return nil
}

// runArgs lists argument pointers in call order: positional first, then
// keyword arguments sorted by name.
func runArgs(run action.RunAction) []ArgRecord {
	out := make([]ArgRecord, 0, len(run.Args)+len(run.Kwargs))
	for i, p := range run.Args {
		out = append(out, ArgRecord{
			MessageID: run.ResultID,
			Position:  fmt.Sprintf("args[%d]", i),
			PointerID: p.ID,
			TypePath:  p.TypePath,
		})
	}
	keys := make([]string, 0, len(run.Kwargs))
	for k := range run.Kwargs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		p := run.Kwargs[k]
		out = append(out, ArgRecord{
			MessageID: run.ResultID,
			Position:  "kwargs." + k,
			PointerID: p.ID,
			TypePath:  p.TypePath,
		})
	}
	return out
}
