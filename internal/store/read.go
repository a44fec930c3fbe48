package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/ir"
)

// ErrNotFound is returned when a message is not in the journal.
var ErrNotFound = errors.New("message not found")

// Record is one journaled message.
type Record struct {
	Seq         int64
	Message     action.Message
	WireVersion string
}

// ArgRecord links a RunAction to a pointer it consumed.
type ArgRecord struct {
	MessageID ir.UID
	Position  string
	PointerID ir.UID
	TypePath  string
}

// ReadMessages returns journaled messages destined for addr, or every
// message when addr is zero. Ordered by seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadMessages(ctx context.Context, addr ir.Address) ([]Record, error) {
	query := `
		SELECT seq, envelope, wire_version
		FROM messages
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	var args []any
	if !addr.IsZero() {
		query = `
			SELECT seq, envelope, wire_version
			FROM messages
			WHERE address = ?
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`
		args = append(args, addr.String())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return records, nil
}

// ReadMessage returns the message with the given identity.
func (s *Store) ReadMessage(ctx context.Context, id ir.UID) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, envelope, wire_version
		FROM messages
		WHERE id = ?
	`, id.String())

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// ReadConsumers returns the argument links of every RunAction that took
// the pointer with the given identity, in delivery order.
func (s *Store) ReadConsumers(ctx context.Context, pointerID ir.UID) ([]ArgRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.message_id, a.position, a.pointer_id, a.type_path
		FROM message_args a
		JOIN messages m ON a.message_id = m.id
		WHERE a.pointer_id = ?
		ORDER BY m.seq ASC, a.message_id COLLATE BINARY ASC, a.position COLLATE BINARY ASC
	`, pointerID.String())
	if err != nil {
		return nil, fmt.Errorf("query consumers: %w", err)
	}
	defer rows.Close()

	out := []ArgRecord{}
	for rows.Next() {
		var msgID, ptrID string
		var arg ArgRecord
		if err := rows.Scan(&msgID, &arg.Position, &ptrID, &arg.TypePath); err != nil {
			return nil, fmt.Errorf("scan consumer: %w", err)
		}
		if arg.MessageID, err = ir.ParseUID(msgID); err != nil {
			return nil, err
		}
		if arg.PointerID, err = ir.ParseUID(ptrID); err != nil {
			return nil, err
		}
		out = append(out, arg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consumers: %w", err)
	}
	return out, nil
}

// CountByKind returns the number of journaled messages per kind.
func (s *Store) CountByKind(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM messages GROUP BY kind ORDER BY kind
	`)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// LastSeq returns the highest journaled sequence number, or 0 for an empty
// journal. A restarted client resumes its clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM messages`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var envelope string
	if err := row.Scan(&rec.Seq, &envelope, &rec.WireVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan message: %w", err)
	}
	msg, err := action.Decode([]byte(envelope))
	if err != nil {
		return Record{}, fmt.Errorf("scan message: %w", err)
	}
	rec.Message = msg
	return rec, nil
}
