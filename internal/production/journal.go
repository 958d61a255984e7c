package production

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/comalice/safetychart"
	"github.com/comalice/safetychart/internal/core"
)

// JournalEntry is one recorded transition.
type JournalEntry struct {
	MachineID string               `json:"machineID"`
	At        time.Time            `json:"at"`
	Event     safetychart.Event    `json:"event"`
	From      safetychart.Snapshot `json:"from"`
	To        safetychart.Snapshot `json:"to"`
}

// Journal is an append-only audit log of transitions stored in SQLite.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

var _ core.EventPublisher = (*Journal)(nil)

// OpenJournal opens the SQLite database at dsn (":memory:" for a
// process-local journal) and creates the schema.
func OpenJournal(dsn string) (*Journal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)
	j, err := NewJournal(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// NewJournal uses an existing database handle and creates the schema.
func NewJournal(db *sql.DB) (*Journal, error) {
	j := &Journal{db: db, now: time.Now}
	if err := j.initSchema(); err != nil {
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			machine_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			event TEXT NOT NULL,
			from_top TEXT NOT NULL,
			from_sub TEXT NOT NULL,
			to_top TEXT NOT NULL,
			to_sub TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transitions_machine_id ON transitions(machine_id, id);
	`)
	return err
}

// Append records e. A zero At is replaced by the current time.
func (j *Journal) Append(ctx context.Context, e JournalEntry) error {
	at := e.At
	if at.IsZero() {
		at = j.now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO transitions (machine_id, at, event, from_top, from_sub, to_top, to_sub)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.MachineID,
		at.UnixNano(),
		e.Event.String(),
		e.From.Top.String(),
		e.From.Sub.String(),
		e.To.Top.String(),
		e.To.Sub.String(),
	)
	if err != nil {
		return fmt.Errorf("append transition: %w", err)
	}
	return nil
}

// List returns the transitions of machineID in the order they were appended.
func (j *Journal) List(ctx context.Context, machineID string) ([]JournalEntry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT machine_id, at, event, from_top, from_sub, to_top, to_sub
		FROM transitions
		WHERE machine_id = ?
		ORDER BY id ASC`, machineID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var atN int64
		var ev, fromTop, fromSub, toTop, toSub string
		if err := rows.Scan(&e.MachineID, &atN, &ev, &fromTop, &fromSub, &toTop, &toSub); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, atN)
		if e.Event, err = safetychart.ParseEvent(ev); err != nil {
			return nil, err
		}
		if e.From, err = parseSnapshot(fromTop, fromSub); err != nil {
			return nil, err
		}
		if e.To, err = parseSnapshot(toTop, toSub); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func parseSnapshot(top, sub string) (safetychart.Snapshot, error) {
	t, err := safetychart.ParseTopState(top)
	if err != nil {
		return safetychart.Snapshot{}, err
	}
	s, err := safetychart.ParseLoaderSubstate(sub)
	if err != nil {
		return safetychart.Snapshot{}, err
	}
	return safetychart.Snapshot{Top: t, Sub: s}, nil
}

// Publish records t with the metadata's machine ID and timestamp.
func (j *Journal) Publish(ctx context.Context, t safetychart.Transition, md core.TransitionMetadata) error {
	return j.Append(ctx, JournalEntry{
		MachineID: md.MachineID,
		At:        md.Timestamp,
		Event:     t.Event,
		From:      t.From,
		To:        t.To,
	})
}

// Observer records transitions of a bare Machine under machineID. Append
// errors are logged, since observers cannot fail.
func (j *Journal) Observer(machineID string, logger *zap.Logger) safetychart.Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return safetychart.ObserverFunc(func(t safetychart.Transition) {
		err := j.Append(context.Background(), JournalEntry{
			MachineID: machineID,
			Event:     t.Event,
			From:      t.From,
			To:        t.To,
		})
		if err != nil {
			logger.Error("journal append failed", zap.Error(err), zap.Stringer("event", t.Event))
		}
	})
}

// Close closes the underlying database.
func (j *Journal) Close() error { return j.db.Close() }
