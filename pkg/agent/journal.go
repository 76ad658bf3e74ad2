package agent

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Journal records every command delivered to this node in a local sqlite
// database. Drains are at-most-once, so the journal is the only durable
// trace of what the node was told to do.
type Journal struct {
	db *sql.DB
}

// JournalEntry is one delivered command.
type JournalEntry struct {
	NodeID  string
	Command string
	Time    time.Time
}

// OpenJournal opens (creating if needed) the journal at path.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS commands(node_id TEXT, command TEXT, ts INTEGER);
CREATE INDEX IF NOT EXISTS idx_commands_node ON commands(node_id);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Record appends a delivered command.
func (j *Journal) Record(nodeID, command string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := j.db.ExecContext(ctx, `INSERT INTO commands(node_id, command, ts) VALUES(?,?,?)`, nodeID, command, time.Now().Unix())
	return err
}

// Recent returns up to limit most recently delivered commands, newest first.
func (j *Journal) Recent(limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rows, err := j.db.QueryContext(ctx, `SELECT node_id, command, ts FROM commands ORDER BY ts DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var ts int64
		if err := rows.Scan(&e.NodeID, &e.Command, &ts); err != nil {
			return nil, err
		}
		e.Time = time.Unix(ts, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
