// Package sqlitevault keeps uploaded saves in a local SQLite database.
package sqlitevault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"chainboy/persist"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS saves (
	id          TEXT PRIMARY KEY,
	device_id   TEXT NOT NULL,
	title       TEXT NOT NULL,
	platform    TEXT NOT NULL,
	captured_at TEXT NOT NULL,
	state       BLOB NOT NULL,
	stored_at   TEXT NOT NULL
);`

var ErrNotFound = errors.New("save not found")

type Driver struct{}

func (d *Driver) DisplayName() string { return "SQLite vault" }

func (d *Driver) DisplayDescription() string {
	return "Stores saves in a local SQLite database file"
}

// Open uses the endpoint as the database path; an empty endpoint keeps everything in memory.
func (d *Driver) Open(cfg persist.Config) (persist.Persister, error) {
	path := cfg.Endpoint
	if path == "" {
		path = ":memory:"
	}
	return Open(path, cfg.DeviceID)
}

func init() {
	persist.Register(driverName, &Driver{})
}

type Vault struct {
	db       *sql.DB
	deviceID string
	log      *log.Logger
}

func Open(path, deviceID string) (*Vault, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create vault directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	// every connection to ":memory:" is its own database:
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to bootstrap vault: %w", err)
	}

	v := &Vault{
		db:       db,
		deviceID: deviceID,
		log:      log.Default().WithPrefix("sqlitevault"),
	}
	v.log.Debug("vault opened", "path", path)
	return v, nil
}

func (v *Vault) Upload(ctx context.Context, record persist.Record) (persist.TransactionID, error) {
	return v.Store(ctx, v.deviceID, record)
}

// Store inserts record on behalf of deviceID. It backs both Upload and the vault server.
func (v *Vault) Store(ctx context.Context, deviceID string, record persist.Record) (persist.TransactionID, error) {
	id := uuid.NewString()
	_, err := v.db.ExecContext(ctx,
		`INSERT INTO saves (id, device_id, title, platform, captured_at, state, stored_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		deviceID,
		record.Title,
		record.Platform,
		record.CapturedAt.UTC().Format(time.RFC3339Nano),
		[]byte(record.State),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store save: %w", err)
	}

	v.log.Info("save stored", "id", id, "title", record.Title, "bytes", len(record.State))
	return persist.TransactionID(id), nil
}

// Get loads a stored record by its transaction id.
func (v *Vault) Get(ctx context.Context, id persist.TransactionID) (persist.Record, error) {
	var (
		title, platform, capturedAt string
		state                       []byte
	)
	err := v.db.QueryRowContext(ctx,
		`SELECT title, platform, captured_at, state FROM saves WHERE id = ?`,
		string(id),
	).Scan(&title, &platform, &capturedAt, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return persist.Record{}, ErrNotFound
	}
	if err != nil {
		return persist.Record{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, capturedAt)
	if err != nil {
		return persist.Record{}, fmt.Errorf("corrupt captured_at %q: %w", capturedAt, err)
	}
	return persist.NewRecord(title, state, t, platform), nil
}

func (v *Vault) Count(ctx context.Context) (n int, err error) {
	err = v.db.QueryRowContext(ctx, `SELECT count(*) FROM saves`).Scan(&n)
	return
}

func (v *Vault) Close() error {
	return v.db.Close()
}
