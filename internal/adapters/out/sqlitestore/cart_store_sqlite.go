// internal/adapters/out/sqlitestore/cart_store_sqlite.go
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	cartdom "musicore/internal/domain/cart"
)

// localRecordVersion is the schema version of the device-local cart record.
const localRecordVersion = 1

// localRecord is the persisted JSON payload of the device slot.
type localRecord struct {
	Version int                `json:"version"`
	Seq     uint64             `json:"seq"`
	SavedAt time.Time          `json:"savedAt"`
	Items   []cartdom.LineItem `json:"items"`
}

// CartStore implements cart.LocalStore on a device SQLite file.
//
// Table design:
//   - kv_slots: slot_key (PK) -> seq, payload(JSON), updated_at
//   - device_meta: k (PK) -> v   (device id etc.)
//
// The cart lives in the single slot cart.LocalStoreKey.
type CartStore struct {
	db  *sql.DB
	key string
	now func() time.Time
	log *zap.Logger
}

// Open opens (or creates) the store at path. ":memory:" is accepted for tests.
func Open(path string, logger *zap.Logger) (*CartStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlitestore: create directory: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)

	s := &CartStore{
		db:  db,
		key: cartdom.LocalStoreKey,
		now: func() time.Time { return time.Now().UTC() },
		log: logger.Named("local_cart_store"),
	}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *CartStore) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv_slots (
			slot_key   TEXT PRIMARY KEY,
			seq        INTEGER NOT NULL,
			payload    TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS device_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlitestore: init schema: %w", err)
		}
	}
	return nil
}

func (s *CartStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the stored snapshot. Missing or malformed records yield an empty snapshot.
func (s *CartStore) Load(ctx context.Context) (cartdom.Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM kv_slots WHERE slot_key = ?`, s.key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return cartdom.Empty(), nil
	}
	if err != nil {
		return cartdom.Empty(), fmt.Errorf("sqlitestore: load: %w", err)
	}

	snap, err := decodeLocalRecord([]byte(payload))
	if err != nil {
		s.log.Warn("stored cart is malformed; treating as empty", zap.Error(err))
		return cartdom.Empty(), nil
	}
	return snap, nil
}

// Save overwrites the slot unless the stored record has a higher seq.
func (s *CartStore) Save(ctx context.Context, snap cartdom.Snapshot) error {
	items := snap.Items
	if items == nil {
		items = []cartdom.LineItem{}
	}
	now := s.now()
	payload, err := json.Marshal(localRecord{
		Version: localRecordVersion,
		Seq:     snap.Seq,
		SavedAt: now,
		Items:   items,
	})
	if err != nil {
		return fmt.Errorf("sqlitestore: encode: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_slots (slot_key, seq, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot_key) DO UPDATE SET
			seq = excluded.seq,
			payload = excluded.payload,
			updated_at = excluded.updated_at
		WHERE excluded.seq >= kv_slots.seq`,
		s.key, int64(snap.Seq), string(payload), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: save: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.log.Debug("stale cart write dropped", zap.Uint64("seq", snap.Seq))
	}
	return nil
}

// Clear deletes the slot.
func (s *CartStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_slots WHERE slot_key = ?`, s.key); err != nil {
		return fmt.Errorf("sqlitestore: clear: %w", err)
	}
	return nil
}

// DeviceID returns this device's stable id, creating it on first use.
func (s *CartStore) DeviceID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM device_meta WHERE k = 'device_id'`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("sqlitestore: device id: %w", err)
	}

	id = uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO device_meta (k, v) VALUES ('device_id', ?)`, id,
	); err != nil {
		return "", fmt.Errorf("sqlitestore: device id: %w", err)
	}
	return id, nil
}

// decodeLocalRecord validates the payload against the versioned schema.
func decodeLocalRecord(b []byte) (cartdom.Snapshot, error) {
	var rec localRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return cartdom.Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	if rec.Version != localRecordVersion {
		return cartdom.Snapshot{}, fmt.Errorf("unsupported record version %d", rec.Version)
	}

	snap := cartdom.Snapshot{Items: rec.Items, Seq: rec.Seq}
	if snap.Items == nil {
		snap.Items = []cartdom.LineItem{}
	}
	if err := snap.Validate(); err != nil {
		return cartdom.Snapshot{}, err
	}
	return snap, nil
}
