// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/javajoker/license-backend/internal/models"
)

// sqliteMigrations is applied in order on startup. Each statement is
// idempotent so re-running is safe.
var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS license_keys (
		id            TEXT PRIMARY KEY,
		key_hash      TEXT UNIQUE NOT NULL,
		is_active     INTEGER NOT NULL DEFAULT 1,
		is_registered INTEGER NOT NULL DEFAULT 0,
		username      TEXT UNIQUE,
		password_hash TEXT,
		hwid          TEXT,
		created_by    TEXT,
		created_at    TEXT NOT NULL,
		expires_at    TEXT,
		last_used_at  TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS license_events (
		id             TEXT PRIMARY KEY,
		license_key_id TEXT,
		action         TEXT NOT NULL,
		outcome        TEXT NOT NULL,
		reason         TEXT NOT NULL DEFAULT '',
		username       TEXT NOT NULL DEFAULT '',
		hwid           TEXT NOT NULL DEFAULT '',
		ip_address     TEXT NOT NULL DEFAULT '',
		user_agent     TEXT NOT NULL DEFAULT '',
		details        TEXT,
		created_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_license_keys_expires_at ON license_keys(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_license_events_key ON license_events(license_key_id)`,
	`CREATE INDEX IF NOT EXISTS idx_license_events_action ON license_events(action, created_at)`,
}

const licenseKeyColumns = `id, key_hash, is_active, is_registered, username, password_hash, hwid, created_by, created_at, expires_at, last_used_at`

// SQLiteStore implements LicenseKeyStore using an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at path and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite handles one writer at a time.

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, stmt := range sqliteMigrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, k *models.LicenseKey) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO license_keys (`+licenseKeyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		k.ID.String(), k.KeyHash, k.IsActive, k.IsRegistered,
		nullString(k.Username), nullString(k.PasswordHash), nullString(k.HWID), nullString(k.CreatedBy),
		formatTime(k.CreatedAt), nullTime(k.ExpiresAt), nullTime(k.LastUsedAt))
	return translateSQLiteError(err)
}

func (s *SQLiteStore) FindOne(ctx context.Context, filter Filter) (*models.LicenseKey, error) {
	clause, args, err := filter.where()
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+licenseKeyColumns+` FROM license_keys WHERE `+clause+` LIMIT 1`, args...)
	return scanLicenseKey(row)
}

func (s *SQLiteStore) Update(ctx context.Context, filter Filter, fields Fields) (int64, error) {
	clause, whereArgs, err := filter.where()
	if err != nil {
		return 0, err
	}
	cols, err := fields.columns()
	if err != nil {
		return 0, err
	}

	sets := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols)+len(whereArgs))
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, sqliteValue(fields[col]))
	}
	args = append(args, whereArgs...)

	res, err := s.db.ExecContext(ctx,
		`UPDATE license_keys SET `+strings.Join(sets, ", ")+` WHERE `+clause, args...)
	if err != nil {
		return 0, translateSQLiteError(err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) RecordEvent(ctx context.Context, e *models.LicenseEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var keyID interface{}
	if e.LicenseKeyID != nil {
		keyID = e.LicenseKeyID.String()
	}
	details, err := e.Details.Value()
	if err != nil {
		return fmt.Errorf("encode event details: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO license_events (id, license_key_id, action, outcome, reason, username, hwid, ip_address, user_agent, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), keyID, string(e.Action), string(e.Outcome), e.Reason,
		e.Username, e.HWID, e.IPAddress, e.UserAgent, details, formatTime(e.CreatedAt))
	return err
}

func (s *SQLiteStore) ListEvents(ctx context.Context, licenseKeyID uuid.UUID) ([]*models.LicenseEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, outcome, reason, username, hwid, ip_address, user_agent, details, created_at
		 FROM license_events WHERE license_key_id = ? ORDER BY created_at`, licenseKeyID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var events []*models.LicenseEvent
	for rows.Next() {
		var (
			e               models.LicenseEvent
			id, createdAt   string
			action, outcome string
		)
		if err := rows.Scan(&id, &action, &outcome, &e.Reason, &e.Username, &e.HWID,
			&e.IPAddress, &e.UserAgent, &e.Details, &createdAt); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		e.Action = models.EventAction(action)
		e.Outcome = models.EventOutcome(outcome)
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse event created_at: %w", err)
		}
		keyID := licenseKeyID
		e.LicenseKeyID = &keyID
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLicenseKey(row rowScanner) (*models.LicenseKey, error) {
	var (
		k                                       models.LicenseKey
		id, createdAt                           string
		username, passwordHash, hwid, createdBy sql.NullString
		expiresAt, lastUsedAt                   sql.NullString
	)
	err := row.Scan(&id, &k.KeyHash, &k.IsActive, &k.IsRegistered,
		&username, &passwordHash, &hwid, &createdBy, &createdAt, &expiresAt, &lastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if k.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse license key id: %w", err)
	}
	if k.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	k.Username = stringPtr(username)
	k.PasswordHash = stringPtr(passwordHash)
	k.HWID = stringPtr(hwid)
	k.CreatedBy = stringPtr(createdBy)
	if k.ExpiresAt, err = timePtr(expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	if k.LastUsedAt, err = timePtr(lastUsedAt); err != nil {
		return nil, fmt.Errorf("parse last_used_at: %w", err)
	}
	return &k, nil
}

func translateSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// Times are stored as RFC 3339 text in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func sqliteValue(v interface{}) interface{} {
	switch x := v.(type) {
	case time.Time:
		return formatTime(x)
	case *time.Time:
		return nullTime(x)
	case *string:
		return nullString(x)
	default:
		return v
	}
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
