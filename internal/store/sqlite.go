package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rmcgowen/haven/internal/catalog"
	"github.com/rmcgowen/haven/internal/domain"
	"github.com/rmcgowen/haven/internal/shared"
	_ "modernc.org/sqlite"
)

const metaCatalogVersion = "catalog_version"

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	contextMu sync.Mutex // serializes context read-modify-write
}

// NewSQLite creates a new SQLite-backed repository. Callers that cannot open
// the store should fall back to NewMemory for the session.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w (%w)", err, ErrUnavailable)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w (%w)", err, ErrUnavailable)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w (%w)", err, ErrUnavailable)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);

	CREATE TABLE IF NOT EXISTS actions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		script TEXT NOT NULL DEFAULT '',
		bring_list TEXT NOT NULL DEFAULT '[]',
		priority INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		completed_at INTEGER,
		notes TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_actions_status ON actions(status);
	CREATE INDEX IF NOT EXISTS idx_actions_priority ON actions(priority);

	CREATE TABLE IF NOT EXISTS user_context (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profile (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS medications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		dose TEXT NOT NULL DEFAULT '',
		frequency TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS appointments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		date INTEGER NOT NULL,
		time TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		bring_list TEXT NOT NULL DEFAULT '[]',
		notes TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date);

	CREATE TABLE IF NOT EXISTS contacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		organization TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS case_numbers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		number TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// AppendMessage persists one chat message. An id that is already stored is
// ignored, so replaying history older than the restore window cannot wedge
// persistence.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg domain.Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("append message: invalid role %q", msg.Role)
	}
	query := `INSERT OR IGNORE INTO messages (id, role, content, timestamp) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, msg.ID, string(msg.Role), msg.Content, msg.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// RecentMessages returns the most recent limit messages, oldest first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, role, content, timestamp
		FROM messages ORDER BY timestamp DESC, rowid DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close message rows", "error", closeErr)
		}
	}()

	var msgs []domain.Message
	for rows.Next() {
		var msg domain.Message
		var role string
		var ts int64
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.Role = domain.Role(role)
		msg.Timestamp = time.Unix(0, ts)
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Rows arrive newest-first; flip to chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ClearMessages wipes the message history only.
func (s *SQLiteStore) ClearMessages(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}

// SeedActions seeds or migrates the action plan in a single transaction. The
// whole reconciliation happens against a snapshot read inside the
// transaction, so a crash mid-migration leaves the old state and a retry
// converges to the same end state.
func (s *SQLiteStore) SeedActions(ctx context.Context, cat []domain.ActionItem, version int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Warn("failed to roll back seed transaction", "error", rbErr)
		}
	}()

	storedVersion, err := readMetaInt(tx, metaCatalogVersion)
	if err != nil {
		return err
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions`).Scan(&count); err != nil {
		return fmt.Errorf("count actions: %w", err)
	}

	if storedVersion == version && count > 0 {
		return nil
	}

	stored, err := scanActions(tx, ctx)
	if err != nil {
		return err
	}

	reconciled := catalog.Reconcile(stored, cat)

	if _, err := tx.ExecContext(ctx, `DELETE FROM actions`); err != nil {
		return fmt.Errorf("clear actions for reseed: %w", err)
	}
	for _, item := range reconciled {
		if err := insertAction(tx, ctx, item); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaCatalogVersion, strconv.Itoa(version),
	); err != nil {
		return fmt.Errorf("record catalog version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	slog.Info("Action catalog seeded", "version", version, "previous_version", storedVersion, "items", len(reconciled))
	return nil
}

func readMetaInt(tx *sql.Tx, key string) (int, error) {
	var raw string
	err := tx.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read meta %s: %w", key, err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse meta %s: %w", key, err)
	}
	return v, nil
}

func scanActions(tx *sql.Tx, ctx context.Context) ([]domain.ActionItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, title, description, phone, script, bring_list, priority, status, completed_at, notes
		FROM actions ORDER BY priority, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close action rows", "error", closeErr)
		}
	}()

	var items []domain.ActionItem
	for rows.Next() {
		item, err := scanActionRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActionRow(row rowScanner) (domain.ActionItem, error) {
	var item domain.ActionItem
	var status, bringList string
	var completedAt sql.NullInt64

	if err := row.Scan(
		&item.ID, &item.Title, &item.Description, &item.Phone, &item.Script,
		&bringList, &item.Priority, &status, &completedAt, &item.Notes,
	); err != nil {
		return domain.ActionItem{}, fmt.Errorf("scan action row: %w", err)
	}

	item.Status = domain.ActionStatus(status)
	if completedAt.Valid {
		ts := time.Unix(0, completedAt.Int64)
		item.CompletedAt = &ts
	}
	if err := json.Unmarshal([]byte(bringList), &item.BringList); err != nil {
		return domain.ActionItem{}, fmt.Errorf("decode bring list for %s: %w", item.ID, err)
	}
	return item, nil
}

func insertAction(tx *sql.Tx, ctx context.Context, item domain.ActionItem) error {
	bringList, err := json.Marshal(item.BringList)
	if err != nil {
		return fmt.Errorf("encode bring list for %s: %w", item.ID, err)
	}

	var completedAt interface{}
	if item.CompletedAt != nil {
		completedAt = item.CompletedAt.UnixNano()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO actions (id, title, description, phone, script, bring_list, priority, status, completed_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, item.Description, item.Phone, item.Script,
		string(bringList), item.Priority, string(item.Status), completedAt, item.Notes,
	); err != nil {
		return fmt.Errorf("insert action %s: %w", item.ID, err)
	}
	return nil
}

// ListActions returns the action plan sorted by priority.
func (s *SQLiteStore) ListActions(ctx context.Context) ([]domain.ActionItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, phone, script, bring_list, priority, status, completed_at, notes
		FROM actions ORDER BY priority, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close action rows", "error", closeErr)
		}
	}()

	var items []domain.ActionItem
	for rows.Next() {
		item, err := scanActionRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return items, nil
}

// UpdateActionStatus sets status and notes for one action. Retries on SQLite
// concurrency errors.
func (s *SQLiteStore) UpdateActionStatus(ctx context.Context, id string, status domain.ActionStatus, notes string) error {
	if !status.Valid() {
		return fmt.Errorf("update action %s: invalid status %q", id, status)
	}

	var completedAt interface{}
	if status == domain.ActionDone {
		completedAt = time.Now().UnixNano()
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		result, err := s.db.ExecContext(ctx,
			`UPDATE actions SET status = ?, completed_at = ?, notes = ? WHERE id = ?`,
			string(status), completedAt, notes, id)
		if err != nil {
			lastErr = err
			if shared.IsSQLiteConflictError(err) {
				time.Sleep(100 * time.Millisecond << attempt)
				continue
			}
			return fmt.Errorf("update action %s: %w", id, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("update action %s: %w", id, ErrNotFound)
		}
		return nil
	}
	return fmt.Errorf("update action %s: %w", id, lastErr)
}

// Context returns the stored user context.
func (s *SQLiteStore) Context(ctx context.Context) (domain.UserContext, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM user_context WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return domain.UserContext{}, nil
	}
	if err != nil {
		return domain.UserContext{}, fmt.Errorf("query user context: %w", err)
	}

	var uc domain.UserContext
	if err := json.Unmarshal([]byte(data), &uc); err != nil {
		return domain.UserContext{}, fmt.Errorf("decode user context: %w", err)
	}
	return uc, nil
}

// MergeContext applies an update under a read-modify-write lock.
func (s *SQLiteStore) MergeContext(ctx context.Context, update domain.ContextUpdate) (domain.UserContext, error) {
	s.contextMu.Lock()
	defer s.contextMu.Unlock()

	current, err := s.Context(ctx)
	if err != nil {
		return domain.UserContext{}, err
	}

	merged := current.Merge(update, time.Now())
	data, err := json.Marshal(merged)
	if err != nil {
		return domain.UserContext{}, fmt.Errorf("encode user context: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO user_context (id, data) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, string(data),
	); err != nil {
		return domain.UserContext{}, fmt.Errorf("upsert user context: %w", err)
	}
	return merged, nil
}

// ClearContext resets the user context.
func (s *SQLiteStore) ClearContext(ctx context.Context) error {
	s.contextMu.Lock()
	defer s.contextMu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_context WHERE id = 1`); err != nil {
		return fmt.Errorf("clear user context: %w", err)
	}
	return nil
}

// Profile returns the singleton profile, seeding the default on first read.
func (s *SQLiteStore) Profile(ctx context.Context) (domain.Profile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM profile WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		p := domain.DefaultProfile()
		if err := s.UpdateProfile(ctx, p); err != nil {
			return domain.Profile{}, err
		}
		return p, nil
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("query profile: %w", err)
	}

	var p domain.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

// UpdateProfile replaces the stored profile.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, p domain.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (id, data) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, string(data),
	); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// ListMedications returns all medications ordered by name.
func (s *SQLiteStore) ListMedications(ctx context.Context) ([]domain.Medication, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, dose, frequency, notes FROM medications ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query medications: %w", err)
	}
	defer closeRows(rows, "medication")

	var out []domain.Medication
	for rows.Next() {
		var m domain.Medication
		if err := rows.Scan(&m.ID, &m.Name, &m.Dose, &m.Frequency, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan medication row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddMedication inserts a medication and returns its id.
func (s *SQLiteStore) AddMedication(ctx context.Context, m domain.Medication) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO medications (name, dose, frequency, notes) VALUES (?, ?, ?, ?)`,
		m.Name, m.Dose, m.Frequency, m.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert medication: %w", err)
	}
	return res.LastInsertId()
}

// DeleteMedication removes a medication by id.
func (s *SQLiteStore) DeleteMedication(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "medications", id)
}

// ListAppointments returns all appointments ordered by date.
func (s *SQLiteStore) ListAppointments(ctx context.Context) ([]domain.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, date, time, location, phone, bring_list, notes
		FROM appointments ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer closeRows(rows, "appointment")

	var out []domain.Appointment
	for rows.Next() {
		var a domain.Appointment
		var date int64
		var bringList string
		if err := rows.Scan(&a.ID, &a.Title, &date, &a.Time, &a.Location, &a.Phone, &bringList, &a.Notes); err != nil {
			return nil, fmt.Errorf("scan appointment row: %w", err)
		}
		a.Date = time.Unix(0, date)
		if err := json.Unmarshal([]byte(bringList), &a.BringList); err != nil {
			return nil, fmt.Errorf("decode appointment bring list: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddAppointment inserts an appointment and returns its id.
func (s *SQLiteStore) AddAppointment(ctx context.Context, a domain.Appointment) (int64, error) {
	bringList, err := json.Marshal(a.BringList)
	if err != nil {
		return 0, fmt.Errorf("encode appointment bring list: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO appointments (title, date, time, location, phone, bring_list, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.Date.UnixNano(), a.Time, a.Location, a.Phone, string(bringList), a.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert appointment: %w", err)
	}
	return res.LastInsertId()
}

// DeleteAppointment removes an appointment by id.
func (s *SQLiteStore) DeleteAppointment(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "appointments", id)
}

// ListContacts returns all contacts ordered by name.
func (s *SQLiteStore) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, phone, organization, notes FROM contacts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer closeRows(rows, "contact")

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Role, &c.Phone, &c.Organization, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddContact inserts a contact and returns its id.
func (s *SQLiteStore) AddContact(ctx context.Context, c domain.Contact) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (name, role, phone, organization, notes) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Role, c.Phone, c.Organization, c.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert contact: %w", err)
	}
	return res.LastInsertId()
}

// DeleteContact removes a contact by id.
func (s *SQLiteStore) DeleteContact(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "contacts", id)
}

// ListCaseNumbers returns all case numbers ordered by type.
func (s *SQLiteStore) ListCaseNumbers(ctx context.Context) ([]domain.CaseNumber, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, number, notes FROM case_numbers ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("query case numbers: %w", err)
	}
	defer closeRows(rows, "case number")

	var out []domain.CaseNumber
	for rows.Next() {
		var n domain.CaseNumber
		if err := rows.Scan(&n.ID, &n.Type, &n.Number, &n.Notes); err != nil {
			return nil, fmt.Errorf("scan case number row: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// AddCaseNumber inserts a case number and returns its id.
func (s *SQLiteStore) AddCaseNumber(ctx context.Context, n domain.CaseNumber) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO case_numbers (type, number, notes) VALUES (?, ?, ?)`,
		n.Type, n.Number, n.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert case number: %w", err)
	}
	return res.LastInsertId()
}

// DeleteCaseNumber removes a case number by id.
func (s *SQLiteStore) DeleteCaseNumber(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "case_numbers", id)
}

func (s *SQLiteStore) deleteByID(ctx context.Context, table string, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete from %s: %w", table, ErrNotFound)
	}
	return nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "entity", what, "error", err)
	}
}
