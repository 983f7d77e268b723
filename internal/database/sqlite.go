package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leca/ace-image-gateway/internal/model"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DefaultMaxRows is how many deliveries are kept when no limit is given.
const DefaultMaxRows = 10000

// Compile-time check that SQLiteDB implements Database.
var _ Database = (*SQLiteDB)(nil)

// SQLiteDB implements Database backed by SQLite.
type SQLiteDB struct {
	db      *sql.DB
	maxRows int
}

// Option configures a SQLiteDB.
type Option func(*SQLiteDB)

// WithMaxRows caps the delivery log at n rows; older rows are pruned on
// insert. Values below 1 keep DefaultMaxRows.
func WithMaxRows(n int) Option {
	return func(s *SQLiteDB) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// NewSQLiteDB opens (or creates) an SQLite database at dsn and runs migrations.
// An empty dsn opens a private in-memory database.
func NewSQLiteDB(dsn string, opts ...Option) (*SQLiteDB, error) {
	if dsn == "" {
		dsn = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	} else if !strings.Contains(dsn, "busy_timeout") {
		dsn += "&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers anyway. An in-memory database lives only as
	// long as its connection, so the one connection is never recycled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLiteDB{db: db, maxRows: DefaultMaxRows}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// withSchema runs op and, if the table is gone because the connection was
// replaced, re-creates the schema and runs op once more.
func (s *SQLiteDB) withSchema(op func() error) error {
	err := op()
	if err == nil || !strings.Contains(err.Error(), "no such table") {
		return err
	}
	if _, mErr := s.db.Exec(schema); mErr != nil {
		return fmt.Errorf("re-run migrations: %w", mErr)
	}
	return op()
}

// Close closes the underlying database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// RecordDelivery inserts d, assigning an id and timestamp when missing.
func (s *SQLiteDB) RecordDelivery(d *model.Delivery) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	err := s.withSchema(func() error {
		_, err := s.db.Exec(`
			INSERT INTO deliveries (id, content_id, asset_path, status, bytes, duration_ms, width, height, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.ContentID, d.AssetPath, d.Status, d.Bytes, d.DurationMS,
			d.Width, d.Height, d.CreatedAt.UTC().Format(timeLayout),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}

	// Keep the newest maxRows rows. The subquery is NULL while under the cap.
	_, err = s.db.Exec(`
		DELETE FROM deliveries WHERE rowid <= (
			SELECT rowid FROM deliveries ORDER BY rowid DESC LIMIT 1 OFFSET ?
		)`, s.maxRows)
	if err != nil {
		return fmt.Errorf("prune deliveries: %w", err)
	}
	return nil
}

// DeliveryStats aggregates the retained deliveries.
func (s *SQLiteDB) DeliveryStats() (*model.DeliveryStats, error) {
	st := &model.DeliveryStats{}
	err := s.withSchema(func() error {
		return s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status BETWEEN 200 AND 299 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status BETWEEN 400 AND 499 AND status <> 404 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 404 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status >= 500 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status BETWEEN 200 AND 299 THEN bytes ELSE 0 END), 0)
		FROM deliveries`,
		).Scan(&st.Total, &st.OK, &st.ClientErrors, &st.NotFound, &st.ServerErrors, &st.BytesServed)
	})
	if err != nil {
		return nil, fmt.Errorf("delivery stats: %w", err)
	}
	return st, nil
}

// RecentDeliveries returns up to limit deliveries, newest first.
func (s *SQLiteDB) RecentDeliveries(limit int) ([]*model.Delivery, error) {
	var rows *sql.Rows
	err := s.withSchema(func() error {
		var err error
		rows, err = s.db.Query(`
			SELECT id, content_id, asset_path, status, bytes, duration_ms, width, height, created_at
			FROM deliveries ORDER BY created_at DESC, rowid DESC LIMIT ?`,
			limit,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []*model.Delivery
	for rows.Next() {
		d := &model.Delivery{}
		var createdStr string
		if err := rows.Scan(&d.ID, &d.ContentID, &d.AssetPath, &d.Status, &d.Bytes,
			&d.DurationMS, &d.Width, &d.Height, &createdStr); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		out = append(out, d)
	}
	return out, rows.Err()
}
