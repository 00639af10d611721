// internal/docstore/mysql.go
//
// MySQL / MariaDB backend storing each document as a JSON row.
//
// Context
//   Some deployments already run a MySQL fleet and do not want a second
//   hosted database.  This backend keeps the document model on one table:
//
//	documents (path PK, collection, data JSON, updated_at)
//
//   Commit wraps every write in one transaction.  Create is a plain INSERT
//   and relies on the primary key for create-if-absent; merge uses
//   JSON_MERGE_PATCH so only the supplied fields change.
//
// Notes
//   •  Equality queries compare JSON_UNQUOTE(JSON_EXTRACT(...)) as text, which
//      is sufficient for the string fields we filter on.
//   •  Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// DefaultMySQLTable is used when MySQLOptions.Table is blank.
const DefaultMySQLTable = "documents"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// MySQL is a Store and Batcher backed by a single JSON table.
type MySQL struct {
	db    *sqlx.DB
	table string
	now   func() time.Time
}

var (
	_ Store   = (*MySQL)(nil)
	_ Batcher = (*MySQL)(nil)
)

type docRow struct {
	Path string `db:"path"`
	Data []byte `db:"data"`
}

// execer is satisfied by *sqlx.DB and *sqlx.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewMySQL wraps db.  The table name is validated because it is spliced into
// SQL text.
func NewMySQL(db *sqlx.DB, table string) (*MySQL, error) {
	if db == nil {
		return nil, errors.New("docstore: mysql db required")
	}
	if table == "" {
		table = DefaultMySQLTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("docstore: invalid mysql table name %q", table)
	}
	return &MySQL{
		db:    db,
		table: table,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Migrate creates the documents table when missing.
func (m *MySQL) Migrate(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	path        VARCHAR(768) NOT NULL PRIMARY KEY,
	collection  VARCHAR(768) NOT NULL,
	data        JSON         NOT NULL,
	updated_at  DATETIME(6)  NOT NULL,
	KEY idx_collection (collection)
)`, m.table))
	return mapMySQLErr(err)
}

// Get implements Store.
func (m *MySQL) Get(ctx context.Context, path string) (Snapshot, error) {
	if _, _, err := Split(path); err != nil {
		return Snapshot{}, err
	}
	var row docRow
	err := m.db.GetContext(ctx, &row,
		fmt.Sprintf(`SELECT path, data FROM %s WHERE path = ?`, m.table), path)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, mapMySQLErr(err)
	}
	return row.snapshot()
}

// QueryEqual implements Store.
func (m *MySQL) QueryEqual(ctx context.Context, collection, field string, value any) ([]Snapshot, error) {
	var rows []docRow
	err := m.db.SelectContext(ctx, &rows,
		fmt.Sprintf(`SELECT path, data FROM %s WHERE collection = ? AND JSON_UNQUOTE(JSON_EXTRACT(data, ?)) = ? ORDER BY path`, m.table),
		collection, jsonPath(field), fmt.Sprint(value))
	if err != nil {
		return nil, mapMySQLErr(err)
	}
	return snapshots(rows)
}

// List implements Store.
func (m *MySQL) List(ctx context.Context, collection string) ([]Snapshot, error) {
	var rows []docRow
	err := m.db.SelectContext(ctx, &rows,
		fmt.Sprintf(`SELECT path, data FROM %s WHERE collection = ? ORDER BY path`, m.table),
		collection)
	if err != nil {
		return nil, mapMySQLErr(err)
	}
	return snapshots(rows)
}

// Apply implements Store.
func (m *MySQL) Apply(ctx context.Context, w Write) error {
	return m.exec(ctx, m.db, w)
}

// Commit implements Batcher.
func (m *MySQL) Commit(ctx context.Context, writes []Write) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapMySQLErr(err)
	}
	for _, w := range writes {
		if err := m.exec(ctx, tx, w); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return mapMySQLErr(tx.Commit())
}

// Close implements Store.
func (m *MySQL) Close() error { return m.db.Close() }

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func (m *MySQL) exec(ctx context.Context, ex execer, w Write) error {
	collection, _, err := Split(w.Path)
	if err != nil {
		return err
	}
	now := m.now()
	body, err := json.Marshal(resolveServerTime(w.Data, now))
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", w.Path, err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (path, collection, data, updated_at) VALUES (?, ?, ?, ?)`, m.table)
	var q string
	switch w.Op {
	case OpCreate:
		q = insert
	case OpMerge:
		q = insert + ` ON DUPLICATE KEY UPDATE data = JSON_MERGE_PATCH(data, VALUES(data)), updated_at = VALUES(updated_at)`
	default:
		q = insert + ` ON DUPLICATE KEY UPDATE collection = VALUES(collection), data = VALUES(data), updated_at = VALUES(updated_at)`
	}
	_, err = ex.ExecContext(ctx, q, w.Path, collection, body, now)
	return mapMySQLErr(err)
}

func (r docRow) snapshot() (Snapshot, error) {
	var d Data
	if err := json.Unmarshal(r.Data, &d); err != nil {
		return Snapshot{}, fmt.Errorf("docstore: decode %s: %w", r.Path, err)
	}
	return Snapshot{Path: r.Path, Data: d}, nil
}

func snapshots(rows []docRow) ([]Snapshot, error) {
	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		s, err := r.snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// jsonPath quotes field so names with dots or dashes stay one key.
func jsonPath(field string) string { return "$." + strconv.Quote(field) }

func mapMySQLErr(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062: // ER_DUP_ENTRY
			return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
		case 1044, 1045, 1142: // access denied variants
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("docstore: mysql: %w", err)
}
