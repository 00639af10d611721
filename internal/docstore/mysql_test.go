// internal/docstore/mysql_test.go
//
// Unit-tests for the MySQL backend using sqlmock.
//
// Run: go test ./internal/docstore -run MySQL -v

package docstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

func newMockMySQL(t *testing.T) (*MySQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewMySQL(sqlx.NewDb(db, "mysql"), "")
	if err != nil {
		t.Fatalf("NewMySQL: %v", err)
	}
	return store, mock
}

const insertPrefix = `INSERT INTO documents (path, collection, data, updated_at) VALUES (?, ?, ?, ?)`

func TestMySQLGet(t *testing.T) {
	store, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT path, data FROM documents WHERE path = ?`)).
		WithArgs("leads/jane@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"path", "data"}).
			AddRow("leads/jane@x.com", []byte(`{"email":"jane@x.com","name":"Jane Doe"}`)))

	snap, err := store.Get(context.Background(), "leads/jane@x.com")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if snap.Data["name"] != "Jane Doe" {
		t.Fatalf("unexpected data: %#v", snap.Data)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMySQLGet_NotFound(t *testing.T) {
	store, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT path, data FROM documents WHERE path = ?`)).
		WithArgs("leads/nobody@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"path", "data"}))

	_, err := store.Get(context.Background(), "leads/nobody@x.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMySQLQueryEqual(t *testing.T) {
	store, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT path, data FROM documents WHERE collection = ? AND JSON_UNQUOTE(JSON_EXTRACT(data, ?)) = ? ORDER BY path`,
	)).
		WithArgs("leads", `$."email"`, "jane@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"path", "data"}).
			AddRow("leads/legacy-id", []byte(`{"email":"jane@x.com"}`)))

	got, err := store.QueryEqual(context.Background(), "leads", "email", "jane@x.com")
	if err != nil {
		t.Fatalf("QueryEqual error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "legacy-id" {
		t.Fatalf("unexpected result: %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMySQLCommit(t *testing.T) {
	store, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertPrefix)+`$`).
		WithArgs("leads/jane@x.com", "leads", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`JSON_MERGE_PATCH(data, VALUES(data))`)).
		WithArgs("countries/brazil", "countries", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Commit(context.Background(), []Write{
		{Path: "leads/jane@x.com", Data: Data{"email": "jane@x.com", "createdAt": ServerTime}, Op: OpCreate},
		{Path: "countries/brazil", Data: Data{"name": "Brazil"}, Op: OpMerge},
	})
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMySQLCommit_DuplicateRollsBack(t *testing.T) {
	store, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertPrefix)).
		WithArgs("leads/jane@x.com", "leads", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := store.Commit(context.Background(), []Write{
		{Path: "leads/jane@x.com", Data: Data{"email": "jane@x.com"}, Op: OpCreate},
		{Path: "health/jane@x.com", Data: Data{"email": "jane@x.com"}},
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestNewMySQL_RejectsBadTable(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()
	if _, err := NewMySQL(sqlx.NewDb(db, "mysql"), "documents; DROP TABLE x"); err == nil {
		t.Fatal("expected invalid table name error")
	}
}
