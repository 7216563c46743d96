package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestGetUserByEmail(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT id, password_hash FROM users`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("u1", "hash"))

	id, hash, err := st.GetUserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if id != "u1" || hash != "hash" {
		t.Fatalf("got %s/%s", id, hash)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetUserByEmailNotFound(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT id, password_hash FROM users`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, _, err := st.GetUserByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreateUser(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "alice@example.com", "hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.CreateUser(context.Background(), "alice@example.com", "hash"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "body", "team", "author", "content_type", "confidentiality", "tags", "updated_at"}).
		AddRow("d1", "Churn report", "body", "growth", "alice", "doc", "internal", []byte(`{churn,retention}`), now)
	mock.ExpectQuery(`SELECT id, title, body, team, author, content_type, confidentiality, tags, updated_at`).
		WillReturnRows(rows)

	docs, err := st.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	d := docs[0]
	if d.ID != "d1" || d.Title != "Churn report" || d.Team != "growth" {
		t.Fatalf("document fields wrong: %+v", d)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "churn" {
		t.Fatalf("tags not decoded: %v", d.Tags)
	}
}

func TestListPeopleDecodesInterests(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "team", "role", "interests", "updated_at"}).
		AddRow("p1", "Alice", "data", "scientist", []byte(`{"churn modeling",dbt}`), now)
	mock.ExpectQuery(`SELECT id, name, team, role, interests, updated_at FROM people`).
		WillReturnRows(rows)

	people, err := st.ListPeople(context.Background())
	if err != nil {
		t.Fatalf("ListPeople: %v", err)
	}
	if len(people) != 1 || people[0].Name != "Alice" {
		t.Fatalf("people wrong: %+v", people)
	}
	if len(people[0].Interests) != 2 || people[0].Interests[0] != "churn modeling" {
		t.Fatalf("interests not decoded: %v", people[0].Interests)
	}
}

func TestRecentDocumentsPassesCutoff(t *testing.T) {
	st, mock := newMockStore(t)
	since := time.Now().Add(-30 * 24 * time.Hour)
	mock.ExpectQuery(`FROM documents WHERE updated_at`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "body", "team", "author", "content_type", "confidentiality", "tags", "updated_at"}))

	docs, err := st.RecentDocuments(context.Background(), since)
	if err != nil {
		t.Fatalf("RecentDocuments: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no rows, got %d", len(docs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
