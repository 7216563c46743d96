package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store wraps the Postgres corpus: the documents, messages, people and
// topics that feed the retrieval index, plus user accounts for the API.
type Store struct {
	DB *sql.DB
}

// NewWithDSN opens a Postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// Document is a knowledge-base document.
type Document struct {
	ID              string
	Title           string
	Body            string
	Team            string
	Author          string
	ContentType     string
	Confidentiality string
	Tags            []string
	UpdatedAt       time.Time
}

// Message is a single message from a team channel.
type Message struct {
	ID      string
	Channel string
	Team    string
	Author  string
	Body    string
	SentAt  time.Time
}

// Person is a directory entry.
type Person struct {
	ID        string
	Name      string
	Team      string
	Role      string
	Interests []string
	UpdatedAt time.Time
}

// Topic is a knowledge topic with its associated teams.
type Topic struct {
	ID          string
	Name        string
	Description string
	Teams       []string
	Keywords    []string
	UpdatedAt   time.Time
}

// CreateUser inserts a user account with a bcrypt password hash.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1,$2,$3,NOW())`,
		uuid.NewString(), email, passwordHash)
	return err
}

// GetUserByEmail returns the user id and password hash for an email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = $1`, email).Scan(&id, &hash)
	if err != nil {
		return "", "", err
	}
	return id, hash, nil
}

// ListDocuments returns all documents for indexing.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, title, body, team, author, content_type, confidentiality, tags, updated_at
FROM documents ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Body, &d.Team, &d.Author, &d.ContentType, &d.Confidentiality, pq.Array(&d.Tags), &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListMessages returns all messages for indexing.
func (s *Store) ListMessages(ctx context.Context) ([]Message, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, channel, team, author, body, sent_at FROM messages ORDER BY sent_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Channel, &m.Team, &m.Author, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListPeople returns the directory.
func (s *Store) ListPeople(ctx context.Context) ([]Person, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, name, team, role, interests, updated_at FROM people ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Team, &p.Role, pq.Array(&p.Interests), &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListTopics returns all knowledge topics.
func (s *Store) ListTopics(ctx context.Context) ([]Topic, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, name, description, teams, keywords, updated_at FROM topics ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, pq.Array(&t.Teams), pq.Array(&t.Keywords), &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecentDocuments returns documents updated since the cutoff.
func (s *Store) RecentDocuments(ctx context.Context, since time.Time) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, title, body, team, author, content_type, confidentiality, tags, updated_at
FROM documents WHERE updated_at >= $1 ORDER BY updated_at DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Body, &d.Team, &d.Author, &d.ContentType, &d.Confidentiality, pq.Array(&d.Tags), &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
