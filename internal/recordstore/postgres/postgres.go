package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/clauselens/docserver/config"
	"github.com/clauselens/docserver/internal/models"
	"github.com/clauselens/docserver/internal/recordstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	owner_id        TEXT        NOT NULL,
	document_id     TEXT        NOT NULL,
	filename        TEXT        NOT NULL DEFAULT '',
	blob_path       TEXT        NOT NULL,
	extracted_text  TEXT        NOT NULL DEFAULT '',
	status          TEXT        NOT NULL,
	processing_note TEXT,
	error_detail    TEXT,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner_id, document_id)
);
CREATE INDEX IF NOT EXISTS documents_owner_created_idx
	ON documents (owner_id, created_at DESC);
`

// Store implements recordstore.RecordStore on PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection pool against the configured database.
// Connectivity is verified with a short ping; a failed ping is returned
// to the caller, who may still keep the store and let per-call errors
// surface as recordstore.ErrUnavailable.
func NewStore(cfg *config.PostgresConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxPool)
	db.SetMaxIdleConns(cfg.MaxPool / 2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return &Store{db: db}, fmt.Errorf("%w: ping: %v", recordstore.ErrUnavailable, err)
	}

	return &Store{db: db}, nil
}

// EnsureSchema creates the documents table if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", recordstore.ErrUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Upsert(ctx context.Context, rec *models.DocumentRecord) error {
	query := `
		INSERT INTO documents (
			owner_id, document_id, filename, blob_path, extracted_text,
			status, processing_note, error_detail, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (owner_id, document_id) DO UPDATE SET
			filename        = EXCLUDED.filename,
			blob_path       = EXCLUDED.blob_path,
			extracted_text  = EXCLUDED.extracted_text,
			status          = EXCLUDED.status,
			processing_note = EXCLUDED.processing_note,
			error_detail    = EXCLUDED.error_detail,
			updated_at      = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.OwnerID,
		rec.DocumentID,
		rec.Filename,
		rec.BlobPath,
		rec.Text,
		string(rec.Status),
		nullable(rec.ProcessingNote),
		nullable(rec.ErrorDetail),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", recordstore.ErrUnavailable, rec.DocumentID, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, ownerID, documentID string, fields recordstore.UpdateFields) error {
	set := []string{"updated_at = NOW()"}
	args := []interface{}{}
	arg := 1

	if fields.Text != nil {
		set = append(set, fmt.Sprintf("extracted_text = $%d", arg))
		args = append(args, *fields.Text)
		arg++
	}
	if fields.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", arg))
		args = append(args, string(*fields.Status))
		arg++
	}
	if fields.ProcessingNote != nil {
		set = append(set, fmt.Sprintf("processing_note = $%d", arg))
		args = append(args, *fields.ProcessingNote)
		arg++
	}
	if fields.ErrorDetail != nil {
		set = append(set, fmt.Sprintf("error_detail = $%d", arg))
		args = append(args, *fields.ErrorDetail)
		arg++
	}

	query := fmt.Sprintf(
		"UPDATE documents SET %s WHERE owner_id = $%d AND document_id = $%d",
		strings.Join(set, ", "), arg, arg+1,
	)
	args = append(args, ownerID, documentID)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: update %s: %v", recordstore.ErrUnavailable, documentID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update %s: %v", recordstore.ErrUnavailable, documentID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", recordstore.ErrNotFound, documentID)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, ownerID, documentID string) (*models.DocumentRecord, error) {
	query := `
		SELECT owner_id, document_id, filename, blob_path, extracted_text,
		       status, processing_note, error_detail, created_at, updated_at
		FROM documents
		WHERE owner_id = $1 AND document_id = $2
	`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, ownerID, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", recordstore.ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", recordstore.ErrUnavailable, documentID, err)
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context, ownerID string) ([]*models.DocumentRecord, error) {
	query := `
		SELECT owner_id, document_id, filename, blob_path, extracted_text,
		       status, processing_note, error_detail, created_at, updated_at
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", recordstore.ErrUnavailable, err)
	}
	defer rows.Close()

	var records []*models.DocumentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: list scan: %v", recordstore.ErrUnavailable, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list: %v", recordstore.ErrUnavailable, err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.DocumentRecord, error) {
	var (
		rec    models.DocumentRecord
		status string
		note   sql.NullString
		detail sql.NullString
	)

	err := row.Scan(
		&rec.OwnerID,
		&rec.DocumentID,
		&rec.Filename,
		&rec.BlobPath,
		&rec.Text,
		&status,
		&note,
		&detail,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = models.DocumentStatus(status)
	rec.ProcessingNote = note.String
	rec.ErrorDetail = detail.String
	return &rec, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
