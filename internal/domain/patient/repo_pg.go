package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// pgRepo keeps the document as one row of patient_documents. The document
// column is TEXT so key order (and sealed output) survives untouched.
type pgRepo struct {
	db    querier
	name  string
	codec Codec
}

func NewPGRepo(pool *pgxpool.Pool, name string, codec Codec) Backend {
	return &pgRepo{db: pool, name: name, codec: codec}
}

const createDocumentsTable = `CREATE TABLE IF NOT EXISTS patient_documents (
    name       TEXT PRIMARY KEY,
    document   TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func (r *pgRepo) Name() string { return "postgres" }

func (r *pgRepo) Load(ctx context.Context) (*Store, error) {
	var doc string
	err := r.db.QueryRow(ctx, `SELECT document FROM patient_documents WHERE name = $1`, r.name).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %q does not exist", ErrStorage, r.name)
		}
		return nil, fmt.Errorf("%w: load document %q: %w", ErrStorage, r.name, err)
	}
	return r.codec.Decode([]byte(doc))
}

func (r *pgRepo) Save(ctx context.Context, s *Store) error {
	data, err := r.codec.Encode(s)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO patient_documents (name, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`,
		r.name, string(data))
	if err != nil {
		return fmt.Errorf("%w: save document %q: %w", ErrStorage, r.name, err)
	}
	return nil
}

// Init creates the table and an empty document if neither exists.
func (r *pgRepo) Init(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("%w: create patient_documents: %w", ErrStorage, err)
	}
	data, err := r.codec.Encode(NewStore())
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO patient_documents (name, document) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`, r.name, string(data))
	if err != nil {
		return fmt.Errorf("%w: init document %q: %w", ErrStorage, r.name, err)
	}
	return nil
}
