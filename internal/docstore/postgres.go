package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a single JSONB table, keyed by
// (collection, id). It is the fallback backend for deployments without an
// OpenSearch cluster; the schema lives in migrations/.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool and verifies the database is
// reachable. Migrations are expected to have run already (see cmd serve).
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Index(ctx context.Context, collection, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc
	`
	if _, err := s.pool.Exec(ctx, query, collection, id, body); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Search(ctx context.Context, collection string, q Query, srt Sort, from, size int) ([]json.RawMessage, int, error) {
	where, args := buildPostgresWhere(collection, q)

	var total int
	countQuery := `SELECT COUNT(*) FROM documents ` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	query := `SELECT doc FROM documents ` + where
	if srt.Field != "" {
		dir := "ASC"
		if srt.Desc {
			dir = "DESC"
		}
		expr := fmt.Sprintf(`doc->>$%d`, len(args)+1)
		if timeSortField(srt.Field) {
			expr = fmt.Sprintf(`(doc->>$%d)::timestamptz`, len(args)+1)
		}
		query += fmt.Sprintf(` ORDER BY %s %s`, expr, dir)
		args = append(args, srt.Field)
	}
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, size, from)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	docs := make([]json.RawMessage, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read documents: %w", err)
	}
	return docs, total, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, partial map[string]interface{}) error {
	body, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("failed to marshal partial document: %w", err)
	}

	// jsonb || merges top-level keys; explicit nulls overwrite, which is how
	// closed_at gets cleared on reopen.
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET doc = doc || $3 WHERE collection = $1 AND id = $2`,
		collection, id, body)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context, collection string, q Query) (int, error) {
	where, args := buildPostgresWhere(collection, q)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) DeleteByQuery(ctx context.Context, collection string, q Query) (int, error) {
	where, args := buildPostgresWhere(collection, q)

	tag, err := s.pool.Exec(ctx, `DELETE FROM documents `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete by query: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// timeSortField reports whether a sort field holds an RFC3339 timestamp.
// Those must be compared as timestamps, not text: marshaled times drop
// trailing fractional zeros, so "…:00.5Z" sorts after "…:00.15Z"
// lexicographically while being chronologically earlier.
func timeSortField(field string) bool {
	switch field {
	case "created_at", "updated_at", "uploaded_at", "closed_at":
		return true
	}
	return false
}

// buildPostgresWhere renders Query as a WHERE clause over the JSONB column.
// Term filters compare extracted text fields; free text does a case-insensitive
// substring match on title/description and an exact containment check on tags.
func buildPostgresWhere(collection string, q Query) (string, []interface{}) {
	clauses := []string{"collection = $1"}
	args := []interface{}{collection}

	for field, value := range q.Terms {
		args = append(args, field, value)
		clauses = append(clauses, fmt.Sprintf("doc->>$%d = $%d", len(args)-1, len(args)))
	}

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%", q.Search)
		clauses = append(clauses, fmt.Sprintf(
			"(doc->>'title' ILIKE $%d OR doc->>'description' ILIKE $%d OR doc->'tags' ? $%d::text)",
			len(args)-1, len(args)-1, len(args)))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}
