// Package pgstore implements the DocStore on PostgreSQL. Each collection lives in
// a shared JSONB table keyed by (collection, id); filters are containment
// queries and patches are top-level JSONB merges.
package pgstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	_ "github.com/jackc/pgx/v4/stdlib"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/db"
	"github.com/tansive/assetvault/internal/assetsrv/db/dberror"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	body JSONB NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_body_gin ON documents USING GIN (body jsonb_path_ops);
CREATE TABLE IF NOT EXISTS sequences (
	name TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);
`

var identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

type Store struct {
	db        *sql.DB
	opTimeout time.Duration
}

var _ db.DocStore = (*Store)(nil)

type Options struct {
	DSN              string
	OperationTimeout time.Duration
}

// Open connects with the pgx driver and creates the schema if it is missing.
func Open(ctx context.Context, opts Options) (*Store, error) {
	sqlDB, err := sql.Open("pgx", opts.DSN)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to open db")
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to ping db")
		sqlDB.Close()
		return nil, err
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to create schema")
		sqlDB.Close()
		return nil, err
	}
	timeout := opts.OperationTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: sqlDB, opTimeout: timeout}, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func convertError(ctx context.Context, op string, err error) apperrors.Error {
	if errors.Is(err, sql.ErrNoRows) {
		return dberror.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		log.Ctx(ctx).Error().Err(err).Str("op", op).Msg("postgres unavailable")
		return dberror.ErrUnavailable.Err(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return dberror.ErrAlreadyExists
		case pgErr.Code == "57014" || pgErr.Code == "55P03" || strings.HasPrefix(pgErr.Code, "08"):
			log.Ctx(ctx).Error().Err(err).Str("op", op).Msg("postgres unavailable")
			return dberror.ErrUnavailable.Err(err)
		}
	}
	log.Ctx(ctx).Error().Err(err).Str("op", op).Msg("postgres operation failed")
	return dberror.ErrDatabase.Err(err)
}

func jsonb(v any) (pgtype.JSONB, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return pgtype.JSONB{}, err
	}
	return pgtype.JSONB{Bytes: b, Status: pgtype.Present}, nil
}

func (s *Store) InsertOne(ctx context.Context, collection, id string, doc any) apperrors.Error {
	body, err := jsonb(doc)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)`,
		collection, id, body)
	if err != nil {
		return convertError(ctx, "insert", err)
	}
	return nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter db.Filter, out any) apperrors.Error {
	f, err := jsonb(filter)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var body pgtype.JSONB
	err = s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND body @> $2 LIMIT 1`,
		collection, f).Scan(&body)
	if err != nil {
		return convertError(ctx, "findOne", err)
	}
	if err := json.Unmarshal(body.Bytes, out); err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, filter db.Filter, opts db.FindOptions, out any) apperrors.Error {
	f, err := jsonb(filter)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	query := `SELECT body FROM documents WHERE collection = $1 AND body @> $2`
	args := []any{collection, f}
	if opts.SortBy != "" {
		args = append(args, opts.SortBy)
		dir := "ASC"
		if opts.Descending {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY body -> $3 %s", dir)
	}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return convertError(ctx, "find", err)
	}
	defer rows.Close()

	var sb strings.Builder
	sb.WriteByte('[')
	n := 0
	for rows.Next() {
		var body pgtype.JSONB
		if err := rows.Scan(&body); err != nil {
			return convertError(ctx, "find", err)
		}
		if n > 0 {
			sb.WriteByte(',')
		}
		sb.Write(body.Bytes)
		n++
	}
	if err := rows.Err(); err != nil {
		return convertError(ctx, "find", err)
	}
	sb.WriteByte(']')
	if err := json.Unmarshal([]byte(sb.String()), out); err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// The row is locked by the inner select so two concurrent patches with the same
// filter cannot both match.
const updateOneQuery = `
UPDATE documents SET body = body || $3
WHERE collection = $1 AND id = (
	SELECT id FROM documents WHERE collection = $1 AND body @> $2 LIMIT 1 FOR UPDATE
) AND body @> $2
RETURNING body`

func (s *Store) UpdateOne(ctx context.Context, collection string, filter db.Filter, patch db.Patch) (bool, apperrors.Error) {
	var ignored map[string]any
	err := s.FindOneAndUpdate(ctx, collection, filter, patch, &ignored)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) FindOneAndUpdate(ctx context.Context, collection string, filter db.Filter, patch db.Patch, out any) apperrors.Error {
	f, err := jsonb(filter)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	p, err := jsonb(patch)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var body pgtype.JSONB
	if err := s.db.QueryRowContext(ctx, updateOneQuery, collection, f, p).Scan(&body); err != nil {
		return convertError(ctx, "findOneAndUpdate", err)
	}
	if err := json.Unmarshal(body.Bytes, out); err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (s *Store) DeleteOne(ctx context.Context, collection string, filter db.Filter) (bool, apperrors.Error) {
	f, err := jsonb(filter)
	if err != nil {
		return false, dberror.ErrInvalidInput.Err(err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = (
			SELECT id FROM documents WHERE collection = $1 AND body @> $2 LIMIT 1
		)`, collection, f)
	if err != nil {
		return false, convertError(ctx, "deleteOne", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, convertError(ctx, "deleteOne", err)
	}
	return n > 0, nil
}

func (s *Store) NextSequence(ctx context.Context, name string) (int64, apperrors.Error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var value int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sequences (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value`, name).Scan(&value)
	if err != nil {
		return 0, convertError(ctx, "nextSequence", err)
	}
	return value, nil
}

func (s *Store) EnsureIndex(ctx context.Context, collection, field string) apperrors.Error {
	if !identRe.MatchString(collection) || !identRe.MatchString(field) {
		return dberror.ErrInvalidInput.Msg("invalid index name")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	stmt := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS documents_%s_%s ON documents ((body->>'%s')) WHERE collection = '%s'`,
		strings.ToLower(collection), strings.ToLower(field), field, collection)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return convertError(ctx, "createIndex", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}
