package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "festival-workers/internal/common/errors"
	"festival-workers/internal/models"
)

// jsonTable stores records as JSONB documents next to an indexed name.
type jsonTable[T any] struct {
	db    *sql.DB
	table string
	now   func() time.Time

	id    func(*T) *string
	name  func(*T) string
	stamp func(*T) *time.Time
}

func (t *jsonTable[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = $1`, t.table)

	var raw []byte
	err := t.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(t.table+".get_by_id", err)
	}

	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(t.table+".get_by_id", err)
	}
	return &rec, nil
}

func (t *jsonTable[T]) GetAll(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf(`SELECT data FROM %s ORDER BY name`, t.table)
	return t.list(ctx, t.table+".get_all", query)
}

func (t *jsonTable[T]) SearchByName(ctx context.Context, name string) ([]T, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE name ILIKE $1 ORDER BY name`, t.table)
	return t.list(ctx, t.table+".search_by_name", query, "%"+escapeLike(strings.TrimSpace(name))+"%")
}

func (t *jsonTable[T]) list(ctx context.Context, queryType, query string, args ...interface{}) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(queryType, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(queryType, err)
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(queryType, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(queryType, err)
	}
	return out, nil
}

func (t *jsonTable[T]) Save(ctx context.Context, rec *T) error {
	if rec == nil {
		return apperrors.NewInvalidInputError("cannot save a nil record")
	}
	name := t.name(rec)
	if strings.TrimSpace(name) == "" {
		return apperrors.NewInvalidInputError(t.table + " record has no name")
	}

	id := t.id(rec)
	if *id == "" {
		*id = uuid.NewString()
	}
	updatedAt := t.now().UTC()
	*t.stamp(rec) = updatedAt

	data, err := json.Marshal(rec)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, name, data, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`, t.table)
	if _, err := t.db.ExecContext(ctx, query, *id, name, data, updatedAt); err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// escapeLike makes user input literal inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type PostgresFestivals struct {
	*jsonTable[models.Festival]
}

func NewPostgresFestivals(db *sql.DB) *PostgresFestivals {
	return &PostgresFestivals{&jsonTable[models.Festival]{
		db:    db,
		table: "festivals",
		now:   time.Now,
		id:    func(f *models.Festival) *string { return &f.ID },
		name:  func(f *models.Festival) string { return f.Name },
		stamp: func(f *models.Festival) *time.Time { return &f.UpdatedAt },
	}}
}

type PostgresArtists struct {
	*jsonTable[models.Artist]
}

func NewPostgresArtists(db *sql.DB) *PostgresArtists {
	return &PostgresArtists{&jsonTable[models.Artist]{
		db:    db,
		table: "artists",
		now:   time.Now,
		id:    func(a *models.Artist) *string { return &a.ID },
		name:  func(a *models.Artist) string { return a.Name },
		stamp: func(a *models.Artist) *time.Time { return &a.UpdatedAt },
	}}
}

var (
	_ FestivalRepository = (*PostgresFestivals)(nil)
	_ ArtistRepository   = (*PostgresArtists)(nil)
)
