package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "festival-workers/internal/common/errors"
	"festival-workers/internal/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestFestivals_SaveAssignsIDAndUpserts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresFestivals(db)
	fixed := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	f := &models.Festival{ParsedFestival: models.ParsedFestival{Name: "Sonar", Location: "Barcelona"}}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO festivals (id, name, data, updated_at) VALUES ($1, $2, $3, $4)`)).
		WithArgs(sqlmock.AnyArg(), "Sonar", sqlmock.AnyArg(), fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), f))
	_, err := uuid.Parse(f.ID)
	assert.NoError(t, err)
	assert.Equal(t, fixed, f.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFestivals_SaveKeepsExistingID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresFestivals(db)
	id := uuid.NewString()

	mock.ExpectExec("INSERT INTO festivals").
		WithArgs(id, "Sonar", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	f := &models.Festival{ID: id, ParsedFestival: models.ParsedFestival{Name: "Sonar"}}
	require.NoError(t, repo.Save(context.Background(), f))
	assert.Equal(t, id, f.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFestivals_SaveRejectsUnnamed(t *testing.T) {
	db, _ := newMock(t)
	repo := NewPostgresFestivals(db)

	err := repo.Save(context.Background(), &models.Festival{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestFestivals_SaveFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresFestivals(db)

	mock.ExpectExec("INSERT INTO festivals").WillReturnError(errors.New("connection reset"))

	err := repo.Save(context.Background(), &models.Festival{ParsedFestival: models.ParsedFestival{Name: "Sonar"}})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseInsertFailed))
}

func TestFestivals_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresFestivals(db)
	id := uuid.NewString()

	rows := sqlmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"id":"` + id + `","name":"Sonar","location":"Barcelona","lineup":[{"date":"2025-06-12","list":[{"artistName":"Bicep","stage":"SonarClub"}]}]}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM festivals WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(rows)

	f, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, f.ID)
	assert.Equal(t, "Sonar", f.Name)
	require.Len(t, f.Lineup, 1)
	assert.Equal(t, "Bicep", f.Lineup[0].List[0].ArtistName)
}

func TestFestivals_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresFestivals(db)
	id := uuid.NewString()

	mock.ExpectQuery("SELECT data FROM festivals").WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)

	// Malformed ids never reach the database.
	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtists_SearchByNameEscapesPattern(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresArtists(db)

	rows := sqlmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"id":"a1","name":"100% Silk","genre":["house"]}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM artists WHERE name ILIKE $1 ORDER BY name`)).
		WithArgs(`%100\% Silk%`).
		WillReturnRows(rows)

	artists, err := repo.SearchByName(context.Background(), " 100% Silk ")
	require.NoError(t, err)
	require.Len(t, artists, 1)
	assert.Equal(t, []string{"house"}, artists[0].Genre)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtists_GetAll(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresArtists(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM artists ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	artists, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, artists)
	assert.Empty(t, artists)
}

func TestArtists_QueryFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresArtists(db)

	mock.ExpectQuery("SELECT data FROM artists").WillReturnError(errors.New("relation does not exist"))

	_, err := repo.GetAll(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryExecutionFailed))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\_b\%c\\d`, escapeLike(`a_b%c\d`))
}
