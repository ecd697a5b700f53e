package repository_test

import (
	"log/slog"
	"regexp"
	"testing"

	"github.com/UnknownOlympus/pinboard/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	readSlotQuery = `
	SELECT value
	FROM storage_slots
	WHERE name = $1;
`
	writeSlotQuery = `
	INSERT INTO storage_slots (name, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (name) DO UPDATE
	SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at;
`
	deleteSlotQuery = `
	DELETE FROM storage_slots
	WHERE name = $1;
`
)

func TestPostgres_Read(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	slot := "pinboard.markers"

	t.Run("error - query slot", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewPostgres(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(readSlotQuery)).
			WithArgs(slot).
			WillReturnError(assert.AnError)

		value, err := repo.Read(ctx, slot)

		require.Empty(t, value)
		require.ErrorContains(t, err, "failed to read slot")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - slot not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewPostgres(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(readSlotQuery)).
			WithArgs(slot).
			WillReturnRows(pgxmock.NewRows([]string{"value"}))

		value, err := repo.Read(ctx, slot)

		require.Empty(t, value)
		require.ErrorIs(t, err, repository.ErrSlotNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - read slot", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewPostgres(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(readSlotQuery)).
			WithArgs(slot).
			WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(`[]`))

		value, err := repo.Read(ctx, slot)

		require.NoError(t, err)
		assert.Equal(t, `[]`, value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgres_Write(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("error - upsert slot", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewPostgres(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(writeSlotQuery)).WithArgs("slot", "value").
			WillReturnError(assert.AnError)

		err = repo.Write(ctx, "slot", "value")

		require.ErrorContains(t, err, "failed to write slot")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - upsert slot", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewPostgres(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(writeSlotQuery)).WithArgs("slot", "value").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.Write(ctx, "slot", "value")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgres_Delete(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("error - delete slot", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewPostgres(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(deleteSlotQuery)).WithArgs("slot").
			WillReturnError(assert.AnError)

		err = repo.Delete(ctx, "slot")

		require.ErrorContains(t, err, "failed to delete slot")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - delete slot", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewPostgres(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(deleteSlotQuery)).WithArgs("slot").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = repo.Delete(ctx, "slot")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgres_EnsureSchema(t *testing.T) {
	t.Parallel()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := repository.NewPostgres(mock, slog.Default())

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS storage_slots")).
		WillReturnError(assert.AnError)

	err = repo.EnsureSchema(t.Context())

	require.ErrorContains(t, err, "failed to create storage_slots table")
	assert.NoError(t, mock.ExpectationsWereMet())
}
