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

func TestNewSlot(t *testing.T) {
	logger := slog.Default()
	ctx := t.Context()

	t.Run("memory slot", func(t *testing.T) {
		slot, err := repository.NewSlot(ctx, repository.SlotConfig{Type: repository.SlotTypeMemory, Logger: logger})

		require.NoError(t, err)
		_, ok := slot.(*repository.Memory)
		assert.True(t, ok, "expected slot to be *Memory")
	})

	t.Run("sqlite slot", func(t *testing.T) {
		slot, err := repository.NewSlot(ctx, repository.SlotConfig{Type: repository.SlotTypeSQLite, Logger: logger})

		require.NoError(t, err)
		sqlite, ok := slot.(*repository.SQLite)
		require.True(t, ok, "expected slot to be *SQLite")
		assert.NoError(t, sqlite.Close())
	})

	t.Run("postgres slot creates schema", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS storage_slots")).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))

		slot, err := repository.NewSlot(ctx, repository.SlotConfig{
			Type:       repository.SlotTypePostgres,
			PostgresDB: mock,
			Logger:     logger,
		})

		require.NoError(t, err)
		_, ok := slot.(*repository.Postgres)
		assert.True(t, ok, "expected slot to be *Postgres")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("postgres slot without connection", func(t *testing.T) {
		slot, err := repository.NewSlot(ctx, repository.SlotConfig{Type: repository.SlotTypePostgres, Logger: logger})

		require.Error(t, err)
		assert.Nil(t, slot)
	})

	t.Run("unsupported slot type", func(t *testing.T) {
		slot, err := repository.NewSlot(ctx, repository.SlotConfig{Type: "etcd", Logger: logger})

		require.Error(t, err)
		assert.Nil(t, slot)
		assert.Contains(t, err.Error(), "unsupported slot type: etcd")
	})
}
