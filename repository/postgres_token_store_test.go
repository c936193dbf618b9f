package repository

import (
	"context"
	"errors"
	"go-access-gate/model"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	selectQuery = regexp.QuoteMeta(`SELECT token, expires_at FROM access_tokens`)
	deleteQuery = regexp.QuoteMeta(`DELETE FROM access_tokens`)
	insertQuery = regexp.QuoteMeta(`INSERT INTO access_tokens (token, expires_at) VALUES ($1, $2)`)
	lockQuery   = regexp.QuoteMeta(`LOCK TABLE access_tokens IN EXCLUSIVE MODE`)
	deleteOne   = regexp.QuoteMeta(`DELETE FROM access_tokens WHERE token = $1`)
	upsertQuery = regexp.QuoteMeta(`INSERT INTO access_tokens (token, expires_at) VALUES ($1, $2) ON CONFLICT (token) DO UPDATE SET expires_at = EXCLUDED.expires_at`)
)

func TestPostgresTokenStore_Load(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresTokenStore(db)

	t.Run("rows", func(t *testing.T) {
		dbMock.ExpectQuery(selectQuery).WillReturnRows(
			sqlmock.NewRows([]string{"token", "expires_at"}).
				AddRow("a", int64(10)).
				AddRow("b", int64(20)))

		table, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.TokenTable{"a": {ExpiresAt: 10}, "b": {ExpiresAt: 20}}, table)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		dbMock.ExpectQuery(selectQuery).WillReturnRows(sqlmock.NewRows([]string{"token", "expires_at"}))

		table, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, table)
		assert.Empty(t, table)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		dbMock.ExpectQuery(selectQuery).WillReturnError(errors.New("connection reset"))

		_, err := store.Load(context.Background())
		assert.Error(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestPostgresTokenStore_Save(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresTokenStore(db)

	t.Run("replaces rows in sorted order", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectExec(deleteQuery).WillReturnResult(sqlmock.NewResult(0, 3))
		dbMock.ExpectExec(insertQuery).WithArgs("a", int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectExec(insertQuery).WithArgs("b", int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectCommit()

		err := store.Save(context.Background(), model.TokenTable{"b": {ExpiresAt: 2}, "a": {ExpiresAt: 1}})
		require.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("insert error rolls back", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectExec(deleteQuery).WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectExec(insertQuery).WithArgs("a", int64(1)).WillReturnError(errors.New("disk full"))
		dbMock.ExpectRollback()

		err := store.Save(context.Background(), model.TokenTable{"a": {ExpiresAt: 1}})
		assert.Error(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("commit error", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectExec(deleteQuery).WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectCommit().WillReturnError(errors.New("commit failed"))

		err := store.Save(context.Background(), model.TokenTable{})
		assert.Error(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestPostgresTokenStore_Update(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresTokenStore(db)

	t.Run("insert writes only the new row", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectExec(lockQuery).WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectQuery(selectQuery).WillReturnRows(
			sqlmock.NewRows([]string{"token", "expires_at"}).AddRow("old", int64(5)))
		dbMock.ExpectExec(upsertQuery).WithArgs("new", int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectCommit()

		err := store.Update(context.Background(), func(table model.TokenTable) (bool, error) {
			table["new"] = model.TokenRecord{ExpiresAt: 9}
			return true, nil
		})
		require.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("delete and modify", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectExec(lockQuery).WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectQuery(selectQuery).WillReturnRows(
			sqlmock.NewRows([]string{"token", "expires_at"}).
				AddRow("gone", int64(1)).
				AddRow("kept", int64(2)).
				AddRow("moved", int64(3)))
		dbMock.ExpectExec(deleteOne).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectExec(upsertQuery).WithArgs("moved", int64(30)).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectCommit()

		err := store.Update(context.Background(), func(table model.TokenTable) (bool, error) {
			delete(table, "gone")
			table["moved"] = model.TokenRecord{ExpiresAt: 30}
			return true, nil
		})
		require.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("write error rolls back", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectExec(lockQuery).WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectQuery(selectQuery).WillReturnRows(sqlmock.NewRows([]string{"token", "expires_at"}))
		dbMock.ExpectExec(upsertQuery).WithArgs("x", int64(1)).WillReturnError(errors.New("disk full"))
		dbMock.ExpectRollback()

		err := store.Update(context.Background(), func(table model.TokenTable) (bool, error) {
			table["x"] = model.TokenRecord{ExpiresAt: 1}
			return true, nil
		})
		assert.Error(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unchanged commits without writes", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectExec(lockQuery).WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectQuery(selectQuery).WillReturnRows(sqlmock.NewRows([]string{"token", "expires_at"}))
		dbMock.ExpectCommit()

		err := store.Update(context.Background(), func(table model.TokenTable) (bool, error) {
			return false, nil
		})
		require.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("fn error rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		dbMock.ExpectBegin()
		dbMock.ExpectExec(lockQuery).WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectQuery(selectQuery).WillReturnRows(sqlmock.NewRows([]string{"token", "expires_at"}))
		dbMock.ExpectRollback()

		err := store.Update(context.Background(), func(table model.TokenTable) (bool, error) {
			return true, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("lock error", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectExec(lockQuery).WillReturnError(errors.New("lock timeout"))
		dbMock.ExpectRollback()

		err := store.Update(context.Background(), func(table model.TokenTable) (bool, error) {
			t.Fatal("fn must not run without the lock")
			return false, nil
		})
		assert.Error(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}
