package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestCacheRepo_Read_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCacheRepo(db, "users")

	mock.ExpectQuery(`SELECT payload FROM directory_cache WHERE key=\$1`).
		WithArgs("users").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte(`{"version":1}`)))

	b, found, err := r.Read(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `{"version":1}`, string(b))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepo_Read_Missing(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCacheRepo(db, "users")

	mock.ExpectQuery(`SELECT payload FROM directory_cache WHERE key=\$1`).
		WithArgs("users").
		WillReturnError(pgx.ErrNoRows)

	b, found, err := r.Read(context.Background())
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, b)
}

func TestCacheRepo_Read_Error(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCacheRepo(db, "users")

	mock.ExpectQuery(`SELECT payload FROM directory_cache WHERE key=\$1`).
		WithArgs("users").
		WillReturnError(errors.New("conn refused"))

	_, _, err := r.Read(context.Background())
	require.Error(t, err)
}

func TestCacheRepo_Write_Upserts(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCacheRepo(db, "users")

	mock.ExpectExec(`INSERT INTO directory_cache \(key, payload, updated_at\) VALUES \(\$1, \$2, now\(\)\) ON CONFLICT \(key\) DO UPDATE SET payload=EXCLUDED.payload, updated_at=now\(\)`).
		WithArgs("users", []byte(`[]`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Write(context.Background(), []byte(`[]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepo_Write_Error(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCacheRepo(db, "users")

	mock.ExpectExec(`INSERT INTO directory_cache`).
		WithArgs("users", []byte(`[]`)).
		WillReturnError(errors.New("disk full"))

	require.Error(t, r.Write(context.Background(), []byte(`[]`)))
}

func TestCacheRepo_Clear(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCacheRepo(db, "users")

	mock.ExpectExec(`DELETE FROM directory_cache WHERE key=\$1`).
		WithArgs("users").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, r.Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
