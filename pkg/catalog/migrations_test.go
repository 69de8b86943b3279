package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/bizauthz/pkg/errs"
)

func TestGetMigrations(t *testing.T) {
	migrations := GetMigrations()
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "migrations must be sequential")
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, m.SQL)
	}
	assert.Contains(t, migrations[0].SQL, "CREATE UNIQUE INDEX IF NOT EXISTS idx_permissions_name")
	assert.Contains(t, migrations[1].SQL, "permissions(category, is_active)")
}

func TestRunMigrations_AppliesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS catalog_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM catalog_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))

	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_permissions_category_active").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO catalog_migrations").
		WithArgs(2, "Index permissions by category and status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), db, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS catalog_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM catalog_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS permissions").
		WillReturnError(errors.New("permission denied for schema public"))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), db, nil)
	require.Error(t, err)
	assert.True(t, errs.IsStorageUnavailable(err))
	assert.Contains(t, err.Error(), "execute migration 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}
