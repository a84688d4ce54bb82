package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableName(t *testing.T) {
	assert.Equal(t, "app_fd_farmerBasicInfo", NewPostgresColumns(nil).TableName("farmerBasicInfo"))
	assert.Equal(t, "forms_farmerBasicInfo",
		NewPostgresColumns(nil, WithTablePrefix("forms_"), WithSchema("joget")).TableName("farmerBasicInfo"))
}

func TestColumnsClosedDatabase(t *testing.T) {
	db, err := Open("host=127.0.0.1 port=1 user=joget dbname=joget sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewPostgresColumns(db).Columns(context.Background(), "farmerBasicInfo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app_fd_farmerBasicInfo")
}

func newMockDB(t *testing.T) (*PostgresColumns, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresColumns(db), mock
}

func TestColumns(t *testing.T) {
	p, mock := newMockDB(t)

	mock.ExpectQuery(columnsQuery).
		WithArgs("public", "app_fd_farmerBasicInfo").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("id").
			AddRow("c_national_id").
			AddRow("c_first_name"))

	cols, err := p.Columns(context.Background(), "farmerBasicInfo")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "c_national_id", "c_first_name"}, cols)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnsCustomSchema(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery(columnsQuery).
		WithArgs("joget", "forms_householdMemberForm").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("c_farmer_id"))

	p := NewPostgresColumns(db, WithSchema("joget"), WithTablePrefix("forms_"))

	cols, err := p.Columns(context.Background(), "householdMemberForm")
	require.NoError(t, err)
	assert.Equal(t, []string{"c_farmer_id"}, cols)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnsTableNotFound(t *testing.T) {
	p, mock := newMockDB(t)

	mock.ExpectQuery(columnsQuery).
		WithArgs("public", "app_fd_missingForm").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	_, err := p.Columns(context.Background(), "missingForm")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.Contains(t, err.Error(), "public.app_fd_missingForm")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnsQueryFailures(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("query", func(t *testing.T) {
		p, mock := newMockDB(t)
		mock.ExpectQuery(columnsQuery).WillReturnError(boom)

		_, err := p.Columns(context.Background(), "farmerBasicInfo")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrTableNotFound)
	})

	t.Run("row", func(t *testing.T) {
		p, mock := newMockDB(t)
		mock.ExpectQuery(columnsQuery).
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
				AddRow("id").
				RowError(0, boom))

		_, err := p.Columns(context.Background(), "farmerBasicInfo")
		assert.ErrorIs(t, err, boom)
	})
}
