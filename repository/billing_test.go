package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*GORMRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)

	return NewGORMRepository(db), mock
}

func latestEntryRows(balance int64) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "user_id", "delta", "balance", "reason", "reference"}).
		AddRow("entry-1", "user-1", 0, balance, "trial_grant", "")
}

func TestAppendCreditEntryRejectsOverdraft(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "credit_entries"`).WillReturnRows(latestEntryRows(3))
	mock.ExpectRollback()

	_, err := repo.AppendCreditEntry(context.Background(), "user-1", -5, "chat_message", "conv-1")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendCreditEntryRejectsDebitOnEmptyLedger(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "credit_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.AppendCreditEntry(context.Background(), "user-1", -1, "chat_message", "conv-1")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendCreditEntryCarriesRunningBalance(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "credit_entries"`).WillReturnRows(latestEntryRows(3))
	mock.ExpectQuery(`INSERT INTO "credit_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("entry-2"))
	mock.ExpectCommit()

	entry, err := repo.AppendCreditEntry(context.Background(), "user-1", -1, "chat_message", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), entry.Delta)
	assert.Equal(t, int64(2), entry.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendCreditEntryGrantOnEmptyLedger(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "credit_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "credit_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("entry-1"))
	mock.ExpectCommit()

	entry, err := repo.AppendCreditEntry(context.Background(), "user-1", 50, "trial_grant", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), entry.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
