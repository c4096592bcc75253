package cron

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDowngradeLapsedSubscriptions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE subscriptions").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, DowngradeLapsedSubscriptions(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDowngradeLapsedSubscriptions_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	require.Error(t, DowngradeLapsedSubscriptions(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// More failed sends than the error channel can buffer must not wedge the job.
func TestSendBudgetAlertEmails_ManyFailuresStillFinishes(t *testing.T) {
	t.Setenv("SMTP_PORT", "")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"email", "first_name", "category_name", "period", "budgeted", "spent"})
	for i := 0; i < 25; i++ {
		rows.AddRow("user@example.com", "Jane", "Groceries", "monthly", 100.0, 150.0)
	}
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	done := make(chan error, 1)
	go func() {
		done <- SendBudgetAlertEmails(db)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("budget alert job did not finish")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
