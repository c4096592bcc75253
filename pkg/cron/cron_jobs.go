package cron

import (
	"context"
	"database/sql"
	"fmt"
	"pennypilot/pkg/utils"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

func StartCronJob(db *sql.DB) *cron.Cron {
	c := cron.New()

	// Runs hourly — downgrade users whose paid period has lapsed
	_, err := c.AddFunc("0 * * * *", func() {
		err := DowngradeLapsedSubscriptions(db)
		if err != nil {
			utils.Logger.Errorf("Cron job failed to downgrade lapsed subscriptions: %v", err)
		}
	})
	if err != nil {
		utils.Logger.Errorf("Failed to schedule subscription expiry job: %v", err)
	}

	// Runs daily at 8am — alert users whose budgets are over
	_, err = c.AddFunc("0 8 * * *", func() {
		err := SendBudgetAlertEmails(db)
		if err != nil {
			utils.Logger.Errorf("Cron job failed to send budget alert emails: %v", err)
		}
	})
	if err != nil {
		utils.Logger.Errorf("Failed to schedule budget alert job: %v", err)
	}

	c.Start()
	utils.Logger.Info("Cron jobs started (subscription expiry hourly, budget alerts daily at 8am)")
	return c
}

// -------------------------------------------------------------
// Downgrade users whose subscription lapsed past its period end
// -------------------------------------------------------------
func DowngradeLapsedSubscriptions(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC().Format("2006-01-02 15:04:05")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE users u
		JOIN subscriptions s ON s.user_id = u.id
		SET u.tier = 'free'
		WHERE s.status = 'active'
		  AND s.current_period_end IS NOT NULL
		  AND s.current_period_end < ?
	`, now)
	if err != nil {
		tx.Rollback()
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = 'expired'
		WHERE status = 'active'
		  AND current_period_end IS NOT NULL
		  AND current_period_end < ?
	`, now)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if rowsAffected > 0 {
		// Stale tier cache entries expire on their own TTL.
		utils.Logger.Infof("Downgraded %d users with lapsed subscriptions to 'free'", rowsAffected)
	}
	return nil
}

// -------------------------------------------------------------
// Send daily alerts for over-budget categories (email sends run concurrently)
// -------------------------------------------------------------
func SendBudgetAlertEmails(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT
			u.email,
			u.first_name,
			c.name AS category_name,
			b.period,
			b.amount AS budgeted,
			(
				SELECT COALESCE(SUM(t.original_amount), 0)
				FROM transactions t
				WHERE t.user_id = b.user_id
				  AND t.category_id = b.category_id
				  AND t.is_parent = FALSE
				  AND t.date >= IF(b.period = 'monthly', DATE_FORMAT(CURDATE(), '%Y-%m-01'), DATE_FORMAT(CURDATE(), '%Y-01-01'))
			) + (
				SELECT COALESCE(SUM(ts.amount), 0)
				FROM transaction_splits ts
				JOIN transactions t ON ts.transaction_id = t.id
				WHERE t.user_id = b.user_id
				  AND ts.category_id = b.category_id
				  AND t.date >= IF(b.period = 'monthly', DATE_FORMAT(CURDATE(), '%Y-%m-01'), DATE_FORMAT(CURDATE(), '%Y-01-01'))
			) AS spent
		FROM budgets b
		JOIN categories c ON b.category_id = c.id
		JOIN users u ON b.user_id = u.id
		WHERE b.is_active = TRUE
		HAVING spent > budgeted
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var wg sync.WaitGroup
	errChan := make(chan error, 10)

	// Drain while sends are in flight so sender goroutines never block on a
	// full channel.
	drained := make(chan struct{})
	go func() {
		for e := range errChan {
			utils.Logger.Error(e)
		}
		close(drained)
	}()

	for rows.Next() {
		var (
			email, firstName, categoryName, period string
			budgeted, spent                        float64
		)

		if err := rows.Scan(
			&email,
			&firstName,
			&categoryName,
			&period,
			&budgeted,
			&spent,
		); err != nil {
			utils.Logger.Errorf("Failed to scan over-budget row: %v", err)
			continue
		}

		wg.Add(1)
		go func(email, firstName, categoryName, period string, spent, budgeted float64) {
			defer wg.Done()

			spentStr := fmt.Sprintf("%.2f", spent)
			budgetedStr := fmt.Sprintf("%.2f", budgeted)

			if err := utils.SendBudgetAlertEmail(
				email,
				firstName,
				categoryName,
				spentStr,
				budgetedStr,
				period,
			); err != nil {
				errChan <- fmt.Errorf("failed to send budget alert email to %s: %v", email, err)
				return
			}

			utils.Logger.Infof("📧 Sent budget alert to %s (%s) — spent %.2f of %.2f on '%s'",
				firstName, email, spent, budgeted, categoryName)
		}(email, firstName, categoryName, period, spent, budgeted)
	}

	wg.Wait()
	close(errChan)
	<-drained

	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("Error iterating over-budget rows: %v", err)
		return err
	}

	utils.Logger.Info("✅ Finished sending all budget alert emails.")
	return nil
}
