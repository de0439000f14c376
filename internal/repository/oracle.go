package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/sijms/go-ora/v2"

	"address-etl/internal/models"
)

// AccountRepository reads the A&T warehouse views over Oracle. Personal
// property accounts and the mobile-home range (account_int >= 4000000) are
// excluded at the view.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository opens the Oracle connection and verifies it.
func NewAccountRepository(connString string) (*AccountRepository, error) {
	db, err := sql.Open("oracle", connString)
	if err != nil {
		return nil, fmt.Errorf("repository: open oracle connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: ping oracle: %w", err)
	}
	return &AccountRepository{db: db}, nil
}

// Close closes the Oracle connection.
func (a *AccountRepository) Close() error {
	return a.db.Close()
}

// ActiveAccounts reads every active, non-personal real account with its
// maptaxlot.
func (a *AccountRepository) ActiveAccounts(ctx context.Context) ([]models.AccountRow, error) {
	query := `
		SELECT TO_CHAR(account_int), maptaxlot
		FROM account
		WHERE (active_this_year = 'Y' OR new_active_next_year = 'Y')
			AND account_type <> 'PP'
			AND account_int < 4000000
			AND maptaxlot IS NOT NULL
	`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.AccountRow
	for rows.Next() {
		var row models.AccountRow
		if err := rows.Scan(&row.Account, &row.Maptaxlot); err != nil {
			return nil, fmt.Errorf("repository: scan account: %w", err)
		}
		accounts = append(accounts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate accounts: %w", err)
	}
	return accounts, nil
}

// TaxYearRows reads the (account, maptaxlot, tca) triples for one tax year.
func (a *AccountRepository) TaxYearRows(ctx context.Context, year int) ([]models.TaxYearRow, error) {
	query := `
		SELECT TO_CHAR(account_int), maptaxlot, tca
		FROM account_tax_year
		WHERE tax_year = :1 AND maptaxlot IS NOT NULL AND tca IS NOT NULL
	`
	rows, err := a.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("repository: query tax year rows: %w", err)
	}
	defer rows.Close()

	var result []models.TaxYearRow
	for rows.Next() {
		var row models.TaxYearRow
		if err := rows.Scan(&row.Account, &row.Maptaxlot, &row.TCA); err != nil {
			return nil, fmt.Errorf("repository: scan tax year row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate tax year rows: %w", err)
	}
	return result, nil
}
