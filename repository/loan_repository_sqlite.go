package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"loan-scheduler/domain"
	"loan-scheduler/logger"
)

// Fixed-width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteLoanRepository persists loans and their schedules in SQLite.
// Currency amounts are stored as fixed two-decimal text.
type SQLiteLoanRepository struct {
	db *sql.DB
}

// NewSQLiteLoanRepository opens (creating if needed) the database at dbPath
// and applies pending migrations.
func NewSQLiteLoanRepository(dbPath string) (*SQLiteLoanRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteLoanRepository{db: db}, nil
}

func (r *SQLiteLoanRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save writes the loan and replaces its schedule in one transaction.
func (r *SQLiteLoanRepository) Save(ctx context.Context, loan domain.Loan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	t := loan.Terms
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO loans
			(id, disbursement_date, principal_amount, tenure, emi_frequency, interest_rate, moratorium_period, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID,
		t.DisbursementDate.Format(domain.DateLayout),
		t.PrincipalAmount,
		t.Tenure,
		string(t.EMIFrequency),
		t.InterestRate,
		t.MoratoriumPeriod,
		loan.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM repayment_schedules WHERE loan_id = ?`, loan.ID); err != nil {
		return fmt.Errorf("clear schedule: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO repayment_schedules
			(loan_id, payment_number, payment_date, opening_balance, principal_payment,
			 interest_payment, total_payment, closing_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare schedule insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range loan.Schedule {
		_, err := stmt.ExecContext(ctx,
			loan.ID,
			e.PaymentNumber,
			e.PaymentDate.Format(domain.DateLayout),
			e.OpeningBalance.StringFixed(2),
			e.PrincipalPayment.StringFixed(2),
			e.InterestPayment.StringFixed(2),
			e.TotalPayment.StringFixed(2),
			e.ClosingBalance.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("insert schedule entry %d: %w", e.PaymentNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit loan: %w", err)
	}

	log := logger.WithComponent("sqlite_repository")
	log.Debug().
		Str("loan_id", loan.ID).
		Int("payments", len(loan.Schedule)).
		Msg("loan saved")
	return nil
}

func (r *SQLiteLoanRepository) FindByID(ctx context.Context, id string) (domain.Loan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, disbursement_date, principal_amount, tenure, emi_frequency, interest_rate, moratorium_period, created_at
		FROM loans WHERE id = ?`, id)
	loan, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Loan{}, ErrLoanNotFound
	}
	if err != nil {
		return domain.Loan{}, fmt.Errorf("get loan: %w", err)
	}

	loan.Schedule, err = r.schedule(ctx, id)
	if err != nil {
		return domain.Loan{}, err
	}
	return loan, nil
}

func (r *SQLiteLoanRepository) List(ctx context.Context) ([]domain.Loan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, disbursement_date, principal_amount, tenure, emi_frequency, interest_rate, moratorium_period, created_at
		FROM loans ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	loans := []domain.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}

func (r *SQLiteLoanRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM repayment_schedules WHERE loan_id = ?`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLoanNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (r *SQLiteLoanRepository) schedule(ctx context.Context, loanID string) ([]domain.ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payment_number, payment_date, opening_balance, principal_payment,
		       interest_payment, total_payment, closing_balance
		FROM repayment_schedules WHERE loan_id = ? ORDER BY payment_number ASC`, loanID)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	defer rows.Close()

	var schedule []domain.ScheduleEntry
	for rows.Next() {
		var (
			e                                                 domain.ScheduleEntry
			date, opening, principal, interest, total, closing string
		)
		if err := rows.Scan(&e.PaymentNumber, &date, &opening, &principal, &interest, &total, &closing); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		if e.PaymentDate, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse payment date %q: %w", date, err)
		}
		amounts := []struct {
			dst *decimal.Decimal
			src string
		}{
			{&e.OpeningBalance, opening},
			{&e.PrincipalPayment, principal},
			{&e.InterestPayment, interest},
			{&e.TotalPayment, total},
			{&e.ClosingBalance, closing},
		}
		for _, a := range amounts {
			if *a.dst, err = decimal.NewFromString(a.src); err != nil {
				return nil, fmt.Errorf("parse amount %q: %w", a.src, err)
			}
		}
		schedule = append(schedule, e)
	}
	return schedule, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (domain.Loan, error) {
	var (
		loan              domain.Loan
		date, freq, stamp string
	)
	err := row.Scan(
		&loan.ID,
		&date,
		&loan.Terms.PrincipalAmount,
		&loan.Terms.Tenure,
		&freq,
		&loan.Terms.InterestRate,
		&loan.Terms.MoratoriumPeriod,
		&stamp,
	)
	if err != nil {
		return domain.Loan{}, err
	}

	loan.Terms.EMIFrequency = domain.EMIFrequency(freq)
	if loan.Terms.DisbursementDate, err = time.Parse(domain.DateLayout, date); err != nil {
		return domain.Loan{}, fmt.Errorf("parse disbursement date %q: %w", date, err)
	}
	if loan.CreatedAt, err = time.Parse(timestampLayout, stamp); err != nil {
		return domain.Loan{}, fmt.Errorf("parse created_at %q: %w", stamp, err)
	}
	return loan, nil
}
