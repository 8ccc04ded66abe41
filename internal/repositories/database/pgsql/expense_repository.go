package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	"github.com/shikunim/building_mgmt_app/internal/utils/pagination"
)

type PgxExpenseRepository struct {
	pool *pgxpool.Pool
}

// newPgxExpenseRepository creates a new repository for expense data and
// split lines.
func newPgxExpenseRepository(pool *pgxpool.Pool) portsrepo.ExpenseRepositoryFacade {
	return &PgxExpenseRepository{pool: pool}
}

var _ portsrepo.ExpenseRepositoryFacade = (*PgxExpenseRepository)(nil)

const expenseColumns = `expense_id, building_id, description, amount, expense_date, category,
		is_recurring, recurrence_type, recurrence_start, recurrence_end, parent_expense_id,
		created_at, created_by, last_updated_at, last_updated_by`

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	var recurrenceType *string
	err := row.Scan(
		&e.ExpenseID,
		&e.BuildingID,
		&e.Description,
		&e.Amount,
		&e.ExpenseDate,
		&e.Category,
		&e.IsRecurring,
		&recurrenceType,
		&e.RecurrenceStart,
		&e.RecurrenceEnd,
		&e.ParentExpenseID,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if recurrenceType != nil {
		e.RecurrenceType = domain.RecurrenceType(*recurrenceType)
	}
	return &e, nil
}

// SaveExpense inserts a new expense within a transaction.
func (r *PgxExpenseRepository) SaveExpense(ctx context.Context, tx pgx.Tx, expense domain.Expense) error {
	query := `
		INSERT INTO expenses (expense_id, building_id, description, amount, expense_date, category,
			is_recurring, recurrence_type, recurrence_start, recurrence_end, parent_expense_id,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	var recurrenceType *string
	if expense.RecurrenceType != "" {
		rt := string(expense.RecurrenceType)
		recurrenceType = &rt
	}
	_, err := tx.Exec(ctx, query,
		expense.ExpenseID,
		expense.BuildingID,
		expense.Description,
		expense.Amount,
		expense.ExpenseDate,
		expense.Category,
		expense.IsRecurring,
		recurrenceType,
		expense.RecurrenceStart,
		expense.RecurrenceEnd,
		expense.ParentExpenseID,
		expense.CreatedAt,
		expense.CreatedBy,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: expense %s already exists", apperrors.ErrDuplicate, expense.ExpenseID)
		}
		return fmt.Errorf("failed to save expense %s: %w", expense.ExpenseID, err)
	}
	return nil
}

// FindExpenseByID retrieves a specific expense.
func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE expense_id = $1;`
	expense, err := scanExpense(r.pool.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find expense by ID %s: %w", expenseID, err)
	}
	return expense, nil
}

// ListExpensesByBuilding retrieves a building's expenses newest first with
// keyset pagination on (expense_date, expense_id).
func (r *PgxExpenseRepository) ListExpensesByBuilding(ctx context.Context, buildingID string, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE building_id = $1`
	args := []interface{}{buildingID}
	if nextToken != nil {
		cursorDate, cursorID, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (expense_date, expense_id) < ($2, $3)`
		args = append(args, cursorDate, cursorID)
	}
	query += fmt.Sprintf(` ORDER BY expense_date DESC, expense_id DESC LIMIT %d;`, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query expenses for building %s: %w", buildingID, err)
	}
	defer rows.Close()

	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, nil, err
	}

	var newToken *string
	if len(expenses) > limit {
		expenses = expenses[:limit]
		last := expenses[limit-1]
		token := pagination.EncodeCursor(last.ExpenseDate, last.ExpenseID)
		newToken = &token
	}
	return expenses, newToken, nil
}

// ListExpensesSince retrieves a building's concrete expenses dated on or
// after from, oldest first. Recurring parents are excluded; their
// generated children qualify like any other expense.
func (r *PgxExpenseRepository) ListExpensesSince(ctx context.Context, tx pgx.Tx, buildingID string, from time.Time) ([]domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE building_id = $1 AND expense_date >= $2 AND NOT is_recurring
		ORDER BY expense_date, expense_id;
	`
	rows, err := tx.Query(ctx, query, buildingID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses since %s for building %s: %w", from.Format("2006-01-02"), buildingID, err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// ListRecurringParents retrieves recurring parent expenses whose
// recurrence range overlaps asOf.
func (r *PgxExpenseRepository) ListRecurringParents(ctx context.Context, asOf time.Time) ([]domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE is_recurring
		  AND COALESCE(recurrence_start, expense_date) <= $1
		ORDER BY expense_date, expense_id;
	`
	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring parent expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// HasChildForMonth reports whether a recurring parent already has a child
// expense dated in the given YYYY-MM month.
func (r *PgxExpenseRepository) HasChildForMonth(ctx context.Context, tx pgx.Tx, parentExpenseID string, month string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM expenses
			WHERE parent_expense_id = $1 AND to_char(expense_date, 'YYYY-MM') = $2
		);
	`
	var exists bool
	if err := tx.QueryRow(ctx, query, parentExpenseID, month).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check child expense for parent %s month %s: %w", parentExpenseID, month, err)
	}
	return exists, nil
}

const apartmentExpenseColumns = `apartment_expense_id, apartment_id, expense_id, amount, amount_paid, is_canceled,
		created_at, created_by, last_updated_at, last_updated_by`

func scanApartmentExpense(row pgx.Row) (*domain.ApartmentExpense, error) {
	var ae domain.ApartmentExpense
	err := row.Scan(
		&ae.ApartmentExpenseID,
		&ae.ApartmentID,
		&ae.ExpenseID,
		&ae.Amount,
		&ae.AmountPaid,
		&ae.IsCanceled,
		&ae.CreatedAt,
		&ae.CreatedBy,
		&ae.LastUpdatedAt,
		&ae.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &ae, nil
}

// SaveApartmentExpense inserts a new split line within a transaction.
func (r *PgxExpenseRepository) SaveApartmentExpense(ctx context.Context, tx pgx.Tx, ae domain.ApartmentExpense) error {
	query := `
		INSERT INTO apartment_expenses (apartment_expense_id, apartment_id, expense_id, amount, amount_paid, is_canceled,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := tx.Exec(ctx, query,
		ae.ApartmentExpenseID,
		ae.ApartmentID,
		ae.ExpenseID,
		ae.Amount,
		ae.AmountPaid,
		ae.IsCanceled,
		ae.CreatedAt,
		ae.CreatedBy,
		ae.LastUpdatedAt,
		ae.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: apartment %s already has a split line for expense %s", apperrors.ErrDuplicate, ae.ApartmentID, ae.ExpenseID)
		}
		return fmt.Errorf("failed to save split line %s: %w", ae.ApartmentExpenseID, err)
	}
	return nil
}

// SaveApartmentExpenses inserts a building split's lines in one batch
// within a transaction.
func (r *PgxExpenseRepository) SaveApartmentExpenses(ctx context.Context, tx pgx.Tx, aes []domain.ApartmentExpense) error {
	if len(aes) == 0 {
		return nil
	}
	query := `
		INSERT INTO apartment_expenses (apartment_expense_id, apartment_id, expense_id, amount, amount_paid, is_canceled,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, ae := range aes {
		batch.Queue(query,
			ae.ApartmentExpenseID,
			ae.ApartmentID,
			ae.ExpenseID,
			ae.Amount,
			ae.AmountPaid,
			ae.IsCanceled,
			ae.CreatedAt,
			ae.CreatedBy,
			ae.LastUpdatedAt,
			ae.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: expense %s already has split lines", apperrors.ErrDuplicate, aes[0].ExpenseID)
		}
		return fmt.Errorf("failed to save split line batch for expense %s: %w", aes[0].ExpenseID, err)
	}
	return nil
}

// FindApartmentExpenseByID retrieves a split line within a transaction.
func (r *PgxExpenseRepository) FindApartmentExpenseByID(ctx context.Context, tx pgx.Tx, apartmentExpenseID string) (*domain.ApartmentExpense, error) {
	query := `SELECT ` + apartmentExpenseColumns + ` FROM apartment_expenses WHERE apartment_expense_id = $1;`
	ae, err := scanApartmentExpense(tx.QueryRow(ctx, query, apartmentExpenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find split line by ID %s: %w", apartmentExpenseID, err)
	}
	return ae, nil
}

// ListApartmentExpensesByApartment retrieves an apartment's split lines,
// newest first.
func (r *PgxExpenseRepository) ListApartmentExpensesByApartment(ctx context.Context, apartmentID string, includeCanceled bool) ([]domain.ApartmentExpense, error) {
	query := `SELECT ` + apartmentExpenseColumns + ` FROM apartment_expenses WHERE apartment_id = $1`
	if !includeCanceled {
		query += ` AND NOT is_canceled`
	}
	query += ` ORDER BY created_at DESC, apartment_expense_id;`

	rows, err := r.pool.Query(ctx, query, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query split lines for apartment %s: %w", apartmentID, err)
	}
	defer rows.Close()

	var lines []domain.ApartmentExpense
	for rows.Next() {
		ae, err := scanApartmentExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split line row: %w", err)
		}
		lines = append(lines, *ae)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating split line rows: %w", err)
	}
	return lines, nil
}

// CountSplits returns the number of non-canceled split lines of an expense.
func (r *PgxExpenseRepository) CountSplits(ctx context.Context, tx pgx.Tx, expenseID string) (int, error) {
	query := `SELECT COUNT(*) FROM apartment_expenses WHERE expense_id = $1 AND NOT is_canceled;`
	var count int
	if err := tx.QueryRow(ctx, query, expenseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count split lines for expense %s: %w", expenseID, err)
	}
	return count, nil
}

// HasSplitForApartment reports whether the apartment already has a split
// line for the expense, canceled or not.
func (r *PgxExpenseRepository) HasSplitForApartment(ctx context.Context, tx pgx.Tx, expenseID, apartmentID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM apartment_expenses WHERE expense_id = $1 AND apartment_id = $2
		);
	`
	var exists bool
	if err := tx.QueryRow(ctx, query, expenseID, apartmentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check split line for expense %s apartment %s: %w", expenseID, apartmentID, err)
	}
	return exists, nil
}

// MarkApartmentExpenseCanceled flips the canceled flag.
func (r *PgxExpenseRepository) MarkApartmentExpenseCanceled(ctx context.Context, tx pgx.Tx, apartmentExpenseID string, userID string, now time.Time) error {
	query := `
		UPDATE apartment_expenses
		SET is_canceled = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE apartment_expense_id = $1 AND NOT is_canceled;
	`
	tag, err := tx.Exec(ctx, query, apartmentExpenseID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to cancel split line %s: %w", apartmentExpenseID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: active split line %s", apperrors.ErrNotFound, apartmentExpenseID)
	}
	return nil
}

// AddToAmountPaid adjusts the paid tracking field by delta.
func (r *PgxExpenseRepository) AddToAmountPaid(ctx context.Context, tx pgx.Tx, apartmentExpenseID string, delta decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE apartment_expenses
		SET amount_paid = amount_paid + $2, last_updated_at = $3, last_updated_by = $4
		WHERE apartment_expense_id = $1;
	`
	tag, err := tx.Exec(ctx, query, apartmentExpenseID, delta, now, userID)
	if err != nil {
		return fmt.Errorf("failed to adjust amount paid for split line %s: %w", apartmentExpenseID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: split line %s", apperrors.ErrNotFound, apartmentExpenseID)
	}
	return nil
}

// SetAmountPaid overwrites the paid tracking field.
func (r *PgxExpenseRepository) SetAmountPaid(ctx context.Context, tx pgx.Tx, apartmentExpenseID string, amount decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE apartment_expenses
		SET amount_paid = $2, last_updated_at = $3, last_updated_by = $4
		WHERE apartment_expense_id = $1;
	`
	tag, err := tx.Exec(ctx, query, apartmentExpenseID, amount, now, userID)
	if err != nil {
		return fmt.Errorf("failed to set amount paid for split line %s: %w", apartmentExpenseID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: split line %s", apperrors.ErrNotFound, apartmentExpenseID)
	}
	return nil
}

func collectExpenses(rows pgx.Rows) ([]domain.Expense, error) {
	var expenses []domain.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense rows: %w", err)
	}
	return expenses, nil
}
