package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
)

type PgxPaymentRepository struct {
	pool *pgxpool.Pool
}

// newPgxPaymentRepository creates a new repository for payments and
// allocations.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{pool: pool}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, apartment_id, amount, month_label, is_canceled,
		created_at, created_by, last_updated_at, last_updated_by`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.PaymentID,
		&p.ApartmentID,
		&p.Amount,
		&p.MonthLabel,
		&p.IsCanceled,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePayment inserts a new payment within a transaction.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	query := `
		INSERT INTO payments (payment_id, apartment_id, amount, month_label, is_canceled,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := tx.Exec(ctx, query,
		payment.PaymentID,
		payment.ApartmentID,
		payment.Amount,
		payment.MonthLabel,
		payment.IsCanceled,
		payment.CreatedAt,
		payment.CreatedBy,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: payment %s already exists", apperrors.ErrDuplicate, payment.PaymentID)
		}
		return fmt.Errorf("failed to save payment %s: %w", payment.PaymentID, err)
	}
	return nil
}

// SaveAllocation inserts a new payment allocation within a transaction.
// The charge reference is stored flattened: kind plus the variant columns.
func (r *PgxPaymentRepository) SaveAllocation(ctx context.Context, tx pgx.Tx, allocation domain.PaymentAllocation) error {
	query := `
		INSERT INTO payment_allocations (allocation_id, payment_id, charge_kind, apartment_expense_id, charge_apartment_id, charge_month, amount,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	var apartmentExpenseID, chargeApartmentID, chargeMonth *string
	switch allocation.Charge.Kind {
	case domain.ExpenseChargeKind:
		apartmentExpenseID = &allocation.Charge.ApartmentExpenseID
	case domain.SubscriptionChargeKind:
		chargeApartmentID = &allocation.Charge.ApartmentID
		chargeMonth = &allocation.Charge.Month
	}

	_, err := tx.Exec(ctx, query,
		allocation.AllocationID,
		allocation.PaymentID,
		allocation.Charge.Kind,
		apartmentExpenseID,
		chargeApartmentID,
		chargeMonth,
		allocation.Amount,
		allocation.CreatedAt,
		allocation.CreatedBy,
		allocation.LastUpdatedAt,
		allocation.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save allocation %s: %w", allocation.AllocationID, err)
	}
	return nil
}

// MarkPaymentCanceled flips the canceled flag.
func (r *PgxPaymentRepository) MarkPaymentCanceled(ctx context.Context, tx pgx.Tx, paymentID string, userID string, now time.Time) error {
	query := `
		UPDATE payments
		SET is_canceled = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE payment_id = $1 AND NOT is_canceled;
	`
	tag, err := tx.Exec(ctx, query, paymentID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to cancel payment %s: %w", paymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: active payment %s", apperrors.ErrNotFound, paymentID)
	}
	return nil
}

// FindPaymentByID retrieves a payment within a transaction.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1;`
	payment, err := scanPayment(tx.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment by ID %s: %w", paymentID, err)
	}
	return payment, nil
}

// ListPaymentsByApartment retrieves an apartment's payments, newest first.
func (r *PgxPaymentRepository) ListPaymentsByApartment(ctx context.Context, apartmentID string, includeCanceled bool) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE apartment_id = $1`
	if !includeCanceled {
		query += ` AND NOT is_canceled`
	}
	query += ` ORDER BY created_at DESC, payment_id;`

	rows, err := r.pool.Query(ctx, query, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for apartment %s: %w", apartmentID, err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}

// ListAllocationsByPayment retrieves the allocations a payment produced.
func (r *PgxPaymentRepository) ListAllocationsByPayment(ctx context.Context, tx pgx.Tx, paymentID string) ([]domain.PaymentAllocation, error) {
	query := `
		SELECT allocation_id, payment_id, charge_kind, apartment_expense_id, charge_apartment_id, charge_month, amount,
			created_at, created_by, last_updated_at, last_updated_by
		FROM payment_allocations
		WHERE payment_id = $1
		ORDER BY created_at, allocation_id;
	`
	rows, err := tx.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations for payment %s: %w", paymentID, err)
	}
	defer rows.Close()

	var allocations []domain.PaymentAllocation
	for rows.Next() {
		var a domain.PaymentAllocation
		var apartmentExpenseID, chargeApartmentID, chargeMonth *string
		err := rows.Scan(
			&a.AllocationID,
			&a.PaymentID,
			&a.Charge.Kind,
			&apartmentExpenseID,
			&chargeApartmentID,
			&chargeMonth,
			&a.Amount,
			&a.CreatedAt,
			&a.CreatedBy,
			&a.LastUpdatedAt,
			&a.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation row: %w", err)
		}
		if apartmentExpenseID != nil {
			a.Charge.ApartmentExpenseID = *apartmentExpenseID
		}
		if chargeApartmentID != nil {
			a.Charge.ApartmentID = *chargeApartmentID
		}
		if chargeMonth != nil {
			a.Charge.Month = *chargeMonth
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation rows: %w", err)
	}
	return allocations, nil
}
