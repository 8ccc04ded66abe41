package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	portsrepo "github.com/shikunim/building_mgmt_app/internal/core/ports/repositories"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/dto"
	"github.com/shikunim/building_mgmt_app/internal/middleware"
	"github.com/shikunim/building_mgmt_app/internal/utils/money"
)

var (
	ErrNoEligibleApartments = errors.New("no eligible apartments to split the expense across")
	ErrWrongBuilding        = errors.New("apartment does not belong to the stated building")
)

// expenseService implements the expense splitting engine: building-wide
// splits with cent-exact shares, single-apartment charges, retroactive
// backfill for late-joining occupants and recurring expense generation.
type expenseService struct {
	tx            portsrepo.TransactionManager
	buildingRepo  portsrepo.BuildingRepositoryFacade
	apartmentRepo portsrepo.ApartmentRepositoryFacade
	occupancyRepo portsrepo.OccupancyRepositoryFacade
	expenseRepo   portsrepo.ExpenseRepositoryFacade
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	balanceSvc    portssvc.BalanceRefresher
}

// NewExpenseService creates the expense splitting engine.
func NewExpenseService(
	tx portsrepo.TransactionManager,
	buildingRepo portsrepo.BuildingRepositoryFacade,
	apartmentRepo portsrepo.ApartmentRepositoryFacade,
	occupancyRepo portsrepo.OccupancyRepositoryFacade,
	expenseRepo portsrepo.ExpenseRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	balanceSvc portssvc.BalanceRefresher,
) *expenseService {
	return &expenseService{
		tx:            tx,
		buildingRepo:  buildingRepo,
		apartmentRepo: apartmentRepo,
		occupancyRepo: occupancyRepo,
		expenseRepo:   expenseRepo,
		ledgerRepo:    ledgerRepo,
		balanceSvc:    balanceSvc,
	}
}

var (
	_ portssvc.ExpenseSvcFacade  = (*expenseService)(nil)
	_ portssvc.ExpenseBackfiller = (*expenseService)(nil)
)

// CreateExpense records a new expense for a building. Three shapes:
// a recurring parent (stored, never split), a single-apartment expense
// (one split line, no division) or a building-wide expense split across
// all eligible apartments. The whole action commits atomically.
func (s *expenseService) CreateExpense(ctx context.Context, buildingID string, req dto.CreateExpenseRequest, creatorUserID string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := money.ValidateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}
	if req.Description == "" {
		return nil, fmt.Errorf("%w: expense description is required", apperrors.ErrValidation)
	}
	if req.IsRecurring && req.ApartmentID != nil {
		return nil, fmt.Errorf("%w: a recurring expense cannot target a single apartment", apperrors.ErrValidation)
	}

	if _, err := s.buildingRepo.FindBuildingByID(ctx, buildingID); err != nil {
		return nil, fmt.Errorf("failed to find building %s: %w", buildingID, err)
	}

	now := time.Now().UTC()
	expense := domain.Expense{
		ExpenseID:   uuid.NewString(),
		BuildingID:  buildingID,
		Description: req.Description,
		Amount:      req.Amount,
		ExpenseDate: req.ExpenseDate,
		Category:    req.Category,
		IsRecurring: req.IsRecurring,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if req.IsRecurring {
		if req.RecurrenceType == "" {
			return nil, fmt.Errorf("%w: recurring expense requires a recurrence type", apperrors.ErrValidation)
		}
		expense.RecurrenceType = domain.RecurrenceType(req.RecurrenceType)
		expense.RecurrenceStart = req.RecurrenceStart
		if expense.RecurrenceStart == nil {
			expense.RecurrenceStart = &expense.ExpenseDate
		}
		expense.RecurrenceEnd = req.RecurrenceEnd
	}

	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		switch {
		case expense.IsRecurring:
			// Parent only; children are generated and split later.
			return s.expenseRepo.SaveExpense(ctx, tx, expense)
		case req.ApartmentID != nil:
			return s.chargeSingleApartment(ctx, tx, expense, *req.ApartmentID, creatorUserID)
		default:
			return s.splitAcrossBuilding(ctx, tx, expense, creatorUserID)
		}
	})
	if err != nil {
		logger.Error("Failed to create expense", slog.String("error", err.Error()), slog.String("building_id", buildingID))
		return nil, err
	}

	logger.Info("Expense created", slog.String("expense_id", expense.ExpenseID), slog.String("building_id", buildingID), slog.String("amount", expense.Amount.String()))
	return &expense, nil
}

// chargeSingleApartment records an expense against one apartment without
// dividing it.
func (s *expenseService) chargeSingleApartment(ctx context.Context, tx pgx.Tx, expense domain.Expense, apartmentID, userID string) error {
	apartment, err := s.apartmentRepo.FindApartmentByIDForUpdate(ctx, tx, apartmentID)
	if err != nil {
		return fmt.Errorf("failed to lock apartment %s: %w", apartmentID, err)
	}
	if apartment.BuildingID != expense.BuildingID {
		return fmt.Errorf("%w: apartment %s, building %s", ErrWrongBuilding, apartmentID, expense.BuildingID)
	}

	if err := s.expenseRepo.SaveExpense(ctx, tx, expense); err != nil {
		return err
	}
	if err := s.chargeApartment(ctx, tx, expense, *apartment, expense.Amount, userID); err != nil {
		return err
	}
	_, err = s.balanceSvc.RefreshCachedBalance(ctx, tx, apartment, userID)
	return err
}

// splitAcrossBuilding divides the expense across the building's occupied
// regular apartments. The split runs on integer cents: every apartment
// gets the floor share and the first apartments in stable number order
// absorb the penny remainder, so the shares sum to the expense amount
// exactly. The split lines go in as a single batch insert; the ledger
// appends and balance refreshes then run per apartment inside the shared
// transaction.
func (s *expenseService) splitAcrossBuilding(ctx context.Context, tx pgx.Tx, expense domain.Expense, userID string) error {
	apartments, err := s.apartmentRepo.FindEligibleApartmentsForUpdate(ctx, tx, expense.BuildingID)
	if err != nil {
		return fmt.Errorf("failed to lock eligible apartments for building %s: %w", expense.BuildingID, err)
	}
	if len(apartments) == 0 {
		return fmt.Errorf("%w: %w: building %s", apperrors.ErrConflict, ErrNoEligibleApartments, expense.BuildingID)
	}

	shares, err := money.SplitEvenly(expense.Amount, len(apartments))
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	if err := s.expenseRepo.SaveExpense(ctx, tx, expense); err != nil {
		return err
	}

	now := time.Now().UTC()
	lines := make([]domain.ApartmentExpense, len(apartments))
	for i := range apartments {
		lines[i] = newSplitLine(expense, apartments[i].ApartmentID, shares[i], userID, now)
	}
	if err := s.expenseRepo.SaveApartmentExpenses(ctx, tx, lines); err != nil {
		return fmt.Errorf("failed to save split lines for expense %s: %w", expense.ExpenseID, err)
	}

	for i := range apartments {
		if err := s.appendChargeEntry(ctx, tx, expense, apartments[i], lines[i], now, userID); err != nil {
			return err
		}
		if _, err := s.balanceSvc.RefreshCachedBalance(ctx, tx, &apartments[i], userID); err != nil {
			return err
		}
	}
	return nil
}

// newSplitLine builds the split-line row tying an apartment's share to
// its parent expense.
func newSplitLine(expense domain.Expense, apartmentID string, share decimal.Decimal, userID string, now time.Time) domain.ApartmentExpense {
	return domain.ApartmentExpense{
		ApartmentExpenseID: uuid.NewString(),
		ApartmentID:        apartmentID,
		ExpenseID:          expense.ExpenseID,
		Amount:             share,
		AmountPaid:         decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}

// chargeApartment inserts the split line and its ledger debit, attributed
// to the apartment's active occupancy period when one is open.
func (s *expenseService) chargeApartment(ctx context.Context, tx pgx.Tx, expense domain.Expense, apartment domain.Apartment, share decimal.Decimal, userID string) error {
	now := time.Now().UTC()
	ae := newSplitLine(expense, apartment.ApartmentID, share, userID, now)
	if err := s.expenseRepo.SaveApartmentExpense(ctx, tx, ae); err != nil {
		return fmt.Errorf("failed to save split line for apartment %s: %w", apartment.ApartmentID, err)
	}
	return s.appendChargeEntry(ctx, tx, expense, apartment, ae, now, userID)
}

// appendChargeEntry debits the apartment's ledger for its saved split
// line.
func (s *expenseService) appendChargeEntry(ctx context.Context, tx pgx.Tx, expense domain.Expense, apartment domain.Apartment, ae domain.ApartmentExpense, now time.Time, userID string) error {
	periodID, err := s.activePeriodID(ctx, tx, apartment.ApartmentID)
	if err != nil {
		return err
	}

	entry := domain.LedgerEntry{
		EntryID:       uuid.NewString(),
		ApartmentID:   apartment.ApartmentID,
		EntryType:     domain.Debit,
		Amount:        ae.Amount,
		Description:   expense.Description,
		ReferenceType: domain.RefExpense,
		ReferenceID:   ae.ApartmentExpenseID,
		PeriodID:      periodID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.ledgerRepo.AppendEntry(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to append expense entry for apartment %s: %w", apartment.ApartmentID, err)
	}
	return nil
}

// activePeriodID resolves the open occupancy period, or nil for a vacant
// apartment (single-apartment charges may target vacant units).
func (s *expenseService) activePeriodID(ctx context.Context, tx pgx.Tx, apartmentID string) (*string, error) {
	period, err := s.occupancyRepo.FindActivePeriod(ctx, tx, apartmentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve active period for apartment %s: %w", apartmentID, err)
	}
	return &period.PeriodID, nil
}

// BackfillExpensesForApartment charges a newly occupied apartment its
// day-prorated share of building expenses dated within or after its
// occupancy month: (total / tenantCount) * occupiedDays / daysInMonth,
// where tenantCount counts the existing split lines plus the newcomer.
// Shares already settled by other apartments are never touched, and an
// expense the apartment already has a split line for is skipped, so the
// routine is idempotent. Runs inside the occupancy-start transaction; the
// caller refreshes the balance afterwards.
func (s *expenseService) BackfillExpensesForApartment(ctx context.Context, tx pgx.Tx, apartment domain.Apartment, periodID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if apartment.OccupancyStartDate == nil {
		return fmt.Errorf("%w: apartment %s has no occupancy start date", apperrors.ErrConflict, apartment.ApartmentID)
	}
	start := *apartment.OccupancyStartDate
	monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)

	expenses, err := s.expenseRepo.ListExpensesSince(ctx, tx, apartment.BuildingID, monthStart)
	if err != nil {
		return fmt.Errorf("failed to list expenses for backfill: %w", err)
	}

	now := time.Now().UTC()
	backfilled := 0
	for _, expense := range expenses {
		exists, err := s.expenseRepo.HasSplitForApartment(ctx, tx, expense.ExpenseID, apartment.ApartmentID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		existing, err := s.expenseRepo.CountSplits(ctx, tx, expense.ExpenseID)
		if err != nil {
			return err
		}
		if existing == 0 {
			// Single-apartment expense of another unit, or a split that was
			// fully canceled; either way not this apartment's to share.
			continue
		}

		tenantCount := existing + 1
		occupiedDays := money.OccupiedDaysInMonth(start, expense.ExpenseDate)
		share, err := money.ProratedShare(expense.Amount, tenantCount, occupiedDays, money.DaysInMonth(expense.ExpenseDate))
		if err != nil {
			return fmt.Errorf("failed to prorate expense %s: %w", expense.ExpenseID, err)
		}
		if share.IsZero() {
			continue
		}

		ae := domain.ApartmentExpense{
			ApartmentExpenseID: uuid.NewString(),
			ApartmentID:        apartment.ApartmentID,
			ExpenseID:          expense.ExpenseID,
			Amount:             share,
			AmountPaid:         decimal.Zero,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.expenseRepo.SaveApartmentExpense(ctx, tx, ae); err != nil {
			return fmt.Errorf("failed to save backfill split line for expense %s: %w", expense.ExpenseID, err)
		}

		entry := domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			ApartmentID:   apartment.ApartmentID,
			EntryType:     domain.Debit,
			Amount:        share,
			Description:   expense.Description,
			ReferenceType: domain.RefExpense,
			ReferenceID:   ae.ApartmentExpenseID,
			PeriodID:      &periodID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.ledgerRepo.AppendEntry(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to append backfill entry for expense %s: %w", expense.ExpenseID, err)
		}
		backfilled++
	}

	if backfilled > 0 {
		logger.Info("Backfilled expenses for new occupancy",
			slog.String("apartment_id", apartment.ApartmentID),
			slog.Int("expense_count", backfilled),
		)
	}
	return nil
}

// GetExpenseByID retrieves a specific expense.
func (s *expenseService) GetExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense %s: %w", expenseID, err)
	}
	return expense, nil
}

// ListExpensesByBuilding retrieves a paginated expense list.
func (s *expenseService) ListExpensesByBuilding(ctx context.Context, buildingID string, params dto.ListExpensesParams) (*dto.ListExpensesResponse, error) {
	expenses, nextToken, err := s.expenseRepo.ListExpensesByBuilding(ctx, buildingID, params.Limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for building %s: %w", buildingID, err)
	}

	responses := make([]dto.ExpenseResponse, len(expenses))
	for i := range expenses {
		responses[i] = dto.ToExpenseResponse(&expenses[i])
	}
	return &dto.ListExpensesResponse{Expenses: responses, NextToken: nextToken}, nil
}

// ListApartmentCharges retrieves an apartment's split lines.
func (s *expenseService) ListApartmentCharges(ctx context.Context, apartmentID string, includeCanceled bool) ([]domain.ApartmentExpense, error) {
	return s.expenseRepo.ListApartmentExpensesByApartment(ctx, apartmentID, includeCanceled)
}

// GenerateRecurringExpenses materializes one concrete child expense per
// elapsed month for every recurring parent and splits each child
// independently. Each child commits in its own transaction so one failing
// month does not roll back the others; idempotency comes from the
// (parent, month) existence check.
func (s *expenseService) GenerateRecurringExpenses(ctx context.Context, asOf time.Time, userID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	parents, err := s.expenseRepo.ListRecurringParents(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to list recurring parents: %w", err)
	}

	generated := 0
	for _, parent := range parents {
		for _, monthOf := range dueMonths(parent, asOf) {
			created, err := s.generateChildExpense(ctx, parent, monthOf, userID)
			if err != nil {
				// One month failing must not poison the rest of the run.
				logger.Error("Failed to generate recurring child expense",
					slog.String("parent_expense_id", parent.ExpenseID),
					slog.String("month", money.MonthLabel(monthOf)),
					slog.String("error", err.Error()),
				)
				continue
			}
			if created {
				generated++
			}
		}
	}

	logger.Info("Recurring expense generation finished", slog.Int("generated", generated))
	return generated, nil
}

// generateChildExpense creates and splits one child for the given month,
// unless it already exists.
func (s *expenseService) generateChildExpense(ctx context.Context, parent domain.Expense, monthOf time.Time, userID string) (bool, error) {
	created := false
	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		month := money.MonthLabel(monthOf)
		exists, err := s.expenseRepo.HasChildForMonth(ctx, tx, parent.ExpenseID, month)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		now := time.Now().UTC()
		parentID := parent.ExpenseID
		child := domain.Expense{
			ExpenseID:       uuid.NewString(),
			BuildingID:      parent.BuildingID,
			Description:     fmt.Sprintf("%s (%s)", parent.Description, month),
			Amount:          parent.Amount,
			ExpenseDate:     monthOf,
			Category:        parent.Category,
			ParentExpenseID: &parentID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.splitAcrossBuilding(ctx, tx, child, userID); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// dueMonths lists the month anchors a recurring parent should have
// children for, from its recurrence start up to asOf, clamped by the
// recurrence end. The child keeps the parent's day of month where the
// month is long enough.
func dueMonths(parent domain.Expense, asOf time.Time) []time.Time {
	start := parent.ExpenseDate
	if parent.RecurrenceStart != nil {
		start = *parent.RecurrenceStart
	}
	end := asOf
	if parent.RecurrenceEnd != nil && parent.RecurrenceEnd.Before(asOf) {
		end = *parent.RecurrenceEnd
	}

	step := 1
	if parent.RecurrenceType == domain.RecurrenceYearly {
		step = 12
	}

	var months []time.Time
	day := start.Day()
	for anchor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !anchor.After(end); anchor = anchor.AddDate(0, step, 0) {
		d := day
		if dim := money.DaysInMonth(anchor); d > dim {
			d = dim
		}
		due := time.Date(anchor.Year(), anchor.Month(), d, 0, 0, 0, 0, time.UTC)
		if due.After(end) {
			break
		}
		months = append(months, due)
	}
	return months
}
