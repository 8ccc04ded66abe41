package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shikunim/building_mgmt_app/internal/dto"
	"github.com/shopspring/decimal"
)

// BalanceRefresher recomputes an apartment's cached balance from its full
// ledger and writes it, with the derived subscription status, back onto
// the apartment row. Idempotent; called as the last step of every
// transaction that appended a ledger-affecting row. Recomputing from the
// log rather than mutating a counter incrementally eliminates drift from
// missed update paths.
type BalanceRefresher interface {
	RefreshCachedBalance(ctx context.Context, tx pgx.Tx, apartment *domain.Apartment, userID string) (decimal.Decimal, error)
}

// LedgerSvcFacade exposes read-only statement views over apartment ledgers.
type LedgerSvcFacade interface {
	GetStatement(ctx context.Context, apartmentID string, params dto.ListLedgerEntriesParams) (*dto.ListLedgerEntriesResponse, error)
	ListPeriods(ctx context.Context, apartmentID string) ([]domain.OccupancyPeriod, error)
}
