package dto

import (
	"time"

	"github.com/shikunim/building_mgmt_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateExpenseRequest defines the payload for creating an expense.
// When ApartmentID is set the expense charges that apartment alone and
// bypasses the split; otherwise it is split across the building's
// eligible apartments. Recurring parents are stored but never split.
type CreateExpenseRequest struct {
	Description     string          `json:"description" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	ExpenseDate     time.Time       `json:"expenseDate" binding:"required"`
	Category        string          `json:"category"`
	ApartmentID     *string         `json:"apartmentID,omitempty"`
	IsRecurring     bool            `json:"isRecurring"`
	RecurrenceType  string          `json:"recurrenceType" binding:"omitempty,oneof=MONTHLY YEARLY"`
	RecurrenceStart *time.Time      `json:"recurrenceStart,omitempty"`
	RecurrenceEnd   *time.Time      `json:"recurrenceEnd,omitempty"`
}

// ExpenseResponse defines the data returned for an expense.
type ExpenseResponse struct {
	ExpenseID       string          `json:"expenseID"`
	BuildingID      string          `json:"buildingID"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	ExpenseDate     time.Time       `json:"expenseDate"`
	Category        string          `json:"category"`
	IsRecurring     bool            `json:"isRecurring"`
	RecurrenceType  string          `json:"recurrenceType,omitempty"`
	ParentExpenseID *string         `json:"parentExpenseID,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
}

// ToExpenseResponse converts a domain.Expense to ExpenseResponse DTO.
func ToExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ExpenseID:       e.ExpenseID,
		BuildingID:      e.BuildingID,
		Description:     e.Description,
		Amount:          e.Amount,
		ExpenseDate:     e.ExpenseDate,
		Category:        e.Category,
		IsRecurring:     e.IsRecurring,
		RecurrenceType:  string(e.RecurrenceType),
		ParentExpenseID: e.ParentExpenseID,
		CreatedAt:       e.CreatedAt,
		CreatedBy:       e.CreatedBy,
	}
}

// ApartmentExpenseResponse defines the data returned for a split line.
type ApartmentExpenseResponse struct {
	ApartmentExpenseID string          `json:"apartmentExpenseID"`
	ApartmentID        string          `json:"apartmentID"`
	ExpenseID          string          `json:"expenseID"`
	Amount             decimal.Decimal `json:"amount"`
	AmountPaid         decimal.Decimal `json:"amountPaid"`
	IsCanceled         bool            `json:"isCanceled"`
}

// ToApartmentExpenseResponse converts a domain.ApartmentExpense to its DTO.
func ToApartmentExpenseResponse(ae *domain.ApartmentExpense) ApartmentExpenseResponse {
	return ApartmentExpenseResponse{
		ApartmentExpenseID: ae.ApartmentExpenseID,
		ApartmentID:        ae.ApartmentID,
		ExpenseID:          ae.ExpenseID,
		Amount:             ae.Amount,
		AmountPaid:         ae.AmountPaid,
		IsCanceled:         ae.IsCanceled,
	}
}

// ListExpensesParams holds parameters for listing a building's expenses.
type ListExpensesParams struct {
	Limit     int
	NextToken *string
}

// ListExpensesResponse wraps the paginated expense list payload.
type ListExpensesResponse struct {
	Expenses  []ExpenseResponse `json:"expenses"`
	NextToken *string           `json:"nextToken,omitempty"`
}
