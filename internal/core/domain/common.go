package domain

import "time"

// AuditFields holds standard audit information for domain entities.
// The user IDs record who triggered the mutation; they are attribution
// metadata only and never feed the balance computation.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID reference
}
