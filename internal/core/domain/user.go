package domain

// User is a committee member or administrator. Only the identity matters
// to the ledger core: every mutating call records the acting user in the
// audit fields.
type User struct {
	UserID       string `json:"userID"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	AuditFields
}
