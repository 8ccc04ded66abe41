package domain

// Building groups the apartments a committee manages. Building-wide
// expenses are split across its occupied regular apartments.
type Building struct {
	BuildingID string `json:"buildingID"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	AuditFields
}
