package models

import "time"

// Asset is the mutable head of a version controlled creative work. CheckedOut and
// CheckedOutBy move together: CheckedOutBy is non-empty iff CheckedOut is true.
type Asset struct {
	Name           string    `json:"name" bson:"name"`
	Keywords       []string  `json:"keywords" bson:"keywords"`
	CheckedOut     bool      `json:"checkedOut" bson:"checkedOut"`
	CheckedOutBy   string    `json:"checkedOutBy" bson:"checkedOutBy"`
	LatestCommitID int64     `json:"latestCommitId" bson:"latestCommitId"`
	LastApprovedID int64     `json:"lastApprovedId" bson:"lastApprovedId"`
	CreatedBy      string    `json:"createdBy" bson:"createdBy"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Document field names, shared by every backend.
const (
	AssetFieldName           = "name"
	AssetFieldCheckedOut     = "checkedOut"
	AssetFieldCheckedOutBy   = "checkedOutBy"
	AssetFieldLatestCommitID = "latestCommitId"
	AssetFieldLastApprovedID = "lastApprovedId"
	AssetFieldUpdatedAt      = "updatedAt"
)

func (a *Asset) IsLockConsistent() bool {
	return a.CheckedOut == (a.CheckedOutBy != "")
}
