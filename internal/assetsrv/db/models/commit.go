package models

import (
	"slices"
	"time"
)

const (
	CommitStateApproved = "approved"
)

// Commit is one immutable version snapshot. Only State and Pending may change
// after creation: State by the approval workflow, Pending once the asset points
// at the commit.
type Commit struct {
	CommitID      int64     `json:"commitId" bson:"commitId"`
	AssetName     string    `json:"assetName" bson:"assetName"`
	Author        string    `json:"author" bson:"author"`
	VersionNumber string    `json:"versionNumber" bson:"versionNumber"`
	Notes         string    `json:"notes" bson:"notes"`
	PrevCommitID  *int64    `json:"prevCommitId" bson:"prevCommitId"`
	CommitDate    time.Time `json:"commitDate" bson:"commitDate"`
	HasMaterials  bool      `json:"hasMaterials" bson:"hasMaterials"`
	State         []string  `json:"state" bson:"state"`
	// Pending is set while the commit is appended but not yet the asset's head.
	Pending bool `json:"pending" bson:"pending"`
}

const (
	CommitFieldCommitID  = "commitId"
	CommitFieldAssetName = "assetName"
	CommitFieldAuthor    = "author"
	CommitFieldState     = "state"
	CommitFieldPending   = "pending"
)

func (c *Commit) IsRoot() bool {
	return c.PrevCommitID == nil
}

func (c *Commit) IsApproved() bool {
	return slices.Contains(c.State, CommitStateApproved)
}

// CommitFile maps the relative paths of the files in one commit to their blob
// store locators.
type CommitFile struct {
	CommitID int64             `json:"commitId" bson:"commitId"`
	Files    map[string]string `json:"files" bson:"files"`
}
