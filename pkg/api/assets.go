package api

import "time"

// AssetView is the client facing shape of an asset: the Asset record joined
// with its latest commit.
type AssetView struct {
	Name           string    `json:"name" yaml:"name"`
	ThumbnailRef   string    `json:"thumbnailRef" yaml:"thumbnailRef"`
	Version        string    `json:"version" yaml:"version"`
	Creator        string    `json:"creator" yaml:"creator"`
	LastModifiedBy string    `json:"lastModifiedBy" yaml:"lastModifiedBy"`
	CheckedOutBy   string    `json:"checkedOutBy" yaml:"checkedOutBy"`
	IsCheckedOut   bool      `json:"isCheckedOut" yaml:"isCheckedOut"`
	HasMaterials   bool      `json:"hasMaterials" yaml:"hasMaterials"`
	Keywords       []string  `json:"keywords" yaml:"keywords"`
	Description    string    `json:"description" yaml:"description"`
	CreatedAt      time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" yaml:"updatedAt"`
	LatestCommitID int64     `json:"latestCommitId" yaml:"latestCommitId"`
	LastApprovedID int64     `json:"lastApprovedId" yaml:"lastApprovedId"`
}

type Commit struct {
	CommitID      int64     `json:"commitId" yaml:"commitId"`
	AssetName     string    `json:"assetName" yaml:"assetName"`
	Author        string    `json:"author" yaml:"author"`
	VersionNumber string    `json:"versionNumber" yaml:"versionNumber"`
	Notes         string    `json:"notes" yaml:"notes"`
	PrevCommitID  *int64    `json:"prevCommitId" yaml:"prevCommitId"`
	CommitDate    time.Time `json:"commitDate" yaml:"commitDate"`
	HasMaterials  bool      `json:"hasMaterials" yaml:"hasMaterials"`
	State         []string  `json:"state" yaml:"state"`
}

type CommitFiles struct {
	CommitID int64             `json:"commitId" yaml:"commitId"`
	Files    map[string]string `json:"files" yaml:"files"`
}

type ListAssetsReq struct {
	Search        string `json:"search,omitempty"`
	Author        string `json:"author,omitempty"`
	CheckedInOnly bool   `json:"checkedInOnly,omitempty"`
	SortBy        string `json:"sortBy,omitempty" validate:"omitempty,oneof=name author updated created"`
}

type ListAssetsRsp struct {
	Assets []AssetView `json:"assets"`
}

type GetAssetRsp struct {
	Asset AssetView `json:"asset"`
}

type RegisterAssetReq struct {
	Name     string            `json:"name" validate:"required,assetName"`
	Creator  string            `json:"creator" validate:"omitempty,noSpaces"`
	Keywords []string          `json:"keywords,omitempty"`
	Notes    string            `json:"notes,omitempty"`
	Files    map[string]string `json:"files" validate:"required,min=1,dive,required"`
}

type CheckoutReq struct {
	Requester string `json:"requester" validate:"omitempty,noSpaces"`
}

type CheckoutRsp struct {
	Asset       AssetView `json:"asset"`
	DownloadRef string    `json:"downloadRef"`
}

type CheckinReq struct {
	Requester   string            `json:"requester" validate:"omitempty,noSpaces"`
	Notes       string            `json:"notes" validate:"required"`
	VersionBump string            `json:"versionBump" validate:"versionBump"`
	Files       map[string]string `json:"files" validate:"required,min=1,dive,required"`
}

type CheckinRsp struct {
	Asset AssetView `json:"asset"`
}

type CancelCheckoutReq struct {
	Requester string `json:"requester" validate:"omitempty,noSpaces"`
}

type UploadRsp struct {
	Filename string `json:"filename"`
	Locator  string `json:"locator"`
	Size     int64  `json:"size"`
}

type HistoryRsp struct {
	Commits []Commit `json:"commits"`
}

type ListCommitsRsp struct {
	Commits []Commit `json:"commits"`
}

type GetCommitRsp struct {
	Commit Commit `json:"commit"`
}

type ApproveCommitRsp struct {
	Commit Commit `json:"commit"`
}
