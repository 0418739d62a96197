package engine

// FolderSpec is one desired folder inside a drive, identified by its full
// formatted path. The stable ID keys the leaf component; intermediate
// components derive their own IDs from their running paths during apply.
type FolderSpec struct {
	Path     string
	StableID string
}

// DocSpec is one desired document leaf.
type DocSpec struct {
	StableID   string
	Name       string
	Path       string
	Archetype  string
	FolderPath string
}

// DriveSpec is one desired shared drive with its folder tree and document
// leaves, derived deterministically from the blueprint and identity
// snapshot. ExistingID is filled in when reconciliation finds the drive
// already present with this run's marker.
type DriveSpec struct {
	Name       string
	Department string
	MarkerID   string
	Folders    []FolderSpec
	Docs       []DocSpec

	ExistingID string
}

// PersonalSpec is the desired personal-drive subtree for one user: a tagged
// root folder plus generated document leaves.
type PersonalSpec struct {
	UserEmail string
	RootPath  string
	RootID    string
	Docs      []DocSpec
}

// Classification is the outcome of comparing one desired object against the
// live tenant. Plan and apply share this comparison; plan is apply with
// mutation suppressed.
type Classification string

const (
	ClassificationCreate   Classification = "create"
	ClassificationUpdate   Classification = "update"
	ClassificationSkip     Classification = "skip"
	ClassificationConflict Classification = "conflict"
)
