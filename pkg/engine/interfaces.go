package engine

import (
	"context"

	"github.com/gwsynth/gwsynth/pkg/content"
)

// DirectoryUser is the typed shape exchanged with the directory service.
type DirectoryUser struct {
	Email       string
	DisplayName string
	Department  string
	JobTitle    string
	OrgUnitPath string
}

// DirectoryGroup is the typed shape exchanged with the directory service.
type DirectoryGroup struct {
	Email       string
	DisplayName string
	Description string
}

// Directory is the admin directory collaborator. Lookups return (nil, nil)
// when the record is absent so callers can distinguish "not found" from a
// remote failure.
type Directory interface {
	OrgUnitExists(ctx context.Context, ouPath string) (bool, error)
	CreateOrgUnit(ctx context.Context, ouPath string) error

	GetUser(ctx context.Context, email string) (*DirectoryUser, error)
	InsertUser(ctx context.Context, user DirectoryUser) error
	PatchUser(ctx context.Context, user DirectoryUser) error
	DeleteUser(ctx context.Context, email string) error

	GetGroup(ctx context.Context, email string) (*DirectoryGroup, error)
	InsertGroup(ctx context.Context, group DirectoryGroup) error
	PatchGroup(ctx context.Context, group DirectoryGroup) error
	DeleteGroup(ctx context.Context, email string) error

	ListGroupMembers(ctx context.Context, groupEmail string) ([]string, error)
	// AddGroupMember is a no-op when the member is already present.
	AddGroupMember(ctx context.Context, groupEmail, memberEmail string) error
}

// Licensing assigns product licenses to users.
type Licensing interface {
	HasLicense(ctx context.Context, productID, skuID, userEmail string) (bool, error)
	AssignLicense(ctx context.Context, productID, skuID, userEmail string) error
}

// RemoteDrive is a shared drive as seen on the live tenant.
type RemoteDrive struct {
	ID   string
	Name string
}

// RemoteFile is a file or folder as seen on the live tenant, including the
// tag property bag if any.
type RemoteFile struct {
	ID         string
	Name       string
	MimeType   string
	Properties map[string]string
}

// Drive is the storage collaborator for one principal's view of the tenant.
// A driveID of "" scopes file operations to the principal's own corpus
// (their personal drive); otherwise operations target the shared drive.
type Drive interface {
	FindDriveByName(ctx context.Context, name string) (*RemoteDrive, error)
	CreateDrive(ctx context.Context, requestID, name string) (string, error)
	DeleteDrive(ctx context.Context, driveID string) error

	// FindFile returns the first non-trashed file whose tag properties
	// contain every given key/value pair, or (nil, nil) when none match.
	FindFile(ctx context.Context, properties map[string]string, driveID string) (*RemoteFile, error)
	ListFiles(ctx context.Context, properties map[string]string, driveID string) ([]RemoteFile, error)

	CreateFolder(ctx context.Context, name, parentID, driveID string, properties map[string]string) (string, error)
	CreateDoc(ctx context.Context, name, parentID, driveID string, properties map[string]string) (string, error)
	UpdateProperties(ctx context.Context, fileID string, properties map[string]string, driveID string) error
	DeleteFile(ctx context.Context, fileID, driveID string) error

	HasPermission(ctx context.Context, fileID, role, principalType, email, driveID string) (bool, error)
	CreatePermission(ctx context.Context, fileID, role, principalType, email, driveID string) error
}

// DriveProvider hands out Drive views. The admin view is used for shared
// drive management and destroy; per-user views are used so created files
// are owned by the synthetic users themselves.
type DriveProvider interface {
	Admin() Drive
	ForUser(email string) Drive
}

// Docs writes rendered content into a document.
type Docs interface {
	ApplyContent(ctx context.Context, documentID string, rendered content.Rendered) error
}

// DocsProvider hands out Docs views impersonating the document's owner.
type DocsProvider interface {
	ForUser(email string) Docs
}
