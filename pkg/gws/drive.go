package gws

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/gwsynth/gwsynth/pkg/engine"
)

// Drive file types the engine creates.
const (
	docMimeType    = "application/vnd.google-apps.document"
	folderMimeType = "application/vnd.google-apps.folder"
)

// Drives implements engine.DriveProvider. Views are built lazily per
// impersonated subject and cached for the lifetime of the provider.
type Drives struct {
	client *Client
	// ctx is used only to construct the underlying services; individual
	// calls carry their own context.
	ctx context.Context

	mu    sync.Mutex
	views map[string]*DriveView
}

// Drives builds the drive provider. ctx must outlive the provider.
func (c *Client) Drives(ctx context.Context) *Drives {
	return &Drives{client: c, ctx: ctx, views: make(map[string]*DriveView)}
}

// Admin implements engine.DriveProvider.
func (p *Drives) Admin() engine.Drive {
	return p.view(p.client.cfg.AdminSubject, adminScopes)
}

// ForUser implements engine.DriveProvider.
func (p *Drives) ForUser(email string) engine.Drive {
	return p.view(email, userScopes)
}

func (p *Drives) view(subject string, scopes []string) *DriveView {
	p.mu.Lock()
	defer p.mu.Unlock()
	if view, ok := p.views[subject]; ok {
		return view
	}
	view := &DriveView{provider: p, subject: subject, scopes: scopes}
	p.views[subject] = view
	return view
}

// DriveView implements engine.Drive as one impersonated subject.
type DriveView struct {
	provider *Drives
	subject  string
	scopes   []string

	once    sync.Once
	svc     *drive.Service
	initErr error
}

func (v *DriveView) service() (*drive.Service, error) {
	v.once.Do(func() {
		client := v.provider.client
		src, err := client.tokenSource(v.provider.ctx, v.subject, v.scopes)
		if err != nil {
			v.initErr = err
			return
		}
		svc, err := drive.NewService(v.provider.ctx, option.WithTokenSource(src))
		if err != nil {
			v.initErr = fmt.Errorf("creating drive service for %s: %w", v.subject, err)
			return
		}
		v.svc = svc
	})
	return v.svc, v.initErr
}

func (v *DriveView) observe(operation string, start time.Time, err error) {
	v.provider.client.observe("drive", operation, start, err)
}

// FindDriveByName implements engine.Drive by paging through all shared
// drives visible to the subject. Drive names are not unique on the API
// side; the first match wins.
func (v *DriveView) FindDriveByName(ctx context.Context, name string) (*engine.RemoteDrive, error) {
	svc, err := v.service()
	if err != nil {
		return nil, err
	}
	call := svc.Drives.List().PageSize(100)
	for {
		start := time.Now()
		page, err := call.Context(ctx).Do()
		v.observe("drives.list", start, err)
		if err != nil {
			return nil, fmt.Errorf("listing shared drives: %w", err)
		}
		for _, d := range page.Drives {
			if d.Name == name {
				return &engine.RemoteDrive{ID: d.Id, Name: d.Name}, nil
			}
		}
		if page.NextPageToken == "" {
			return nil, nil
		}
		call = call.PageToken(page.NextPageToken)
	}
}

// CreateDrive implements engine.Drive. The request ID makes creation
// idempotent across retries of the same run.
func (v *DriveView) CreateDrive(ctx context.Context, requestID, name string) (string, error) {
	svc, err := v.service()
	if err != nil {
		return "", err
	}
	start := time.Now()
	created, err := svc.Drives.Create(requestID, &drive.Drive{Name: name}).Context(ctx).Do()
	v.observe("drives.create", start, err)
	if err != nil {
		return "", fmt.Errorf("creating shared drive %q: %w", name, err)
	}
	return created.Id, nil
}

// DeleteDrive implements engine.Drive.
func (v *DriveView) DeleteDrive(ctx context.Context, driveID string) error {
	svc, err := v.service()
	if err != nil {
		return err
	}
	start := time.Now()
	err = svc.Drives.Delete(driveID).Context(ctx).Do()
	v.observe("drives.delete", start, err)
	if err != nil {
		return fmt.Errorf("deleting shared drive %s: %w", driveID, err)
	}
	return nil
}

// FindFile implements engine.Drive.
func (v *DriveView) FindFile(ctx context.Context, properties map[string]string, driveID string) (*engine.RemoteFile, error) {
	svc, err := v.service()
	if err != nil {
		return nil, err
	}
	call := v.scopedList(svc, properties, driveID).PageSize(1)
	start := time.Now()
	page, err := call.Context(ctx).Do()
	v.observe("files.list", start, err)
	if err != nil {
		return nil, fmt.Errorf("finding tagged file: %w", err)
	}
	if len(page.Files) == 0 {
		return nil, nil
	}
	return remoteFile(page.Files[0]), nil
}

// ListFiles implements engine.Drive.
func (v *DriveView) ListFiles(ctx context.Context, properties map[string]string, driveID string) ([]engine.RemoteFile, error) {
	svc, err := v.service()
	if err != nil {
		return nil, err
	}
	var files []engine.RemoteFile
	call := v.scopedList(svc, properties, driveID).PageSize(1000)
	for {
		start := time.Now()
		page, err := call.Context(ctx).Do()
		v.observe("files.list", start, err)
		if err != nil {
			return nil, fmt.Errorf("listing tagged files: %w", err)
		}
		for _, f := range page.Files {
			files = append(files, *remoteFile(f))
		}
		if page.NextPageToken == "" {
			return files, nil
		}
		call = call.PageToken(page.NextPageToken)
	}
}

func (v *DriveView) scopedList(svc *drive.Service, properties map[string]string, driveID string) *drive.FilesListCall {
	call := svc.Files.List().
		Q(propertiesQuery(properties) + " and trashed = false").
		Fields(googleapi.Field("nextPageToken,files(id,name,appProperties,mimeType)"))
	if driveID != "" {
		call = call.DriveId(driveID).
			Corpora("drive").
			IncludeItemsFromAllDrives(true).
			SupportsAllDrives(true)
	}
	return call
}

// propertiesQuery builds the files.list query matching every tag pair.
func propertiesQuery(properties map[string]string) string {
	parts := make([]string, 0, len(properties))
	for key, value := range properties {
		parts = append(parts, fmt.Sprintf("appProperties has { key='%s' and value='%s' }", key, value))
	}
	return strings.Join(parts, " and ")
}

func remoteFile(f *drive.File) *engine.RemoteFile {
	props := make(map[string]string, len(f.AppProperties))
	for key, value := range f.AppProperties {
		props[key] = value
	}
	return &engine.RemoteFile{ID: f.Id, Name: f.Name, MimeType: f.MimeType, Properties: props}
}

// CreateFolder implements engine.Drive.
func (v *DriveView) CreateFolder(ctx context.Context, name, parentID, driveID string, properties map[string]string) (string, error) {
	return v.createFile(ctx, name, folderMimeType, parentID, driveID, properties)
}

// CreateDoc implements engine.Drive.
func (v *DriveView) CreateDoc(ctx context.Context, name, parentID, driveID string, properties map[string]string) (string, error) {
	return v.createFile(ctx, name, docMimeType, parentID, driveID, properties)
}

func (v *DriveView) createFile(ctx context.Context, name, mimeType, parentID, driveID string, properties map[string]string) (string, error) {
	svc, err := v.service()
	if err != nil {
		return "", err
	}
	file := &drive.File{Name: name, MimeType: mimeType, AppProperties: properties}
	if parentID != "" {
		file.Parents = []string{parentID}
	}
	start := time.Now()
	created, err := svc.Files.Create(file).
		SupportsAllDrives(driveID != "").
		Fields("id").
		Context(ctx).Do()
	v.observe("files.create", start, err)
	if err != nil {
		return "", fmt.Errorf("creating %q: %w", name, err)
	}
	return created.Id, nil
}

// UpdateProperties implements engine.Drive.
func (v *DriveView) UpdateProperties(ctx context.Context, fileID string, properties map[string]string, driveID string) error {
	svc, err := v.service()
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = svc.Files.Update(fileID, &drive.File{AppProperties: properties}).
		SupportsAllDrives(driveID != "").
		Context(ctx).Do()
	v.observe("files.update", start, err)
	if err != nil {
		return fmt.Errorf("updating properties of %s: %w", fileID, err)
	}
	return nil
}

// DeleteFile implements engine.Drive.
func (v *DriveView) DeleteFile(ctx context.Context, fileID, driveID string) error {
	svc, err := v.service()
	if err != nil {
		return err
	}
	start := time.Now()
	err = svc.Files.Delete(fileID).SupportsAllDrives(driveID != "").Context(ctx).Do()
	v.observe("files.delete", start, err)
	if err != nil {
		return fmt.Errorf("deleting file %s: %w", fileID, err)
	}
	return nil
}

// HasPermission implements engine.Drive.
func (v *DriveView) HasPermission(ctx context.Context, fileID, role, principalType, email, driveID string) (bool, error) {
	svc, err := v.service()
	if err != nil {
		return false, err
	}
	call := svc.Permissions.List(fileID).
		Fields(googleapi.Field("nextPageToken,permissions(id,role,type,emailAddress)")).
		SupportsAllDrives(driveID != "")
	for {
		start := time.Now()
		page, err := call.Context(ctx).Do()
		v.observe("permissions.list", start, err)
		if err != nil {
			return false, fmt.Errorf("listing permissions of %s: %w", fileID, err)
		}
		for _, perm := range page.Permissions {
			if perm.Role != role || perm.Type != principalType {
				continue
			}
			if email != "" && !strings.EqualFold(perm.EmailAddress, email) {
				continue
			}
			return true, nil
		}
		if page.NextPageToken == "" {
			return false, nil
		}
		call = call.PageToken(page.NextPageToken)
	}
}

// CreatePermission implements engine.Drive. Notification mail is always
// suppressed; synthetic users have no inboxes to spam.
func (v *DriveView) CreatePermission(ctx context.Context, fileID, role, principalType, email, driveID string) error {
	svc, err := v.service()
	if err != nil {
		return err
	}
	perm := &drive.Permission{Type: principalType, Role: role}
	if email != "" {
		perm.EmailAddress = email
	}
	start := time.Now()
	_, err = svc.Permissions.Create(fileID, perm).
		SendNotificationEmail(false).
		SupportsAllDrives(driveID != "").
		Context(ctx).Do()
	v.observe("permissions.create", start, err)
	if err != nil {
		return fmt.Errorf("granting %s %s on %s: %w", email, role, fileID, err)
	}
	return nil
}
