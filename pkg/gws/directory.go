package gws

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/option"

	"github.com/gwsynth/gwsynth/pkg/engine"
)

// DirectoryService implements engine.Directory over the Admin SDK
// Directory API, impersonating the admin subject.
type DirectoryService struct {
	client     *Client
	svc        *admin.Service
	customerID string
}

// Directory builds the admin directory adapter.
func (c *Client) Directory(ctx context.Context) (*DirectoryService, error) {
	src, err := c.tokenSource(ctx, c.cfg.AdminSubject, adminScopes)
	if err != nil {
		return nil, err
	}
	svc, err := admin.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("creating directory service: %w", err)
	}
	return &DirectoryService{client: c, svc: svc, customerID: c.cfg.CustomerID}, nil
}

// OrgUnitExists implements engine.Directory.
func (d *DirectoryService) OrgUnitExists(ctx context.Context, ouPath string) (bool, error) {
	start := time.Now()
	_, err := d.svc.Orgunits.Get(d.customerID, strings.TrimPrefix(ouPath, "/")).Context(ctx).Do()
	d.client.observe("directory", "orgunits.get", start, err)
	if isHTTPStatus(err, 404) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting org unit %s: %w", ouPath, err)
	}
	return true, nil
}

// CreateOrgUnit implements engine.Directory. The parent org units must
// already exist; the engine creates paths one level deep under /.
func (d *DirectoryService) CreateOrgUnit(ctx context.Context, ouPath string) error {
	parent, name, err := splitOrgUnitPath(ouPath)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = d.svc.Orgunits.Insert(d.customerID, &admin.OrgUnit{
		Name:              name,
		ParentOrgUnitPath: parent,
	}).Context(ctx).Do()
	d.client.observe("directory", "orgunits.insert", start, err)
	if err != nil {
		return fmt.Errorf("creating org unit %s: %w", ouPath, err)
	}
	return nil
}

func splitOrgUnitPath(path string) (parent, name string, err error) {
	trimmed := strings.TrimSpace(path)
	if !strings.HasPrefix(trimmed, "/") {
		return "", "", fmt.Errorf("org unit path %q must start with '/'", path)
	}
	parts := strings.FieldsFunc(trimmed, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return "", "", fmt.Errorf("org unit path %q cannot be the root", path)
	}
	parent = "/"
	if len(parts) > 1 {
		parent = "/" + strings.Join(parts[:len(parts)-1], "/")
	}
	return parent, parts[len(parts)-1], nil
}

// GetUser implements engine.Directory.
func (d *DirectoryService) GetUser(ctx context.Context, email string) (*engine.DirectoryUser, error) {
	start := time.Now()
	user, err := d.svc.Users.Get(email).Context(ctx).Do()
	d.client.observe("directory", "users.get", start, err)
	if isHTTPStatus(err, 404) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", email, err)
	}
	out := &engine.DirectoryUser{Email: email, OrgUnitPath: user.OrgUnitPath}
	if user.Name != nil {
		out.DisplayName = strings.TrimSpace(user.Name.GivenName + " " + user.Name.FamilyName)
	}
	return out, nil
}

// InsertUser implements engine.Directory. New users get a random
// throwaway password; nobody logs in as a synthetic user.
func (d *DirectoryService) InsertUser(ctx context.Context, user engine.DirectoryUser) error {
	payload := userPayload(user)
	password, err := randomPassword()
	if err != nil {
		return err
	}
	payload.Password = password
	payload.ChangePasswordAtNextLogin = false

	start := time.Now()
	_, err = d.svc.Users.Insert(payload).Context(ctx).Do()
	d.client.observe("directory", "users.insert", start, err)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", user.Email, err)
	}
	return nil
}

// PatchUser implements engine.Directory.
func (d *DirectoryService) PatchUser(ctx context.Context, user engine.DirectoryUser) error {
	start := time.Now()
	_, err := d.svc.Users.Patch(user.Email, userPayload(user)).Context(ctx).Do()
	d.client.observe("directory", "users.patch", start, err)
	if err != nil {
		return fmt.Errorf("updating user %s: %w", user.Email, err)
	}
	return nil
}

// DeleteUser implements engine.Directory.
func (d *DirectoryService) DeleteUser(ctx context.Context, email string) error {
	start := time.Now()
	err := d.svc.Users.Delete(email).Context(ctx).Do()
	d.client.observe("directory", "users.delete", start, err)
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", email, err)
	}
	return nil
}

func userPayload(user engine.DirectoryUser) *admin.User {
	given, family := splitDisplayName(user.DisplayName)
	payload := &admin.User{
		PrimaryEmail: user.Email,
		Name:         &admin.UserName{GivenName: given, FamilyName: family},
		OrgUnitPath:  user.OrgUnitPath,
	}
	if user.Department != "" || user.JobTitle != "" {
		payload.Organizations = []admin.UserOrganization{{
			Department: user.Department,
			Title:      user.JobTitle,
			Primary:    true,
			Type:       "work",
		}}
	}
	return payload
}

func splitDisplayName(displayName string) (given, family string) {
	parts := strings.Fields(displayName)
	switch len(parts) {
	case 0:
		return "Synthetic", "User"
	case 1:
		return parts[0], "User"
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

func randomPassword() (string, error) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generating password: %w", err)
		}
		sb.WriteByte(passwordAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// GetGroup implements engine.Directory.
func (d *DirectoryService) GetGroup(ctx context.Context, email string) (*engine.DirectoryGroup, error) {
	start := time.Now()
	group, err := d.svc.Groups.Get(email).Context(ctx).Do()
	d.client.observe("directory", "groups.get", start, err)
	if isHTTPStatus(err, 404) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting group %s: %w", email, err)
	}
	return &engine.DirectoryGroup{
		Email:       email,
		DisplayName: group.Name,
		Description: group.Description,
	}, nil
}

// InsertGroup implements engine.Directory.
func (d *DirectoryService) InsertGroup(ctx context.Context, group engine.DirectoryGroup) error {
	start := time.Now()
	_, err := d.svc.Groups.Insert(&admin.Group{
		Email:       group.Email,
		Name:        group.DisplayName,
		Description: group.Description,
	}).Context(ctx).Do()
	d.client.observe("directory", "groups.insert", start, err)
	if err != nil {
		return fmt.Errorf("creating group %s: %w", group.Email, err)
	}
	return nil
}

// PatchGroup implements engine.Directory.
func (d *DirectoryService) PatchGroup(ctx context.Context, group engine.DirectoryGroup) error {
	start := time.Now()
	_, err := d.svc.Groups.Patch(group.Email, &admin.Group{
		Name:        group.DisplayName,
		Description: group.Description,
	}).Context(ctx).Do()
	d.client.observe("directory", "groups.patch", start, err)
	if err != nil {
		return fmt.Errorf("updating group %s: %w", group.Email, err)
	}
	return nil
}

// DeleteGroup implements engine.Directory.
func (d *DirectoryService) DeleteGroup(ctx context.Context, email string) error {
	start := time.Now()
	err := d.svc.Groups.Delete(email).Context(ctx).Do()
	d.client.observe("directory", "groups.delete", start, err)
	if err != nil {
		return fmt.Errorf("deleting group %s: %w", email, err)
	}
	return nil
}

// ListGroupMembers implements engine.Directory.
func (d *DirectoryService) ListGroupMembers(ctx context.Context, groupEmail string) ([]string, error) {
	var members []string
	call := d.svc.Members.List(groupEmail).MaxResults(200)
	for {
		start := time.Now()
		page, err := call.Context(ctx).Do()
		d.client.observe("directory", "members.list", start, err)
		if err != nil {
			return nil, fmt.Errorf("listing members of %s: %w", groupEmail, err)
		}
		for _, member := range page.Members {
			if member.Email != "" {
				members = append(members, member.Email)
			}
		}
		if page.NextPageToken == "" {
			return members, nil
		}
		call = call.PageToken(page.NextPageToken)
	}
}

// AddGroupMember implements engine.Directory. A 409 means the member is
// already present, which is the desired state.
func (d *DirectoryService) AddGroupMember(ctx context.Context, groupEmail, memberEmail string) error {
	start := time.Now()
	_, err := d.svc.Members.Insert(groupEmail, &admin.Member{
		Email: memberEmail,
		Role:  "MEMBER",
	}).Context(ctx).Do()
	d.client.observe("directory", "members.insert", start, err)
	if isHTTPStatus(err, 409) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("adding %s to %s: %w", memberEmail, groupEmail, err)
	}
	return nil
}
