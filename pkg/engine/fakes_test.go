package engine

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
	"github.com/gwsynth/gwsynth/pkg/content"
	"github.com/gwsynth/gwsynth/pkg/identity"
)

// In-memory fakes for the engine's collaborators. They model just enough
// remote behavior (tag queries, per-user corpora, permission grants) to
// exercise the reconciliation walk end to end.

type fakeIdentity struct {
	snap      identity.Snapshot
	listCalls int
}

func (f *fakeIdentity) ListUsers(_ context.Context, _ string, max int) ([]identity.User, error) {
	f.listCalls++
	users := append([]identity.User(nil), f.snap.Users...)
	if len(users) > max {
		users = users[:max]
	}
	return users, nil
}

func (f *fakeIdentity) ListGroups(_ context.Context, _ string, max int) ([]identity.Group, error) {
	f.listCalls++
	groups := append([]identity.Group(nil), f.snap.Groups...)
	if len(groups) > max {
		groups = groups[:max]
	}
	return groups, nil
}

func (f *fakeIdentity) ListGroupMembers(_ context.Context, groupID string) ([]string, error) {
	return f.snap.Memberships[groupID], nil
}

func (f *fakeIdentity) ManagerEmail(_ context.Context, userID string) (string, error) {
	return f.snap.Managers[userID], nil
}

type fakeDirectory struct {
	orgUnits map[string]bool
	users    map[string]DirectoryUser
	groups   map[string]DirectoryGroup
	members  map[string][]string

	calls         int
	deletedUsers  []string
	deletedGroups []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		orgUnits: map[string]bool{},
		users:    map[string]DirectoryUser{},
		groups:   map[string]DirectoryGroup{},
		members:  map[string][]string{},
	}
}

func (d *fakeDirectory) OrgUnitExists(_ context.Context, ouPath string) (bool, error) {
	d.calls++
	return d.orgUnits[ouPath], nil
}

func (d *fakeDirectory) CreateOrgUnit(_ context.Context, ouPath string) error {
	d.calls++
	d.orgUnits[ouPath] = true
	return nil
}

func (d *fakeDirectory) GetUser(_ context.Context, email string) (*DirectoryUser, error) {
	d.calls++
	if user, ok := d.users[email]; ok {
		return &user, nil
	}
	return nil, nil
}

func (d *fakeDirectory) InsertUser(_ context.Context, user DirectoryUser) error {
	d.calls++
	d.users[user.Email] = user
	return nil
}

func (d *fakeDirectory) PatchUser(_ context.Context, user DirectoryUser) error {
	d.calls++
	d.users[user.Email] = user
	return nil
}

func (d *fakeDirectory) DeleteUser(_ context.Context, email string) error {
	d.calls++
	delete(d.users, email)
	d.deletedUsers = append(d.deletedUsers, email)
	return nil
}

func (d *fakeDirectory) GetGroup(_ context.Context, email string) (*DirectoryGroup, error) {
	d.calls++
	if group, ok := d.groups[email]; ok {
		return &group, nil
	}
	return nil, nil
}

func (d *fakeDirectory) InsertGroup(_ context.Context, group DirectoryGroup) error {
	d.calls++
	d.groups[group.Email] = group
	return nil
}

func (d *fakeDirectory) PatchGroup(_ context.Context, group DirectoryGroup) error {
	d.calls++
	d.groups[group.Email] = group
	return nil
}

func (d *fakeDirectory) DeleteGroup(_ context.Context, email string) error {
	d.calls++
	delete(d.groups, email)
	d.deletedGroups = append(d.deletedGroups, email)
	return nil
}

func (d *fakeDirectory) ListGroupMembers(_ context.Context, groupEmail string) ([]string, error) {
	d.calls++
	return d.members[groupEmail], nil
}

func (d *fakeDirectory) AddGroupMember(_ context.Context, groupEmail, memberEmail string) error {
	d.calls++
	for _, existing := range d.members[groupEmail] {
		if existing == memberEmail {
			return nil
		}
	}
	d.members[groupEmail] = append(d.members[groupEmail], memberEmail)
	return nil
}

type fakeLicensing struct {
	assigned map[string]bool
}

func (l *fakeLicensing) key(productID, skuID, email string) string {
	return productID + "|" + skuID + "|" + email
}

func (l *fakeLicensing) HasLicense(_ context.Context, productID, skuID, email string) (bool, error) {
	return l.assigned[l.key(productID, skuID, email)], nil
}

func (l *fakeLicensing) AssignLicense(_ context.Context, productID, skuID, email string) error {
	l.assigned[l.key(productID, skuID, email)] = true
	return nil
}

// fakeTenant is the shared storage backend behind every Drive view. Files
// live in corpora: a shared drive's ID, or "user:<email>" for a personal
// drive.
type fakeTenant struct {
	drives map[string]string
	files  map[string]*tenantFile
	perms  map[string][]grant
	seq    int
}

type tenantFile struct {
	id     string
	name   string
	mime   string
	corpus string
	parent string
	props  map[string]string
}

type grant struct {
	role, principalType, email string
}

func newFakeTenant() *fakeTenant {
	return &fakeTenant{
		drives: map[string]string{},
		files:  map[string]*tenantFile{},
		perms:  map[string][]grant{},
	}
}

func (t *fakeTenant) newID(prefix string) string {
	t.seq++
	return fmt.Sprintf("%s%03d", prefix, t.seq)
}

// addForeignDrive seeds a drive without any marker, as another tool would
// have created it.
func (t *fakeTenant) addForeignDrive(name string) string {
	id := t.newID("d")
	t.drives[id] = name
	return id
}

func (t *fakeTenant) addFile(corpus, name, mime string, props map[string]string) string {
	id := t.newID("f")
	copied := map[string]string{}
	for k, v := range props {
		copied[k] = v
	}
	t.files[id] = &tenantFile{id: id, name: name, mime: mime, corpus: corpus, props: copied}
	return id
}

func (t *fakeTenant) corpusFiles(corpus string) []*tenantFile {
	var files []*tenantFile
	for _, file := range t.files {
		if file.corpus == corpus {
			files = append(files, file)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].id < files[j].id })
	return files
}

type fakeDriveView struct {
	t    *fakeTenant
	user string
}

func (v fakeDriveView) corpus(driveID string) string {
	if driveID != "" {
		return driveID
	}
	return "user:" + v.user
}

func (v fakeDriveView) FindDriveByName(_ context.Context, name string) (*RemoteDrive, error) {
	ids := make([]string, 0, len(v.t.drives))
	for id := range v.t.drives {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if v.t.drives[id] == name {
			return &RemoteDrive{ID: id, Name: name}, nil
		}
	}
	return nil, nil
}

func (v fakeDriveView) CreateDrive(_ context.Context, _, name string) (string, error) {
	id := v.t.newID("d")
	v.t.drives[id] = name
	return id, nil
}

func (v fakeDriveView) DeleteDrive(_ context.Context, driveID string) error {
	delete(v.t.drives, driveID)
	for id, file := range v.t.files {
		if file.corpus == driveID {
			delete(v.t.files, id)
		}
	}
	return nil
}

func matchesProps(file *tenantFile, properties map[string]string) bool {
	for key, value := range properties {
		if file.props[key] != value {
			return false
		}
	}
	return true
}

func (v fakeDriveView) FindFile(_ context.Context, properties map[string]string, driveID string) (*RemoteFile, error) {
	for _, file := range v.t.corpusFiles(v.corpus(driveID)) {
		if matchesProps(file, properties) {
			return remoteFile(file), nil
		}
	}
	return nil, nil
}

func (v fakeDriveView) ListFiles(_ context.Context, properties map[string]string, driveID string) ([]RemoteFile, error) {
	var out []RemoteFile
	for _, file := range v.t.corpusFiles(v.corpus(driveID)) {
		if matchesProps(file, properties) {
			out = append(out, *remoteFile(file))
		}
	}
	return out, nil
}

func remoteFile(file *tenantFile) *RemoteFile {
	props := map[string]string{}
	for k, v := range file.props {
		props[k] = v
	}
	return &RemoteFile{ID: file.id, Name: file.name, MimeType: file.mime, Properties: props}
}

func (v fakeDriveView) CreateFolder(_ context.Context, name, parentID, driveID string, properties map[string]string) (string, error) {
	id := v.t.addFile(v.corpus(driveID), name, "application/vnd.google-apps.folder", properties)
	v.t.files[id].parent = parentID
	return id, nil
}

func (v fakeDriveView) CreateDoc(_ context.Context, name, parentID, driveID string, properties map[string]string) (string, error) {
	id := v.t.addFile(v.corpus(driveID), name, "application/vnd.google-apps.document", properties)
	v.t.files[id].parent = parentID
	return id, nil
}

func (v fakeDriveView) UpdateProperties(_ context.Context, fileID string, properties map[string]string, _ string) error {
	file, ok := v.t.files[fileID]
	if !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	copied := map[string]string{}
	for k, val := range properties {
		copied[k] = val
	}
	file.props = copied
	return nil
}

func (v fakeDriveView) DeleteFile(_ context.Context, fileID, _ string) error {
	delete(v.t.files, fileID)
	return nil
}

func (v fakeDriveView) HasPermission(_ context.Context, fileID, role, principalType, email, _ string) (bool, error) {
	for _, g := range v.t.perms[fileID] {
		if g.role == role && g.principalType == principalType && g.email == email {
			return true, nil
		}
	}
	return false, nil
}

func (v fakeDriveView) CreatePermission(_ context.Context, fileID, role, principalType, email, _ string) error {
	v.t.perms[fileID] = append(v.t.perms[fileID], grant{role: role, principalType: principalType, email: email})
	return nil
}

type fakeDrives struct {
	t *fakeTenant
}

func (d fakeDrives) Admin() Drive { return fakeDriveView{t: d.t, user: "admin"} }

func (d fakeDrives) ForUser(email string) Drive { return fakeDriveView{t: d.t, user: email} }

type fakeDocs struct {
	applied map[string]int
}

func (d *fakeDocs) ApplyContent(_ context.Context, documentID string, _ content.Rendered) error {
	d.applied[documentID]++
	return nil
}

type fakeDocsProvider struct {
	docs *fakeDocs
}

func (p fakeDocsProvider) ForUser(string) Docs { return p.docs }

// failingGenerator fails for one archetype and delegates the rest.
type failingGenerator struct {
	failArchetype string
	inner         content.TemplateGenerator
}

func (g failingGenerator) Generate(ctx context.Context, req content.Request) (*content.DocContent, error) {
	if req.Archetype == g.failArchetype {
		return nil, fmt.Errorf("generation backend unavailable")
	}
	return g.inner.Generate(ctx, req)
}

func testBlueprint() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		Version: blueprint.SchemaVersion,
		TenantGuard: blueprint.TenantGuard{
			GoogleCustomerID: "C0123abcd",
			GoogleDomain:     "example.com",
		},
		Run: blueprint.RunConfig{
			Name:           "acme-synth",
			Seed:           42,
			ResourcePrefix: "[synth:acme]",
			OUPath:         "/Synthetic/Acme",
		},
		Identity: blueprint.IdentityConfig{
			Entra:   blueprint.EntraConfig{MaxUsers: 100, MaxGroups: 50},
			Mapping: blueprint.MappingConfig{EmailSource: "mail_or_upn", RequireDomainMatch: true},
		},
		Drives: blueprint.DrivesConfig{
			SharedDrives: blueprint.SharedDriveConfig{
				CountPerDepartment: 1,
				DepartmentsSource:  "entra_departments",
				Naming:             "{prefix} {department}",
			},
		},
		Folders: blueprint.FoldersConfig{
			SharedDriveTree: []string{
				"00 - Admin",
				"01 - Projects/{department}",
				"02 - Process & Policy",
				"03 - Meeting Notes/{year}",
			},
		},
		Docs: blueprint.DocsConfig{
			Archetypes: []string{"policy", "prd", "meeting_notes"},
			Generation: blueprint.DocsGenerationConfig{
				Mode:          blueprint.GenerationModeTemplate,
				MaxTokens:     800,
				Temperature:   0.4,
				CacheDir:      ".cache",
				PromptVersion: "v1",
			},
		},
		Sharing: blueprint.SharingConfig{
			ReviewerGroupEmail: "reviewers@example.com",
			SharedDriveDefault: blueprint.SharedDriveDefault{
				DepartmentGroupRole: "contentManager",
				AllHandsGroupRole:   "reader",
			},
			DocACLRules: blueprint.DocACLRules{
				MyDriveDocsShareWithManager: true,
				PolicyDocsShareToAllHands:   true,
			},
		},
	}
}

func testSnapshot() identity.Snapshot {
	return identity.Snapshot{
		Users: []identity.User{
			{ID: "u1", Email: "alice@example.com", DisplayName: "Alice Ng", Department: "Eng", JobTitle: "Engineer"},
			{ID: "u2", Email: "bob@example.com", DisplayName: "Bob Reyes", Department: "Security", JobTitle: "Analyst"},
		},
		Groups: []identity.Group{
			{ID: "g1", Email: "eng@example.com", DisplayName: "Eng", Description: "Engineering team"},
			{ID: "g2", Email: "allhands@example.com", DisplayName: "All Hands", Description: "Everyone"},
		},
		Memberships: map[string][]string{
			"g1": {"alice@example.com"},
			"g2": {"alice@example.com", "bob@example.com"},
		},
		Managers: map[string]string{
			"u1": "bob@example.com",
		},
	}
}

type testEnv struct {
	bp     *blueprint.Blueprint
	ident  *fakeIdentity
	dir    *fakeDirectory
	lic    *fakeLicensing
	tenant *fakeTenant
	docs   *fakeDocs
	cfg    Config
	eng    *Engine
}

func newTestEnv(t *testing.T, mutate func(*blueprint.Blueprint)) *testEnv {
	t.Helper()
	bp := testBlueprint()
	if mutate != nil {
		mutate(bp)
	}
	env := &testEnv{
		bp:     bp,
		ident:  &fakeIdentity{snap: testSnapshot()},
		dir:    newFakeDirectory(),
		lic:    &fakeLicensing{assigned: map[string]bool{}},
		tenant: newFakeTenant(),
		docs:   &fakeDocs{applied: map[string]int{}},
	}
	env.cfg = Config{
		Blueprint:   bp,
		Identity:    env.ident,
		Directory:   env.dir,
		Licensing:   env.lic,
		Drives:      fakeDrives{t: env.tenant},
		Docs:        fakeDocsProvider{docs: env.docs},
		Generator:   content.TemplateGenerator{},
		Environment: Environment{CustomerID: bp.TenantGuard.GoogleCustomerID, Domain: bp.TenantGuard.GoogleDomain},
		Logger:      zerolog.Nop(),
		Now:         func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) },
	}
	eng, err := New(env.cfg)
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	env.eng = eng
	return env
}

// rebuild swaps parts of the engine configuration, keeping the fakes.
func (env *testEnv) rebuild(t *testing.T, modify func(*Config)) {
	t.Helper()
	cfg := env.cfg
	modify(&cfg)
	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("rebuild engine: %v", err)
	}
	env.eng = eng
}
