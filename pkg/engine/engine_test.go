package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
	"github.com/gwsynth/gwsynth/pkg/tags"
)

func countPrefix(entries []string, prefix string) int {
	n := 0
	for _, entry := range entries {
		if strings.HasPrefix(entry, prefix) {
			n++
		}
	}
	return n
}

func contains(entries []string, want string) bool {
	for _, entry := range entries {
		if entry == want {
			return true
		}
	}
	return false
}

func TestPlanEmptyTenantCounts(t *testing.T) {
	env := newTestEnv(t, nil)

	rep, err := env.eng.Plan(context.Background())
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	// 2 departments x 1 drive, 4 folder templates, 3 archetypes.
	if rep.Counts.DrivesCreate != 2 {
		t.Errorf("drives_create = %d, want 2", rep.Counts.DrivesCreate)
	}
	if rep.Counts.FoldersCreate != 8 {
		t.Errorf("folders_create = %d, want 8", rep.Counts.FoldersCreate)
	}
	if rep.Counts.DocsCreate != 6 {
		t.Errorf("docs_create = %d, want 6", rep.Counts.DocsCreate)
	}
	if rep.Counts.UsersCreate != 2 {
		t.Errorf("users_create = %d, want 2", rep.Counts.UsersCreate)
	}
	// Reviewer group plus the two snapshot groups.
	if rep.Counts.GroupsCreate != 3 {
		t.Errorf("groups_create = %d, want 3", rep.Counts.GroupsCreate)
	}
	if len(rep.Conflicts) != 0 {
		t.Errorf("unexpected conflicts: %v", rep.Conflicts)
	}
	if !contains(rep.Prerequisites, "Create OU /Synthetic/Acme") {
		t.Errorf("missing OU prerequisite: %v", rep.Prerequisites)
	}
}

func TestPlanIsReadOnly(t *testing.T) {
	env := newTestEnv(t, nil)

	if _, err := env.eng.Plan(context.Background()); err != nil {
		t.Fatalf("plan: %v", err)
	}

	if len(env.tenant.drives) != 0 || len(env.tenant.files) != 0 {
		t.Fatal("plan must not create remote objects")
	}
	if len(env.dir.users) != 0 || len(env.dir.groups) != 0 {
		t.Fatal("plan must not create directory objects")
	}
	if env.dir.orgUnits["/Synthetic/Acme"] {
		t.Fatal("plan must not create the org unit")
	}
}

func TestApplyCreatesDesiredState(t *testing.T) {
	env := newTestEnv(t, nil)

	rep, err := env.eng.Apply(context.Background(), ApplyOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if got := countPrefix(rep.Created, "group:"); got != 3 {
		t.Errorf("created groups = %d, want 3: %v", got, rep.Created)
	}
	if got := countPrefix(rep.Created, "user:"); got != 2 {
		t.Errorf("created users = %d, want 2", got)
	}
	if got := countPrefix(rep.Created, "drive:"); got != 2 {
		t.Errorf("created drives = %d, want 2", got)
	}
	if got := countPrefix(rep.Created, "doc:"); got != 6 {
		t.Errorf("created docs = %d, want 6: %v", got, rep.Created)
	}
	if len(rep.Conflicts) != 0 {
		t.Errorf("unexpected conflicts: %v", rep.Conflicts)
	}

	if !env.dir.orgUnits["/Synthetic/Acme"] {
		t.Error("org unit was not created")
	}
	if got := len(env.dir.members["eng@example.com"]); got != 1 {
		t.Errorf("eng group members = %d, want 1", got)
	}
	if got := len(env.dir.members["allhands@example.com"]); got != 2 {
		t.Errorf("all-hands group members = %d, want 2", got)
	}
	if got := len(env.docs.applied); got != 6 {
		t.Errorf("documents written = %d, want 6", got)
	}

	// Every shared drive carries exactly one marker object.
	for driveID := range env.tenant.drives {
		markers := 0
		for _, file := range env.tenant.corpusFiles(driveID) {
			if file.props[tags.KeyKind] == tags.KindDriveMarker {
				markers++
			}
		}
		if markers != 1 {
			t.Errorf("drive %s markers = %d, want 1", driveID, markers)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	env := newTestEnv(t, func(bp *blueprint.Blueprint) {
		bp.Drives.MyDrive = blueprint.MyDriveConfig{Enabled: true, DocsPerUser: 2}
		bp.Licenses = blueprint.LicenseConfig{Assign: true, ProductID: "Google-Apps", SKUID: "1010020020"}
	})
	ctx := context.Background()

	first, err := env.eng.Apply(ctx, ApplyOptions{})
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if len(first.Created) == 0 {
		t.Fatal("first apply created nothing")
	}
	if len(first.Warnings) != 0 {
		t.Fatalf("first apply warnings: %v", first.Warnings)
	}
	writesAfterFirst := len(env.docs.applied)

	second, err := env.eng.Apply(ctx, ApplyOptions{})
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if len(second.Created) != 0 {
		t.Errorf("second apply created resources: %v", second.Created)
	}
	if len(second.Conflicts) != 0 {
		t.Errorf("second apply reported conflicts: %v", second.Conflicts)
	}
	if got := countPrefix(second.Updated, "license:"); got != 0 {
		t.Errorf("second apply reassigned %d licenses", got)
	}
	if len(env.docs.applied) != writesAfterFirst {
		t.Error("second apply rewrote document content")
	}

	// A follow-up plan sees nothing to do either.
	plan, err := env.eng.Plan(ctx)
	if err != nil {
		t.Fatalf("plan after apply: %v", err)
	}
	if plan.Counts.DrivesCreate != 0 || plan.Counts.FoldersCreate != 0 || plan.Counts.DocsUpdate != 0 {
		t.Errorf("plan after apply still wants work: %+v", plan.Counts)
	}
	if plan.Counts.DrivesSkip != 2 {
		t.Errorf("drives_skip = %d, want 2", plan.Counts.DrivesSkip)
	}
}

func TestApplyRegenRewritesContent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.eng.Apply(ctx, ApplyOptions{}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	writes := 0
	for _, n := range env.docs.applied {
		writes += n
	}

	rep, err := env.eng.Apply(ctx, ApplyOptions{Regen: true})
	if err != nil {
		t.Fatalf("regen apply: %v", err)
	}
	if len(rep.Created) != 0 {
		t.Errorf("regen created new resources: %v", rep.Created)
	}
	if got := countPrefix(rep.Updated, "doc:"); got != 6 {
		t.Errorf("regen updated %d docs, want 6", got)
	}
	after := 0
	for _, n := range env.docs.applied {
		after += n
	}
	if after != writes*2 {
		t.Errorf("content writes = %d, want %d", after, writes*2)
	}
}

func TestApplyConflictSafety(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	// Foreign occupants of desired names: an untagged drive, a user in a
	// different org unit, and a group without the run marker.
	foreignDrive := env.tenant.addForeignDrive("[synth:acme] Security")
	env.dir.users["alice@example.com"] = DirectoryUser{
		Email:       "alice@example.com",
		DisplayName: "Alice Corp",
		OrgUnitPath: "/Corp",
	}
	env.dir.groups["eng@example.com"] = DirectoryGroup{
		Email:       "eng@example.com",
		DisplayName: "Eng",
		Description: "Legacy engineering list",
	}

	rep, err := env.eng.Apply(ctx, ApplyOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	for _, want := range []string{
		"user:alice@example.com",
		"group:eng@example.com",
		"drive:[synth:acme] Security",
	} {
		if !contains(rep.Conflicts, want) {
			t.Errorf("missing conflict %q: %v", want, rep.Conflicts)
		}
	}

	// Foreign objects must be untouched.
	if env.dir.users["alice@example.com"].OrgUnitPath != "/Corp" {
		t.Error("foreign user was moved")
	}
	if env.dir.groups["eng@example.com"].Description != "Legacy engineering list" {
		t.Error("foreign group description was rewritten")
	}
	if env.tenant.drives[foreignDrive] != "[synth:acme] Security" {
		t.Error("foreign drive was renamed or deleted")
	}
	if files := env.tenant.corpusFiles(foreignDrive); len(files) != 0 {
		t.Errorf("files were created inside the foreign drive: %v", files)
	}
}

func TestApplyContinuesPastGeneratorFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.rebuild(t, func(cfg *Config) {
		cfg.Generator = failingGenerator{failArchetype: "prd"}
	})

	rep, err := env.eng.Apply(context.Background(), ApplyOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// One prd doc per drive fails; policy and meeting_notes still land.
	if got := countPrefix(rep.Warnings, "doc:"); got != 2 {
		t.Errorf("doc warnings = %d, want 2: %v", got, rep.Warnings)
	}
	if got := countPrefix(rep.Created, "doc:"); got != 4 {
		t.Errorf("created docs = %d, want 4: %v", got, rep.Created)
	}
}

func TestDestroyContentOnly(t *testing.T) {
	env := newTestEnv(t, func(bp *blueprint.Blueprint) {
		bp.Drives.MyDrive = blueprint.MyDriveConfig{Enabled: true, DocsPerUser: 1}
	})
	ctx := context.Background()

	if _, err := env.eng.Apply(ctx, ApplyOptions{}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	rep, err := env.eng.Destroy(ctx, DestroyContentOnly)
	if err != nil {
		t.Fatalf("destroy: %v", err)
	}

	if len(env.tenant.drives) != 2 {
		t.Errorf("drives remaining = %d, want 2", len(env.tenant.drives))
	}
	for driveID := range env.tenant.drives {
		for _, file := range env.tenant.corpusFiles(driveID) {
			if file.props[tags.KeyKind] != tags.KindDriveMarker {
				t.Errorf("non-marker file %s survived content-only destroy", file.id)
			}
		}
	}
	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		if files := env.tenant.corpusFiles("user:" + email); len(files) != 0 {
			t.Errorf("personal files for %s survived: %d", email, len(files))
		}
	}
	if len(env.dir.deletedUsers) != 0 || len(env.dir.deletedGroups) != 0 {
		t.Error("content-only destroy deleted directory principals")
	}
	if countPrefix(rep.Updated, "deleted_drive:") != 0 {
		t.Error("content-only destroy deleted a drive")
	}
}

func TestDestroyAll(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.eng.Apply(ctx, ApplyOptions{}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := env.eng.Destroy(ctx, DestroyAll); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	if len(env.tenant.drives) != 0 {
		t.Errorf("drives remaining after destroy all: %v", env.tenant.drives)
	}
	if !contains(env.dir.deletedGroups, "eng@example.com") || !contains(env.dir.deletedGroups, "allhands@example.com") {
		t.Errorf("tagged groups not deleted: %v", env.dir.deletedGroups)
	}
	if !contains(env.dir.deletedUsers, "alice@example.com") || !contains(env.dir.deletedUsers, "bob@example.com") {
		t.Errorf("run users not deleted: %v", env.dir.deletedUsers)
	}
}

func TestDestroyAllSparesForeignPrincipals(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	// Foreign records under the desired names.
	foreignDrive := env.tenant.addForeignDrive("[synth:acme] Eng")
	env.dir.users["alice@example.com"] = DirectoryUser{Email: "alice@example.com", OrgUnitPath: "/Corp"}
	env.dir.groups["eng@example.com"] = DirectoryGroup{Email: "eng@example.com", Description: "Legacy list"}

	rep, err := env.eng.Destroy(ctx, DestroyAll)
	if err != nil {
		t.Fatalf("destroy: %v", err)
	}

	if _, ok := env.tenant.drives[foreignDrive]; !ok {
		t.Error("foreign drive was deleted")
	}
	if !contains(rep.Conflicts, "drive:[synth:acme] Eng") {
		t.Errorf("foreign drive not reported as conflict: %v", rep.Conflicts)
	}
	if len(env.dir.deletedUsers) != 0 {
		t.Errorf("foreign user deleted: %v", env.dir.deletedUsers)
	}
	if len(env.dir.deletedGroups) != 0 {
		t.Errorf("foreign group deleted: %v", env.dir.deletedGroups)
	}
}

func TestTenantGuardAbortsBeforeRemoteCalls(t *testing.T) {
	env := newTestEnv(t, nil)
	env.rebuild(t, func(cfg *Config) {
		cfg.Environment = Environment{CustomerID: "C9999", Domain: "other.example"}
	})
	ctx := context.Background()

	if _, err := env.eng.Plan(ctx); !IsGuard(err) {
		t.Fatalf("plan guard error = %v", err)
	}
	if _, err := env.eng.Apply(ctx, ApplyOptions{}); !IsGuard(err) {
		t.Fatalf("apply guard error = %v", err)
	}
	if _, err := env.eng.Destroy(ctx, DestroyAll); !IsGuard(err) {
		t.Fatalf("destroy guard error = %v", err)
	}

	if env.ident.listCalls != 0 {
		t.Errorf("identity source was queried %d times", env.ident.listCalls)
	}
	if env.dir.calls != 0 {
		t.Errorf("directory was called %d times", env.dir.calls)
	}
}
