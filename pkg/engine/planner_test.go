package engine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/gwsynth/gwsynth/pkg/identity"
)

func TestDepartments(t *testing.T) {
	users := []identity.User{
		{Email: "a@x.com", Department: "Security"},
		{Email: "b@x.com", Department: "Eng"},
		{Email: "c@x.com", Department: "Eng"},
		{Email: "d@x.com"},
	}
	got := Departments(users)
	want := []string{"Eng", "General", "Security"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("departments = %v, want %v", got, want)
	}

	if got := Departments(nil); !reflect.DeepEqual(got, []string{"General"}) {
		t.Fatalf("empty snapshot departments = %v", got)
	}
}

func TestDesiredDrivesDeterministic(t *testing.T) {
	bp := testBlueprint()
	users := testSnapshot().Users

	first := DesiredDrives(bp, users, 2026)
	second := DesiredDrives(bp, users, 2026)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("desired drive derivation is not deterministic")
	}

	if len(first) != 2 {
		t.Fatalf("drives = %d, want 2", len(first))
	}
	if first[0].Name != "[synth:acme] Eng" || first[1].Name != "[synth:acme] Security" {
		t.Fatalf("unexpected drive names: %q, %q", first[0].Name, first[1].Name)
	}
	for _, spec := range first {
		if len(spec.Folders) != 4 {
			t.Errorf("drive %s folders = %d, want 4", spec.Name, len(spec.Folders))
		}
		if len(spec.Docs) != 3 {
			t.Errorf("drive %s docs = %d, want 3", spec.Name, len(spec.Docs))
		}
		if spec.MarkerID == "" {
			t.Errorf("drive %s has no marker ID", spec.Name)
		}
	}

	// Year substitution lands in the meeting-notes folder.
	var found bool
	for _, folder := range first[0].Folders {
		if folder.Path == "03 - Meeting Notes/2026" {
			found = true
		}
	}
	if !found {
		t.Errorf("year placeholder not expanded: %+v", first[0].Folders)
	}
}

func TestDriveNameIndexSuffix(t *testing.T) {
	bp := testBlueprint()
	bp.Drives.SharedDrives.CountPerDepartment = 2

	drives := DesiredDrives(bp, testSnapshot().Users[:1], 2026)
	if len(drives) != 2 {
		t.Fatalf("drives = %d, want 2", len(drives))
	}
	if drives[0].Name != "[synth:acme] Eng 1" || drives[1].Name != "[synth:acme] Eng 2" {
		t.Fatalf("unexpected suffixed names: %q, %q", drives[0].Name, drives[1].Name)
	}
	if drives[0].MarkerID == drives[1].MarkerID {
		t.Fatal("sibling drives share a marker ID")
	}

	// A template with {index} needs no suffix.
	bp.Drives.SharedDrives.Naming = "{prefix} {department} {index}"
	drives = DesiredDrives(bp, testSnapshot().Users[:1], 2026)
	if drives[0].Name != "[synth:acme] Eng 1" || drives[1].Name != "[synth:acme] Eng 2" {
		t.Fatalf("unexpected templated names: %q, %q", drives[0].Name, drives[1].Name)
	}
}

func TestFolderForArchetype(t *testing.T) {
	cases := []struct {
		archetype string
		want      string
	}{
		{"policy", "02 - Process & Policy"},
		{"runbook", "02 - Process & Policy"},
		{"incident_report", "01 - Projects/Eng"},
		{"prd", "01 - Projects/Eng"},
		{"qbr", "01 - Projects/Eng"},
		{"meeting_notes", "03 - Meeting Notes/2026"},
		{"onboarding", "00 - Admin"},
		{"something_else", "01 - Projects/Eng"},
	}
	for _, tc := range cases {
		if got := folderForArchetype(tc.archetype, "Eng", 2026); got != tc.want {
			t.Errorf("folderForArchetype(%q) = %q, want %q", tc.archetype, got, tc.want)
		}
	}
}

func TestTitleForArchetype(t *testing.T) {
	if got := titleForArchetype("qbr", "Security"); got != "Quarterly Business Review - Security" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := titleForArchetype("mystery", "Eng"); got != "Team Document - Eng" {
		t.Fatalf("unexpected fallback title: %q", got)
	}
}

func TestPersonalDocsDeterministic(t *testing.T) {
	bp := testBlueprint()
	bp.Drives.MyDrive.Enabled = true
	bp.Drives.MyDrive.DocsPerUser = 3
	user := testSnapshot().Users[0]

	first := PersonalDocs(bp, user)
	second := PersonalDocs(bp, user)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("personal doc derivation is not deterministic")
	}
	if len(first.Docs) != 3 {
		t.Fatalf("docs = %d, want 3", len(first.Docs))
	}
	if first.RootPath != "[synth:acme] My Work" {
		t.Fatalf("unexpected root path: %q", first.RootPath)
	}
	for i, doc := range first.Docs {
		if !strings.HasPrefix(doc.Path, first.RootPath+"/") {
			t.Errorf("doc %d path %q not under root", i, doc.Path)
		}
	}

	// A different user draws different stable IDs.
	other := PersonalDocs(bp, testSnapshot().Users[1])
	if other.Docs[0].StableID == first.Docs[0].StableID {
		t.Fatal("distinct users share a doc stable ID")
	}
}

func TestCompanyName(t *testing.T) {
	if got := CompanyName("acme-synth"); got != "Acme Synth" {
		t.Fatalf("CompanyName = %q", got)
	}
}
