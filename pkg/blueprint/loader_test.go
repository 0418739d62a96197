package blueprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func validBlueprint() *Blueprint {
	bp := Default()
	bp.Licenses.ProductID = "Google-Apps"
	bp.Licenses.SKUID = "1010020020"
	return bp
}

func TestValidateDefaultWithLicenseIDs(t *testing.T) {
	if err := Validate(validBlueprint()); err != nil {
		t.Fatalf("expected valid blueprint, got %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blueprint.yaml")
	raw, err := yaml.Marshal(validBlueprint())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	bp, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bp.Run.Name != "northwind-synth" {
		t.Fatalf("unexpected run name %q", bp.Run.Name)
	}
	if len(bp.Folders.SharedDriveTree) != 4 {
		t.Fatalf("unexpected folder tree %v", bp.Folders.SharedDriveTree)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	raw, err := yaml.Marshal(validBlueprint())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Parse(append(raw, []byte("surprise: true\n")...)); err == nil {
		t.Fatal("unknown top-level field must be rejected")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Blueprint)
		field  string
	}{
		{"wrong version", func(bp *Blueprint) { bp.Version = 2 }, "version"},
		{"license product missing", func(bp *Blueprint) { bp.Licenses.ProductID = "" }, "licenses.product_id"},
		{"license sku placeholder", func(bp *Blueprint) { bp.Licenses.SKUID = "<required>" }, "licenses.sku_id"},
		{"zero drives per department", func(bp *Blueprint) { bp.Drives.SharedDrives.CountPerDepartment = 0 }, "count_per_department"},
		{"negative docs per user", func(bp *Blueprint) { bp.Drives.MyDrive.DocsPerUser = -1 }, "docs_per_user"},
		{"unknown generation mode", func(bp *Blueprint) { bp.Docs.Generation.Mode = "improv" }, "mode"},
		{"zero max tokens", func(bp *Blueprint) { bp.Docs.Generation.MaxTokens = 0 }, "max_tokens"},
		{"temperature too high", func(bp *Blueprint) { bp.Docs.Generation.Temperature = 2.5 }, "temperature"},
		{"temperature negative", func(bp *Blueprint) { bp.Docs.Generation.Temperature = -0.1 }, "temperature"},
		{"no archetypes", func(bp *Blueprint) { bp.Docs.Archetypes = nil }, "archetypes"},
		{"bad email source", func(bp *Blueprint) { bp.Identity.Mapping.EmailSource = "guess" }, "email_source"},
		{"missing reviewer group", func(bp *Blueprint) { bp.Sharing.ReviewerGroupEmail = "" }, "reviewer_group_email"},
		{"relative ou path", func(bp *Blueprint) { bp.Run.OUPath = "Synthetic/Northwind" }, "path"},
		{"zero max users", func(bp *Blueprint) { bp.Identity.Entra.MaxUsers = 0 }, "max_users"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bp := validBlueprint()
			tc.mutate(bp)
			err := Validate(bp)
			if err == nil {
				t.Fatal("expected validation failure")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Fatalf("error %q does not name field %q", err, tc.field)
			}
		})
	}
}

func TestLicenseIDsOptionalWhenAssignDisabled(t *testing.T) {
	bp := Default()
	bp.Licenses.Assign = false
	bp.Licenses.ProductID = ""
	bp.Licenses.SKUID = ""
	if err := Validate(bp); err != nil {
		t.Fatalf("license IDs must be optional when assign is false: %v", err)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blueprint.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(raw), "tenant_guard:") {
		t.Fatalf("default blueprint missing tenant_guard: %s", raw)
	}
}
