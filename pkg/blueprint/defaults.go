package blueprint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultArchetypes is the starter document archetype set.
var DefaultArchetypes = []string{
	"policy",
	"prd",
	"runbook",
	"incident_report",
	"meeting_notes",
	"onboarding",
	"qbr",
}

// Default returns the starter blueprint written by init-blueprint. The
// license IDs are placeholders that fail validation until filled in or
// assignment is disabled.
func Default() *Blueprint {
	return &Blueprint{
		Version: SchemaVersion,
		TenantGuard: TenantGuard{
			GoogleCustomerID: "C0123abc",
			GoogleDomain:     "company.com",
		},
		Run: RunConfig{
			Name:           "northwind-synth",
			Seed:           1337,
			ResourcePrefix: "[synth:northwind]",
			OUPath:         "/Synthetic/Northwind",
		},
		Identity: IdentityConfig{
			Entra: EntraConfig{
				UserFilter:  "accountEnabled eq true",
				GroupFilter: "",
				MaxUsers:    100,
				MaxGroups:   50,
			},
			Mapping: MappingConfig{
				EmailSource:        "mail_or_upn",
				RequireDomainMatch: true,
			},
		},
		Licenses: LicenseConfig{
			Assign:    true,
			ProductID: "<required>",
			SKUID:     "<required>",
		},
		Drives: DrivesConfig{
			SharedDrives: SharedDriveConfig{
				CountPerDepartment: 1,
				DepartmentsSource:  "entra.department",
				Naming:             "{prefix} {department} Shared Drive",
			},
			MyDrive: MyDriveConfig{
				Enabled:     true,
				DocsPerUser: 5,
			},
		},
		Folders: FoldersConfig{
			SharedDriveTree: []string{
				"00 - Admin",
				"01 - Projects/{department}",
				"02 - Process & Policy",
				"03 - Meeting Notes/{year}",
			},
		},
		Docs: DocsConfig{
			Archetypes: append([]string(nil), DefaultArchetypes...),
			Generation: DocsGenerationConfig{
				Mode:          GenerationModeOpenAICached,
				MaxTokens:     1800,
				Temperature:   0.4,
				CacheDir:      "./data/llm_cache",
				PromptVersion: "v1",
			},
		},
		Sharing: SharingConfig{
			ReviewerGroupEmail: "synth-reviewers@company.com",
			SharedDriveDefault: SharedDriveDefault{
				DepartmentGroupRole: "organizer",
				AllHandsGroupRole:   "reader",
			},
			DocACLRules: DocACLRules{
				MyDriveDocsShareWithManager: true,
				PolicyDocsShareToAllHands:   true,
			},
		},
	}
}

// WriteDefault writes the starter blueprint as YAML.
func WriteDefault(path string) error {
	raw, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default blueprint: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write blueprint: %w", err)
	}
	return nil
}
