package blueprint

// SchemaVersion is the blueprint schema version this engine supports.
const SchemaVersion = 1

// Generation modes for document content.
const (
	GenerationModeOpenAICached = "openai_cached"
	GenerationModeTemplate     = "template"
)

// Blueprint is the versioned, immutable desired-state configuration for a
// synthetic tenant. It is parsed once per invocation and never mutated
// after validation.
type Blueprint struct {
	Version     int            `yaml:"version" validate:"required"`
	TenantGuard TenantGuard    `yaml:"tenant_guard"`
	Run         RunConfig      `yaml:"run"`
	Identity    IdentityConfig `yaml:"identity"`
	Licenses    LicenseConfig  `yaml:"licenses"`
	Drives      DrivesConfig   `yaml:"drives"`
	Folders     FoldersConfig  `yaml:"folders"`
	Docs        DocsConfig     `yaml:"docs"`
	Sharing     SharingConfig  `yaml:"sharing"`
}

// TenantGuard is a hard safety check: the live directory's customer ID and
// domain must match these values before any remote call is made.
type TenantGuard struct {
	GoogleCustomerID string `yaml:"google_customer_id" validate:"required"`
	GoogleDomain     string `yaml:"google_domain" validate:"required"`
}

// RunConfig names the run and scopes all created resources.
type RunConfig struct {
	Name           string `yaml:"name" validate:"required"`
	Seed           int64  `yaml:"seed"`
	ResourcePrefix string `yaml:"resource_prefix" validate:"required"`
	OUPath         string `yaml:"ou_path" validate:"required,startswith=/"`
}

// IdentityConfig controls how external directory principals are queried,
// bounded, and mapped.
type IdentityConfig struct {
	Entra   EntraConfig   `yaml:"entra"`
	Mapping MappingConfig `yaml:"mapping"`
}

// EntraConfig bounds the Microsoft Graph queries feeding the planner.
type EntraConfig struct {
	UserFilter  string `yaml:"user_filter"`
	GroupFilter string `yaml:"group_filter"`
	MaxUsers    int    `yaml:"max_users" validate:"gt=0"`
	MaxGroups   int    `yaml:"max_groups" validate:"gt=0"`
}

// MappingConfig controls how directory principals map to tenant accounts.
type MappingConfig struct {
	EmailSource        string `yaml:"email_source" validate:"required,oneof=mail_or_upn"`
	RequireDomainMatch bool   `yaml:"require_domain_match"`
}

// LicenseConfig toggles license assignment. ProductID and SKUID are
// required whenever Assign is true (checked in validate).
type LicenseConfig struct {
	Assign    bool   `yaml:"assign"`
	ProductID string `yaml:"product_id"`
	SKUID     string `yaml:"sku_id"`
}

// DrivesConfig describes shared and personal drive provisioning.
type DrivesConfig struct {
	SharedDrives SharedDriveConfig `yaml:"shared_drives"`
	MyDrive      MyDriveConfig     `yaml:"my_drive"`
}

// SharedDriveConfig controls per-department shared drive derivation.
// Naming may reference {prefix}, {department} and {index}.
type SharedDriveConfig struct {
	CountPerDepartment int    `yaml:"count_per_department" validate:"gte=1"`
	DepartmentsSource  string `yaml:"departments_source" validate:"required"`
	Naming             string `yaml:"naming" validate:"required"`
}

// MyDriveConfig controls the per-user personal drive subtree.
type MyDriveConfig struct {
	Enabled     bool `yaml:"enabled"`
	DocsPerUser int  `yaml:"docs_per_user" validate:"gte=0"`
}

// FoldersConfig holds folder-path templates expanded per drive. Paths may
// reference {department} and {year}.
type FoldersConfig struct {
	SharedDriveTree []string `yaml:"shared_drive_tree" validate:"dive,required"`
}

// DocsConfig lists the document archetypes and generation parameters.
type DocsConfig struct {
	Archetypes []string             `yaml:"archetypes" validate:"min=1,dive,required"`
	Generation DocsGenerationConfig `yaml:"generation"`
}

// DocsGenerationConfig parameterizes content generation and its cache.
type DocsGenerationConfig struct {
	Mode          string  `yaml:"mode" validate:"required,oneof=openai_cached template"`
	MaxTokens     int     `yaml:"max_tokens" validate:"gt=0"`
	Temperature   float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	CacheDir      string  `yaml:"cache_dir" validate:"required"`
	PromptVersion string  `yaml:"prompt_version" validate:"required"`
}

// SharingConfig holds role defaults and document ACL rules.
type SharingConfig struct {
	ReviewerGroupEmail string             `yaml:"reviewer_group_email" validate:"required,email"`
	SharedDriveDefault SharedDriveDefault `yaml:"shared_drive_defaults"`
	DocACLRules        DocACLRules        `yaml:"doc_acl_rules"`
}

// SharedDriveDefault names the roles granted on every shared drive.
type SharedDriveDefault struct {
	DepartmentGroupRole string `yaml:"department_group_role" validate:"required"`
	AllHandsGroupRole   string `yaml:"all_hands_group_role" validate:"required"`
}

// DocACLRules toggles per-document sharing rules.
type DocACLRules struct {
	MyDriveDocsShareWithManager bool `yaml:"my_drive_docs_share_with_manager"`
	PolicyDocsShareToAllHands   bool `yaml:"policy_docs_share_to_all_hands"`
}
