// Package report defines the structured outcome records shared by the plan,
// apply, and destroy passes. Reports are built fresh per invocation,
// serialized to JSON for the operator, and never persisted between runs.
package report

// PlanCounts summarizes what a read-only plan pass would change, per
// resource category.
type PlanCounts struct {
	UsersCreate    int `json:"users_create"`
	UsersUpdate    int `json:"users_update"`
	UsersSkip      int `json:"users_skip"`
	UsersConflict  int `json:"users_conflict"`
	GroupsCreate   int `json:"groups_create"`
	GroupsUpdate   int `json:"groups_update"`
	GroupsSkip     int `json:"groups_skip"`
	GroupsConflict int `json:"groups_conflict"`
	LicensesAssign int `json:"licenses_assign"`
	DrivesCreate   int `json:"drives_create"`
	DrivesSkip     int `json:"drives_skip"`
	DrivesConflict int `json:"drives_conflict"`
	FoldersCreate  int `json:"folders_create"`
	DocsCreate     int `json:"docs_create"`
	DocsUpdate     int `json:"docs_update"`
}

// PlanReport is the outcome of a read-only plan pass.
type PlanReport struct {
	RunName       string     `json:"run_name"`
	Counts        PlanCounts `json:"counts"`
	Warnings      []string   `json:"warnings"`
	Conflicts     []string   `json:"conflicts"`
	Prerequisites []string   `json:"prerequisites"`
}

// NewPlanReport returns an empty plan report for the named run. Slices are
// allocated so JSON output renders [] rather than null.
func NewPlanReport(runName string) *PlanReport {
	return &PlanReport{
		RunName:       runName,
		Warnings:      []string{},
		Conflicts:     []string{},
		Prerequisites: []string{},
	}
}

// AddWarning records a non-fatal problem.
func (r *PlanReport) AddWarning(id string) { r.Warnings = append(r.Warnings, id) }

// AddConflict records a foreign object occupying a desired name.
func (r *PlanReport) AddConflict(id string) { r.Conflicts = append(r.Conflicts, id) }

// AddPrerequisite records a precondition apply would create first.
func (r *PlanReport) AddPrerequisite(id string) { r.Prerequisites = append(r.Prerequisites, id) }

// ApplyReport is the outcome of a mutating apply or destroy pass. Entries
// are ordered human-readable identifiers such as "doc:<file-id>".
type ApplyReport struct {
	RunName   string   `json:"run_name"`
	Created   []string `json:"created"`
	Updated   []string `json:"updated"`
	Skipped   []string `json:"skipped"`
	Warnings  []string `json:"warnings"`
	Conflicts []string `json:"conflicts"`
}

// NewApplyReport returns an empty apply report for the named run.
func NewApplyReport(runName string) *ApplyReport {
	return &ApplyReport{
		RunName:   runName,
		Created:   []string{},
		Updated:   []string{},
		Skipped:   []string{},
		Warnings:  []string{},
		Conflicts: []string{},
	}
}

// AddCreated records a newly created resource.
func (r *ApplyReport) AddCreated(id string) { r.Created = append(r.Created, id) }

// AddUpdated records a resource patched to match desired state.
func (r *ApplyReport) AddUpdated(id string) { r.Updated = append(r.Updated, id) }

// AddSkipped records a resource already in the desired state.
func (r *ApplyReport) AddSkipped(id string) { r.Skipped = append(r.Skipped, id) }

// AddWarning records a per-resource failure that did not abort the run.
func (r *ApplyReport) AddWarning(id string) { r.Warnings = append(r.Warnings, id) }

// AddConflict records a foreign object that was left untouched.
func (r *ApplyReport) AddConflict(id string) { r.Conflicts = append(r.Conflicts, id) }
