package engine

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
	"github.com/gwsynth/gwsynth/pkg/content"
	"github.com/gwsynth/gwsynth/pkg/identity"
	"github.com/gwsynth/gwsynth/pkg/telemetry"
)

// Config wires the engine's collaborators. All remote services are
// interfaces so tests run against in-memory fakes.
type Config struct {
	Blueprint *blueprint.Blueprint

	Identity  identity.Source
	Directory Directory
	Licensing Licensing
	Drives    DriveProvider
	Docs      DocsProvider
	Generator content.Generator

	Environment Environment
	Metrics     *telemetry.Metrics
	Logger      zerolog.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Engine reconciles a blueprint against the live tenant. A single Engine
// serves one run; it is not safe for concurrent use, matching the
// one-process-one-run execution model.
type Engine struct {
	bp        *blueprint.Blueprint
	identity  identity.Source
	directory Directory
	licensing Licensing
	drives    DriveProvider
	docs      DocsProvider
	generator content.Generator
	env       Environment
	metrics   *telemetry.Metrics
	log       zerolog.Logger
	now       func() time.Time
}

// New validates the configuration and builds an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Blueprint == nil {
		return nil, NewValidationError("blueprint is required", nil)
	}
	if cfg.Identity == nil {
		return nil, NewValidationError("identity source is required", nil)
	}
	if cfg.Directory == nil {
		return nil, NewValidationError("directory service is required", nil)
	}
	if cfg.Drives == nil {
		return nil, NewValidationError("drive provider is required", nil)
	}
	if cfg.Docs == nil {
		return nil, NewValidationError("docs provider is required", nil)
	}
	if cfg.Generator == nil {
		return nil, NewValidationError("content generator is required", nil)
	}
	if cfg.Blueprint.Licenses.Assign && cfg.Licensing == nil {
		return nil, NewValidationError("licensing service is required when license assignment is enabled", nil)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		bp:        cfg.Blueprint,
		identity:  cfg.Identity,
		directory: cfg.Directory,
		licensing: cfg.Licensing,
		drives:    cfg.Drives,
		docs:      cfg.Docs,
		generator: cfg.Generator,
		env:       cfg.Environment,
		metrics:   cfg.Metrics,
		log:       cfg.Logger,
		now:       now,
	}, nil
}

// checkGuard aborts the run before any remote call when the blueprint's
// tenant guard does not match the environment.
func (e *Engine) checkGuard() error {
	return CheckTenantGuard(e.bp.TenantGuard, e.env)
}

func (e *Engine) year() int {
	return e.now().UTC().Year()
}

// identityData is the bounded, filtered snapshot the planner consumes.
type identityData struct {
	users       []identity.User
	groups      []identity.Group
	memberships map[string][]string
}

// loadIdentity pulls users, groups and memberships from the identity
// source, applies the blueprint's domain filter, and normalizes missing
// departments.
func (e *Engine) loadIdentity(ctx context.Context) (*identityData, error) {
	users, err := e.identity.ListUsers(ctx, e.bp.Identity.Entra.UserFilter, e.bp.Identity.Entra.MaxUsers)
	if err != nil {
		return nil, NewPermanentError("list users", err).WithOperation("identity")
	}
	groups, err := e.identity.ListGroups(ctx, e.bp.Identity.Entra.GroupFilter, e.bp.Identity.Entra.MaxGroups)
	if err != nil {
		return nil, NewPermanentError("list groups", err).WithOperation("identity")
	}

	domain := e.bp.TenantGuard.GoogleDomain
	if e.bp.Identity.Mapping.RequireDomainMatch {
		users = identity.FilterUsersByDomain(users, domain)
		groups = identity.FilterGroupsByDomain(groups, domain)
	}
	for i := range users {
		if users[i].Department == "" {
			users[i].Department = identity.DefaultDepartment
		}
	}

	memberships := make(map[string][]string, len(groups))
	for _, group := range groups {
		members, err := e.identity.ListGroupMembers(ctx, group.ID)
		if err != nil {
			return nil, NewPermanentError("list group members", err).WithResource("group:" + group.Email)
		}
		if e.bp.Identity.Mapping.RequireDomainMatch {
			members = identity.FilterEmailsByDomain(members, domain)
		}
		memberships[group.ID] = members
	}

	e.log.Debug().
		Int("users", len(users)).
		Int("groups", len(groups)).
		Msg("identity snapshot loaded")
	return &identityData{users: users, groups: groups, memberships: memberships}, nil
}

// departmentGroups maps normalized group display names to group emails, so
// a drive's department can be matched to "the Eng group".
func departmentGroups(groups []identity.Group) map[string]string {
	mapping := make(map[string]string, len(groups))
	for _, group := range groups {
		mapping[normalizeName(group.DisplayName)] = group.Email
	}
	return mapping
}

// allHandsGroup finds the company-wide group by display name, or "".
func allHandsGroup(groups []identity.Group) string {
	for _, group := range groups {
		name := normalizeName(group.DisplayName)
		if strings.Contains(name, "all hands") || strings.Contains(name, "allhands") {
			return group.Email
		}
	}
	return ""
}

// departmentOwners picks the first user listed per department as that
// department's content owner. Snapshot ordering makes this deterministic.
func departmentOwners(users []identity.User) map[string]identity.User {
	owners := make(map[string]identity.User)
	for _, user := range users {
		if _, ok := owners[user.Department]; !ok {
			owners[user.Department] = user
		}
	}
	return owners
}

func normalizeName(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}
