package engine

import (
	"context"
	"strings"

	"github.com/gwsynth/gwsynth/pkg/identity"
	"github.com/gwsynth/gwsynth/pkg/ids"
	"github.com/gwsynth/gwsynth/pkg/tags"
)

// Ensure helpers shared by the plan and apply passes. Every helper is
// individually idempotent and takes a dryRun flag: plan is apply with
// mutation suppressed.

// ensureOrgUnit reports whether the run's org unit needs creating, and
// creates it unless dryRun.
func (e *Engine) ensureOrgUnit(ctx context.Context, dryRun bool) (bool, error) {
	exists, err := e.directory.OrgUnitExists(ctx, e.bp.Run.OUPath)
	if err != nil {
		return false, NewTransientError("probe org unit", err).WithResource("ou:" + e.bp.Run.OUPath)
	}
	if exists {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	if err := e.directory.CreateOrgUnit(ctx, e.bp.Run.OUPath); err != nil {
		return false, NewTransientError("create org unit", err).WithResource("ou:" + e.bp.Run.OUPath)
	}
	return true, nil
}

// ensureUser reconciles one directory user. A user already present but
// placed outside the run's org unit is foreign: conflict, no writes.
func (e *Engine) ensureUser(ctx context.Context, user identity.User, dryRun bool) (Classification, error) {
	existing, err := e.directory.GetUser(ctx, user.Email)
	if err != nil {
		return "", NewTransientError("get user", err).WithResource("user:" + user.Email)
	}

	live := LiveState{Exists: existing != nil}
	if existing != nil {
		live.Owned = existing.OrgUnitPath == e.bp.Run.OUPath
	}
	result := Classify(live, "")
	if result == ClassificationSkip {
		// Users have no fingerprint; an owned user is always re-patched to
		// the desired attributes.
		result = ClassificationUpdate
	}
	e.metrics.RecordEnsureOutcome("user", string(result))
	if dryRun || result == ClassificationConflict {
		return result, nil
	}

	desired := DirectoryUser{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Department:  user.Department,
		JobTitle:    user.JobTitle,
		OrgUnitPath: e.bp.Run.OUPath,
	}
	if result == ClassificationCreate {
		if err := e.directory.InsertUser(ctx, desired); err != nil {
			return "", NewTransientError("insert user", err).WithResource("user:" + user.Email)
		}
		return result, nil
	}
	if err := e.directory.PatchUser(ctx, desired); err != nil {
		return "", NewTransientError("patch user", err).WithResource("user:" + user.Email)
	}
	return result, nil
}

// ensureGroup reconciles one directory group. Ownership is recorded in the
// group description; an untagged group with the same address is foreign.
func (e *Engine) ensureGroup(ctx context.Context, email, displayName, description string, dryRun bool) (Classification, error) {
	existing, err := e.directory.GetGroup(ctx, email)
	if err != nil {
		return "", NewTransientError("get group", err).WithResource("group:" + email)
	}

	live := LiveState{Exists: existing != nil}
	if existing != nil {
		live.Owned = tags.GroupOwnedBy(existing.Description, e.bp.Run.Name)
	}
	result := Classify(live, "")
	if result == ClassificationSkip {
		result = ClassificationUpdate
	}
	e.metrics.RecordEnsureOutcome("group", string(result))
	if dryRun || result == ClassificationConflict {
		return result, nil
	}

	desired := DirectoryGroup{
		Email:       email,
		DisplayName: displayName,
		Description: tags.GroupDescription(description, e.bp.Run.Name),
	}
	if result == ClassificationCreate {
		if err := e.directory.InsertGroup(ctx, desired); err != nil {
			return "", NewTransientError("insert group", err).WithResource("group:" + email)
		}
		return result, nil
	}
	if err := e.directory.PatchGroup(ctx, desired); err != nil {
		return "", NewTransientError("patch group", err).WithResource("group:" + email)
	}
	return result, nil
}

// syncGroupMembers adds missing members to an owned group and returns how
// many were added. Foreign groups are never touched.
func (e *Engine) syncGroupMembers(ctx context.Context, groupEmail string, members []string, dryRun bool) (int, error) {
	group, err := e.directory.GetGroup(ctx, groupEmail)
	if err != nil {
		return 0, NewTransientError("get group", err).WithResource("group:" + groupEmail)
	}
	if group == nil || !tags.GroupOwnedBy(group.Description, e.bp.Run.Name) {
		return 0, nil
	}
	existing, err := e.directory.ListGroupMembers(ctx, groupEmail)
	if err != nil {
		return 0, NewTransientError("list group members", err).WithResource("group:" + groupEmail)
	}
	present := make(map[string]struct{}, len(existing))
	for _, email := range existing {
		present[email] = struct{}{}
	}
	added := 0
	for _, email := range members {
		if _, ok := present[email]; ok {
			continue
		}
		if !dryRun {
			if err := e.directory.AddGroupMember(ctx, groupEmail, email); err != nil {
				return added, NewTransientError("add group member", err).WithResource("group:" + groupEmail)
			}
		}
		added++
	}
	return added, nil
}

// ensureLicense assigns the blueprint's license to a user if missing, and
// reports whether an assignment happened (or would happen).
func (e *Engine) ensureLicense(ctx context.Context, userEmail string, dryRun bool) (bool, error) {
	has, err := e.licensing.HasLicense(ctx, e.bp.Licenses.ProductID, e.bp.Licenses.SKUID, userEmail)
	if err != nil {
		return false, NewTransientError("probe license", err).WithResource("license:" + userEmail)
	}
	if has {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	if err := e.licensing.AssignLicense(ctx, e.bp.Licenses.ProductID, e.bp.Licenses.SKUID, userEmail); err != nil {
		return false, NewTransientError("assign license", err).WithResource("license:" + userEmail)
	}
	return true, nil
}

// classifyDrive probes one desired shared drive. A drive with the desired
// name but no marker object tagged by this run is foreign. When the marker
// is found, spec.ExistingID is filled in for the rest of the walk.
func (e *Engine) classifyDrive(ctx context.Context, spec *DriveSpec) (Classification, error) {
	admin := e.drives.Admin()
	drive, err := admin.FindDriveByName(ctx, spec.Name)
	if err != nil {
		return "", NewTransientError("find drive", err).WithResource("drive:" + spec.Name)
	}
	live := LiveState{Exists: drive != nil}
	if drive != nil {
		marker, err := admin.FindFile(ctx, map[string]string{
			tags.KeyID:   spec.MarkerID,
			tags.KeyKind: tags.KindDriveMarker,
		}, drive.ID)
		if err != nil {
			return "", NewTransientError("find drive marker", err).WithResource("drive:" + spec.Name)
		}
		if marker != nil {
			live.Owned = true
			spec.ExistingID = drive.ID
		}
	}
	result := Classify(live, "")
	if result == ClassificationUpdate {
		// Drives carry no fingerprint; an owned drive is simply reused.
		result = ClassificationSkip
	}
	e.metrics.RecordEnsureOutcome("drive", string(result))
	return result, nil
}

// createDrive creates a shared drive and immediately writes its marker
// object. The marker is the durable proof of ownership for all future
// runs, so nothing else is written to the drive until it exists.
func (e *Engine) createDrive(ctx context.Context, spec *DriveSpec) error {
	admin := e.drives.Admin()
	requestID := ids.StableID(e.bp.Run.Name, "drive_request", spec.Name)
	driveID, err := admin.CreateDrive(ctx, requestID, spec.Name)
	if err != nil {
		return NewTransientError("create drive", err).WithResource("drive:" + spec.Name)
	}

	markerTag := tags.New(e.bp.Run.Name, spec.MarkerID, tags.KindDriveMarker, "/__gwsynth__")
	_, err = admin.CreateFolder(ctx, e.bp.Run.ResourcePrefix+" __gwsynth__", "", driveID, markerTag.Properties())
	if err != nil {
		return NewTransientError("create drive marker", err).WithResource("drive:" + spec.Name)
	}
	spec.ExistingID = driveID
	return nil
}

// ensureFolder finds a tagged folder or creates it, returning the folder
// file ID.
func (e *Engine) ensureFolder(ctx context.Context, drv Drive, name, parentID, driveID string, tag tags.Tag) (string, error) {
	existing, err := drv.FindFile(ctx, tag.Properties(), driveID)
	if err != nil {
		return "", NewTransientError("find folder", err).WithResource("folder:" + tag.Path)
	}
	if existing != nil {
		return existing.ID, nil
	}
	folderID, err := drv.CreateFolder(ctx, name, parentID, driveID, tag.Properties())
	if err != nil {
		return "", NewTransientError("create folder", err).WithResource("folder:" + tag.Path)
	}
	return folderID, nil
}

// ensureFolderTree walks one drive's folder templates component by
// component, creating missing folders top-down. It returns the mapping
// from full folder path to folder ID for document placement.
func (e *Engine) ensureFolderTree(ctx context.Context, spec *DriveSpec) (map[string]string, error) {
	admin := e.drives.Admin()
	pathToID := make(map[string]string)
	for _, folder := range spec.Folders {
		parentID := ""
		runningPath := ""
		for _, part := range splitPath(folder.Path) {
			if runningPath == "" {
				runningPath = part
			} else {
				runningPath = runningPath + "/" + part
			}
			if id, ok := pathToID[runningPath]; ok {
				parentID = id
				continue
			}
			stableID := ids.StableID(e.bp.Run.Name, tags.KindFolder, spec.Name+":"+runningPath)
			tag := tags.New(e.bp.Run.Name, stableID, tags.KindFolder, runningPath)
			folderID, err := e.ensureFolder(ctx, admin, part, parentID, spec.ExistingID, tag)
			if err != nil {
				return pathToID, err
			}
			pathToID[runningPath] = folderID
			parentID = folderID
		}
	}
	return pathToID, nil
}

// ensurePermission grants a role to a principal on a file unless an
// identical grant already exists. Grants are commutative and must never be
// duplicated.
func (e *Engine) ensurePermission(ctx context.Context, drv Drive, fileID, role, principalType, email, driveID string, dryRun bool) (bool, error) {
	has, err := drv.HasPermission(ctx, fileID, role, principalType, email, driveID)
	if err != nil {
		return false, NewTransientError("probe permission", err).WithResource("permission:" + fileID)
	}
	if has {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	if err := drv.CreatePermission(ctx, fileID, role, principalType, email, driveID); err != nil {
		return false, NewTransientError("create permission", err).WithResource("permission:" + fileID)
	}
	return true, nil
}

func splitPath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
