package engine

import (
	"context"
	"fmt"

	"github.com/gwsynth/gwsynth/pkg/report"
	"github.com/gwsynth/gwsynth/pkg/tags"
)

// DestroyMode selects how much of a run's footprint is removed.
type DestroyMode string

const (
	// DestroyContentOnly deletes every tagged file and folder but leaves
	// drives, users, and groups intact. Drive markers survive so the run
	// can be re-applied without re-proving ownership.
	DestroyContentOnly DestroyMode = "content-only"

	// DestroyAll additionally deletes the shared drives, tagged groups,
	// and users still placed in the run's org unit.
	DestroyAll DestroyMode = "all"
)

// ParseDestroyMode validates a mode string from the CLI.
func ParseDestroyMode(value string) (DestroyMode, error) {
	switch DestroyMode(value) {
	case DestroyContentOnly, DestroyAll:
		return DestroyMode(value), nil
	default:
		return "", NewValidationError(fmt.Sprintf("invalid destroy mode %q (want content-only or all)", value), nil)
	}
}

// Destroy tears down this run's footprint. It walks existing tagged
// objects, not the desired graph: only objects carrying this run's tag are
// ever deleted, so foreign objects survive even in all mode. Children are
// removed before parents because files are listed before drives.
// Per-object failures are recorded and do not abort remaining deletions.
func (e *Engine) Destroy(ctx context.Context, mode DestroyMode) (*report.ApplyReport, error) {
	if err := e.checkGuard(); err != nil {
		return nil, err
	}
	start := e.now()
	e.metrics.RecordRunStarted("destroy")
	rep := report.NewApplyReport(e.bp.Run.Name)

	data, err := e.loadIdentity(ctx)
	if err != nil {
		return nil, err
	}

	e.destroyDriveContent(ctx, data, mode, rep)
	e.destroyPersonalContent(ctx, data, rep)
	if mode == DestroyAll {
		e.destroyPrincipals(ctx, data, rep)
	}

	e.metrics.RecordRunCompleted("destroy", runStatus(rep), e.now().Sub(start))
	return rep, nil
}

// destroyDriveContent deletes tagged files from every drive the run owns.
// Drives are located by the same desired-state derivation as apply, in
// resolve-only mode: renamed or foreign drives are never touched.
func (e *Engine) destroyDriveContent(ctx context.Context, data *identityData, mode DestroyMode, rep *report.ApplyReport) {
	admin := e.drives.Admin()
	for _, spec := range DesiredDrives(e.bp, data.users, e.year()) {
		result, err := e.classifyDrive(ctx, spec)
		if err != nil {
			rep.AddWarning("drive:" + spec.Name + ": " + err.Error())
			continue
		}
		if result == ClassificationConflict {
			rep.AddConflict("drive:" + spec.Name)
			continue
		}
		if spec.ExistingID == "" {
			continue
		}

		files, err := admin.ListFiles(ctx, map[string]string{tags.KeyRun: e.bp.Run.Name}, spec.ExistingID)
		if err != nil {
			rep.AddWarning("drive:" + spec.Name + ": " + err.Error())
			continue
		}
		for _, file := range files {
			// The marker outlives content-only destroys; for a full
			// destroy it disappears with the drive itself.
			if tags.FromProperties(file.Properties).Kind == tags.KindDriveMarker {
				continue
			}
			if err := admin.DeleteFile(ctx, file.ID, spec.ExistingID); err != nil {
				rep.AddWarning("file:" + file.ID + ": " + err.Error())
				continue
			}
			rep.AddUpdated("deleted_file:" + file.ID)
		}

		if mode == DestroyAll {
			if err := admin.DeleteDrive(ctx, spec.ExistingID); err != nil {
				rep.AddWarning("drive:" + spec.Name + ": " + err.Error())
				continue
			}
			rep.AddUpdated("deleted_drive:" + spec.ExistingID)
		}
	}
}

// destroyPersonalContent deletes every tagged file in each user's personal
// drive, including the tagged root folder.
func (e *Engine) destroyPersonalContent(ctx context.Context, data *identityData, rep *report.ApplyReport) {
	for _, user := range data.users {
		drv := e.drives.ForUser(user.Email)
		files, err := drv.ListFiles(ctx, map[string]string{tags.KeyRun: e.bp.Run.Name}, "")
		if err != nil {
			rep.AddWarning("mydrive:" + user.Email + ": " + err.Error())
			continue
		}
		for _, file := range files {
			if err := drv.DeleteFile(ctx, file.ID, ""); err != nil {
				rep.AddWarning("file:" + file.ID + ": " + err.Error())
				continue
			}
			rep.AddUpdated("deleted_user_file:" + file.ID)
		}
	}
}

// destroyPrincipals removes directory groups and users created by this run.
// The live record is re-checked before every deletion: a group without the
// run's description tag or a user moved out of the run's org unit is
// foreign and survives.
func (e *Engine) destroyPrincipals(ctx context.Context, data *identityData, rep *report.ApplyReport) {
	for _, group := range data.groups {
		existing, err := e.directory.GetGroup(ctx, group.Email)
		if err != nil {
			rep.AddWarning("group:" + group.Email + ": " + err.Error())
			continue
		}
		if existing == nil || !tags.GroupOwnedBy(existing.Description, e.bp.Run.Name) {
			continue
		}
		if err := e.directory.DeleteGroup(ctx, group.Email); err != nil {
			rep.AddWarning("group:" + group.Email + ": " + err.Error())
			continue
		}
		rep.AddUpdated("deleted_group:" + group.Email)
	}

	for _, user := range data.users {
		existing, err := e.directory.GetUser(ctx, user.Email)
		if err != nil || existing == nil {
			continue
		}
		if existing.OrgUnitPath != e.bp.Run.OUPath {
			continue
		}
		if err := e.directory.DeleteUser(ctx, user.Email); err != nil {
			rep.AddWarning("user:" + user.Email + ": " + err.Error())
			continue
		}
		rep.AddUpdated("deleted_user:" + user.Email)
	}
}
