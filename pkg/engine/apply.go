package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/gwsynth/gwsynth/pkg/content"
	"github.com/gwsynth/gwsynth/pkg/identity"
	"github.com/gwsynth/gwsynth/pkg/ids"
	"github.com/gwsynth/gwsynth/pkg/report"
	"github.com/gwsynth/gwsynth/pkg/tags"
)

// ApplyOptions tunes a mutating apply pass.
type ApplyOptions struct {
	// Regen forces fresh content generation for every document, bypassing
	// the content cache.
	Regen bool
}

// Apply reconciles the tenant to the blueprint in a fixed order: org unit,
// reviewer group, directory groups, memberships, users, licenses, shared
// drives, drive permissions, folders, documents, personal documents.
//
// Each ensure step is individually idempotent. Per-resource failures are
// recorded as warnings or conflicts and the run continues; most resources
// are independent, so one failed document must not abort the rest. Only
// pre-flight failures (tenant guard, identity source) abort the run.
func (e *Engine) Apply(ctx context.Context, opts ApplyOptions) (*report.ApplyReport, error) {
	if err := e.checkGuard(); err != nil {
		return nil, err
	}
	start := e.now()
	e.metrics.RecordRunStarted("apply")
	rep := report.NewApplyReport(e.bp.Run.Name)

	data, err := e.loadIdentity(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := e.ensureOrgUnit(ctx, false); err != nil {
		return nil, err
	}

	result, err := e.ensureGroup(ctx, e.bp.Sharing.ReviewerGroupEmail, reviewerGroupName, reviewerGroupDescription, false)
	if err != nil {
		rep.AddWarning("group:" + e.bp.Sharing.ReviewerGroupEmail + ": " + err.Error())
	} else {
		recordGroup(result, e.bp.Sharing.ReviewerGroupEmail, rep)
	}

	for _, group := range data.groups {
		result, err := e.ensureGroup(ctx, group.Email, group.DisplayName, group.Description, false)
		if err != nil {
			rep.AddWarning("group:" + group.Email + ": " + err.Error())
			continue
		}
		recordGroup(result, group.Email, rep)
	}

	for _, group := range data.groups {
		added, err := e.syncGroupMembers(ctx, group.Email, data.memberships[group.ID], false)
		if err != nil {
			rep.AddWarning("group_members:" + group.Email + ": " + err.Error())
			continue
		}
		if added > 0 {
			rep.AddUpdated(fmt.Sprintf("group_members:%s+%d", group.Email, added))
		}
	}

	var activeUsers []identity.User
	for _, user := range data.users {
		result, err := e.ensureUser(ctx, user, false)
		if err != nil {
			rep.AddWarning("user:" + user.Email + ": " + err.Error())
			continue
		}
		recordUser(result, user.Email, rep)
		if result != ClassificationConflict {
			activeUsers = append(activeUsers, user)
		}
	}

	if e.bp.Licenses.Assign {
		for _, user := range activeUsers {
			assigned, err := e.ensureLicense(ctx, user.Email, false)
			if err != nil {
				rep.AddWarning("license:" + user.Email + ": " + err.Error())
				continue
			}
			if assigned {
				rep.AddUpdated("license:" + user.Email)
			}
		}
	}

	drives := e.resolveDrives(ctx, activeUsers, rep, true)
	e.applyDrivePermissions(ctx, drives, data.groups, activeUsers, rep)
	e.applySharedDocs(ctx, drives, data.groups, activeUsers, opts.Regen, rep)
	e.applyPersonalDocs(ctx, activeUsers, opts.Regen, rep)

	e.metrics.RecordRunCompleted("apply", runStatus(rep), e.now().Sub(start))
	return rep, nil
}

// resolveDrives classifies every desired drive and, when createMissing is
// set, creates absent drives together with their ownership markers. Only
// drives proven ours (marker found or freshly created) are returned for
// the rest of the walk; conflicted drives are recorded and skipped.
func (e *Engine) resolveDrives(ctx context.Context, users []identity.User, rep *report.ApplyReport, createMissing bool) []*DriveSpec {
	var resolved []*DriveSpec
	for _, spec := range DesiredDrives(e.bp, users, e.year()) {
		result, err := e.classifyDrive(ctx, spec)
		if err != nil {
			rep.AddWarning("drive:" + spec.Name + ": " + err.Error())
			continue
		}
		switch result {
		case ClassificationSkip:
			rep.AddSkipped("drive:" + spec.Name)
			resolved = append(resolved, spec)
		case ClassificationConflict:
			rep.AddConflict("drive:" + spec.Name)
		case ClassificationCreate:
			if !createMissing {
				continue
			}
			if err := e.createDrive(ctx, spec); err != nil {
				rep.AddWarning("drive:" + spec.Name + ": " + err.Error())
				continue
			}
			rep.AddCreated("drive:" + spec.Name)
			resolved = append(resolved, spec)
		}
	}
	return resolved
}

// applyDrivePermissions grants the blueprint's default roles on every
// resolved drive: the department group, the first user of the department as
// organizer, the reviewer group as reader, and the all-hands group.
func (e *Engine) applyDrivePermissions(ctx context.Context, drives []*DriveSpec, groups []identity.Group, users []identity.User, rep *report.ApplyReport) {
	admin := e.drives.Admin()
	deptGroups := departmentGroups(groups)
	owners := departmentOwners(users)
	allHands := allHandsGroup(groups)

	for _, drive := range drives {
		grants := []struct {
			role, principalType, email string
		}{
			{e.bp.Sharing.SharedDriveDefault.DepartmentGroupRole, "group", deptGroups[normalizeName(drive.Department)]},
			{"organizer", "user", owners[drive.Department].Email},
			{"reader", "group", e.bp.Sharing.ReviewerGroupEmail},
			{e.bp.Sharing.SharedDriveDefault.AllHandsGroupRole, "group", allHands},
		}
		for _, grant := range grants {
			if grant.email == "" {
				continue
			}
			if _, err := e.ensurePermission(ctx, admin, drive.ExistingID, grant.role, grant.principalType, grant.email, drive.ExistingID, false); err != nil {
				rep.AddWarning("permission:" + drive.Name + ":" + grant.email + ": " + err.Error())
			}
		}
	}
}

// applySharedDocs builds each drive's folder tree and reconciles its
// document leaves. Documents are created and written as the department's
// owner so the files have a plausible human author.
func (e *Engine) applySharedDocs(ctx context.Context, drives []*DriveSpec, groups []identity.Group, users []identity.User, regen bool, rep *report.ApplyReport) {
	owners := departmentOwners(users)
	allHands := allHandsGroup(groups)

	for _, drive := range drives {
		folderIDs, err := e.ensureFolderTree(ctx, drive)
		if err != nil {
			rep.AddWarning("folders:" + drive.Name + ": " + err.Error())
		}
		if len(folderIDs) > 0 {
			rep.AddUpdated("folders:" + drive.Name)
		}

		owner, ok := owners[drive.Department]
		if !ok {
			continue
		}
		drv := e.drives.ForUser(owner.Email)
		docsSvc := e.docs.ForUser(owner.Email)

		for _, doc := range drive.Docs {
			outcome, err := e.ensureDoc(ctx, drv, docsSvc, doc, drive.ExistingID, folderIDs[doc.FolderPath], drive.Department, regen)
			if err != nil {
				rep.AddWarning("doc:" + doc.Path + ": " + err.Error())
				continue
			}
			switch outcome.result {
			case ClassificationCreate:
				rep.AddCreated("doc:" + outcome.fileID)
			case ClassificationUpdate:
				rep.AddUpdated("doc:" + outcome.fileID)
			case ClassificationConflict:
				rep.AddConflict("doc:" + doc.Path)
				continue
			default:
				rep.AddSkipped("doc:" + outcome.fileID)
				continue
			}

			if doc.Archetype == "policy" && e.bp.Sharing.DocACLRules.PolicyDocsShareToAllHands && allHands != "" {
				if _, err := e.ensurePermission(ctx, drv, outcome.fileID, "reader", "group", allHands, drive.ExistingID, false); err != nil {
					rep.AddWarning("permission:" + doc.Path + ": " + err.Error())
				}
			}
		}
	}
}

// applyPersonalDocs reconciles each user's personal-drive subtree: a tagged
// root folder plus generated documents, shared back to the reviewer group
// and optionally the user's manager.
func (e *Engine) applyPersonalDocs(ctx context.Context, users []identity.User, regen bool, rep *report.ApplyReport) {
	if !e.bp.Drives.MyDrive.Enabled {
		return
	}
	for _, user := range users {
		spec := PersonalDocs(e.bp, user)
		drv := e.drives.ForUser(user.Email)
		docsSvc := e.docs.ForUser(user.Email)

		rootTag := tags.New(e.bp.Run.Name, spec.RootID, tags.KindMyDriveRoot, spec.RootPath)
		rootID, err := e.ensureFolder(ctx, drv, spec.RootPath, "", "", rootTag)
		if err != nil {
			rep.AddWarning("mydrive_root:" + user.Email + ": " + err.Error())
			continue
		}

		for _, doc := range spec.Docs {
			outcome, err := e.ensureDoc(ctx, drv, docsSvc, doc, "", rootID, userDepartment(user), regen)
			if err != nil {
				rep.AddWarning("mydrive_doc:" + doc.Path + ": " + err.Error())
				continue
			}
			switch outcome.result {
			case ClassificationCreate:
				rep.AddCreated("mydrive_doc:" + outcome.fileID)
			case ClassificationUpdate:
				rep.AddUpdated("mydrive_doc:" + outcome.fileID)
			case ClassificationConflict:
				rep.AddConflict("mydrive_doc:" + doc.Path)
				continue
			default:
				rep.AddSkipped("mydrive_doc:" + outcome.fileID)
				continue
			}

			if _, err := e.ensurePermission(ctx, drv, outcome.fileID, "reader", "group", e.bp.Sharing.ReviewerGroupEmail, "", false); err != nil {
				rep.AddWarning("permission:" + doc.Path + ": " + err.Error())
			}
			if e.bp.Sharing.DocACLRules.MyDriveDocsShareWithManager {
				e.sharePersonalDocWithManager(ctx, drv, user, outcome.fileID, doc.Path, rep)
			}
		}
	}
}

func (e *Engine) sharePersonalDocWithManager(ctx context.Context, drv Drive, user identity.User, fileID, docPath string, rep *report.ApplyReport) {
	manager, err := e.identity.ManagerEmail(ctx, user.ID)
	if err != nil {
		rep.AddWarning("manager:" + user.Email + ": " + err.Error())
		return
	}
	if manager == "" || !strings.HasSuffix(manager, "@"+e.bp.TenantGuard.GoogleDomain) {
		return
	}
	if _, err := e.ensurePermission(ctx, drv, fileID, "reader", "user", manager, "", false); err != nil {
		rep.AddWarning("permission:" + docPath + ": " + err.Error())
	}
}

// docOutcome is the result of reconciling one document leaf.
type docOutcome struct {
	result Classification
	fileID string
}

// ensureDoc reconciles one document: create the file if absent, then
// generate and write content whenever the recorded fingerprint is stale,
// updating the tag's fingerprint fields afterwards. The tag update is
// last, so an interrupted write is re-done on the next run.
func (e *Engine) ensureDoc(ctx context.Context, drv Drive, docsSvc Docs, doc DocSpec, driveID, folderID, department string, regen bool) (docOutcome, error) {
	result, existing, err := e.classifyDoc(ctx, drv, doc, driveID)
	if err != nil {
		return docOutcome{}, err
	}
	if result == ClassificationConflict {
		return docOutcome{result: result}, nil
	}
	if regen && result == ClassificationSkip {
		result = ClassificationUpdate
	}

	tag := tags.New(e.bp.Run.Name, doc.StableID, tags.KindDoc, doc.Path)
	tag.PromptVersion = e.bp.Docs.Generation.PromptVersion

	var fileID string
	if existing != nil {
		fileID = existing.ID
	} else {
		fileID, err = drv.CreateDoc(ctx, doc.Name, folderID, driveID, tag.Properties())
		if err != nil {
			return docOutcome{}, NewTransientError("create doc", err).WithResource("doc:" + doc.Path)
		}
	}
	if result == ClassificationSkip {
		return docOutcome{result: result, fileID: fileID}, nil
	}

	generated, err := e.generator.Generate(ctx, content.Request{
		StableID:   doc.StableID,
		Archetype:  doc.Archetype,
		Company:    CompanyName(e.bp.Run.Name),
		Department: department,
		TitleHint:  doc.Name,
		RunName:    e.bp.Run.Name,
		Regen:      regen,
	})
	if err != nil {
		return docOutcome{}, NewTransientError("generate content", err).WithResource("doc:" + doc.Path)
	}
	if err := docsSvc.ApplyContent(ctx, fileID, generated.Render()); err != nil {
		return docOutcome{}, NewTransientError("write content", err).WithResource("doc:" + doc.Path)
	}

	tag.ContentHash = ids.ContentHash(generated.Flatten())
	if err := drv.UpdateProperties(ctx, fileID, tag.Properties(), driveID); err != nil {
		return docOutcome{}, NewTransientError("update tag", err).WithResource("doc:" + doc.Path)
	}
	return docOutcome{result: result, fileID: fileID}, nil
}

func recordUser(result Classification, email string, rep *report.ApplyReport) {
	switch result {
	case ClassificationCreate:
		rep.AddCreated("user:" + email)
	case ClassificationUpdate:
		rep.AddUpdated("user:" + email)
	case ClassificationConflict:
		rep.AddConflict("user:" + email)
	default:
		rep.AddSkipped("user:" + email)
	}
}

func recordGroup(result Classification, email string, rep *report.ApplyReport) {
	switch result {
	case ClassificationCreate:
		rep.AddCreated("group:" + email)
	case ClassificationUpdate:
		rep.AddUpdated("group:" + email)
	case ClassificationConflict:
		rep.AddConflict("group:" + email)
	default:
		rep.AddSkipped("group:" + email)
	}
}

func runStatus(rep *report.ApplyReport) string {
	switch {
	case len(rep.Conflicts) > 0:
		return "conflicts"
	case len(rep.Warnings) > 0:
		return "warnings"
	default:
		return "ok"
	}
}
