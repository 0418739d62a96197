package engine

import (
	"context"

	"github.com/gwsynth/gwsynth/pkg/report"
	"github.com/gwsynth/gwsynth/pkg/tags"
)

// Plan is the read-only reconciliation pass: it walks the same desired
// resource graph as Apply and classifies every object against the live
// tenant, but never mutates anything. Failures during plan are fatal;
// there is nothing to protect by continuing.
func (e *Engine) Plan(ctx context.Context) (*report.PlanReport, error) {
	if err := e.checkGuard(); err != nil {
		return nil, err
	}
	e.metrics.RecordRunStarted("plan")
	rep := report.NewPlanReport(e.bp.Run.Name)

	data, err := e.loadIdentity(ctx)
	if err != nil {
		return nil, err
	}

	needed, err := e.ensureOrgUnit(ctx, true)
	if err != nil {
		return nil, err
	}
	if needed {
		rep.AddPrerequisite("Create OU " + e.bp.Run.OUPath)
	}

	reviewer, err := e.ensureGroup(ctx, e.bp.Sharing.ReviewerGroupEmail, reviewerGroupName, reviewerGroupDescription, true)
	if err != nil {
		return nil, err
	}
	tallyGroup(reviewer, e.bp.Sharing.ReviewerGroupEmail, rep)

	for _, group := range data.groups {
		result, err := e.ensureGroup(ctx, group.Email, group.DisplayName, group.Description, true)
		if err != nil {
			return nil, err
		}
		tallyGroup(result, group.Email, rep)
	}

	for _, user := range data.users {
		result, err := e.ensureUser(ctx, user, true)
		if err != nil {
			return nil, err
		}
		tallyUser(result, user.Email, rep)
	}

	if e.bp.Licenses.Assign {
		rep.Counts.LicensesAssign = len(data.users)
	}

	for _, spec := range DesiredDrives(e.bp, data.users, e.year()) {
		result, err := e.classifyDrive(ctx, spec)
		if err != nil {
			return nil, err
		}
		switch result {
		case ClassificationCreate:
			// A drive that doesn't exist yet implies its whole subtree.
			rep.Counts.DrivesCreate++
			rep.Counts.FoldersCreate += len(spec.Folders)
			rep.Counts.DocsCreate += len(spec.Docs)
		case ClassificationConflict:
			rep.Counts.DrivesConflict++
			rep.AddConflict("drive:" + spec.Name)
		default:
			rep.Counts.DrivesSkip++
			if err := e.planDriveContents(ctx, spec, rep); err != nil {
				return nil, err
			}
		}
	}

	if e.bp.Drives.MyDrive.Enabled {
		rep.Counts.DocsCreate += e.bp.Drives.MyDrive.DocsPerUser * len(data.users)
	}

	return rep, nil
}

// planDriveContents probes the folders and documents of a drive that
// already exists with this run's marker.
func (e *Engine) planDriveContents(ctx context.Context, spec *DriveSpec, rep *report.PlanReport) error {
	admin := e.drives.Admin()

	for _, folder := range spec.Folders {
		tag := tags.New(e.bp.Run.Name, folder.StableID, tags.KindFolder, folder.Path)
		existing, err := admin.FindFile(ctx, tag.Properties(), spec.ExistingID)
		if err != nil {
			return NewTransientError("find folder", err).WithResource("folder:" + folder.Path)
		}
		if existing == nil {
			rep.Counts.FoldersCreate++
		}
	}

	for _, doc := range spec.Docs {
		result, _, err := e.classifyDoc(ctx, admin, doc, spec.ExistingID)
		if err != nil {
			return err
		}
		switch result {
		case ClassificationCreate:
			rep.Counts.DocsCreate++
		case ClassificationUpdate:
			rep.Counts.DocsUpdate++
		}
	}
	return nil
}

// classifyDoc probes one desired document by stable ID and compares its
// generation fingerprint against the blueprint's prompt version. The live
// fingerprint only counts when a content hash was recorded; a document
// created but never filled is due for an update.
func (e *Engine) classifyDoc(ctx context.Context, drv Drive, doc DocSpec, driveID string) (Classification, *RemoteFile, error) {
	existing, err := drv.FindFile(ctx, map[string]string{
		tags.KeyID:   doc.StableID,
		tags.KeyKind: tags.KindDoc,
	}, driveID)
	if err != nil {
		return "", nil, NewTransientError("find doc", err).WithResource("doc:" + doc.Path)
	}

	live := LiveState{Exists: existing != nil}
	if existing != nil {
		tag := tags.FromProperties(existing.Properties)
		live.Owned = tag.OwnedBy(e.bp.Run.Name)
		if tag.ContentHash != "" {
			live.Fingerprint = tag.PromptVersion
		}
	}
	result := Classify(live, e.bp.Docs.Generation.PromptVersion)
	e.metrics.RecordEnsureOutcome("doc", string(result))
	return result, existing, nil
}

const (
	reviewerGroupName        = "Synthetic Reviewers"
	reviewerGroupDescription = "Synthetic reviewers group"
)

func tallyUser(result Classification, email string, rep *report.PlanReport) {
	switch result {
	case ClassificationCreate:
		rep.Counts.UsersCreate++
	case ClassificationUpdate:
		rep.Counts.UsersUpdate++
	case ClassificationConflict:
		rep.Counts.UsersConflict++
		rep.AddConflict("user:" + email)
	default:
		rep.Counts.UsersSkip++
	}
}

func tallyGroup(result Classification, email string, rep *report.PlanReport) {
	switch result {
	case ClassificationCreate:
		rep.Counts.GroupsCreate++
	case ClassificationUpdate:
		rep.Counts.GroupsUpdate++
	case ClassificationConflict:
		rep.Counts.GroupsConflict++
		rep.AddConflict("group:" + email)
	default:
		rep.Counts.GroupsSkip++
	}
}
