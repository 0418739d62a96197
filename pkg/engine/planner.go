package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
	"github.com/gwsynth/gwsynth/pkg/identity"
	"github.com/gwsynth/gwsynth/pkg/ids"
	"github.com/gwsynth/gwsynth/pkg/tags"
)

// Departments returns the sorted distinct departments of the given users.
// Users without a department fall into the default; an empty snapshot still
// yields one department so at least one drive tree is derived.
func Departments(users []identity.User) []string {
	set := map[string]struct{}{}
	for _, user := range users {
		dept := user.Department
		if dept == "" {
			dept = identity.DefaultDepartment
		}
		set[dept] = struct{}{}
	}
	if len(set) == 0 {
		return []string{identity.DefaultDepartment}
	}
	departments := make([]string, 0, len(set))
	for dept := range set {
		departments = append(departments, dept)
	}
	sort.Strings(departments)
	return departments
}

// DesiredDrives derives the full shared-drive resource graph from the
// blueprint and identity snapshot. The derivation is a pure function of its
// inputs: same blueprint + same snapshot + same year yields byte-identical
// names and stable IDs, which is what makes ledger-free reconciliation
// possible.
func DesiredDrives(bp *blueprint.Blueprint, users []identity.User, year int) []*DriveSpec {
	var specs []*DriveSpec
	for _, department := range Departments(users) {
		for index := 0; index < bp.Drives.SharedDrives.CountPerDepartment; index++ {
			name := driveName(bp, department, index)
			spec := &DriveSpec{
				Name:       name,
				Department: department,
				MarkerID:   ids.StableID(bp.Run.Name, tags.KindDriveMarker, name),
			}
			for _, template := range bp.Folders.SharedDriveTree {
				path := formatPath(template, department, year)
				spec.Folders = append(spec.Folders, FolderSpec{
					Path:     path,
					StableID: ids.StableID(bp.Run.Name, tags.KindFolder, name+":"+path),
				})
			}
			spec.Docs = docsForDrive(bp, name, department, year)
			specs = append(specs, spec)
		}
	}
	return specs
}

// driveName expands the naming template for one drive. When more than one
// drive per department is requested and the template carries no {index}
// placeholder, a 1-based " N" suffix keeps the names distinct.
func driveName(bp *blueprint.Blueprint, department string, index int) string {
	naming := bp.Drives.SharedDrives.Naming
	name := strings.NewReplacer(
		"{prefix}", bp.Run.ResourcePrefix,
		"{department}", department,
		"{index}", strconv.Itoa(index+1),
	).Replace(naming)
	if bp.Drives.SharedDrives.CountPerDepartment > 1 && !strings.Contains(naming, "{index}") {
		name = fmt.Sprintf("%s %d", name, index+1)
	}
	return name
}

func docsForDrive(bp *blueprint.Blueprint, driveName, department string, year int) []DocSpec {
	docs := make([]DocSpec, 0, len(bp.Docs.Archetypes))
	for _, archetype := range bp.Docs.Archetypes {
		folderPath := folderForArchetype(archetype, department, year)
		name := titleForArchetype(archetype, department)
		path := folderPath + "/" + name
		docs = append(docs, DocSpec{
			StableID:   ids.StableID(bp.Run.Name, tags.KindDoc, driveName+":"+path),
			Name:       name,
			Path:       path,
			Archetype:  archetype,
			FolderPath: folderPath,
		})
	}
	return docs
}

// folderForArchetype places an archetype's document inside the standard
// folder tree.
func folderForArchetype(archetype, department string, year int) string {
	switch archetype {
	case "policy", "runbook":
		return "02 - Process & Policy"
	case "meeting_notes":
		return fmt.Sprintf("03 - Meeting Notes/%d", year)
	case "onboarding":
		return "00 - Admin"
	default:
		// incident_report, prd, qbr and unknown archetypes live under the
		// department's project folder.
		return "01 - Projects/" + department
	}
}

// titleForArchetype names an archetype's document.
func titleForArchetype(archetype, department string) string {
	var base string
	switch archetype {
	case "policy":
		base = "Policy Overview"
	case "prd":
		base = "Product Requirements"
	case "runbook":
		base = "Operational Runbook"
	case "incident_report":
		base = "Incident Report"
	case "meeting_notes":
		base = "Meeting Notes"
	case "onboarding":
		base = "Onboarding Guide"
	case "qbr":
		base = "Quarterly Business Review"
	default:
		base = "Team Document"
	}
	return base + " - " + department
}

// formatPath substitutes the {department} and {year} placeholders of a
// folder template.
func formatPath(template, department string, year int) string {
	return strings.NewReplacer(
		"{department}", department,
		"{year}", strconv.Itoa(year),
	).Replace(template)
}

// PersonalDocs derives the personal-drive subtree for one user: a tagged
// root folder under the user's own drive plus docs_per_user document
// leaves. Archetype choice is driven by a per-user RNG seeded from the run
// seed and the user's email, so repeated runs pick the same archetypes.
func PersonalDocs(bp *blueprint.Blueprint, user identity.User) PersonalSpec {
	rootPath := bp.Run.ResourcePrefix + " My Work"
	spec := PersonalSpec{
		UserEmail: user.Email,
		RootPath:  rootPath,
		RootID:    ids.StableID(bp.Run.Name, tags.KindMyDriveRoot, user.Email),
	}
	rng := userRNG(bp.Run.Seed, user.Email)
	for idx := 0; idx < bp.Drives.MyDrive.DocsPerUser; idx++ {
		archetype := bp.Docs.Archetypes[rng.Intn(len(bp.Docs.Archetypes))]
		name := fmt.Sprintf("%s (%d)", titleForArchetype(archetype, userDepartment(user)), idx+1)
		path := rootPath + "/" + name
		spec.Docs = append(spec.Docs, DocSpec{
			StableID:   ids.StableID(bp.Run.Name, tags.KindDoc, user.Email+":"+path),
			Name:       name,
			Path:       path,
			Archetype:  archetype,
			FolderPath: rootPath,
		})
	}
	return spec
}

// userRNG seeds a per-user random source from the run seed and email. The
// first 8 hex digits of the content hash keep the seed stable across runs.
func userRNG(seed int64, email string) *rand.Rand {
	digest := ids.ContentHash(fmt.Sprintf("%d:%s", seed, email))
	value, err := strconv.ParseInt(digest[:8], 16, 64)
	if err != nil {
		value = seed
	}
	return rand.New(rand.NewSource(value))
}

func userDepartment(user identity.User) string {
	if user.Department == "" {
		return identity.DefaultDepartment
	}
	return user.Department
}

// CompanyName turns a run name like "northwind-synth" into a display name
// like "Northwind Synth" for generated content.
func CompanyName(runName string) string {
	words := strings.Fields(strings.ReplaceAll(runName, "-", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
