// Package tags defines the ownership marker protocol for remote objects.
//
// The engine keeps no database of prior actions: the tag attached to a
// remote object is the single durable proof that a given run created it.
// An object is "ours" for reconciliation purposes iff its tag's run field
// matches the current run name; everything else is foreign and must never
// be mutated or deleted.
package tags

import "strings"

// Property keys written into a remote file's appProperties bag.
const (
	KeyRun           = "gwsynth_run"
	KeyID            = "gwsynth_id"
	KeyKind          = "gwsynth_kind"
	KeyPath          = "gwsynth_path"
	KeyPromptVersion = "gwsynth_prompt_version"
	KeyContentHash   = "gwsynth_content_hash"
)

// Object kinds recorded in a tag.
const (
	KindFolder      = "folder"
	KindDoc         = "doc"
	KindDriveMarker = "drive_marker"
	KindMyDriveRoot = "mydrive_root"
)

// Tag is the property bag stamped onto a remote object at creation time and
// read back on every subsequent run.
type Tag struct {
	Run  string
	ID   string
	Kind string
	Path string

	// PromptVersion and ContentHash fingerprint generated document content.
	// Empty for non-document objects.
	PromptVersion string
	ContentHash   string
}

// New builds the minimal tag for an object.
func New(runName, stableID, kind, path string) Tag {
	return Tag{Run: runName, ID: stableID, Kind: kind, Path: path}
}

// Properties renders the tag as a string property map. Fingerprint fields
// are omitted when empty.
func (t Tag) Properties() map[string]string {
	props := map[string]string{
		KeyRun:  t.Run,
		KeyID:   t.ID,
		KeyKind: t.Kind,
		KeyPath: t.Path,
	}
	if t.PromptVersion != "" {
		props[KeyPromptVersion] = t.PromptVersion
	}
	if t.ContentHash != "" {
		props[KeyContentHash] = t.ContentHash
	}
	return props
}

// FromProperties parses a tag out of a remote property map. Unknown keys
// are ignored; missing keys yield zero fields.
func FromProperties(props map[string]string) Tag {
	return Tag{
		Run:           props[KeyRun],
		ID:            props[KeyID],
		Kind:          props[KeyKind],
		Path:          props[KeyPath],
		PromptVersion: props[KeyPromptVersion],
		ContentHash:   props[KeyContentHash],
	}
}

// OwnedBy reports whether the tag proves ownership by the given run.
func (t Tag) OwnedBy(runName string) bool {
	return t.Run != "" && t.Run == runName
}

// groupTagPrefix marks directory group descriptions. Groups have no property
// bag, so ownership is recorded inline as "[gwsynth_run:<run>]".
const groupTagPrefix = "gwsynth_run:"

// GroupDescription appends the run marker to a group description unless it
// is already present.
func GroupDescription(description, runName string) string {
	tag := groupTagPrefix + runName
	if strings.Contains(description, tag) {
		return description
	}
	return strings.TrimSpace(description + " [" + tag + "]")
}

// GroupOwnedBy reports whether a group description carries the run marker.
func GroupOwnedBy(description, runName string) bool {
	return strings.Contains(description, groupTagPrefix+runName)
}
