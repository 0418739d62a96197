package engine

// LiveState is what a remote probe learned about one desired object.
type LiveState struct {
	// Exists reports whether any object occupies the desired name/position.
	Exists bool

	// Owned reports whether that object carries this run's tag. Only
	// meaningful when Exists is true.
	Owned bool

	// Fingerprint is the object's recorded generation fingerprint (prompt
	// version plus content hash for documents, empty otherwise).
	Fingerprint string
}

// Classify applies the reconciliation rule shared by plan and apply:
//
//   - nothing there                       -> create
//   - something there, not ours           -> conflict (never touched)
//   - ours, fingerprint differs           -> update
//   - ours, fingerprint matches           -> skip
func Classify(live LiveState, desiredFingerprint string) Classification {
	if !live.Exists {
		return ClassificationCreate
	}
	if !live.Owned {
		return ClassificationConflict
	}
	if live.Fingerprint != desiredFingerprint {
		return ClassificationUpdate
	}
	return ClassificationSkip
}
