// Package runs drives the scoring pipeline: encrypt, grant, execute, result.
// Run state is durable and merged field-by-field so a restarted process
// resumes at the first incomplete step instead of repeating finished work.
package runs

// State is the durable progress record for a run. Every field is a pointer:
// nil means the field has never been written, so a partial update patches
// only what it sets. An empty string behaves as unset, which lets a patch
// explicitly discard a previously captured value.
type State struct {
	ProtectedDataAddress *string `json:"protectedDataAddress,omitempty"`
	IsGranted            *bool   `json:"isGranted,omitempty"`
	TaskID               *string `json:"taskId,omitempty"`
	DealID               *string `json:"dealId,omitempty"`
	Completed            *bool   `json:"completed,omitempty"`
	Score                *int    `json:"score,omitempty"`
	Grade                *string `json:"grade,omitempty"`
}

// Address returns the protected-data address, or "" when not yet encrypted.
func (s State) Address() string {
	if s.ProtectedDataAddress == nil {
		return ""
	}
	return *s.ProtectedDataAddress
}

// Granted reports whether app access has been authorized.
func (s State) Granted() bool {
	return s.IsGranted != nil && *s.IsGranted
}

// Task returns the remote task id, or "" when no dispatch has been captured.
func (s State) Task() string {
	if s.TaskID == nil {
		return ""
	}
	return *s.TaskID
}

// Deal returns the matching agreement id, or "" when none has been captured.
func (s State) Deal() string {
	if s.DealID == nil {
		return ""
	}
	return *s.DealID
}

// Done reports whether the run has a recorded terminal result.
func (s State) Done() bool {
	return s.Completed != nil && *s.Completed
}

// HasScore reports whether a score has been recorded.
func (s State) HasScore() bool {
	return s.Score != nil
}

// GradeValue returns the recorded grade, or "" when none has been recorded.
func (s State) GradeValue() string {
	if s.Grade == nil {
		return ""
	}
	return *s.Grade
}

// merge overlays patch onto s, field by field. Set fields in patch win;
// unset (nil) fields leave the existing value untouched.
func (s State) merge(patch State) State {
	if patch.ProtectedDataAddress != nil {
		s.ProtectedDataAddress = patch.ProtectedDataAddress
	}
	if patch.IsGranted != nil {
		s.IsGranted = patch.IsGranted
	}
	if patch.TaskID != nil {
		s.TaskID = patch.TaskID
	}
	if patch.DealID != nil {
		s.DealID = patch.DealID
	}
	if patch.Completed != nil {
		s.Completed = patch.Completed
	}
	if patch.Score != nil {
		s.Score = patch.Score
	}
	if patch.Grade != nil {
		s.Grade = patch.Grade
	}
	return s
}

func ptr[T any](v T) *T {
	return &v
}
