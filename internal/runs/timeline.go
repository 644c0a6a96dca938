package runs

import "time"

// StepID identifies one of the four pipeline steps.
type StepID string

const (
	StepEncrypt StepID = "encrypt"
	StepGrant   StepID = "grant"
	StepExecute StepID = "execute"
	StepResult  StepID = "result"
)

// StepStatus is the presentation state of a timeline step.
type StepStatus string

const (
	StepIdle     StepStatus = "idle"
	StepPending  StepStatus = "pending"
	StepComplete StepStatus = "complete"
	StepError    StepStatus = "error"
)

// TimelineStep is the externally visible progress of one pipeline step.
// The timeline is in-memory presentation only; durable progress lives in
// State and the timeline is reconstructed from it on load.
type TimelineStep struct {
	ID          StepID     `json:"id"`
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	Detail      string     `json:"detail,omitempty"`
	Link        string     `json:"link,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

var stepNames = map[StepID]string{
	StepEncrypt: "Encrypt Data",
	StepGrant:   "Grant Access",
	StepExecute: "Execute Computation",
	StepResult:  "Retrieve Result",
}

type timeline []TimelineStep

func newTimeline() timeline {
	return timeline{
		{ID: StepEncrypt, Name: stepNames[StepEncrypt], Status: StepIdle},
		{ID: StepGrant, Name: stepNames[StepGrant], Status: StepIdle},
		{ID: StepExecute, Name: stepNames[StepExecute], Status: StepIdle},
		{ID: StepResult, Name: stepNames[StepResult], Status: StepIdle},
	}
}

// reconstruct builds a timeline whose completed steps reflect persisted
// progress, so a reloaded run presents where it actually left off.
func reconstruct(state State) timeline {
	tl := newTimeline()
	if state.Address() != "" {
		tl.complete(StepEncrypt, "Data encrypted", "")
	}
	if state.Granted() {
		tl.complete(StepGrant, "Access granted", "")
	}
	if state.Task() != "" {
		tl.complete(StepExecute, "Computation dispatched", "")
	}
	if state.Done() {
		tl.complete(StepResult, "Result retrieved", "")
	}
	return tl
}

func (tl timeline) find(id StepID) *TimelineStep {
	for i := range tl {
		if tl[i].ID == id {
			return &tl[i]
		}
	}
	return nil
}

func (tl timeline) pending(id StepID, detail string) {
	if step := tl.find(id); step != nil {
		step.Status = StepPending
		step.Detail = detail
	}
}

func (tl timeline) complete(id StepID, detail, link string) {
	if step := tl.find(id); step != nil {
		now := time.Now().UTC()
		step.Status = StepComplete
		step.Detail = detail
		step.Link = link
		step.CompletedAt = &now
	}
}

func (tl timeline) fail(id StepID, message string) {
	if step := tl.find(id); step != nil {
		step.Status = StepError
		step.Detail = message
	}
}

func (tl timeline) clone() []TimelineStep {
	out := make([]TimelineStep, len(tl))
	copy(out, tl)
	return out
}
