package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/scorely/scorely/internal/history"
	"github.com/scorely/scorely/internal/profiles"
)

// Get assembles the run view for an id, resolving the placeholder-to-task
// alias in both directions so a run stays addressable by either id.
func (o *Orchestrator) Get(ctx context.Context, id string) (*Run, error) {
	localID, taskID, err := o.identify(ctx, id)
	if err != nil {
		return nil, err
	}

	if e := o.lookup(localID, id); e != nil {
		return o.liveView(ctx, e, id, taskID)
	}
	return o.storedView(ctx, id, localID, taskID)
}

// identify maps the requested id to its local and task-addressed forms.
func (o *Orchestrator) identify(ctx context.Context, id string) (localID, taskID string, err error) {
	localID = id
	if isRemoteAddressed(id) {
		taskID = id
		local, err := o.store.ResolveLocal(ctx, id)
		if err != nil {
			return "", "", err
		}
		if local != "" {
			localID = local
		}
		return localID, taskID, nil
	}

	taskID, err = o.store.ResolveTask(ctx, id)
	if err != nil {
		return "", "", err
	}
	return localID, taskID, nil
}

func (o *Orchestrator) lookup(ids ...string) *execution {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range ids {
		if e, ok := o.live[id]; ok {
			return e
		}
	}
	return nil
}

func (o *Orchestrator) liveView(ctx context.Context, e *execution, id, taskID string) (*Run, error) {
	e.mu.Lock()
	run := &Run{
		ID:       id,
		Status:   e.status,
		Score:    e.state.Score,
		Grade:    e.state.GradeValue(),
		TaskID:   e.state.Task(),
		DealID:   e.state.Deal(),
		Error:    e.errMsg,
		Timeline: e.timeline.clone(),
		Log:      append([]string{}, e.log...),
	}
	e.mu.Unlock()

	if run.TaskID == "" {
		run.TaskID = taskID
	}
	if err := o.attach(ctx, run, e.id, run.TaskID); err != nil {
		return nil, err
	}
	return run, nil
}

// storedView rebuilds a run view from durable state alone. A run that is
// neither completed nor live lost its process mid-pipeline and presents as
// failed so retry can resume it.
func (o *Orchestrator) storedView(ctx context.Context, id, localID, taskID string) (*Run, error) {
	stateID := localID
	state, err := o.store.Load(ctx, stateID)
	if err != nil {
		return nil, err
	}
	if isZero(state) && taskID != "" && taskID != stateID {
		stateID = taskID
		if state, err = o.store.Load(ctx, stateID); err != nil {
			return nil, err
		}
	}

	run := &Run{
		ID:       id,
		Score:    state.Score,
		Grade:    state.GradeValue(),
		TaskID:   state.Task(),
		DealID:   state.Deal(),
		Timeline: reconstruct(state).clone(),
		Log:      []string{},
	}
	if run.TaskID == "" {
		run.TaskID = taskID
	}
	if state.Done() {
		run.Status = StatusCompleted
	} else {
		run.Status = StatusFailed
	}

	if err := o.attach(ctx, run, localID, run.TaskID); err != nil {
		return nil, err
	}

	if isZero(state) && run.Profile == nil && run.History == nil {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// attach loads the submitted profile and ledger entry concurrently and folds
// them into the view. Absence of either is not an error.
func (o *Orchestrator) attach(ctx context.Context, run *Run, localID, taskID string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		profile, err := o.profiles.Find(ctx, localID)
		if errors.Is(err, profiles.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		run.Profile = profile
		return nil
	})

	if taskID != "" {
		g.Go(func() error {
			entry, err := o.history.Find(ctx, taskID)
			if errors.Is(err, history.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			run.History = entry
			return nil
		})
	}

	return g.Wait()
}

// Retry re-invokes the pipeline for a failed run. Runs in any other state
// are rejected.
func (o *Orchestrator) Retry(ctx context.Context, id string) (Receipt, error) {
	run, err := o.Get(ctx, id)
	if err != nil {
		return Receipt{}, err
	}
	if run.Status != StatusFailed {
		if run.Status == StatusRunning || run.Status == StatusInitializing {
			return Receipt{}, ErrRunActive
		}
		return Receipt{}, ErrNotFailed
	}

	localID, _, err := o.identify(ctx, id)
	if err != nil {
		return Receipt{}, err
	}

	o.logger.Info("run retry requested", "run_id", localID)
	o.start(localID)

	return Receipt{RunID: localID, Status: StatusRunning}, nil
}

// Report renders the plain-text score report for a terminal run and retains
// a copy in blob storage.
func (o *Orchestrator) Report(ctx context.Context, id string) ([]byte, string, error) {
	run, err := o.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if run.Status != StatusCompleted && run.Status != StatusFailed {
		return nil, "", ErrRunActive
	}

	report := renderReport(run)
	name := fmt.Sprintf("score-report-%s.txt", sanitizeID(run.ID))

	key := fmt.Sprintf("reports/%s", name)
	if err := o.storage.Upload(ctx, key, strings.NewReader(string(report)), "text/plain"); err != nil {
		o.logger.Warn("report retention failed", "run_id", run.ID, "error", err)
	}

	return report, name, nil
}

func isZero(s State) bool {
	return s == State{}
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, id)
}
