package runs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scorely/scorely/internal/gateway"
	"github.com/scorely/scorely/internal/history"
	"github.com/scorely/scorely/internal/profiles"
	"github.com/scorely/scorely/pkg/storage"
)

const maxLogLines = 100

// Orchestrator drives the scoring pipeline and implements the System
// interface. All collaborators are injected; the orchestrator holds no
// ambient globals.
type Orchestrator struct {
	gateway  gateway.System
	store    StateStore
	profiles profiles.System
	history  history.System
	storage  storage.System
	logger   *slog.Logger
	maxBody  int64

	mu   sync.Mutex
	live map[string]*execution
}

// New creates a run orchestrator.
func New(
	gw gateway.System,
	store StateStore,
	prof profiles.System,
	ledger history.System,
	archive storage.System,
	logger *slog.Logger,
	maxBody int64,
) *Orchestrator {
	return &Orchestrator{
		gateway:  gw,
		store:    store,
		profiles: prof,
		history:  ledger,
		storage:  archive,
		logger:   logger.With("system", "runs"),
		maxBody:  maxBody,
		live:     make(map[string]*execution),
	}
}

// Handler returns the HTTP handler for run endpoints.
func (o *Orchestrator) Handler() *Handler {
	return NewHandler(o, o.logger, o.maxBody)
}

// execution is the in-memory record of a run being driven by this process.
type execution struct {
	id string

	mu       sync.Mutex
	status   Status
	state    State
	timeline timeline
	log      []string
	errMsg   string
}

func (e *execution) snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *execution) setState(state State) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

func (e *execution) setStatus(status Status) {
	e.mu.Lock()
	e.status = status
	e.mu.Unlock()
}

func (e *execution) logf(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, fmt.Sprintf(format, args...))
	if len(e.log) > maxLogLines {
		e.log = e.log[len(e.log)-maxLogLines:]
	}
}

func (e *execution) stepPending(id StepID, detail string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timeline.pending(id, detail)
}

func (e *execution) stepComplete(id StepID, detail, link string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timeline.complete(id, detail, link)
}

func (e *execution) stepFail(id StepID, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timeline.fail(id, message)
}

// step is one declarative pipeline stage: done reports whether durable state
// already covers it, run performs it. The pipeline is a uniform loop over
// these records.
type step struct {
	id   StepID
	done func(State) bool
	run  func(context.Context, *execution) error
}

func (o *Orchestrator) steps() []step {
	return []step{
		{StepEncrypt, func(s State) bool { return s.Address() != "" }, o.encrypt},
		{StepGrant, func(s State) bool { return s.Granted() }, o.grant},
		{StepExecute, func(s State) bool { return s.Task() != "" }, o.execute},
		{StepResult, func(s State) bool { return s.Done() }, o.fetchResult},
	}
}

// Submit validates the profile, records it under a placeholder run id, and
// starts the pipeline in the background.
func (o *Orchestrator) Submit(ctx context.Context, profile *profiles.FinancialProfile) (Receipt, error) {
	if err := profiles.Validate(profile); err != nil {
		return Receipt{}, err
	}

	id := newRunID()
	if err := o.profiles.Save(ctx, id, profile); err != nil {
		return Receipt{}, err
	}

	o.logger.Info("run accepted", "run_id", id)
	o.start(id)

	return Receipt{RunID: id, Status: StatusInitializing}, nil
}

// start launches Execute on a background context detached from the request.
func (o *Orchestrator) start(id string) {
	go func() {
		if err := o.Execute(context.Background(), id); err != nil {
			o.logger.Error("run execution ended with error", "run_id", id, "error", err)
		}
	}()
}

// Execute drives the pipeline for a run id. The run is claimed RUNNING
// before any work starts, so a second call for a run that is already
// executing, or has completed, is a no-op. A failed run resumes at the
// first step its durable state does not cover.
func (o *Orchestrator) Execute(ctx context.Context, id string) error {
	e, prev, claimed := o.claim(id)
	if !claimed {
		return nil
	}

	if !o.gateway.Ready() {
		e.setStatus(StatusInitializing)
		e.logf("waiting for computation gateway to initialize")
		return gateway.ErrNotInitialized
	}

	state, err := o.store.Load(ctx, id)
	if err != nil {
		e.setStatus(prev)
		return err
	}

	e.mu.Lock()
	e.state = state
	e.timeline = reconstruct(state)
	e.errMsg = ""
	e.mu.Unlock()

	if isRemoteAddressed(id) {
		return o.resolveRemote(ctx, e)
	}
	return o.runPipeline(ctx, e)
}

// claim registers or reuses the in-memory execution and transitions it to
// RUNNING within the same critical section, so concurrent callers cannot
// both pass the re-entry guard. The prior status is returned for rollback
// on paths that surrender the claim without running the pipeline.
func (o *Orchestrator) claim(id string) (e *execution, prev Status, claimed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.live[id]
	if !ok {
		e = &execution{id: id, timeline: newTimeline()}
		o.live[id] = e
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.status {
	case StatusRunning, StatusCompleted:
		return e, e.status, false
	}
	prev = e.status
	e.status = StatusRunning
	return e, prev, true
}

func (o *Orchestrator) runPipeline(ctx context.Context, e *execution) error {
	for _, st := range o.steps() {
		if st.done(e.snapshot()) {
			continue
		}
		if err := st.run(ctx, e); err != nil {
			o.fail(ctx, e, st.id, err)
			return err
		}
	}
	o.complete(e, "run completed")
	return nil
}

// complete marks the run terminal and releases its in-memory record. The
// durable state already carries everything a later view or re-invocation
// needs, so holding the record would only grow the live map unbounded.
func (o *Orchestrator) complete(e *execution, message string) {
	e.setStatus(StatusCompleted)
	e.logf("%s", message)

	o.mu.Lock()
	delete(o.live, e.id)
	o.mu.Unlock()
}

// resolveRemote handles runs addressed directly by a remote task id: the
// pipeline already ran elsewhere, so only the result is fetched, and a
// previously persisted score resolves without any remote call.
func (o *Orchestrator) resolveRemote(ctx context.Context, e *execution) error {
	for _, id := range []StepID{StepEncrypt, StepGrant, StepExecute} {
		e.stepComplete(id, "Recovered from task id", "")
	}

	state := e.snapshot()
	if state.Done() && state.HasScore() {
		e.stepComplete(StepResult, "Result restored", "")
		o.complete(e, "score restored from prior run")
		return nil
	}

	if err := o.fetchResult(ctx, e); err != nil {
		o.fail(ctx, e, StepResult, err)
		return err
	}
	o.complete(e, "run completed")
	return nil
}

func (o *Orchestrator) encrypt(ctx context.Context, e *execution) error {
	e.stepPending(StepEncrypt, "Encrypting financial profile")
	e.logf("encrypting financial profile")

	profile, err := o.profiles.Find(ctx, e.id)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	address, err := o.gateway.Protect(ctx, profile)
	if err != nil {
		return err
	}

	merged, err := o.store.Save(ctx, e.id, State{
		ProtectedDataAddress: ptr(address),
		IsGranted:            ptr(false),
	})
	if err != nil {
		return err
	}
	e.setState(merged)

	e.stepComplete(StepEncrypt, "Data encrypted", o.gateway.ExplorerLink("dataset", address))
	e.logf("protected data at %s", address)
	return nil
}

func (o *Orchestrator) grant(ctx context.Context, e *execution) error {
	e.stepPending(StepGrant, "Granting application access")
	e.logf("granting application access")

	if _, err := o.gateway.GrantAccess(ctx, e.snapshot().Address()); err != nil {
		return err
	}

	merged, err := o.store.Save(ctx, e.id, State{IsGranted: ptr(true)})
	if err != nil {
		return err
	}
	e.setState(merged)

	e.stepComplete(StepGrant, "Access granted", "")
	e.logf("access granted")
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, e *execution) error {
	e.stepPending(StepExecute, "Dispatching confidential computation")
	e.logf("dispatching confidential computation")

	// Stake shortfalls surface later as dispatch failures with a clearer
	// message, so a failed deposit only warns.
	if stake, err := o.gateway.EnsureStake(ctx); err != nil {
		o.logger.Warn("stake check failed", "run_id", e.id, "error", err)
		e.logf("stake check failed: %v", err)
	} else if stake.Deposited {
		e.logf("deposited stake, balance %d", stake.Balance)
	}

	dispatch, err := o.gateway.Process(ctx, e.snapshot().Address(), func(update gateway.StatusUpdate) {
		o.captureStatus(ctx, e, update)
	})
	if err != nil {
		return err
	}

	merged, err := o.store.Save(ctx, e.id, State{
		TaskID: ptr(dispatch.TaskID),
		DealID: ptr(dispatch.DealID),
	})
	if err != nil {
		return err
	}
	e.setState(merged)
	o.bridge(ctx, e, dispatch.TaskID)

	e.stepComplete(StepExecute, "Computation complete", o.gateway.ExplorerLink("task", dispatch.TaskID))
	e.logf("task %s completed", dispatch.TaskID)
	return nil
}

// captureStatus persists remote identifiers the moment they are observed,
// before the dispatch resolves, so a crash mid-dispatch resumes against the
// running task instead of paying for a second one.
func (o *Orchestrator) captureStatus(ctx context.Context, e *execution, update gateway.StatusUpdate) {
	if update.Title != "" {
		e.logf("%s", update.Title)
	}

	current := e.snapshot()
	patch := State{}
	if t := update.Payload.TaskID; t != "" && current.Task() == "" {
		patch.TaskID = ptr(t)
	}
	if d := update.Payload.DealID; d != "" && current.Deal() == "" {
		patch.DealID = ptr(d)
	}
	if patch.TaskID == nil && patch.DealID == nil {
		return
	}

	merged, err := o.store.Save(ctx, e.id, patch)
	if err != nil {
		o.logger.Warn("mid-flight state capture failed", "run_id", e.id, "error", err)
		return
	}
	e.setState(merged)

	if patch.TaskID != nil {
		e.logf("task assigned: %s", *patch.TaskID)
		o.bridge(ctx, e, *patch.TaskID)
	}
}

// bridge records the local-to-task alias and seeds the task-addressed state
// so the run resolves under either id.
func (o *Orchestrator) bridge(ctx context.Context, e *execution, taskID string) {
	if taskID == "" || e.id == taskID {
		return
	}
	if err := o.store.SaveAlias(ctx, e.id, taskID); err != nil {
		o.logger.Warn("alias save failed", "run_id", e.id, "task_id", taskID, "error", err)
	}
	if _, err := o.store.Save(ctx, taskID, e.snapshot()); err != nil {
		o.logger.Warn("task state seed failed", "task_id", taskID, "error", err)
	}
}

func (o *Orchestrator) fetchResult(ctx context.Context, e *execution) error {
	task := e.snapshot().Task()
	if task == "" {
		task = e.id
	}

	e.stepPending(StepResult, "Retrieving result")
	e.logf("retrieving result for task %s", task)

	result, err := o.gateway.FetchResult(ctx, task)
	if err != nil {
		return err
	}

	merged, err := o.store.Save(ctx, e.id, State{
		TaskID:    ptr(task),
		Completed: ptr(true),
		Score:     ptr(result.Score),
		Grade:     ptr(result.Grade),
	})
	if err != nil {
		return err
	}
	e.setState(merged)
	o.bridge(ctx, e, task)

	o.record(ctx, e, history.Entry{
		ID:         uuid.New(),
		TaskID:     task,
		Status:     history.StatusCompleted,
		Score:      result.Score,
		Grade:      result.Grade,
		RecordedAt: time.Now().UTC(),
	})
	o.archive(ctx, e, task, result.Bundle)

	e.stepComplete(StepResult,
		fmt.Sprintf("Score %d (%s)", result.Score, result.Grade),
		o.gateway.ExplorerLink("task", task),
	)
	e.logf("score %d grade %s", result.Score, result.Grade)
	return nil
}

func (o *Orchestrator) record(ctx context.Context, e *execution, entry history.Entry) {
	appended, err := o.history.Append(ctx, entry)
	if err != nil {
		o.logger.Warn("history append failed", "task_id", entry.TaskID, "error", err)
		return
	}
	if !appended {
		e.logf("ledger already holds task %s", entry.TaskID)
	}
}

// archive retains the raw result bundle in blob storage. Archival is
// best-effort: the score is already durable in run state.
func (o *Orchestrator) archive(ctx context.Context, e *execution, taskID string, bundle []byte) {
	if len(bundle) == 0 {
		return
	}
	key := fmt.Sprintf("results/%s.zip", taskID)
	if err := o.storage.Upload(ctx, key, bytes.NewReader(bundle), "application/zip"); err != nil {
		o.logger.Warn("bundle archive failed", "task_id", taskID, "error", err)
		return
	}
	e.logf("result bundle archived as %s", key)
}

// fail records a step failure. An EXECUTE failure clears the grant and any
// partially captured task id so retry re-authorizes and re-dispatches; the
// protected-data address is preserved and never re-encrypted.
func (o *Orchestrator) fail(ctx context.Context, e *execution, stepID StepID, err error) {
	message := err.Error()

	e.mu.Lock()
	e.status = StatusFailed
	e.errMsg = message
	e.timeline.fail(stepID, message)
	e.mu.Unlock()
	e.logf("run failed at %s: %s", stepID, message)

	if stepID == StepExecute {
		merged, saveErr := o.store.Save(ctx, e.id, State{
			IsGranted: ptr(false),
			TaskID:    ptr(""),
		})
		if saveErr != nil {
			o.logger.Error("failure state save failed", "run_id", e.id, "error", saveErr)
		} else {
			e.setState(merged)
		}
	}

	var ce *gateway.ComputationError
	if stepID == StepResult && errors.As(err, &ce) {
		task := e.snapshot().Task()
		if task == "" && isRemoteAddressed(e.id) {
			task = e.id
		}
		if task != "" {
			o.record(ctx, e, history.Entry{
				ID:         uuid.New(),
				TaskID:     task,
				Status:     history.StatusFailed,
				RecordedAt: time.Now().UTC(),
			})
		}
	}

	o.logger.Error("run failed", "run_id", e.id, "step", stepID, "error", err)
}

func newRunID() string {
	u := uuid.New()
	return fmt.Sprintf("run-%x", u[:4])
}

func isRemoteAddressed(id string) bool {
	return strings.HasPrefix(id, "0x")
}
