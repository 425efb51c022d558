package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

type applyCall struct {
	Handle   string
	Category string
	Action   model.Action
}

// fakePage is an in-memory Feed. Errors keyed by row handle are returned from Apply.
type fakePage struct {
	readErr   error
	applyErrs map[string]error
	rows      []model.BankTransaction
	applied   []applyCall
	lastLimit int
}

func (p *fakePage) ReadForReview(_ context.Context, limit int) ([]model.BankTransaction, error) {
	p.lastLimit = limit
	if p.readErr != nil {
		return nil, p.readErr
	}
	return p.rows, nil
}

func (p *fakePage) Apply(_ context.Context, handle, category string, action model.Action) error {
	if err := p.applyErrs[handle]; err != nil {
		return err
	}
	p.applied = append(p.applied, applyCall{Handle: handle, Category: category, Action: action})
	return nil
}

// mockClassifier answers by description.
type mockClassifier struct {
	answers map[string]*model.Decision
	calls   []string
}

func (m *mockClassifier) Classify(_ context.Context, txn model.BankTransaction) *model.Decision {
	m.calls = append(m.calls, txn.Description)
	d, ok := m.answers[txn.Description]
	if !ok || d == nil {
		return nil
	}
	cp := *d
	return &cp
}

type recordingNotifier struct {
	err   error
	lines [][]string
}

func (n *recordingNotifier) Notify(ctx context.Context, lines []string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	n.lines = append(n.lines, lines)
	return n.err
}

type memoryRecorder struct {
	started  []model.Run
	finished []model.Run
	results  map[string][]model.RunResult
	mu       sync.Mutex
}

func (r *memoryRecorder) StartRun(_ context.Context, run model.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, run)
	return nil
}

func (r *memoryRecorder) RecordResult(_ context.Context, runID string, result model.RunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[string][]model.RunResult)
	}
	r.results[runID] = append(r.results[runID], result)
	return nil
}

func (r *memoryRecorder) FinishRun(_ context.Context, run model.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, run)
	return nil
}

type countingObserver struct {
	total    int
	steps    int
	finished bool
}

func (o *countingObserver) Start(total int)      { o.total = total }
func (o *countingObserver) Step(model.RunResult) { o.steps++ }
func (o *countingObserver) Finish()              { o.finished = true }
