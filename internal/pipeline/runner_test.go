package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/dvloznov/smartpause/internal/runs"
	"github.com/dvloznov/smartpause/internal/runs/inmemory"
	"github.com/dvloznov/smartpause/internal/source"
	"github.com/dvloznov/smartpause/internal/state"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

// mockModel is a func-field AnalysisModel.
type mockModel struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *mockModel) Name() string { return "mock-model" }

func (m *mockModel) GenerateAnalyses(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	return m.GenerateFunc(ctx, prompt)
}

// mockRecorder fails every call.
type mockRecorder struct {
	mu     sync.Mutex
	failed []string
}

func (m *mockRecorder) StartRun(ctx context.Context, run *runs.Run) error {
	return errors.New("recorder down")
}

func (m *mockRecorder) MarkRunFailed(ctx context.Context, runID, errorKind string, runErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, errorKind)
}

func (m *mockRecorder) MarkRunSucceeded(ctx context.Context, runID string, analysisCount int) error {
	return errors.New("recorder down")
}

func (m *mockRecorder) InsertModelOutput(ctx context.Context, out *runs.ModelOutput) error {
	return errors.New("recorder down")
}

func respond(t *testing.T, analyses []domain.SubscriptionAnalysis) string {
	t.Helper()
	b, err := json.Marshal(analyses)
	if err != nil {
		t.Fatalf("marshal analyses: %v", err)
	}
	return string(b)
}

type fixture struct {
	store    *state.Store
	recorder *inmemory.Store
	runner   *Runner
}

func newFixture(model AnalysisModel, cfg RunnerConfig) *fixture {
	log := zerolog.New(io.Discard)
	st := state.New(Bootstrap(), AggregateRecoverableSpend)
	rec := inmemory.NewStore()
	txs := source.SampleTransactions()
	return &fixture{
		store:    st,
		recorder: rec,
		runner:   NewRunner(NewGenerator(model, log), txs, st, rec, cfg, log),
	}
}

func TestRunner_SuccessReplacesWholesale(t *testing.T) {
	next := Bootstrap()[:1]
	model := &mockModel{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		return respond(t, next), nil
	}}
	f := newFixture(model, RunnerConfig{})

	res, err := f.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Replaced || res.Version != 2 || res.AnalysisCount != 1 {
		t.Errorf("result = %+v", res)
	}

	if diff := cmp.Diff(next, f.store.Analyses(), decimalComparer); diff != "" {
		t.Errorf("analyses mismatch (-want +got):\n%s", diff)
	}
	if got := f.store.RecoverableSpend(); got.String() != "81.88" {
		t.Errorf("RecoverableSpend = %s, want 81.88", got)
	}

	recorded, _ := f.recorder.ListRuns(context.Background(), runs.RunFilter{})
	if len(recorded) != 1 || recorded[0].Status != runs.RunStatusSucceeded || recorded[0].TransactionCount != 14 {
		t.Errorf("recorded runs = %+v", recorded)
	}
	if out, ok := f.recorder.ModelOutput(res.RunID); !ok || out.RawText == "" {
		t.Error("raw model output not recorded")
	}
}

func TestRunner_FailuresKeepPreviousAnalyses(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		replyErr error
		wantKind string
		wantRaw  bool
	}{
		{name: "transport", replyErr: ErrTransport, wantKind: "transport"},
		{name: "empty array", reply: "[]", wantKind: "empty_result", wantRaw: true},
		{name: "unparseable", reply: "not json", wantKind: "schema_violation", wantRaw: true},
		{name: "missing field", reply: `[{"name":"Netflix"}]`, wantKind: "schema_violation", wantRaw: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &mockModel{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
				return tt.reply, tt.replyErr
			}}
			f := newFixture(model, RunnerConfig{})
			before := f.store.Snapshot()

			res, err := f.runner.Run(context.Background())
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if res.Replaced || res.ErrorKind != tt.wantKind {
				t.Errorf("result = %+v, want kind %q", res, tt.wantKind)
			}

			after := f.store.Snapshot()
			if after.Version != before.Version {
				t.Errorf("version changed %d -> %d", before.Version, after.Version)
			}
			if diff := cmp.Diff(Bootstrap(), after.Analyses, decimalComparer); diff != "" {
				t.Errorf("analyses changed (-want +got):\n%s", diff)
			}
			if got := f.store.RecoverableSpend(); got.String() != "369.64" {
				t.Errorf("RecoverableSpend = %s, want 369.64", got)
			}

			recorded, _ := f.recorder.ListRuns(context.Background(), runs.RunFilter{Status: runs.RunStatusFailed})
			if len(recorded) != 1 || recorded[0].ErrorKind != tt.wantKind {
				t.Errorf("failed runs = %+v", recorded)
			}
			if _, ok := f.recorder.ModelOutput(res.RunID); ok != tt.wantRaw {
				t.Errorf("model output recorded = %v, want %v", ok, tt.wantRaw)
			}
		})
	}
}

func TestRunner_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls int
	var mu sync.Mutex
	model := &mockModel{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		return respond(t, Bootstrap()[:2]), nil
	}}
	f := newFixture(model, RunnerConfig{})

	runID, err := f.runner.Start(context.Background())
	if err != nil || runID == "" {
		t.Fatalf("Start: %q, %v", runID, err)
	}
	<-entered

	if !f.runner.InFlight() {
		t.Error("InFlight() = false during a run")
	}
	if _, err := f.runner.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Run during run: err = %v, want ErrRunInProgress", err)
	}
	if _, err := f.runner.Start(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Start during run: err = %v, want ErrRunInProgress", err)
	}
	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for f.runner.InFlight() {
		if time.Now().After(deadline) {
			t.Fatal("run did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("model called %d times, want 1", calls)
	}
	if len(f.store.Analyses()) != 2 {
		t.Errorf("analyses = %d, want 2", len(f.store.Analyses()))
	}
}

func TestRunner_CallerCancellationDoesNotAbort(t *testing.T) {
	model := &mockModel{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return respond(t, Bootstrap()[2:]), nil
	}}
	f := newFixture(model, RunnerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Replaced {
		t.Errorf("cancelled caller aborted the run: %+v", res)
	}
}

func TestRunner_Timeout(t *testing.T) {
	model := &mockModel{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", errors.Join(ErrTransport, ctx.Err())
	}}
	f := newFixture(model, RunnerConfig{Timeout: 10 * time.Millisecond})

	res, err := f.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Replaced || res.ErrorKind != "transport" {
		t.Errorf("result = %+v", res)
	}
}

// ctxRecorder records whether the recorder was handed a live context.
type ctxRecorder struct {
	*inmemory.Store
	mu      sync.Mutex
	ctxErrs map[string]error
}

func (r *ctxRecorder) note(op string, ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctxErrs[op] = ctx.Err()
}

func (r *ctxRecorder) MarkRunFailed(ctx context.Context, runID, errorKind string, runErr error) {
	r.note("MarkRunFailed", ctx)
	r.Store.MarkRunFailed(ctx, runID, errorKind, runErr)
}

func (r *ctxRecorder) InsertModelOutput(ctx context.Context, out *runs.ModelOutput) error {
	r.note("InsertModelOutput", ctx)
	return r.Store.InsertModelOutput(ctx, out)
}

func TestRunner_TimeoutLeavesRecorderContextLive(t *testing.T) {
	log := zerolog.New(io.Discard)
	st := state.New(Bootstrap(), AggregateRecoverableSpend)
	rec := &ctxRecorder{Store: inmemory.NewStore(), ctxErrs: map[string]error{}}
	model := &mockModel{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "not json", nil
	}}
	r := NewRunner(NewGenerator(model, log), source.SampleTransactions(), st, rec, RunnerConfig{Timeout: 10 * time.Millisecond}, log)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Replaced || res.ErrorKind != "schema_violation" {
		t.Errorf("result = %+v", res)
	}

	for _, op := range []string{"InsertModelOutput", "MarkRunFailed"} {
		ctxErr, called := rec.ctxErrs[op]
		if !called {
			t.Errorf("%s not called", op)
			continue
		}
		if ctxErr != nil {
			t.Errorf("%s got a done context: %v", op, ctxErr)
		}
	}

	got, _ := rec.ListRuns(context.Background(), runs.RunFilter{})
	if len(got) != 1 || got[0].Status != runs.RunStatusFailed {
		t.Errorf("runs = %+v, want one FAILED run", got)
	}
}

func TestRunner_RecorderFailuresDoNotAffectOutcome(t *testing.T) {
	log := zerolog.New(io.Discard)
	st := state.New(Bootstrap(), AggregateRecoverableSpend)
	rec := &mockRecorder{}
	model := &mockModel{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		return respond(t, Bootstrap()[:1]), nil
	}}
	r := NewRunner(NewGenerator(model, log), domain.NewTransactionStore(nil), st, rec, RunnerConfig{}, log)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Replaced || st.Version() != 2 {
		t.Errorf("result = %+v, version = %d", res, st.Version())
	}
	if len(rec.failed) != 0 {
		t.Errorf("run marked failed: %v", rec.failed)
	}
}
