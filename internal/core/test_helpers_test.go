package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clientcore/internal/idgen"
	"clientcore/internal/infra/persistence/memory"
	"clientcore/pkg/domain"
)

func newSeqIDs() domain.IDGenerator { return idgen.NewSequence(0) }

func newTestService(t *testing.T, policy domain.Policy, opts ...Option) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	opts = append([]Option{WithPolicy(policy), WithIDGenerator(newSeqIDs())}, opts...)
	return NewService(store, opts...), store
}

func rut(number string, balance float64) *domain.AccountInput {
	return &domain.AccountInput{Number: number, Balance: balance}
}

func mustCreate(t *testing.T, svc *Service, in domain.CreateClientInput) domain.Client {
	t.Helper()
	client, _, err := svc.CreateClient(context.Background(), in)
	if err != nil {
		t.Fatalf("create %q: %v", in.Name, err)
	}
	return client
}

func expectKind(t *testing.T, err error, kind domain.RejectionKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s rejection, got success", kind)
	}
	rej, ok := domain.AsRejection(err)
	if !ok {
		t.Fatalf("expected rejection, got %T: %v", err, err)
	}
	if rej.Kind != kind {
		t.Fatalf("expected %s, got %s (%s)", kind, rej.Kind, rej.Message)
	}
	if rej.Message == "" {
		t.Fatalf("rejection must carry a displayable message")
	}
}

// flakyStore wraps a memory store and fails loads or saves on demand.
type flakyStore struct {
	inner    *memory.Store
	mu       sync.Mutex
	loadErr  error
	saveErr  error
	attempts int
}

func newFlakyStore() *flakyStore { return &flakyStore{inner: memory.NewStore()} }

func (f *flakyStore) Load(ctx context.Context) (domain.Collection, error) {
	f.mu.Lock()
	err := f.loadErr
	f.mu.Unlock()
	if err != nil {
		return domain.Collection{}, err
	}
	return f.inner.Load(ctx)
}

func (f *flakyStore) Save(ctx context.Context, coll domain.Collection) error {
	f.mu.Lock()
	f.attempts++
	err := f.saveErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.inner.Save(ctx, coll)
}

func (f *flakyStore) failSaves(err error) {
	f.mu.Lock()
	f.saveErr = err
	f.mu.Unlock()
}

func (f *flakyStore) failLoads(err error) {
	f.mu.Lock()
	f.loadErr = err
	f.mu.Unlock()
}

var errDiskFull = errors.New("disk full")

type logEntry struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}
