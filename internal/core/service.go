package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clientcore/internal/idgen"
	"clientcore/internal/infra/persistence/memory"
	"clientcore/pkg/domain"
)

// Service runs the client registry operations against a snapshot store.
// Mutations are serialized: each one loads the collection, validates and
// applies the change on a private copy, re-checks the policy invariants,
// and saves before returning. Reads load a fresh snapshot without locking.
type Service struct {
	mu      sync.Mutex
	store   domain.SnapshotStore
	engine  *RulesEngine
	policy  domain.Policy
	ids     domain.IDGenerator
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// Option customizes a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	policy  domain.Policy
	engine  *RulesEngine
	ids     domain.IDGenerator
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		policy:  domain.DefaultPolicy,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
}

// WithPolicy selects the account-integrity rule set.
func WithPolicy(policy domain.Policy) Option {
	return func(o *serviceOptions) {
		if policy.Valid() {
			o.policy = policy
		}
	}
}

// WithRulesEngine replaces the policy's default invariant rules.
func WithRulesEngine(engine *RulesEngine) Option {
	return func(o *serviceOptions) { o.engine = engine }
}

// WithIDGenerator injects the identifier source.
func WithIDGenerator(ids domain.IDGenerator) Option {
	return func(o *serviceOptions) {
		if ids != nil {
			o.ids = ids
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRecorder sets the recorder receiving per-operation observations.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if rec != nil {
			o.metrics = rec
		}
	}
}

// WithTracer sets the tracer wrapping each operation.
func WithTracer(tracer Tracer) Option {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// NewService constructs a service backed by the supplied snapshot store.
func NewService(store domain.SnapshotStore, opts ...Option) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = NewDefaultRulesEngine(o.policy)
	}
	if o.ids == nil {
		o.ids = idgen.NewUUID()
	}
	return &Service{
		store:   store,
		engine:  o.engine,
		policy:  o.policy,
		ids:     o.ids,
		logger:  o.logger,
		metrics: o.metrics,
		tracer:  o.tracer,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(opts ...Option) *Service {
	return NewService(memory.NewStore(), opts...)
}

// Store returns the underlying snapshot store.
func (s *Service) Store() domain.SnapshotStore { return s.store }

// Policy returns the active rule set.
func (s *Service) Policy() domain.Policy { return s.policy }

// ListClients returns every client in collection order.
func (s *Service) ListClients(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	err := s.run(ctx, "list_clients", func(ctx context.Context) error {
		coll, err := s.load(ctx)
		if err != nil {
			return err
		}
		out = coll.Clients
		return nil
	})
	return nonNil(out), err
}

// ListClientsWithRut returns the clients currently holding a RUT account.
func (s *Service) ListClientsWithRut(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	err := s.run(ctx, "list_clients_with_rut", func(ctx context.Context) error {
		coll, err := s.load(ctx)
		if err != nil {
			return err
		}
		for _, client := range coll.Clients {
			if client.HasRut() {
				out = append(out, client)
			}
		}
		return nil
	})
	return nonNil(out), err
}

// CreateClient registers a client together with its initial accounts.
func (s *Service) CreateClient(ctx context.Context, in domain.CreateClientInput) (domain.Client, Result, error) {
	var created domain.Client
	res, err := s.mutate(ctx, "create_client", func(tx *transaction) error {
		var err error
		created, err = tx.createClient(in)
		return err
	})
	return created, res, err
}

// AttachRut opens the RUT account of an existing client.
func (s *Service) AttachRut(ctx context.Context, clientID string, in domain.AccountInput) (domain.Client, Result, error) {
	var updated domain.Client
	res, err := s.mutate(ctx, "attach_rut", func(tx *transaction) error {
		var err error
		updated, err = tx.attachRut(clientID, in)
		return err
	})
	return updated, res, err
}

// AttachSaving appends a savings account to an existing client.
func (s *Service) AttachSaving(ctx context.Context, clientID string, in domain.AccountInput) (domain.Client, Result, error) {
	var updated domain.Client
	res, err := s.mutate(ctx, "attach_saving", func(tx *transaction) error {
		var err error
		updated, err = tx.attachSaving(clientID, in)
		return err
	})
	return updated, res, err
}

// DeleteClient removes a client and every account it owns.
func (s *Service) DeleteClient(ctx context.Context, clientID string) (domain.Client, Result, error) {
	var removed domain.Client
	res, err := s.mutate(ctx, "delete_client", func(tx *transaction) error {
		var err error
		removed, err = tx.deleteClient(clientID)
		return err
	})
	return removed, res, err
}

// DetachRut removes a client's RUT account when the policy allows it.
func (s *Service) DetachRut(ctx context.Context, clientID string) (domain.Client, Result, error) {
	var updated domain.Client
	res, err := s.mutate(ctx, "detach_rut", func(tx *transaction) error {
		var err error
		updated, err = tx.detachRut(clientID)
		return err
	})
	return updated, res, err
}

// DetachSaving removes one savings account, keeping the order of the rest.
func (s *Service) DetachSaving(ctx context.Context, clientID, savingID string) (domain.SavingAccount, domain.Client, Result, error) {
	var (
		removed domain.SavingAccount
		updated domain.Client
	)
	res, err := s.mutate(ctx, "detach_saving", func(tx *transaction) error {
		var err error
		removed, updated, err = tx.detachSaving(clientID, savingID)
		return err
	})
	return removed, updated, res, err
}

// Audit evaluates every invariant of the active policy against the whole
// stored collection without modifying it.
func (s *Service) Audit(ctx context.Context) (Result, error) {
	var result Result
	err := s.run(ctx, "audit", func(ctx context.Context) error {
		coll, err := s.load(ctx)
		if err != nil {
			return err
		}
		result, err = s.engine.Evaluate(ctx, newCollectionView(coll, s.policy), nil)
		if err != nil {
			return fmt.Errorf("evaluate rules: %w", err)
		}
		return nil
	})
	return result, err
}

// Ping checks that the snapshot store can be read.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

func (s *Service) load(ctx context.Context) (domain.Collection, error) {
	coll, err := s.store.Load(ctx)
	if err != nil {
		return domain.Collection{}, domain.StoreError{Op: "load", Err: err}
	}
	return coll, nil
}

func (s *Service) mutate(ctx context.Context, operation string, fn func(tx *transaction) error) (Result, error) {
	var result Result
	err := s.run(ctx, operation, func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		coll, err := s.load(ctx)
		if err != nil {
			return err
		}
		tx := newTransaction(coll, s.policy, s.ids)
		if err := fn(tx); err != nil {
			return err
		}

		res, err := s.engine.Evaluate(ctx, newCollectionView(tx.collection, s.policy), tx.changes)
		if err != nil {
			return fmt.Errorf("evaluate rules: %w", err)
		}
		result = res
		if v, blocked := res.FirstBlocking(); blocked {
			return domain.Rejection{
				Kind:     domain.KindInvalidState,
				Entity:   v.Entity,
				EntityID: v.EntityID,
				Message:  v.Message,
				Cause:    domain.RuleViolationError{Result: res},
			}
		}
		for _, v := range res.Violations {
			kv := []any{"operation", operation, "rule", v.Rule, "severity", string(v.Severity), "message", v.Message}
			if v.Severity == domain.SeverityLog {
				s.logger.Info("rule violation", kv...)
				continue
			}
			s.logger.Warn("rule violation", kv...)
		}

		if err := s.store.Save(ctx, tx.collection); err != nil {
			return domain.StoreError{Op: "save", Err: err}
		}
		return nil
	})
	return result, err
}

func (s *Service) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	err := fn(ctx)
	span.End(err)
	elapsed := time.Since(start)
	outcome := ClassifyOutcome(err)
	s.metrics.Observe(ctx, operation, outcome, elapsed)

	switch outcome {
	case OutcomeSuccess:
		s.logger.Debug("operation completed", "operation", operation, "duration", elapsed)
	case OutcomeRejected:
		var rej domain.Rejection
		errors.As(err, &rej)
		s.logger.Info("operation rejected", "operation", operation, "kind", string(rej.Kind), "error", err)
	default:
		s.logger.Error("operation failed", "operation", operation, "duration", elapsed, "error", err)
	}
	return err
}

func nonNil(clients []domain.Client) []domain.Client {
	if clients == nil {
		return []domain.Client{}
	}
	return clients
}
