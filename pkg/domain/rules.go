package domain

import "context"

// RuleView provides read-only access to the post-mutation collection for rule evaluation.
type RuleView interface {
	ListClients() []Client
	FindClient(id string) (Client, bool)
	Policy() Policy
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rules in evaluation order.
func (e *RulesEngine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// TouchedClients returns the ids of clients that still exist after the
// change set, in first-touched order. With no changes it returns nil, which
// rules treat as "every client".
func TouchedClients(changes []Change) []string {
	if len(changes) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(changes))
	deleted := make(map[string]bool)
	var out []string
	for _, ch := range changes {
		if ch.ClientID == "" {
			continue
		}
		if ch.Entity == EntityClient && ch.Action == ActionDelete {
			deleted[ch.ClientID] = true
			continue
		}
		if !seen[ch.ClientID] {
			seen[ch.ClientID] = true
			out = append(out, ch.ClientID)
		}
	}
	filtered := out[:0]
	for _, id := range out {
		if !deleted[id] {
			filtered = append(filtered, id)
		}
	}
	if filtered == nil {
		return []string{}
	}
	return filtered
}
