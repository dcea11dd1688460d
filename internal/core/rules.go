package core

import "clientcore/pkg/domain"

type (
	// Rule aliases domain.Rule.
	Rule = domain.Rule
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Result aliases domain.Result.
	Result = domain.Result
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the invariant set of the given policy.
func NewDefaultRulesEngine(policy domain.Policy) *RulesEngine {
	engine := domain.NewRulesEngine()
	for _, rule := range defaultRules(policy) {
		engine.Register(rule)
	}
	return engine
}

func defaultRules(policy domain.Policy) []Rule {
	rules := []Rule{
		NewClientIdentityRule(),
		NewAccountIdentityRule(),
	}
	if policy.RequiresRut() {
		rules = append(rules, NewRutRequiredRule())
	} else {
		rules = append(rules, NewAccountPresenceRule())
	}
	return rules
}

// clientsUnderReview resolves the clients a rule must inspect: the clients
// touched by the change set, or every client when the change set is empty.
func clientsUnderReview(view domain.RuleView, changes []domain.Change) []domain.Client {
	ids := domain.TouchedClients(changes)
	if ids == nil {
		return view.ListClients()
	}
	out := make([]domain.Client, 0, len(ids))
	for _, id := range ids {
		if client, ok := view.FindClient(id); ok {
			out = append(out, client)
		}
	}
	return out
}
