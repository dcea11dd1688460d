package core

import (
	"context"
	"fmt"
	"strings"

	"clientcore/pkg/domain"
)

// NewClientIdentityRule returns the rule keeping client identifiers unique
// and every client named.
func NewClientIdentityRule() domain.Rule {
	return clientIdentityRule{}
}

type clientIdentityRule struct{}

func (clientIdentityRule) Name() string { return "client_identity" }

func (r clientIdentityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	counts := make(map[string]int)
	for _, client := range view.ListClients() {
		counts[client.ID]++
	}

	res := domain.Result{}
	for _, client := range clientsUnderReview(view, changes) {
		switch {
		case client.ID == "":
			res.Violations = append(res.Violations, r.violation(client, fmt.Sprintf("client %q has an empty identifier", client.Name)))
		case counts[client.ID] > 1:
			res.Violations = append(res.Violations, r.violation(client, fmt.Sprintf("client identifier %s is used by %d clients", client.ID, counts[client.ID])))
		}
		if strings.TrimSpace(client.Name) == "" {
			res.Violations = append(res.Violations, r.violation(client, fmt.Sprintf("client %s has an empty name", client.ID)))
		}
	}
	return res, nil
}

func (r clientIdentityRule) violation(client domain.Client, msg string) domain.Violation {
	return domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   domain.EntityClient,
		EntityID: client.ID,
	}
}
