package core

import (
	"context"
	"fmt"

	"clientcore/pkg/domain"
)

// NewAccountPresenceRule returns the flexible-policy invariant: every client
// holds at least one account, RUT or savings.
func NewAccountPresenceRule() domain.Rule {
	return accountPresenceRule{}
}

type accountPresenceRule struct{}

func (accountPresenceRule) Name() string { return "account_presence" }

func (accountPresenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, client := range clientsUnderReview(view, changes) {
		if client.AccountCount() > 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "account_presence",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("client %s (%s) would be left without accounts", client.Name, client.ID),
			Entity:   domain.EntityClient,
			EntityID: client.ID,
		})
	}
	return res, nil
}
