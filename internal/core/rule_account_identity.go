package core

import (
	"context"
	"fmt"

	"clientcore/pkg/domain"
)

// NewAccountIdentityRule returns the rule requiring every account of a
// client to carry a non-empty identifier that no other account of the same
// client uses.
func NewAccountIdentityRule() domain.Rule {
	return accountIdentityRule{}
}

type accountIdentityRule struct{}

func (accountIdentityRule) Name() string { return "account_identity" }

func (r accountIdentityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, client := range clientsUnderReview(view, changes) {
		seen := make(map[string]bool, client.AccountCount())
		if client.RutAccount != nil {
			if client.RutAccount.ID == "" {
				res.Violations = append(res.Violations, r.violation(domain.EntityRutAccount, client.ID, fmt.Sprintf("client %s has a RUT account without identifier", client.ID)))
			}
			seen[client.RutAccount.ID] = true
		}
		for _, acc := range client.SavingAccounts {
			if acc.ID == "" {
				res.Violations = append(res.Violations, r.violation(domain.EntitySavingAccount, client.ID, fmt.Sprintf("client %s has a savings account without identifier", client.ID)))
				continue
			}
			if seen[acc.ID] {
				res.Violations = append(res.Violations, r.violation(domain.EntitySavingAccount, acc.ID, fmt.Sprintf("account identifier %s is used twice by client %s", acc.ID, client.ID)))
			}
			seen[acc.ID] = true
		}
	}
	return res, nil
}

func (r accountIdentityRule) violation(entity domain.EntityType, id, msg string) domain.Violation {
	return domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   entity,
		EntityID: id,
	}
}
