package core

import (
	"context"
	"fmt"

	"clientcore/pkg/domain"
)

// NewRutRequiredRule returns the rut_mandatory invariant: every client holds
// a RUT account. Savings accounts on a client without one are reported
// separately so audits can tell the two situations apart.
func NewRutRequiredRule() domain.Rule {
	return rutRequiredRule{}
}

type rutRequiredRule struct{}

func (rutRequiredRule) Name() string { return "rut_required" }

func (rutRequiredRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, client := range clientsUnderReview(view, changes) {
		if client.HasRut() {
			continue
		}
		msg := fmt.Sprintf("client %s (%s) has no RUT account", client.Name, client.ID)
		if n := len(client.SavingAccounts); n > 0 {
			msg = fmt.Sprintf("client %s (%s) holds %d savings accounts without a RUT account", client.Name, client.ID, n)
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "rut_required",
			Severity: domain.SeverityBlock,
			Message:  msg,
			Entity:   domain.EntityClient,
			EntityID: client.ID,
		})
	}
	return res, nil
}
