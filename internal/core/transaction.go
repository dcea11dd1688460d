package core

import (
	"strings"

	"clientcore/pkg/domain"
)

// transaction applies one mutation to a privately owned copy of the loaded
// collection. Preconditions are checked before anything is modified, so a
// rejected call leaves the copy untouched.
type transaction struct {
	collection domain.Collection
	policy     domain.Policy
	ids        domain.IDGenerator
	changes    []domain.Change
}

func newTransaction(collection domain.Collection, policy domain.Policy, ids domain.IDGenerator) *transaction {
	return &transaction{
		collection: collection.Clone(),
		policy:     policy,
		ids:        ids,
	}
}

func (tx *transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) findClient(id string) (int, error) {
	idx := tx.collection.IndexOf(id)
	if idx < 0 {
		return -1, domain.NotFound(domain.EntityClient, id)
	}
	return idx, nil
}

func (tx *transaction) createClient(in domain.CreateClientInput) (domain.Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Client{}, domain.Reject(domain.KindMissingField, domain.EntityClient, "", "client name is required")
	}
	if tx.policy.RequiresRut() {
		if in.RutAccount == nil {
			return domain.Client{}, domain.Reject(domain.KindInvalidState, domain.EntityClient, "", "client %s must be created with a RUT account", name)
		}
	} else if in.RutAccount == nil && len(in.SavingAccounts) == 0 {
		return domain.Client{}, domain.Reject(domain.KindInvalidState, domain.EntityClient, "", "client %s must have at least one account: RUT or savings", name)
	}

	client := domain.Client{
		ID:             tx.ids.NewID(domain.EntityClient),
		Name:           name,
		SavingAccounts: make([]domain.SavingAccount, 0, len(in.SavingAccounts)),
	}
	if in.RutAccount != nil {
		client.RutAccount = &domain.RutAccount{
			ID:      tx.ids.NewID(domain.EntityRutAccount),
			Number:  in.RutAccount.Number,
			Balance: in.RutAccount.Balance,
		}
	}
	for _, acc := range in.SavingAccounts {
		client.SavingAccounts = append(client.SavingAccounts, domain.SavingAccount{
			ID:      tx.ids.NewID(domain.EntitySavingAccount),
			Number:  acc.Number,
			Balance: acc.Balance,
		})
	}
	tx.collection.Clients = append(tx.collection.Clients, client)
	tx.recordChange(domain.Change{Entity: domain.EntityClient, Action: domain.ActionCreate, ClientID: client.ID, After: client.Clone()})
	return client.Clone(), nil
}

func (tx *transaction) attachRut(clientID string, in domain.AccountInput) (domain.Client, error) {
	idx, err := tx.findClient(clientID)
	if err != nil {
		return domain.Client{}, err
	}
	client := &tx.collection.Clients[idx]
	if client.RutAccount != nil {
		return domain.Client{}, domain.Reject(domain.KindConflict, domain.EntityRutAccount, client.RutAccount.ID, "client %s already has a RUT account", clientID)
	}
	rut := domain.RutAccount{ID: tx.ids.NewID(domain.EntityRutAccount), Number: in.Number, Balance: in.Balance}
	client.RutAccount = &rut
	tx.recordChange(domain.Change{Entity: domain.EntityRutAccount, Action: domain.ActionCreate, ClientID: clientID, After: rut})
	return client.Clone(), nil
}

func (tx *transaction) attachSaving(clientID string, in domain.AccountInput) (domain.Client, error) {
	idx, err := tx.findClient(clientID)
	if err != nil {
		return domain.Client{}, err
	}
	client := &tx.collection.Clients[idx]
	if tx.policy.SavingsRequireRut() && client.RutAccount == nil {
		return domain.Client{}, domain.Reject(domain.KindInvalidState, domain.EntityClient, clientID, "client %s needs a RUT account before opening savings accounts", clientID)
	}
	acc := domain.SavingAccount{ID: tx.ids.NewID(domain.EntitySavingAccount), Number: in.Number, Balance: in.Balance}
	client.SavingAccounts = append(client.SavingAccounts, acc)
	tx.recordChange(domain.Change{Entity: domain.EntitySavingAccount, Action: domain.ActionCreate, ClientID: clientID, After: acc})
	return client.Clone(), nil
}

func (tx *transaction) deleteClient(clientID string) (domain.Client, error) {
	idx, err := tx.findClient(clientID)
	if err != nil {
		return domain.Client{}, err
	}
	removed := tx.collection.Clients[idx]
	tx.collection.Clients = append(tx.collection.Clients[:idx], tx.collection.Clients[idx+1:]...)
	tx.recordChange(domain.Change{Entity: domain.EntityClient, Action: domain.ActionDelete, ClientID: clientID, Before: removed.Clone()})
	return removed.Clone(), nil
}

func (tx *transaction) detachRut(clientID string) (domain.Client, error) {
	idx, err := tx.findClient(clientID)
	if err != nil {
		return domain.Client{}, err
	}
	if !tx.policy.AllowsRutDetach() {
		return domain.Client{}, domain.Reject(domain.KindForbidden, domain.EntityRutAccount, clientID, "RUT accounts cannot be removed; delete client %s instead", clientID)
	}
	client := &tx.collection.Clients[idx]
	if client.RutAccount == nil {
		return domain.Client{}, domain.Reject(domain.KindInvalidState, domain.EntityRutAccount, clientID, "client %s has no RUT account", clientID)
	}
	if len(client.SavingAccounts) == 0 {
		return domain.Client{}, domain.Reject(domain.KindInvalidState, domain.EntityRutAccount, client.RutAccount.ID, "cannot remove the RUT account: client %s would be left without accounts", clientID)
	}
	before := *client.RutAccount
	client.RutAccount = nil
	tx.recordChange(domain.Change{Entity: domain.EntityRutAccount, Action: domain.ActionDelete, ClientID: clientID, Before: before})
	return client.Clone(), nil
}

func (tx *transaction) detachSaving(clientID, savingID string) (domain.SavingAccount, domain.Client, error) {
	idx, err := tx.findClient(clientID)
	if err != nil {
		return domain.SavingAccount{}, domain.Client{}, err
	}
	client := &tx.collection.Clients[idx]
	pos := client.FindSaving(savingID)
	if pos < 0 {
		return domain.SavingAccount{}, domain.Client{}, domain.NotFound(domain.EntitySavingAccount, savingID)
	}
	// Holds under rut_mandatory too; stored data may predate the policy.
	if len(client.SavingAccounts) == 1 && client.RutAccount == nil {
		return domain.SavingAccount{}, domain.Client{}, domain.Reject(domain.KindInvalidState, domain.EntitySavingAccount, savingID, "cannot remove the last savings account: client %s would be left without accounts", clientID)
	}
	removed := client.SavingAccounts[pos]
	client.SavingAccounts = append(client.SavingAccounts[:pos], client.SavingAccounts[pos+1:]...)
	tx.recordChange(domain.Change{Entity: domain.EntitySavingAccount, Action: domain.ActionDelete, ClientID: clientID, Before: removed})
	return removed, client.Clone(), nil
}

// collectionView implements domain.RuleView over a collection.
type collectionView struct {
	collection domain.Collection
	policy     domain.Policy
}

func newCollectionView(collection domain.Collection, policy domain.Policy) domain.RuleView {
	return collectionView{collection: collection, policy: policy}
}

// ListClients returns clones of every client in collection order.
func (v collectionView) ListClients() []domain.Client {
	return v.collection.Clone().Clients
}

// FindClient retrieves a client by id.
func (v collectionView) FindClient(id string) (domain.Client, bool) {
	idx := v.collection.IndexOf(id)
	if idx < 0 {
		return domain.Client{}, false
	}
	return v.collection.Clients[idx].Clone(), true
}

// Policy reports the policy the view is evaluated under.
func (v collectionView) Policy() domain.Policy { return v.policy }
