package core

import (
	"context"
	"fmt"
	"testing"

	"clientcore/pkg/domain"
)

func TestScenarioAnaFlexiblePolicy(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, domain.PolicyFlexible)

	ana, res, err := svc.CreateClient(ctx, domain.CreateClientInput{Name: "Ana", RutAccount: rut("1-9", 1000)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.HasBlocking() {
		t.Fatalf("unexpected blocking result %+v", res)
	}
	if ana.RutAccount == nil || ana.RutAccount.Number != "1-9" || ana.RutAccount.Balance != 1000 || len(ana.SavingAccounts) != 0 {
		t.Fatalf("unexpected client %+v", ana)
	}

	updated, _, err := svc.AttachSaving(ctx, ana.ID, domain.AccountInput{Number: "S-1", Balance: 500})
	if err != nil {
		t.Fatalf("attach saving: %v", err)
	}
	if len(updated.SavingAccounts) != 1 || updated.SavingAccounts[0].Number != "S-1" || updated.SavingAccounts[0].Balance != 500 {
		t.Fatalf("unexpected savings %+v", updated.SavingAccounts)
	}
	savingID := updated.SavingAccounts[0].ID

	removed, after, _, err := svc.DetachSaving(ctx, ana.ID, savingID)
	if err != nil {
		t.Fatalf("detach saving: %v", err)
	}
	if removed.ID != savingID || len(after.SavingAccounts) != 0 || after.RutAccount == nil {
		t.Fatalf("unexpected detach result %+v %+v", removed, after)
	}

	_, _, err = svc.DetachRut(ctx, ana.ID)
	expectKind(t, err, domain.KindInvalidState)

	clients, err := svc.ListClients(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(clients) != 1 || clients[0].RutAccount == nil {
		t.Fatalf("rejected detach must not change the store: %+v", clients)
	}
}

func TestScenarioBeaWithoutAccounts(t *testing.T) {
	for _, policy := range []domain.Policy{domain.PolicyFlexible, domain.PolicyRutMandatory} {
		t.Run(string(policy), func(t *testing.T) {
			svc, store := newTestService(t, policy)
			_, _, err := svc.CreateClient(context.Background(), domain.CreateClientInput{Name: "Bea"})
			expectKind(t, err, domain.KindInvalidState)
			if store.Saves() != 0 {
				t.Fatalf("rejected create must not save")
			}
		})
	}
}

func TestCreateClientRequiresName(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyFlexible)
	for _, name := range []string{"", "   ", "\t"} {
		_, _, err := svc.CreateClient(context.Background(), domain.CreateClientInput{Name: name, RutAccount: rut("1", 0)})
		expectKind(t, err, domain.KindMissingField)
	}
}

func TestCreateClientTrimsNameAndAssignsIdentifiers(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyFlexible)
	client := mustCreate(t, svc, domain.CreateClientInput{
		Name:           "  Carla ",
		RutAccount:     rut("R-1", 10),
		SavingAccounts: []domain.AccountInput{{Number: "S-1", Balance: 1}, {Number: "S-2"}},
	})
	if client.Name != "Carla" {
		t.Fatalf("expected trimmed name, got %q", client.Name)
	}
	if client.ID != "c_1" || client.RutAccount.ID != "r_2" || client.SavingAccounts[0].ID != "s_3" || client.SavingAccounts[1].ID != "s_4" {
		t.Fatalf("unexpected identifiers %+v", client)
	}
	if client.SavingAccounts[1].Balance != 0 {
		t.Fatalf("omitted balance must default to zero")
	}
}

func TestCreateClientSavingsOnlyUnderFlexiblePolicy(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyFlexible)
	client := mustCreate(t, svc, domain.CreateClientInput{Name: "Dora", SavingAccounts: []domain.AccountInput{{Number: "S-1"}}})
	if client.HasRut() || len(client.SavingAccounts) != 1 {
		t.Fatalf("unexpected client %+v", client)
	}
}

func TestCreatedIdentifiersAreUnique(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		client := mustCreate(t, svc, domain.CreateClientInput{Name: fmt.Sprintf("client-%d", i), RutAccount: rut("1", 0), SavingAccounts: []domain.AccountInput{{}}})
		for _, id := range []string{client.ID, client.RutAccount.ID, client.SavingAccounts[0].ID} {
			if seen[id] {
				t.Fatalf("identifier %s issued twice", id)
			}
			seen[id] = true
		}
	}
	clients, _ := svc.ListClients(ctx)
	if len(clients) != 50 {
		t.Fatalf("expected 50 clients, got %d", len(clients))
	}
}

func TestIdentifiersAreNotReusedAfterDelete(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyFlexible)
	first := mustCreate(t, svc, domain.CreateClientInput{Name: "A", RutAccount: rut("1", 0)})
	if _, _, err := svc.DeleteClient(context.Background(), first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	second := mustCreate(t, svc, domain.CreateClientInput{Name: "B", RutAccount: rut("1", 0)})
	if second.ID == first.ID || second.RutAccount.ID == first.RutAccount.ID {
		t.Fatalf("identifier reused: %s / %s", first.ID, second.ID)
	}
}

func TestListClientsKeepsInsertionOrderAndFiltersRut(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, domain.PolicyFlexible)
	empty, err := svc.ListClients(ctx)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v %v", empty, err)
	}
	a := mustCreate(t, svc, domain.CreateClientInput{Name: "A", RutAccount: rut("1", 0)})
	b := mustCreate(t, svc, domain.CreateClientInput{Name: "B", SavingAccounts: []domain.AccountInput{{}}})
	c := mustCreate(t, svc, domain.CreateClientInput{Name: "C", RutAccount: rut("2", 0)})

	all, err := svc.ListClients(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != a.ID || all[1].ID != b.ID || all[2].ID != c.ID {
		t.Fatalf("unexpected order %+v", all)
	}
	withRut, err := svc.ListClientsWithRut(ctx)
	if err != nil {
		t.Fatalf("list rut: %v", err)
	}
	if len(withRut) != 2 || withRut[0].ID != a.ID || withRut[1].ID != c.ID {
		t.Fatalf("unexpected rut filter %+v", withRut)
	}
}

func TestAttachRutConflictKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	for _, policy := range []domain.Policy{domain.PolicyFlexible, domain.PolicyRutMandatory} {
		t.Run(string(policy), func(t *testing.T) {
			svc, _ := newTestService(t, policy)
			client := mustCreate(t, svc, domain.CreateClientInput{Name: "Ana", RutAccount: rut("1-9", 1000)})
			_, _, err := svc.AttachRut(ctx, client.ID, domain.AccountInput{Number: "2-7", Balance: 5})
			expectKind(t, err, domain.KindConflict)

			withRut, _ := svc.ListClientsWithRut(ctx)
			if len(withRut) != 1 {
				t.Fatalf("expected client listed once, got %d", len(withRut))
			}
			if *withRut[0].RutAccount != *client.RutAccount {
				t.Fatalf("original RUT account changed: %+v", withRut[0].RutAccount)
			}
		})
	}
}

func TestAttachRutToSavingsOnlyClient(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyFlexible)
	client := mustCreate(t, svc, domain.CreateClientInput{Name: "Eva", SavingAccounts: []domain.AccountInput{{Number: "S"}}})
	updated, _, err := svc.AttachRut(context.Background(), client.ID, domain.AccountInput{Number: "R", Balance: 3})
	if err != nil {
		t.Fatalf("attach rut: %v", err)
	}
	if !updated.HasRut() || updated.RutAccount.Balance != 3 {
		t.Fatalf("unexpected client %+v", updated)
	}
}

func TestAttachSavingAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, domain.PolicyFlexible)
	client := mustCreate(t, svc, domain.CreateClientInput{Name: "Ana", RutAccount: rut("1", 0)})
	for _, n := range []string{"S-1", "S-2", "S-3"} {
		if _, _, err := svc.AttachSaving(ctx, client.ID, domain.AccountInput{Number: n}); err != nil {
			t.Fatalf("attach %s: %v", n, err)
		}
	}
	clients, _ := svc.ListClients(ctx)
	got := clients[0].SavingAccounts
	if len(got) != 3 || got[0].Number != "S-1" || got[2].Number != "S-3" {
		t.Fatalf("unexpected savings order %+v", got)
	}

	removed, after, _, err := svc.DetachSaving(ctx, client.ID, got[1].ID)
	if err != nil {
		t.Fatalf("detach middle: %v", err)
	}
	if removed.Number != "S-2" || len(after.SavingAccounts) != 2 || after.SavingAccounts[0].Number != "S-1" || after.SavingAccounts[1].Number != "S-3" {
		t.Fatalf("order not preserved: %+v", after.SavingAccounts)
	}
}

func TestAccountNumbersNeedNotBeUnique(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyFlexible)
	client := mustCreate(t, svc, domain.CreateClientInput{Name: "Ana", RutAccount: rut("same", 0), SavingAccounts: []domain.AccountInput{{Number: "same"}}})
	if _, _, err := svc.AttachSaving(context.Background(), client.ID, domain.AccountInput{Number: "same"}); err != nil {
		t.Fatalf("duplicate numbers must be allowed: %v", err)
	}
}

func TestDeleteClientRemovesEverything(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, domain.PolicyFlexible)
	keep := mustCreate(t, svc, domain.CreateClientInput{Name: "Keep", RutAccount: rut("1", 0)})
	gone := mustCreate(t, svc, domain.CreateClientInput{Name: "Gone", RutAccount: rut("2", 0), SavingAccounts: []domain.AccountInput{{Number: "S"}}})

	removed, _, err := svc.DeleteClient(ctx, gone.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.ID != gone.ID || len(removed.SavingAccounts) != 1 {
		t.Fatalf("unexpected removed client %+v", removed)
	}
	clients, _ := svc.ListClients(ctx)
	if len(clients) != 1 || clients[0].ID != keep.ID {
		t.Fatalf("unexpected remaining clients %+v", clients)
	}
	_, _, _, err = svc.DetachSaving(ctx, gone.ID, gone.SavingAccounts[0].ID)
	expectKind(t, err, domain.KindNotFound)
	_, _, err = svc.AttachRut(ctx, gone.ID, domain.AccountInput{})
	expectKind(t, err, domain.KindNotFound)
	_, _, err = svc.DeleteClient(ctx, gone.ID)
	expectKind(t, err, domain.KindNotFound)
}

func TestUnknownClientIsNotFound(t *testing.T) {
	ctx := context.Background()
	for _, policy := range []domain.Policy{domain.PolicyFlexible, domain.PolicyRutMandatory} {
		svc, _ := newTestService(t, policy)
		_, _, err := svc.AttachRut(ctx, "c_missing", domain.AccountInput{})
		expectKind(t, err, domain.KindNotFound)
		_, _, err = svc.AttachSaving(ctx, "c_missing", domain.AccountInput{})
		expectKind(t, err, domain.KindNotFound)
		_, _, err = svc.DeleteClient(ctx, "c_missing")
		expectKind(t, err, domain.KindNotFound)
		_, _, err = svc.DetachRut(ctx, "c_missing")
		expectKind(t, err, domain.KindNotFound)
		_, _, _, err = svc.DetachSaving(ctx, "c_missing", "s_1")
		expectKind(t, err, domain.KindNotFound)
	}
}

func TestDetachSavingUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyFlexible)
	client := mustCreate(t, svc, domain.CreateClientInput{Name: "Ana", RutAccount: rut("1", 0)})
	_, _, _, err := svc.DetachSaving(context.Background(), client.ID, "s_404")
	expectKind(t, err, domain.KindNotFound)
	rej, _ := domain.AsRejection(err)
	if rej.Entity != domain.EntitySavingAccount || rej.EntityID != "s_404" {
		t.Fatalf("unexpected rejection target %+v", rej)
	}
}

func TestDetachRutFlexiblePolicy(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, domain.PolicyFlexible)

	bare := mustCreate(t, svc, domain.CreateClientInput{Name: "Bare", RutAccount: rut("1", 0)})
	_, _, err := svc.DetachRut(ctx, bare.ID)
	expectKind(t, err, domain.KindInvalidState)

	savingsOnly := mustCreate(t, svc, domain.CreateClientInput{Name: "Sav", SavingAccounts: []domain.AccountInput{{}}})
	_, _, err = svc.DetachRut(ctx, savingsOnly.ID)
	expectKind(t, err, domain.KindInvalidState)

	both := mustCreate(t, svc, domain.CreateClientInput{Name: "Both", RutAccount: rut("2", 0), SavingAccounts: []domain.AccountInput{{}, {}}})
	updated, _, err := svc.DetachRut(ctx, both.ID)
	if err != nil {
		t.Fatalf("detach rut: %v", err)
	}
	if updated.HasRut() || len(updated.SavingAccounts) != 2 {
		t.Fatalf("unexpected client %+v", updated)
	}
	withRut, _ := svc.ListClientsWithRut(ctx)
	for _, c := range withRut {
		if c.ID == both.ID {
			t.Fatalf("client still listed with RUT")
		}
	}
}

func TestDetachLastSavingWithoutRutIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, domain.PolicyFlexible)
	client := mustCreate(t, svc, domain.CreateClientInput{Name: "Sav", SavingAccounts: []domain.AccountInput{{Number: "only"}}})
	saves := store.Saves()
	_, _, _, err := svc.DetachSaving(ctx, client.ID, client.SavingAccounts[0].ID)
	expectKind(t, err, domain.KindInvalidState)
	if store.Saves() != saves {
		t.Fatalf("rejected detach must not save")
	}

	if _, _, err := svc.AttachSaving(ctx, client.ID, domain.AccountInput{Number: "second"}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, _, _, err := svc.DetachSaving(ctx, client.ID, client.SavingAccounts[0].ID); err != nil {
		t.Fatalf("detach with a remaining saving account: %v", err)
	}
}

func TestReturnedClientsAreDetachedFromStore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, domain.PolicyFlexible)
	client := mustCreate(t, svc, domain.CreateClientInput{Name: "Ana", RutAccount: rut("1", 10), SavingAccounts: []domain.AccountInput{{Number: "S"}}})
	client.RutAccount.Balance = -1
	client.SavingAccounts[0].Number = "changed"

	clients, _ := svc.ListClients(ctx)
	if clients[0].RutAccount.Balance != 10 || clients[0].SavingAccounts[0].Number != "S" {
		t.Fatalf("store state leaked through returned client: %+v", clients[0])
	}
}

func TestServiceAccessors(t *testing.T) {
	svc, store := newTestService(t, domain.PolicyRutMandatory)
	if svc.Policy() != domain.PolicyRutMandatory {
		t.Fatalf("unexpected policy %s", svc.Policy())
	}
	if svc.Store() != store {
		t.Fatalf("unexpected store")
	}
	if err := svc.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if NewInMemoryService(WithPolicy("bogus")).Policy() != domain.DefaultPolicy {
		t.Fatalf("invalid policy option must be ignored")
	}
}
