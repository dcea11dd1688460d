// Package storetest holds the behavioural contract every snapshot store
// backend is tested against.
package storetest

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"testing"

	"clientcore/pkg/domain"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) domain.SnapshotStore

// Fixture returns a collection exercising every field of the snapshot layout.
func Fixture() domain.Collection {
	return domain.Collection{Clients: []domain.Client{
		{
			ID:         "c_1",
			Name:       "Ana",
			RutAccount: &domain.RutAccount{ID: "r_1", Number: "1-9", Balance: 1000},
			SavingAccounts: []domain.SavingAccount{
				{ID: "s_1", Number: "S-1", Balance: 500},
				{ID: "s_2", Number: "S-2", Balance: 0.25},
			},
		},
		{
			ID:             "c_2",
			Name:           "Bea",
			SavingAccounts: []domain.SavingAccount{{ID: "s_3", Number: "", Balance: 0}},
		},
	}}
}

// Run executes the snapshot store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("load without snapshot is empty", func(t *testing.T) {
		store := newStore(t)
		coll, err := store.Load(context.Background())
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(coll.Clients) != 0 {
			t.Fatalf("expected empty collection, got %+v", coll)
		}
	})

	t.Run("save then load round trips", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		want := Fixture()
		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		AssertSameContent(t, want, got)

		if err := store.Save(ctx, got); err != nil {
			t.Fatalf("re-save: %v", err)
		}
		again, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("re-load: %v", err)
		}
		AssertSameContent(t, got, again)
	})

	t.Run("save replaces the whole snapshot", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		if err := store.Save(ctx, Fixture()); err != nil {
			t.Fatalf("save: %v", err)
		}
		smaller := domain.Collection{Clients: []domain.Client{{ID: "c_9", Name: "Solo", RutAccount: &domain.RutAccount{ID: "r_9"}}}}
		if err := store.Save(ctx, smaller); err != nil {
			t.Fatalf("save smaller: %v", err)
		}
		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		AssertSameContent(t, smaller, got)
	})

	t.Run("loaded collections are not shared", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		if err := store.Save(ctx, Fixture()); err != nil {
			t.Fatalf("save: %v", err)
		}
		first, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		first.Clients[0].RutAccount.Balance = -1
		first.Clients[0].SavingAccounts[0].Number = "mutated"
		second, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		AssertSameContent(t, Fixture(), second)
	})

	t.Run("concurrent loads during saves", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		if err := store.Save(ctx, Fixture()); err != nil {
			t.Fatalf("save: %v", err)
		}
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if err := store.Save(ctx, Fixture()); err != nil {
					t.Errorf("save: %v", err)
				}
			}()
			go func() {
				defer wg.Done()
				coll, err := store.Load(ctx)
				if err != nil {
					t.Errorf("load: %v", err)
					return
				}
				if len(coll.Clients) != 2 {
					t.Errorf("torn read: %+v", coll)
				}
			}()
		}
		wg.Wait()
	})
}

// AssertSameContent compares two collections through their JSON form, which
// is the persisted layout.
func AssertSameContent(t testing.TB, want, got domain.Collection) {
	t.Helper()
	wb, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal want: %v", err)
	}
	gb, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal got: %v", err)
	}
	var wv, gv any
	_ = json.Unmarshal(wb, &wv)
	_ = json.Unmarshal(gb, &gv)
	if !reflect.DeepEqual(wv, gv) {
		t.Fatalf("collections differ\nwant: %s\n got: %s", wb, gb)
	}
}
