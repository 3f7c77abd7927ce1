package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-pos-inventory/internal/checkout"
)

func TestListTransactions_FiltersAndPaging(t *testing.T) {
	store, db := newTestStore(t)
	apple := seedProduct(t, db, "Apple", "1111111111116", "1.50", 50)
	coord := checkout.NewCoordinator(store)
	dina := checkout.Actor{ID: 2, Name: "dina"}
	budi := checkout.Actor{ID: 3, Name: "budi"}

	first := sell(t, coord, dina, "cash", cartLine(apple, 1))
	sell(t, coord, budi, "card", cartLine(apple, 1))
	last := sell(t, coord, dina, "card", cartLine(apple, 2))
	ctx := context.Background()

	all, total, err := store.ListTransactions(ctx, TransactionFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(all) != 3 || all[0].Number != last {
		t.Errorf("expected 3 records newest first, got %d (%d)", len(all), total)
	}
	if len(all[0].Items) != 1 {
		t.Errorf("expected items preloaded, got %+v", all[0])
	}

	mine, total, _ := store.ListTransactions(ctx, TransactionFilter{CashierID: dina.ID})
	if total != 2 || len(mine) != 2 || mine[1].Number != first {
		t.Errorf("expected dina's 2 records, got %d", len(mine))
	}

	cards, _, _ := store.ListTransactions(ctx, TransactionFilter{PaymentMethod: "card"})
	if len(cards) != 2 {
		t.Errorf("expected 2 card records, got %d", len(cards))
	}

	page, total, _ := store.ListTransactions(ctx, TransactionFilter{Limit: 1, Offset: 1})
	if total != 3 || len(page) != 1 {
		t.Errorf("expected a single record page out of 3, got %d of %d", len(page), total)
	}

	future, _, _ := store.ListTransactions(ctx, TransactionFilter{From: time.Now().Add(time.Hour)})
	if len(future) != 0 {
		t.Errorf("expected no records in the future, got %d", len(future))
	}
}

func TestGetTransactionByNumber_RestrictsCashier(t *testing.T) {
	store, db := newTestStore(t)
	apple := seedProduct(t, db, "Apple", "1111111111116", "1.50", 50)
	coord := checkout.NewCoordinator(store)
	number := sell(t, coord, checkout.Actor{ID: 2, Name: "dina"}, "cash", cartLine(apple, 1))
	ctx := context.Background()

	if _, err := store.GetTransactionByNumber(ctx, number, 2); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
	if _, err := store.GetTransactionByNumber(ctx, number, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected other cashier to get ErrNotFound, got %v", err)
	}
	if _, err := store.GetTransactionByNumber(ctx, "TRX-1999-0001", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
