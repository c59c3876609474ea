package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/safar/agrocart/internal/models"
	"github.com/safar/agrocart/internal/storage"
)

func TestStorageHistoryAppendAndList(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	h := NewStorageHistory(st)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		buyer := "b1"
		if i%2 == 1 {
			buyer = "b2"
		}
		o := models.Order{
			ID:        fmt.Sprintf("o%d", i),
			Buyer:     models.Buyer{ID: buyer},
			Status:    models.OrderStatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := h.Append(ctx, o); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	page, err := h.List(ctx, models.OrderQuery{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].ID != "o4" || page.Items[1].ID != "o3" {
		t.Fatalf("Unexpected first page %+v", page.Items)
	}
	if !page.HasMore || page.NextCursor == "" {
		t.Fatal("Expected another page")
	}

	var ids []string
	for cursor := page.NextCursor; cursor != ""; {
		next, err := h.List(ctx, models.OrderQuery{Limit: 2, Cursor: cursor})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		for _, o := range next.Items {
			ids = append(ids, o.ID)
		}
		cursor = next.NextCursor
	}
	if fmt.Sprint(ids) != "[o2 o1 o0]" {
		t.Errorf("Unexpected remaining orders %v", ids)
	}

	page, err = h.List(ctx, models.OrderQuery{BuyerID: "b2"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 2 || page.HasMore {
		t.Errorf("Expected the two orders of b2, got %+v", page)
	}
}

func TestStorageHistoryEmpty(t *testing.T) {
	page, err := NewStorageHistory(storage.NewMemory()).List(context.Background(), models.OrderQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("Expected an empty page, got %+v", page)
	}
}

func TestStorageHistoryRejectsBadCursor(t *testing.T) {
	_, err := NewStorageHistory(storage.NewMemory()).List(context.Background(), models.OrderQuery{Cursor: "%%%"})
	if !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("Expected ErrInvalidCursor, got %v", err)
	}
}

func TestStorageHistoryKeepsCorruptDocument(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	st.Save(ctx, OrdersKey, []byte(`{"not":"an array"}`))

	if err := NewStorageHistory(st).Append(ctx, models.Order{ID: "o1"}); err == nil {
		t.Fatal("Expected append to fail on a corrupt history")
	}

	data, _ := st.Load(ctx, OrdersKey)
	if string(data) != `{"not":"an array"}` {
		t.Errorf("Corrupt history should not be overwritten, got %s", data)
	}
}
