package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"shopblog_back_end/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestGuestStoreRoundTripWithTTL(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	store := NewGuestStore(rdb)

	items := []models.CartItem{{ID: "p1", Name: "Mug", Price: 12.5, Quantity: 2, Images: []string{"a.jpg"}}}
	if err := store.Save(ctx, "sid", items); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("cart:guest:sid"); ttl != GuestCartTTL {
		t.Fatalf("ttl = %v, want %v", ttl, GuestCartTTL)
	}

	got, err := store.Load(ctx, "sid")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].Quantity != 2 || got[0].Images[0] != "a.jpg" {
		t.Fatalf("loaded = %+v", got)
	}

	if err := store.Delete(ctx, "sid"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("cart:guest:sid") {
		t.Fatalf("key should be gone")
	}
}

func TestGuestStoreMissingKey(t *testing.T) {
	_, rdb := newTestRedis(t)
	got, err := NewGuestStore(rdb).Load(context.Background(), "unknown")
	if err != nil || got != nil {
		t.Fatalf("Load = %+v, %v; want nil, nil", got, err)
	}
}

func TestGuestStoreMalformedRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Set("cart:guest:sid", `{"not":"a list"}`)

	_, err := NewGuestStore(rdb).Load(context.Background(), "sid")
	if !errors.Is(err, ErrMalformedCart) {
		t.Fatalf("err = %v, want ErrMalformedCart", err)
	}
}

func TestRemoteStoreClearWritesEmptyList(t *testing.T) {
	ctx := context.Background()
	records := &memRecords{rows: map[string]string{}}
	store := NewRemoteStore(records)

	if err := store.Save(ctx, "u1", []models.CartItem{{ID: "p1", Quantity: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if records.rows["u1"] != "[]" {
		t.Fatalf("row = %q, want []", records.rows["u1"])
	}

	got, err := store.Load(ctx, "u1")
	if err != nil || len(got) != 0 {
		t.Fatalf("Load = %+v, %v", got, err)
	}

	got, err = store.Load(ctx, "nobody")
	if err != nil || got != nil {
		t.Fatalf("missing row: Load = %+v, %v", got, err)
	}
}
