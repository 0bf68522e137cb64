package clinic

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, DefaultSettings("419 Somerville Ave", "America/New_York"))
}

func TestGetReturnsDefaultsBeforeFirstSave(t *testing.T) {
	store := newTestStore(t)

	settings, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if settings.Address != "419 Somerville Ave" || settings.Timezone != "America/New_York" {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
}

func TestSetThenGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved := &Settings{
		Address:                       "12 Harbor St",
		Timezone:                      "America/Chicago",
		TreatMissingCapacityUnlimited: true,
		UpdatedByUserID:               "admin-1",
	}
	if err := store.Set(context.Background(), saved); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Address != "12 Harbor St" || !got.TreatMissingCapacityUnlimited {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("expected updated_at to be stamped")
	}
}

func TestSetRejectsBadPayloads(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(context.Background(), &Settings{Timezone: "America/New_York"}); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings for empty address, got %v", err)
	}
	if err := store.Set(context.Background(), &Settings{Address: "x", Timezone: "Mars/Olympus"}); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings for bad timezone, got %v", err)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	s := &Settings{Timezone: "not-a-zone"}
	if s.Location().String() != "UTC" {
		t.Fatalf("expected UTC fallback, got %v", s.Location())
	}
}
