package session

import (
	"context"
	"testing"
)

func TestWithUserRoundTrip(t *testing.T) {
	ctx := WithUser(context.Background(), User{ID: "u1", Role: "trapper"})

	user, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected user in context")
	}
	if user.ID != "u1" || user.Role != "trapper" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestFromContextEmpty(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no user in empty context")
	}
}
