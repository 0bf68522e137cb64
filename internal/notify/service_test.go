package notify

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/streetpaws/tnvr-booking/internal/accounts"
	"github.com/streetpaws/tnvr-booking/internal/appointments"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

type recordingEmail struct {
	sent []EmailMessage
	err  error
}

func (r *recordingEmail) Send(ctx context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}

type recordingPusher struct {
	pushed []string
}

func (r *recordingPusher) Push(ctx context.Context, token, title, body string) error {
	r.pushed = append(r.pushed, token)
	return nil
}

func testBooked(n int, serviceType string) []appointments.Appointment {
	day := time.Date(2026, 9, 1, 4, 0, 0, 0, time.UTC)
	out := make([]appointments.Appointment, n)
	for i := range out {
		out[i] = appointments.Appointment{ServiceType: serviceType, AppointmentTime: day}
	}
	return out
}

func quietLogger() *logging.Logger {
	return logging.NewWithWriter("error", io.Discard)
}

func newTokenStoreForTest(t *testing.T) *TokenStore {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewTokenStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestBookingConfirmedEmailsAndPushes(t *testing.T) {
	email := &recordingEmail{}
	pusher := &recordingPusher{}
	tokens := newTokenStoreForTest(t)

	ctx := context.Background()
	if err := tokens.Register(ctx, "trapper-1", "device-a"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := tokens.Register(ctx, "trapper-1", "device-b"); err != nil {
		t.Fatalf("register: %v", err)
	}

	svc := NewService(email, tokens, pusher, "419 Somerville Ave", quietLogger())
	svc.BookingConfirmed(ctx, &accounts.Account{
		ID: "trapper-1", Email: "dana@streetpaws.org", FirstName: "Dana", LastName: "Ruiz",
	}, testBooked(2, appointments.ServiceTNVR))

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	msg := email.sent[0]
	if msg.To != "dana@streetpaws.org" {
		t.Fatalf("unexpected recipient: %q", msg.To)
	}
	if !strings.Contains(msg.Body, "2 TNVR slot(s)") || !strings.Contains(msg.Body, "Tuesday, September 1, 2026") {
		t.Fatalf("unexpected body: %q", msg.Body)
	}
	if len(pusher.pushed) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(pusher.pushed))
	}
}

func TestBookingConfirmedSwallowsEmailFailure(t *testing.T) {
	email := &recordingEmail{err: errors.New("provider down")}
	svc := NewService(email, nil, nil, "419 Somerville Ave", quietLogger())

	// Must not panic or propagate anything.
	svc.BookingConfirmed(context.Background(), &accounts.Account{
		ID: "trapper-1", Email: "dana@streetpaws.org", FirstName: "Dana",
	}, testBooked(1, appointments.ServiceFoster))

	if len(email.sent) != 1 {
		t.Fatalf("expected the send to be attempted, got %d", len(email.sent))
	}
}

func TestBookingConfirmedSkipsAccountsWithoutEmail(t *testing.T) {
	email := &recordingEmail{}
	svc := NewService(email, nil, nil, "419 Somerville Ave", quietLogger())

	svc.BookingConfirmed(context.Background(), &accounts.Account{ID: "trapper-1"},
		testBooked(1, appointments.ServiceTNVR))

	if len(email.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(email.sent))
	}
}

func TestTokenStoreRegisterClearRoundTrip(t *testing.T) {
	tokens := newTokenStoreForTest(t)
	ctx := context.Background()

	if err := tokens.Register(ctx, "u1", "tok-1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := tokens.Register(ctx, "u1", "tok-1"); err != nil {
		t.Fatalf("re-register should be a no-op: %v", err)
	}
	if err := tokens.Register(ctx, "u1", "tok-2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := tokens.Tokens(ctx, "u1")
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tokens, got %v", got)
	}

	if err := tokens.Clear(ctx, "u1", "tok-1"); err != nil {
		t.Fatalf("clear one: %v", err)
	}
	got, _ = tokens.Tokens(ctx, "u1")
	if len(got) != 1 || got[0] != "tok-2" {
		t.Fatalf("expected only tok-2, got %v", got)
	}

	if err := tokens.Clear(ctx, "u1", ""); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	got, _ = tokens.Tokens(ctx, "u1")
	if len(got) != 0 {
		t.Fatalf("expected no tokens, got %v", got)
	}

	if err := tokens.Register(ctx, "u1", ""); err == nil {
		t.Fatal("expected empty token to be rejected")
	}
}
