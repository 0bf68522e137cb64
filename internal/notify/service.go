package notify

import (
	"context"
	"fmt"

	"github.com/streetpaws/tnvr-booking/internal/accounts"
	"github.com/streetpaws/tnvr-booking/internal/appointments"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// Pusher delivers one push notification to one device token. The transport
// behind it is out of scope here; LogPusher is the default.
type Pusher interface {
	Push(ctx context.Context, token, title, body string) error
}

// LogPusher records pushes in the log without delivering anything.
type LogPusher struct {
	logger *logging.Logger
}

func NewLogPusher(logger *logging.Logger) *LogPusher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogPusher{logger: logger}
}

func (p *LogPusher) Push(ctx context.Context, token, title, body string) error {
	p.logger.Info("push notification (log only)", "token", token, "title", title)
	return nil
}

// Service sends booking confirmations over email and push. Every delivery is
// best effort; failures are logged and swallowed so the booking path never
// depends on a provider.
type Service struct {
	email  EmailSender
	tokens *TokenStore
	pusher Pusher
	clinic string
	logger *logging.Logger
}

func NewService(email EmailSender, tokens *TokenStore, pusher Pusher, clinicAddress string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, tokens: tokens, pusher: pusher, clinic: clinicAddress, logger: logger}
}

// BookingConfirmed notifies the trapper that their slots are booked.
func (s *Service) BookingConfirmed(ctx context.Context, account *accounts.Account, booked []appointments.Appointment) {
	if len(booked) == 0 || account == nil {
		return
	}

	day := booked[0].AppointmentTime.Format("Monday, January 2, 2006")
	tnvr, foster := 0, 0
	for _, a := range booked {
		switch a.ServiceType {
		case appointments.ServiceTNVR:
			tnvr++
		case appointments.ServiceFoster:
			foster++
		}
	}
	summary := slotSummary(tnvr, foster)

	if s.email != nil && account.Email != "" {
		msg := EmailMessage{
			To:      account.Email,
			ToName:  account.FirstName + " " + account.LastName,
			Subject: fmt.Sprintf("Clinic booking confirmed for %s", day),
			Body: fmt.Sprintf("Hi %s,\n\nYour booking is confirmed: %s on %s at %s.\n\n"+
				"Drop-off is at the clinic address above. Reply to this email if anything changes.\n\n"+
				"Street Paws TNVR", account.FirstName, summary, day, s.clinic),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("booking confirmation email failed", "error", err, "user_id", account.ID)
		}
	}

	if s.tokens == nil || s.pusher == nil {
		return
	}
	tokens, err := s.tokens.Tokens(ctx, account.ID)
	if err != nil {
		s.logger.Error("booking confirmation push lookup failed", "error", err, "user_id", account.ID)
		return
	}
	title := "Booking confirmed"
	body := fmt.Sprintf("%s on %s", summary, day)
	for _, token := range tokens {
		if err := s.pusher.Push(ctx, token, title, body); err != nil {
			s.logger.Error("booking confirmation push failed", "error", err, "user_id", account.ID)
		}
	}
}

func slotSummary(tnvr, foster int) string {
	switch {
	case tnvr > 0 && foster > 0:
		return fmt.Sprintf("%d TNVR and %d foster slot(s)", tnvr, foster)
	case foster > 0:
		return fmt.Sprintf("%d foster slot(s)", foster)
	default:
		return fmt.Sprintf("%d TNVR slot(s)", tnvr)
	}
}
