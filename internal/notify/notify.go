// Package notify tells patients and doctors about confirmed appointments:
// a PDF receipt by e-mail to the patient and a text message to the doctor.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"telehealth-server/internal/config"

	"github.com/go-gomail/gomail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier is told about every payment that confirmed an appointment.
type Notifier interface {
	PaymentConfirmed(ctx context.Context, r Receipt) error
}

// Multi fans a notification out to every channel and joins their errors.
type Multi []Notifier

func (m Multi) PaymentConfirmed(ctx context.Context, r Receipt) error {
	var errs []error
	for _, n := range m {
		if err := n.PaymentConfirmed(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the channels that are configured. Unconfigured channels are
// left out, so an empty config yields an empty Multi.
func New(mailCfg config.MailerConfig, smsCfg config.TwilioConfig) Multi {
	var m Multi
	if mailCfg.Host != "" && mailCfg.From != "" {
		m = append(m, NewMailer(mailCfg))
	}
	if smsCfg.AccountSID != "" && smsCfg.AuthToken != "" && smsCfg.FromNumber != "" {
		m = append(m, NewSMS(smsCfg))
	}
	return m
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer e-mails the patient a PDF receipt.
type Mailer struct {
	from   string
	dialer mailSender
}

func NewMailer(cfg config.MailerConfig) *Mailer {
	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *Mailer) PaymentConfirmed(_ context.Context, r Receipt) error {
	if r.PatientEmail == "" {
		return nil
	}

	pdf, err := RenderReceipt(r)
	if err != nil {
		return fmt.Errorf("failed to render receipt: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", r.PatientEmail)
	msg.SetHeader("Subject", "Payment confirmation")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nYour appointment with %s on %s at %s is confirmed. Your receipt is attached.\n",
		r.PatientName, r.DoctorName, r.Date, r.TimeSlot,
	))
	msg.Attach("receipt-"+r.AppointmentID+".pdf", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMS texts the doctor about a confirmed appointment through Twilio.
type SMS struct {
	from string
	api  messageCreator
}

func NewSMS(cfg config.TwilioConfig) *SMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMS{from: cfg.FromNumber, api: client.Api}
}

func (s *SMS) PaymentConfirmed(_ context.Context, r Receipt) error {
	if r.DoctorPhone == "" {
		return nil
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(r.DoctorPhone)
	params.SetFrom(s.from)
	params.SetBody(fmt.Sprintf("New confirmed appointment: %s on %s at %s.", r.PatientName, r.Date, r.TimeSlot))

	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("error sending sms: %w", err)
	}
	return nil
}
