package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strconv"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"splitfree/config"
	"splitfree/ledger"
	"splitfree/logging"
	"splitfree/models"
	"splitfree/money"
)

// maxConcurrentReminders bounds the fan-out to SendGrid and FCM.
const maxConcurrentReminders = 4

type mailer interface {
	Send(ctx context.Context, msg *mail.SGMailV3) error
}

type pusher interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type sendgridMailer struct {
	client *sendgrid.Client
}

func (m sendgridMailer) Send(ctx context.Context, msg *mail.SGMailV3) error {
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// NotificationService delivers payment reminders by e-mail (SendGrid) and
// push (Firebase Cloud Messaging). Either channel is skipped when it is not
// configured.
type NotificationService struct {
	users   ledger.Users
	mail    mailer
	push    pusher
	from    *mail.Email
	appName string
	appURL  string
	log     *slog.Logger
}

func NewNotificationService(ctx context.Context, cfg *config.Config, users ledger.Users, log *slog.Logger) (*NotificationService, error) {
	ns := &NotificationService{
		users:   users,
		from:    mail.NewEmail(cfg.AppName, cfg.SendGridFrom),
		appName: cfg.AppName,
		appURL:  cfg.AppURL,
		log:     logging.Component(log, "notifications"),
	}

	if cfg.SendGridAPIKey != "" {
		ns.mail = sendgridMailer{client: sendgrid.NewSendClient(cfg.SendGridAPIKey)}
	} else {
		ns.log.Warn("⚠️  SendGrid API key not set, reminder e-mails disabled")
	}

	if cfg.FirebaseCredPath != "" {
		app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.FirebaseCredPath))
		if err != nil {
			return nil, fmt.Errorf("initialising firebase: %w", err)
		}
		client, err := app.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialising firebase messaging: %w", err)
		}
		ns.push = client
	} else {
		ns.log.Warn("⚠️  Firebase credentials not set, push reminders disabled")
	}

	return ns, nil
}

// RemindPending notifies every pending participant of event. Per-recipient
// failures are collected and returned as a *ledger.DeliveryError after all
// sends finish.
func (ns *NotificationService) RemindPending(ctx context.Context, event models.Event, pending []models.Participant) error {
	creator := "Someone"
	if u, err := ns.users.Get(ctx, event.CreatedByID); err == nil {
		creator = u.Name
	}

	var (
		mu     sync.Mutex
		errs   []error
		failed []uint
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReminders)

	for _, p := range pending {
		g.Go(func() error {
			if err := ns.remind(ctx, event, p, creator); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("participant %d: %w", p.ID, err))
				failed = append(failed, p.ID)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	if len(failed) == 0 {
		return nil
	}
	return &ledger.DeliveryError{Failed: failed, Attempted: len(pending), Err: errors.Join(errs...)}
}

func (ns *NotificationService) remind(ctx context.Context, event models.Event, p models.Participant, creator string) error {
	user, err := ns.users.Get(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("looking up user %d: %w", p.UserID, err)
	}

	amount := p.Amount.StringFixed(money.Places)
	title := fmt.Sprintf("%s is waiting for your payment", creator)
	body := fmt.Sprintf("You owe %s for \"%s\"", amount, event.Name)

	var errs []error
	if ns.push != nil && user.FCMToken != "" {
		_, err := ns.push.Send(ctx, &messaging.Message{
			Token:        user.FCMToken,
			Notification: &messaging.Notification{Title: title, Body: body},
			Data: map[string]string{
				"type":           "payment_reminder",
				"event_id":       strconv.FormatUint(uint64(event.ID), 10),
				"participant_id": strconv.FormatUint(uint64(p.ID), 10),
			},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("push: %w", err))
		}
	}

	if ns.mail != nil && user.Email != "" {
		if err := ns.sendReminderEmail(ctx, user, creator, event.Name, amount, body); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}

	if len(errs) == 0 {
		ns.log.Info("✅ Reminder delivered", "event_id", event.ID, "user_id", user.ID)
	}
	return errors.Join(errs...)
}

func (ns *NotificationService) sendReminderEmail(ctx context.Context, user *models.User, creator, eventName, amount, plain string) error {
	html, err := ns.reminderHTML(user.Name, creator, eventName, amount)
	if err != nil {
		return err
	}
	to := mail.NewEmail(user.Name, user.Email)
	subject := fmt.Sprintf("Reminder: your share of \"%s\"", eventName)
	return ns.mail.Send(ctx, mail.NewSingleEmail(ns.from, subject, to, plain, html))
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #7c4dff; margin-top: 0;">⏰ Payment reminder</h2>
		<p>Hi <strong>{{.UserName}}</strong>,</p>
		<p><strong>{{.Creator}}</strong> is still waiting for your share of <strong>{{.EventName}}</strong>.</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0; color: #e53e3e; font-size: 18px;"><strong>Your share: {{.Amount}}</strong></p>
		</div>
		<a href="{{.AppURL}}" style="background: #7c4dff; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">Open {{.AppName}}</a>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">{{.AppName}}</p>
	</div>
</body>
</html>`))

func (ns *NotificationService) reminderHTML(userName, creator, eventName, amount string) (string, error) {
	var buf bytes.Buffer
	err := reminderTemplate.Execute(&buf, map[string]string{
		"UserName":  userName,
		"Creator":   creator,
		"EventName": eventName,
		"Amount":    amount,
		"AppName":   ns.appName,
		"AppURL":    ns.appURL,
	})
	if err != nil {
		return "", fmt.Errorf("rendering reminder e-mail: %w", err)
	}
	return buf.String(), nil
}
