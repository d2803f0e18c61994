package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"splitfree/models"
)

// ErrMailDisabled is returned when no SendGrid key is configured.
var ErrMailDisabled = errors.New("e-mail delivery is not configured")

var invitationTemplate = template.Must(template.New("invitation").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #7c4dff; margin-top: 0;">🎉 You're invited!</h2>
		<p><strong>{{.Inviter}}</strong> wants to split bills with you on {{.AppName}}.</p>
		<p>After signing up, add them with this friend code:</p>
		<p style="font-size: 24px; letter-spacing: 4px;"><strong>{{.FriendCode}}</strong></p>
		<div style="margin: 24px 0;">
			<a href="{{.AppURL}}" style="background: #7c4dff; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">Join Now</a>
		</div>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">{{.AppName}}</p>
	</div>
</body>
</html>`))

// SendInvitation e-mails someone who has no account yet. The message
// carries the inviter's friend code so the two can connect after sign-up.
func (ns *NotificationService) SendInvitation(ctx context.Context, inviter models.User, email string) error {
	if ns.mail == nil {
		return ErrMailDisabled
	}

	var buf bytes.Buffer
	err := invitationTemplate.Execute(&buf, map[string]string{
		"Inviter":    inviter.Name,
		"FriendCode": inviter.FriendCode,
		"AppName":    ns.appName,
		"AppURL":     ns.appURL,
	})
	if err != nil {
		return fmt.Errorf("rendering invitation: %w", err)
	}

	subject := fmt.Sprintf("%s invited you to %s", inviter.Name, ns.appName)
	plain := fmt.Sprintf("%s invited you to %s. Their friend code is %s.", inviter.Name, ns.appName, inviter.FriendCode)
	msg := mail.NewSingleEmail(ns.from, subject, mail.NewEmail("", email), plain, buf.String())
	if err := ns.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending invitation: %w", err)
	}

	ns.log.Info("✅ Invitation sent", "inviter_id", inviter.ID)
	return nil
}
