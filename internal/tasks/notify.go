package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"text/template"

	"github.com/hibiken/asynq"

	"github.com/radz2291/RZ-Property/internal/email"
	"github.com/radz2291/RZ-Property/internal/errs"
)

var (
	subjectTemplate = template.Must(template.New("subject").Parse(
		`New inquiry from {{.Name}}{{if .PropertyTitle}} about {{.PropertyTitle}}{{end}}`))

	bodyTemplate = template.Must(template.New("body").Parse(`You have a new inquiry on {{.AppName}}.

Name:    {{.Name}}
Phone:   {{.Phone}}
{{- if .Email}}
Email:   {{.Email}}
{{- end}}
Source:  {{.Source}}
{{- if .PropertyTitle}}
Property: {{.PropertyTitle}}{{if .PropertySlug}} (/properties/{{.PropertySlug}}){{end}}
{{- end}}
Received: {{.CreatedAt.Format "2006-01-02 15:04 MST"}}

Message:
{{.Message}}
`))
)

type notificationView struct {
	InquiryNotificationPayload
	AppName string
}

// RenderInquiryNotification renders the subject and body of the agent email.
func RenderInquiryNotification(appName string, payload InquiryNotificationPayload) (string, string, error) {
	view := notificationView{InquiryNotificationPayload: payload, AppName: appName}

	var subject, body bytes.Buffer
	if err := subjectTemplate.Execute(&subject, view); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := bodyTemplate.Execute(&body, view); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}

// notificationRecipient prefers the configured address, then the agent's.
func (p *TaskProcessor) notificationRecipient(ctx context.Context) (string, error) {
	if p.cfg.NotificationEmail != "" {
		return p.cfg.NotificationEmail, nil
	}
	if p.agents == nil {
		return "", nil
	}
	agent, err := p.agents.FindDefault(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return agent.Email, nil
}

// HandleInquiryNotificationTask emails the agent about a new inquiry.
func (p *TaskProcessor) HandleInquiryNotificationTask(ctx context.Context, t *asynq.Task) error {
	var payload InquiryNotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal inquiry notification payload: %v: %w", err, asynq.SkipRetry)
	}

	to, err := p.notificationRecipient(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve notification recipient: %w", err)
	}
	if to == "" {
		log.Printf("No notification address configured; inquiry %s not emailed", payload.InquiryID)
		return fmt.Errorf("no notification recipient: %w", asynq.SkipRetry)
	}

	subject, body, err := RenderInquiryNotification(p.cfg.AppName, payload)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	from := p.cfg.SmtpFromAddress
	if from == "" {
		from = "noreply@example.com"
	}
	raw := email.BuildMessage(from, []string{to}, payload.Email, subject, email.KindInquiryNotification, body)
	if err := p.emailSender.Send(ctx, []string{to}, subject, raw); err != nil {
		return fmt.Errorf("failed to send inquiry notification: %w", err)
	}

	log.Printf("Inquiry notification sent: inquiry=%s to=%s", payload.InquiryID, to)
	return nil
}
