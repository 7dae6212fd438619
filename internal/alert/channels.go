package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"github.com/veristat/veristat/internal/model"
)

// WebhookChannel POSTs batches as JSON to a configured endpoint.
type WebhookChannel struct {
	client *resty.Client
	url    string
}

// NewWebhookChannel builds the webhook transport.
func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{
		client: resty.New().SetRetryCount(0),
		url:    url,
	}
}

func (c *WebhookChannel) Name() model.AlertChannel { return model.ChannelWebhook }

func (c *WebhookChannel) Send(ctx context.Context, batch []model.ResolutionEvent) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"resolutions": batch}).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook post: status %d", resp.StatusCode())
	}
	return nil
}

// EmailChannel sends a plain-text digest of the batch over SMTP.
type EmailChannel struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

// NewEmailChannel builds the SMTP transport.
func NewEmailChannel(cfg model.EmailConfig) *EmailChannel {
	return &EmailChannel{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.Username,
		to:     cfg.To,
	}
}

func (c *EmailChannel) Name() model.AlertChannel { return model.ChannelEmail }

func (c *EmailChannel) Send(_ context.Context, batch []model.ResolutionEvent) error {
	var body strings.Builder
	fmt.Fprintf(&body, "%d claim(s) resolved:\n\n", len(batch))
	for _, ev := range batch {
		fmt.Fprintf(&body, "- claim %s: %s (score %.2f, confidence %.2f)\n",
			ev.ClaimID, ev.Verdict.Label, ev.Verdict.AggregateScore, ev.Verdict.AggregateConfidence)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", c.from)
	msg.SetHeader("To", c.to)
	msg.SetHeader("Subject", fmt.Sprintf("Veristat: %d claim(s) resolved", len(batch)))
	msg.SetBody("text/plain", body.String())

	if err := c.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// InAppChannel surfaces resolutions through the structured log stream,
// which the serve loop exposes to clients.
type InAppChannel struct {
	log *logrus.Entry
}

// NewInAppChannel builds the in-app transport.
func NewInAppChannel(log *logrus.Logger) *InAppChannel {
	return &InAppChannel{log: log.WithField("component", "alert")}
}

func (c *InAppChannel) Name() model.AlertChannel { return model.ChannelInApp }

func (c *InAppChannel) Send(_ context.Context, batch []model.ResolutionEvent) error {
	for _, ev := range batch {
		c.log.WithFields(logrus.Fields{
			"claim":      ev.ClaimID,
			"label":      string(ev.Verdict.Label),
			"score":      ev.Verdict.AggregateScore,
			"confidence": ev.Verdict.AggregateConfidence,
		}).Info("claim resolved")
	}
	return nil
}

// BuildChannels assembles the transports the configuration enables.
// In-app delivery is always on; webhook and email require endpoints.
func BuildChannels(cfg model.AlertConfig, log *logrus.Logger) []Channel {
	channels := []Channel{NewInAppChannel(log)}
	if cfg.WebhookURL != "" {
		channels = append(channels, NewWebhookChannel(cfg.WebhookURL))
	}
	if cfg.Email.Host != "" {
		channels = append(channels, NewEmailChannel(cfg.Email))
	}
	return channels
}
