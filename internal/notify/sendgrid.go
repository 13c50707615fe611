package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/rdelacruz/freshmarket-backend/pkg/config"
	pkgerrors "github.com/rdelacruz/freshmarket-backend/pkg/errors"
	"github.com/rdelacruz/freshmarket-backend/pkg/logger"
)

type mailSender interface {
	Send(message *mail.SGMailV3) (*sendgridResponse, error)
}

type sendgridResponse struct {
	StatusCode int
	Body       string
}

type sendClient struct {
	client *sendgrid.Client
}

func (c *sendClient) Send(message *mail.SGMailV3) (*sendgridResponse, error) {
	resp, err := c.client.Send(message)
	if err != nil {
		return nil, err
	}
	return &sendgridResponse{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

// EmailChannel delivers order notifications to the back office inbox over
// sendgrid.
type EmailChannel struct {
	sender    mailSender
	from      *mail.Email
	recipient *mail.Email
	logg      *logger.Logger
}

// NewEmailChannel builds the sendgrid channel from config.
func NewEmailChannel(cfg config.SendgridConfig, logg *logger.Logger) (*EmailChannel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	if strings.TrimSpace(cfg.OrderRecipient) == "" {
		return nil, fmt.Errorf("order recipient required")
	}
	return &EmailChannel{
		sender:    &sendClient{client: sendgrid.NewSendClient(cfg.APIKey)},
		from:      mail.NewEmail(cfg.FromName, cfg.FromEmail),
		recipient: mail.NewEmail("", cfg.OrderRecipient),
		logg:      logg,
	}, nil
}

func (c *EmailChannel) Send(ctx context.Context, payload Payload) error {
	body := payload.body()
	message := mail.NewSingleEmail(c.from, payload.subject(), c.recipient, body, fmt.Sprintf("<pre>%s</pre>", body))

	resp, err := c.sender.Send(message)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send order email")
	}
	if resp.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("order email rejected: status=%d body=%s", resp.StatusCode, resp.Body))
	}

	if c.logg != nil {
		logCtx := c.logg.WithOrderID(ctx, payload.OrderID)
		c.logg.Info(logCtx, "order notification sent")
	}
	return nil
}

// LogChannel is the fallback when no sendgrid key is configured. It records
// the notification and succeeds, keeping local and test environments quiet.
type LogChannel struct {
	logg *logger.Logger
}

func NewLogChannel(logg *logger.Logger) *LogChannel {
	return &LogChannel{logg: logg}
}

func (c *LogChannel) Send(ctx context.Context, payload Payload) error {
	if c.logg != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"order_id": payload.OrderID,
			"total":    payload.Total,
		})
		c.logg.Info(logCtx, "order notification (log channel)")
	}
	return nil
}

// NewChannel picks the email channel when configured and falls back to
// logging otherwise.
func NewChannel(cfg config.SendgridConfig, logg *logger.Logger) (Channel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewLogChannel(logg), nil
	}
	return NewEmailChannel(cfg, logg)
}
