// Package notification delivers customer notifications about returns.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/infrastructure/config"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var _ returns.Notifier = (*EmailNotifier)(nil)

// ErrMailNotConfigured is returned when an EmailNotifier is built without a host
var ErrMailNotConfigured = errors.New("mail host is not configured")

// Sender delivers prepared messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailNotifier sends HTML emails over SMTP
type EmailNotifier struct {
	sender    Sender
	from      string
	storeName string
	logger    *zap.Logger
}

// NewSMTPClient creates a go-mail client from the mail configuration
func NewSMTPClient(cfg config.MailConfig) (*mail.Client, error) {
	if !cfg.Enabled() {
		return nil, ErrMailNotConfigured
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

// NewEmailNotifier creates an EmailNotifier
func NewEmailNotifier(sender Sender, from, storeName string, logger *zap.Logger) *EmailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if storeName == "" {
		storeName = "Citadel"
	}
	return &EmailNotifier{
		sender:    sender,
		from:      from,
		storeName: storeName,
		logger:    logger.Named("email_notifier"),
	}
}

func (n *EmailNotifier) SendReturnRequestConfirmation(ctx context.Context, notice returns.Notice) error {
	return n.send(ctx, "requested", notice)
}

func (n *EmailNotifier) SendReturnApproved(ctx context.Context, notice returns.Notice) error {
	return n.send(ctx, "approved", notice)
}

func (n *EmailNotifier) SendReturnRejected(ctx context.Context, notice returns.Notice) error {
	return n.send(ctx, "rejected", notice)
}

func (n *EmailNotifier) SendReturnLabelReady(ctx context.Context, notice returns.Notice) error {
	return n.send(ctx, "label", notice)
}

func (n *EmailNotifier) SendRefundProcessed(ctx context.Context, notice returns.Notice) error {
	return n.send(ctx, "refund", notice)
}

func (n *EmailNotifier) SendStoreCreditIssued(ctx context.Context, notice returns.Notice) error {
	return n.send(ctx, "store_credit", notice)
}

func (n *EmailNotifier) send(ctx context.Context, kind string, notice returns.Notice) error {
	if notice.CustomerEmail == "" {
		n.logger.Warn("no customer email on return, skipping notification",
			zap.String("rma_number", notice.RMANumber),
			zap.String("kind", kind),
		)
		return nil
	}

	rendered, err := render(kind, n.storeName, notice)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(notice.CustomerEmail); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(rendered.Subject)
	msg.SetBodyString(mail.TypeTextHTML, rendered.HTML)

	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send %s email: %w", kind, err)
	}

	n.logger.Info("notification email sent",
		zap.String("rma_number", notice.RMANumber),
		zap.String("kind", kind),
	)
	return nil
}
