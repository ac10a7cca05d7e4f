package services

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/voxmarket/voxmarket-api/config"
)

// NotificationTemplate identifies one of the transactional email templates.
type NotificationTemplate string

const (
	TemplateQuoteRequested       NotificationTemplate = "quote_requested"
	TemplateOrderPlaced          NotificationTemplate = "order_placed"
	TemplateOrderReceived        NotificationTemplate = "order_received"
	TemplateOfferReceived        NotificationTemplate = "offer_received"
	TemplateOfferUpdated         NotificationTemplate = "offer_updated"
	TemplateOfferAccepted        NotificationTemplate = "offer_accepted"
	TemplatePaymentReceived      NotificationTemplate = "payment_received"
	TemplateBankTransferDeclared NotificationTemplate = "bank_transfer_declared"
	TemplatePaymentConfirmed     NotificationTemplate = "payment_confirmed"
	TemplateDeliveryReady        NotificationTemplate = "delivery_ready"
	TemplateRevisionRequested    NotificationTemplate = "revision_requested"
	TemplateUnreadReminder       NotificationTemplate = "unread_reminder"
)

// templateBodies holds the subject and body for each template. Placeholders
// of the form {{name}} are substituted from the params map.
var templateBodies = map[NotificationTemplate][2]string{
	TemplateQuoteRequested:       {"New quote request {{order_code}}", "{{client_name}} requested a quote for a {{service_type}} project. Order {{order_code}}."},
	TemplateOrderPlaced:          {"Your VoxMarket order {{order_code}}", "Thanks {{client_name}}! Your order {{order_code}} has been placed. Total: ${{total_price}}."},
	TemplateOrderReceived:        {"New order {{order_code}}", "A new {{service_type}} order {{order_code}} has come in from {{client_name}}."},
	TemplateOfferReceived:        {"You have an offer for order {{order_code}}", "{{actor_name}} sent you an offer of ${{price}} for order {{order_code}}."},
	TemplateOfferUpdated:         {"Updated offer for order {{order_code}}", "{{actor_name}} updated their offer for order {{order_code}}. New price: ${{price}}."},
	TemplateOfferAccepted:        {"Offer accepted on order {{order_code}}", "Your offer of ${{price}} on order {{order_code}} was accepted. Awaiting payment."},
	TemplatePaymentReceived:      {"Payment received for order {{order_code}}", "Payment of ${{total_price}} for order {{order_code}} has been received. You can start working."},
	TemplateBankTransferDeclared: {"Bank transfer declared for order {{order_code}}", "The client reports having sent ${{total_price}} for order {{order_code}}. Please confirm receipt."},
	TemplatePaymentConfirmed:     {"Payment confirmed for order {{order_code}}", "Your payment for order {{order_code}} has been confirmed. Work is now in progress."},
	TemplateDeliveryReady:        {"Delivery ready for order {{order_code}}", "Version {{version}} of your order {{order_code}} is ready for review."},
	TemplateRevisionRequested:    {"Revision requested on order {{order_code}}", "The client requested a revision on order {{order_code}} ({{revisions_used}} of {{revisions_allowed}} used)."},
	TemplateUnreadReminder:       {"Unread messages on order {{order_code}}", "You have unread messages waiting on order {{order_code}}."},
}

// Notifier delivers a templated message to a human. Delivery is best-effort:
// lifecycle transitions log failures and move on, they never roll back.
type Notifier interface {
	Send(template NotificationTemplate, to string, params map[string]string) error
}

var notifierInstance Notifier

// SMTPNotifier sends template emails through an SMTP relay.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// InitNotifier initializes the SMTP notifier from configuration.
func InitNotifier(cfg *config.Config) Notifier {
	notifierInstance = &SMTPNotifier{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.EmailFrom,
	}
	return notifierInstance
}

// GetNotifier returns the initialized notifier instance
func GetNotifier() Notifier {
	return notifierInstance
}

// SetNotifier sets the notifier instance (primarily for testing)
func SetNotifier(n Notifier) {
	notifierInstance = n
}

// Send renders the template and delivers it over SMTP.
func (n *SMTPNotifier) Send(template NotificationTemplate, to string, params map[string]string) error {
	body, ok := templateBodies[template]
	if !ok {
		return fmt.Errorf("unknown notification template %q", template)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", renderTemplate(body[0], params))
	m.SetBody("text/plain", renderTemplate(body[1], params))

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %s email to %s: %w", template, to, err)
	}

	log.WithFields(log.Fields{"template": template, "to": to}).Debug("notification sent")
	return nil
}

func renderTemplate(tmpl string, params map[string]string) string {
	out := tmpl
	for key, value := range params {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}
