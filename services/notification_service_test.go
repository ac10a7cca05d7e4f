package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	out := renderTemplate("Order {{order_code}} from {{client_name}}", map[string]string{
		"order_code":  "VM-9F3A2C",
		"client_name": "Jamie",
	})
	assert.Equal(t, "Order VM-9F3A2C from Jamie", out)

	// Unknown placeholders are left alone rather than erased.
	out = renderTemplate("Hello {{missing}}", nil)
	assert.Equal(t, "Hello {{missing}}", out)
}

func TestTemplateBodiesComplete(t *testing.T) {
	templates := []NotificationTemplate{
		TemplateQuoteRequested,
		TemplateOrderPlaced,
		TemplateOrderReceived,
		TemplateOfferReceived,
		TemplateOfferUpdated,
		TemplateOfferAccepted,
		TemplatePaymentReceived,
		TemplateBankTransferDeclared,
		TemplatePaymentConfirmed,
		TemplateDeliveryReady,
		TemplateRevisionRequested,
		TemplateUnreadReminder,
	}
	for _, tmpl := range templates {
		body, ok := templateBodies[tmpl]
		assert.True(t, ok, "template %q has no body", tmpl)
		assert.NotEmpty(t, body[0], "template %q has no subject", tmpl)
		assert.NotEmpty(t, body[1], "template %q has no body text", tmpl)
	}
}

func TestMockNotifierRecords(t *testing.T) {
	mock := NewMockNotifier()

	assert.NoError(t, mock.Send(TemplateOfferReceived, "jamie@example.com", map[string]string{"price": "1500.00"}))
	assert.NoError(t, mock.Send(TemplateOfferUpdated, "jamie@example.com", nil))

	assert.Len(t, mock.Sent(), 2)
	assert.Len(t, mock.SentTo("jamie@example.com"), 2)
	assert.Equal(t, 1, mock.CountByTemplate(TemplateOfferReceived))

	mock.FailAll(true)
	assert.Error(t, mock.Send(TemplateOfferReceived, "jamie@example.com", nil))

	mock.Clear()
	assert.Empty(t, mock.Sent())
}
