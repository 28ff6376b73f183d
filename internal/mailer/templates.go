package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/flicky/storefront-api/internal/model"
)

var (
	orderPaidTmpl = template.Must(template.New("order_paid").Parse(`<h2>Thank you for your order!</h2>
<p>We received your payment <strong>{{.PaymentID}}</strong> for order <strong>{{.ID}}</strong>.</p>
<table>
  <tr><th align="left">Item</th><th>Qty</th><th align="right">Price</th></tr>
  {{range .Items}}<tr><td>{{.ProductName}}</td><td align="center">{{.Quantity}}</td><td align="right">{{.Price.StringFixed 2}}</td></tr>
  {{end}}
</table>
<p><strong>Total: {{.Amount.StringFixed 2}} {{.Currency}}</strong></p>`))

	contactTmpl = template.Must(template.New("contact").Parse(`<h2>New contact message</h2>
<p><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p>{{.Message}}</p>`))
)

// OrderPaidEmail renders the customer confirmation for a paid order.
func OrderPaidEmail(msg model.NotificationMessage) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := orderPaidTmpl.Execute(&buf, msg); err != nil {
		return "", "", fmt.Errorf("render order email: %w", err)
	}
	return fmt.Sprintf("Order confirmed: %s", msg.ID), buf.String(), nil
}

// ContactEmail renders the support inbox copy of a contact submission.
func ContactEmail(msg model.NotificationMessage) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := contactTmpl.Execute(&buf, msg); err != nil {
		return "", "", fmt.Errorf("render contact email: %w", err)
	}
	subject = "Contact form: " + msg.Subject
	if msg.Subject == "" {
		subject = "Contact form message from " + msg.Name
	}
	return subject, buf.String(), nil
}
