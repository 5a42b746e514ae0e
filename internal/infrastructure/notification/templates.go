package notification

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/citadelbuy/returns/internal/domain/returns"
	"golang.org/x/text/language"
	textmsg "golang.org/x/text/message"
)

// message is a rendered notification
type message struct {
	Subject string
	HTML    string
}

type noticeTemplate struct {
	subject string
	body    *template.Template
}

const layoutHead = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
<p>Hello {{.CustomerName}},</p>
`

const layoutFoot = `<p style="margin-top: 30px; color: #555;">Return reference: <strong>{{.RMANumber}}</strong><br>{{.StoreName}} Returns</p>
</div></body></html>`

func mustTemplate(name, body string) *template.Template {
	return template.Must(template.New(name).Parse(layoutHead + body + layoutFoot))
}

var templates = map[string]noticeTemplate{
	"requested": {
		subject: "We received your return request %s",
		body: mustTemplate("requested", `<p>Your return request has been received and is waiting for review.</p>
<p>Requested amount: {{.Amount}} {{.Currency}}</p>`),
	},
	"approved": {
		subject: "Your return %s was approved",
		body: mustTemplate("approved", `<p>Good news, your return has been approved.</p>
<p>Expected refund: {{.Amount}} {{.Currency}}</p>
<p>We will send you a prepaid shipping label shortly.</p>`),
	},
	"rejected": {
		subject: "Update on your return %s",
		body: mustTemplate("rejected", `<p>Unfortunately we could not accept your return.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`),
	},
	"label": {
		subject: "Your return label for %s is ready",
		body: mustTemplate("label", `<p>Your prepaid return label is ready.</p>
<p>Carrier: {{.Carrier}}<br>Tracking number: {{.TrackingNumber}}</p>
{{if .LabelURL}}<p><a href="{{.LabelURL}}">Download your label</a></p>{{end}}`),
	},
	"refund": {
		subject: "Your refund for %s has been processed",
		body: mustTemplate("refund", `<p>We have refunded {{.Amount}} {{.Currency}} to your original payment method.</p>
<p>Depending on your bank it can take a few business days to appear.</p>`),
	},
	"store_credit": {
		subject: "Store credit issued for %s",
		body: mustTemplate("store_credit", `<p>{{.Amount}} {{.Currency}} of store credit has been added to your account.</p>
{{if .ExpiresAt}}<p>The credit expires on {{.ExpiresAt.Format "January 2, 2006"}}.</p>{{end}}`),
	},
}

// amounts are printed with English digit grouping, e.g. 1,249.00
var amountPrinter = textmsg.NewPrinter(language.English)

type templateData struct {
	returns.Notice
	Amount    string
	StoreName string
}

func render(kind, storeName string, n returns.Notice) (message, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return message{}, fmt.Errorf("unknown notification template %q", kind)
	}

	data := templateData{
		Notice:    n,
		Amount:    amountPrinter.Sprintf("%.2f", n.Amount.Round(2).InexactFloat64()),
		StoreName: storeName,
	}
	if data.CustomerName == "" {
		data.CustomerName = "there"
	}

	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, data); err != nil {
		return message{}, fmt.Errorf("render %s notification: %w", kind, err)
	}
	return message{
		Subject: fmt.Sprintf(tmpl.subject, n.RMANumber),
		HTML:    buf.String(),
	}, nil
}
