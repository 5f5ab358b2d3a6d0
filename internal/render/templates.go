// Package render: built-in quote template bodies.
//
// Variables consumed here are produced by the delivery orchestrator from a
// typed struct; monetary values (Total, PaymentAmount, unit prices inside
// LineItems) arrive pre-formatted with their currency symbol. A variable the
// caller omits renders as the empty string, and {{if}} blocks treat it as
// absent, so degraded sends (no payment link, no attachment) still produce a
// coherent message.
package render

const quoteSubject = `Quote {{.QuoteNumber}} from {{.CompanyName}}`

const quoteHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; color: #2b2b2b; max-width: 640px; margin: 0 auto;">
  <h2 style="color: #7a2e1d;">{{.CompanyName}}</h2>
  <p>Dear {{.CustomerName}},</p>
  <p>Thank you for your enquiry{{if .EventDate}} for your event on {{.EventDate}}{{end}}{{if .EventLocation}} at {{.EventLocation}}{{end}}.
     Please find your quote <strong>{{.QuoteNumber}}</strong> below{{if .HasAttachment}} and attached as a PDF{{end}}.</p>
  <pre style="background: #faf6f0; border: 1px solid #e3d9c9; padding: 12px; font-family: inherit;">{{.LineItems}}</pre>
  <p style="font-size: 1.1em;">Total: <strong>{{.Total}}</strong></p>
  {{if .PaymentURL}}
  <p>To confirm your booking, please pay {{.PaymentAmount}} using the secure link below:</p>
  <p><a href="{{.PaymentURL}}" style="background: #7a2e1d; color: #fff; padding: 10px 18px; text-decoration: none;">Pay {{.PaymentAmount}}</a></p>
  {{else}}
  <p>{{.PaymentFallback}}</p>
  {{end}}
  <p>This quote is valid until {{.ValidUntil}}.</p>
  <p>Warm regards,<br>{{.SenderName}}<br>{{.CompanyName}}</p>
</body>
</html>
`

const quoteDepositText = `Dear {{.CustomerName}},

Thank you for your enquiry{{if .EventDate}} for your event on {{.EventDate}}{{end}}{{if .EventLocation}} at {{.EventLocation}}{{end}}.
Your quote {{.QuoteNumber}}:

{{.LineItems}}

Total: {{.Total}}

{{if .PaymentURL}}To confirm your booking, please pay a deposit of {{.PaymentAmount}}:
{{.PaymentURL}}
{{else}}{{.PaymentFallback}}
{{end}}
This quote is valid until {{.ValidUntil}}.

Warm regards,
{{.SenderName}}
{{.CompanyName}}
`

const quoteFullText = `Dear {{.CustomerName}},

Thank you for your enquiry{{if .EventDate}} for your event on {{.EventDate}}{{end}}{{if .EventLocation}} at {{.EventLocation}}{{end}}.
Your quote {{.QuoteNumber}}:

{{.LineItems}}

Total: {{.Total}}

{{if .PaymentURL}}To confirm your booking, please pay {{.PaymentAmount}} in full:
{{.PaymentURL}}
{{else}}{{.PaymentFallback}}
{{end}}
This quote is valid until {{.ValidUntil}}.

Warm regards,
{{.SenderName}}
{{.CompanyName}}
`
