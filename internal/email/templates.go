package email

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Template IDs understood by Render.
const (
	TemplateSaleCreated   = "sale_created"
	TemplateOfferAccepted = "offer_accepted"
)

// ErrUnknownTemplate is returned by Render for an unregistered template ID.
var ErrUnknownTemplate = errors.New("unknown email template")

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(id, subject, body string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New(id + ".subject").Option("missingkey=error").Parse(subject)),
		body:    template.Must(template.New(id + ".body").Option("missingkey=error").Parse(body)),
	}
}

var templates = map[string]messageTemplate{
	TemplateSaleCreated: mustTemplate(TemplateSaleCreated,
		`{{.appName}}: venta #{{.saleId}} creada`,
		`Se registró la venta #{{.saleId}} (referencia {{.reference}}).

Propiedad: #{{.propertyId}}
Precio: {{.price}}
Estado: PENDIENTE

Ingresá al panel de {{.appName}} para continuar con la operación.
`),
	TemplateOfferAccepted: mustTemplate(TemplateOfferAccepted,
		`{{.appName}}: oferta aceptada en la consulta #{{.inquiryId}}`,
		`{{.acceptedBy}} aceptó el precio negociado de {{.negotiatedPrice}} en la consulta "{{.inquiryTitle}}".

Cuando ambas partes acepten, la operación puede convertirse en venta.
`),
}

// Render executes the subject and body of a registered template.
func Render(templateID string, data map[string]any) (string, string, error) {
	tmpl, ok := templates[templateID]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}
	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("failed to render subject of %s: %w", templateID, err)
	}
	if err := tmpl.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("failed to render body of %s: %w", templateID, err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}

// BuildMessage assembles a plain-text RFC 5322 message.
func BuildMessage(from string, to []string, subject, body string, date time.Time) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	fmt.Fprintf(&sb, "Date: %s\r\n", date.Format(time.RFC1123Z))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\r\n")
	}
	return []byte(sb.String())
}
