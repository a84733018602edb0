package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type installationEmailData struct {
	baseEmailData
	InstallationEmail
}

type followupDigestEmailData struct {
	baseEmailData
	FollowupDigest
}

type shippingEmailData struct {
	baseEmailData
	ShippingNotification
}

type testEmailData struct {
	baseEmailData
	Host string
}

type customEmailData struct {
	baseEmailData
	Body template.HTML
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").Funcs(template.FuncMap{
		"money": formatCurrencyUSD,
	}).ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyUSD(amount *float64) string {
	if amount == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *amount)
}
