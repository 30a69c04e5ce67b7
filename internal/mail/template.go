package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

// VerificationData is the view-model for the verification mail.
type VerificationData struct {
	Link string
}

// DeliveryData is the view-model for the delivery mail.
type DeliveryData struct {
	From    string
	Message string
	Files   []string
	Date    string
}

// Renderer renders the two mail bodies from either the built-in templates
// or operator-supplied override files.
type Renderer struct {
	verification *template.Template
	delivery     *template.Template
}

// NewRenderer parses the mail templates. Empty paths select the embedded
// defaults.
func NewRenderer(verificationPath, deliveryPath string) (*Renderer, error) {
	verification, err := loadTemplate(verificationPath, "templates/verification-email.tmpl")
	if err != nil {
		return nil, fmt.Errorf("verification template: %w", err)
	}
	delivery, err := loadTemplate(deliveryPath, "templates/delivery-email.tmpl")
	if err != nil {
		return nil, fmt.Errorf("delivery template: %w", err)
	}
	return &Renderer{verification: verification, delivery: delivery}, nil
}

func (r *Renderer) Verification(data VerificationData) (string, error) {
	return render(r.verification, data)
}

func (r *Renderer) Delivery(data DeliveryData) (string, error) {
	return render(r.delivery, data)
}

func loadTemplate(overridePath, builtin string) (*template.Template, error) {
	if overridePath != "" {
		return template.ParseFiles(overridePath)
	}
	return template.ParseFS(builtinTemplates, builtin)
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func verificationLink(baseURL, code string) string {
	return fmt.Sprintf("%s/verify?code=%s", baseURL, code)
}

func nowStamp() string {
	return time.Now().Format("2006-01-02 15:04")
}
