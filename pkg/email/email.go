// pkg/email/email.go
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type EmailService struct {
	apiKey    string
	from      string
	templates *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

// Template data structures
type WelcomeEmailData struct {
	Name string
}

type SubscriptionEmailData struct {
	Name      string
	PlanName  string
	Price     decimal.Decimal
	ExpiresAt time.Time
	IsRenewal bool
}

type SubscriptionCancelledData struct {
	Name     string
	PlanName string
}

type SubscriptionExpiryWarningData struct {
	Name       string
	PlanName   string
	DaysLeft   int
	ExpiryDate time.Time
}

type OrderShippedData struct {
	OrderNumber    string
	TrackingNumber string
}

func NewEmailService(apiKey, from string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      from,
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}

	emailData := EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("resend API error: %s", string(respBody))
	}

	log.Printf("Sent %q email to %s", subject, to)
	return nil
}

func (s *EmailService) SendWelcomeEmail(email, name string) error {
	data := WelcomeEmailData{
		Name: name,
	}
	return s.sendTemplateEmail(email, "Welcome to SocksFlow! 🧦", "welcome.html", data)
}

func (s *EmailService) SendSubscriptionStartedEmail(
	email, name, planName string,
	price decimal.Decimal,
	expiresAt time.Time,
	isRenewal bool,
) error {
	data := SubscriptionEmailData{
		Name:      name,
		PlanName:  planName,
		Price:     price,
		ExpiresAt: expiresAt,
		IsRenewal: isRenewal,
	}

	subject := "Your SocksFlow subscription has started!"
	if isRenewal {
		subject = "Your SocksFlow subscription has been renewed"
	}
	return s.sendTemplateEmail(email, subject, "subscription_started.html", data)
}

func (s *EmailService) SendSubscriptionCancelledEmail(email, name, planName string) error {
	data := SubscriptionCancelledData{
		Name:     name,
		PlanName: planName,
	}
	return s.sendTemplateEmail(email, "Your SocksFlow subscription has been cancelled", "subscription_cancelled.html", data)
}

func (s *EmailService) SendSubscriptionExpiryWarning(
	email, name, planName string,
	expiryDate time.Time,
	daysLeft int,
) error {
	data := SubscriptionExpiryWarningData{
		Name:       name,
		PlanName:   planName,
		DaysLeft:   daysLeft,
		ExpiryDate: expiryDate,
	}
	return s.sendTemplateEmail(email, fmt.Sprintf("Your subscription expires in %d days", daysLeft), "subscription_expiry_warning.html", data)
}

func (s *EmailService) SendOrderShippedEmail(email, orderNumber, trackingNumber string) error {
	data := OrderShippedData{
		OrderNumber:    orderNumber,
		TrackingNumber: trackingNumber,
	}
	return s.sendTemplateEmail(email, "Your socks are on the way! 📦", "order_shipped.html", data)
}
