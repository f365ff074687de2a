package utils

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/keighl/postmark"

	"github.com/Gantuuu/Elbeg-sub001/models"
)

// Mailer is the part of the postmark client the service uses.
type Mailer interface {
	SendEmail(email postmark.Email) (postmark.EmailResponse, error)
}

// EmailService sends customer notifications through Postmark. Without a
// mailer it only logs what it would have sent.
type EmailService struct {
	mailer Mailer
	sender string
}

// NewEmailService returns a Postmark-backed service, or a logging one when
// token is empty.
func NewEmailService(token, sender string) *EmailService {
	es := &EmailService{sender: sender}
	if token != "" {
		es.mailer = postmark.NewClient(token, "")
	} else {
		slog.Warn("POSTMARK_API_TOKEN not set, emails will be logged only")
	}
	return es
}

// NewEmailServiceWithMailer is used by tests.
func NewEmailServiceWithMailer(m Mailer, sender string) *EmailService {
	return &EmailService{mailer: m, sender: sender}
}

// SendEmail sends one HTML email.
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if es.mailer == nil {
		slog.Info("Email not sent, no mailer configured", "to", toEmail, "subject", subject)
		return nil
	}
	_, err := es.mailer.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: stripTags(htmlContent),
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendOrderConfirmationEmail tells the customer what they ordered, where to
// transfer the money and when to expect delivery.
func (es *EmailService) SendOrderConfirmationEmail(order *models.Order, account *models.BankAccount, deliveryMessage string) error {
	if order.CustomerEmail == "" {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<strong>Сайн байна уу, %s.</strong><br><br>", html.EscapeString(order.CustomerName))
	fmt.Fprintf(&b, "Таны захиалга #%d амжилттай бүртгэгдлээ.<br>", order.ID)
	b.WriteString("<ul>")
	for _, it := range order.Items {
		name := fmt.Sprintf("#%d", it.ProductID)
		if it.Product != nil {
			name = it.Product.Name
		}
		fmt.Fprintf(&b, "<li>%s × %d = %s₮</li>", html.EscapeString(name), it.Quantity, it.Subtotal().StringFixed(2))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "Нийт дүн: <strong>%s₮</strong><br>", order.TotalAmount.StringFixed(2))
	if account != nil {
		fmt.Fprintf(&b, "Шилжүүлэх данс: <strong>%s %s (%s)</strong>, гүйлгээний утга: <strong>%d</strong><br>",
			html.EscapeString(account.BankName), html.EscapeString(account.AccountNumber), html.EscapeString(account.AccountHolder), order.ID)
	}
	if deliveryMessage != "" {
		fmt.Fprintf(&b, "%s<br>", html.EscapeString(deliveryMessage))
	}

	return es.SendEmail(order.CustomerEmail, fmt.Sprintf("Захиалга #%d", order.ID), b.String())
}

var statusLabels = map[models.OrderStatus]string{
	models.OrderStatusPending:    "хүлээгдэж байна",
	models.OrderStatusProcessing: "бэлтгэгдэж байна",
	models.OrderStatusCompleted:  "хүргэгдсэн",
	models.OrderStatusCancelled:  "цуцлагдсан",
}

// SendStatusUpdateEmail notifies the customer that an admin moved the order.
func (es *EmailService) SendStatusUpdateEmail(order *models.Order) error {
	if order.CustomerEmail == "" {
		return nil
	}
	content := fmt.Sprintf("<strong>Сайн байна уу, %s.</strong><br><br>Таны захиалга #%d-ийн төлөв: <strong>%s</strong>.",
		html.EscapeString(order.CustomerName), order.ID, statusLabels[order.Status])
	return es.SendEmail(order.CustomerEmail, fmt.Sprintf("Захиалга #%d: %s", order.ID, statusLabels[order.Status]), content)
}

func stripTags(s string) string {
	s = strings.NewReplacer("<br>", "\n", "</li>", "\n", "<li>", "- ").Replace(s)
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return html.UnescapeString(b.String())
}
