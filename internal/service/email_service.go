package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/bakehouse-api/internal/config"
	"github.com/bakehouse-api/internal/i18n"
	"github.com/bakehouse-api/internal/logger"
	"github.com/bakehouse-api/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendOrderPaidEmails 发送支付成功通知：客户确认邮件加店内收单提醒
// 任一收件人失败不中断其余发送，最终返回首个错误。
func (s *EmailService) SendOrderPaidEmails(order *models.Order) error {
	if order == nil {
		return ErrOrderNotFound
	}

	locale := i18n.ResolveLocale("")
	var firstErr error

	customerEmail := strings.TrimSpace(order.SettledEmail)
	if customerEmail == "" {
		customerEmail = strings.ToLower(strings.TrimSpace(order.CustomerEmail))
	}
	if customerEmail != "" {
		subject := i18n.Sprintf(locale, "email.order_paid.subject", order.GatewayOrderID)
		body := buildOrderPaidBody(locale, order, false)
		if err := s.sendTextEmail(customerEmail, subject, body); err != nil {
			logger.Warnw("email_order_paid_customer_failed",
				"order_id", order.ID,
				"recipient", customerEmail,
				"error", err,
			)
			firstErr = err
		}
	}

	for _, recipient := range s.adminRecipients() {
		subject := i18n.Sprintf(locale, "email.order_paid.admin_subject", order.GatewayOrderID)
		body := buildOrderPaidBody(locale, order, true)
		if err := s.sendTextEmail(recipient, subject, body); err != nil {
			logger.Warnw("email_order_paid_admin_failed",
				"order_id", order.ID,
				"recipient", recipient,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SendCustomEmail 发送测试邮件或自定义邮件
func (s *EmailService) SendCustomEmail(toEmail, subject, body string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "SMTP test email"
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = "This is an SMTP test email from The Bakehouse. Your mail configuration works."
	}
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) adminRecipients() []string {
	if s.cfg == nil {
		return nil
	}
	recipients := make([]string, 0, len(s.cfg.AdminRecipients))
	for _, r := range s.cfg.AdminRecipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		recipients = append(recipients, r)
	}
	return recipients
}

func buildOrderPaidBody(locale string, order *models.Order, forAdmin bool) string {
	var lines bytes.Buffer
	if forAdmin {
		lines.WriteString(i18n.Sprintf(locale, "email.order_paid.admin_intro",
			order.CustomerName, order.CustomerEmail, order.CustomerPhone))
	} else {
		lines.WriteString(i18n.Sprintf(locale, "email.order_paid.intro", order.CustomerName))
	}
	lines.WriteString("\n\n")
	lines.WriteString(i18n.Sprintf(locale, "email.order_paid.summary",
		order.GatewayOrderID, order.TotalAmount.String(), order.Currency))
	for _, item := range order.Items {
		lines.WriteString("\n")
		lines.WriteString(fmt.Sprintf("- %s x%d (%s %s)",
			item.Name, item.Quantity, item.TotalPrice.String(), order.Currency))
	}
	address := joinAddress(order)
	if address != "" {
		lines.WriteString("\n\n")
		lines.WriteString(i18n.Sprintf(locale, "email.order_paid.address", address))
	}
	if !forAdmin {
		lines.WriteString("\n\n")
		lines.WriteString(i18n.T(locale, "email.order_paid.outro"))
	}
	return lines.String()
}

func joinAddress(order *models.Order) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{order.AddressLine, order.City, order.State, order.PostalCode, order.Country} {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	if s.cfg.UseTLS {
		return sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	return sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
