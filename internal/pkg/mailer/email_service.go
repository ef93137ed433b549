package mailer

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

// Notice is a short transactional e-mail to an organizer.
type Notice struct {
	Subject  string
	Headline string
	Lines    []string
}

type IEmailService interface {
	SendNotice(toEmail string, notice Notice) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (s *emailService) SendNotice(toEmail string, notice Notice) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", notice.Subject)
	m.SetBody("text/html", RenderNotice(notice))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send %q to %s: %w", notice.Subject, toEmail, err)
	}
	return nil
}

// RenderNotice builds the HTML body. All text is escaped.
func RenderNotice(notice Notice) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">`)
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(notice.Headline))
	for _, line := range notice.Lines {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(line))
	}
	b.WriteString(`<p style="color: #888; font-size: 12px;">You receive this because you organize this shared subscription.</p>`)
	b.WriteString("</div>")
	return b.String()
}
