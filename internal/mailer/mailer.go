// Package mailer sends the contact form to the operator's own mailbox over
// authenticated SMTP. Synchronous, no retry; a transport failure surfaces to
// the request handler.
package mailer

import (
	"fmt"
	"net/smtp"
)

type Mailer struct {
	Host     string
	Port     int
	Address  string
	Password string
}

func New(host string, port int, address, password string) *Mailer {
	return &Mailer{Host: host, Port: port, Address: address, Password: password}
}

func (m *Mailer) Send(name, email, subject, message string) error {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	auth := smtp.PlainAuth("", m.Address, m.Password, m.Host)
	msg := BuildMessage(m.Address, name, email, subject, message)
	return smtp.SendMail(addr, auth, m.Address, []string{m.Address}, msg)
}

// BuildMessage formats the contact submission as a plain-text mail to the
// operator, keeping the sender's address in the body since the envelope
// sender is the operator account itself.
func BuildMessage(operator, name, email, subject, message string) []byte {
	body := "From: " + operator + "\r\n" +
		"To: " + operator + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		"Name: " + name + "\r\n" +
		"Email: " + email + "\r\n" +
		"Message: " + message + "\r\n"
	return []byte(body)
}
