// Package mailer is the outgoing email transport. Dispatch is
// fire-and-forget: no queuing, no retry, no delivery tracking.
package mailer

import (
	"gopkg.in/gomail.v2"

	"github.com/lemeur/confirm-by-email/config"
)

type Attachment struct {
	Path string // resolved path on disk
	Name string // display name in the email
}

type Message struct {
	To          []string
	Subject     string
	Body        string
	From        string // sender address
	FromName    string // sender display name (site name)
	Bounce      string // bounce address, empty to omit
	HTML        bool
	Attachments []Attachment
}

type Transport interface {
	Send(msg Message) error
}

type SMTP struct {
	cfg config.Config
}

var _ Transport = (*SMTP)(nil)

func NewSMTP(cfg config.Config) *SMTP {
	return &SMTP{cfg: cfg}
}

func (s *SMTP) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", msg.From, msg.FromName)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	if msg.Bounce != "" {
		m.SetHeader("Return-Path", msg.Bounce)
	}
	if msg.HTML {
		m.SetBody("text/html", msg.Body)
	} else {
		m.SetBody("text/plain", msg.Body)
	}
	for _, a := range msg.Attachments {
		m.Attach(a.Path, gomail.Rename(a.Name))
	}

	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPass)
	return d.DialAndSend(m)
}
