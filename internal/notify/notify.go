// Package notify sends email notifications about failed or degraded sync
// runs over plain SMTP.
package notify

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"

	"shiftsync/internal/config"
	appLog "shiftsync/internal/log"
)

// Mailer sends notifications per the notify config. It no-ops silently
// when notifications are disabled and warns once when they are enabled but
// incompletely configured.
type Mailer struct {
	cfg      config.NotifyConfig
	password string
}

// NewMailer builds a Mailer from config plus the SMTP password secret.
func NewMailer(cfg config.NotifyConfig, password string) *Mailer {
	return &Mailer{cfg: cfg, password: password}
}

// Send delivers a plain-text mail. Failures are logged, never fatal; a
// notification problem must not take down the run it reports on.
func (m *Mailer) Send(subject, body string) {
	if !m.cfg.Enabled {
		return
	}
	if m.cfg.Email == "" || m.cfg.Host == "" || m.cfg.Username == "" || m.password == "" {
		appLog.Warn("notify: enabled but SMTP config incomplete; requires email, host, username and SMTP_PASSWORD")
		return
	}

	msg := buildMessage(m.cfg.Username, m.cfg.Email, subject, body)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	auth := smtp.PlainAuth("", m.cfg.Username, m.password, m.cfg.Host)

	var err error
	if m.cfg.Port == 465 {
		err = m.sendImplicitTLS(addr, auth, msg)
	} else {
		err = smtp.SendMail(addr, auth, m.cfg.Username, []string{m.cfg.Email}, msg)
	}
	if err != nil {
		appLog.Warn("notify: failed to send notification email", "err", err, "to", m.cfg.Email)
		return
	}

	appLog.Info("notify: notification sent", "to", m.cfg.Email, "subject", subject)
}

// sendImplicitTLS handles SMTPS (port 465), where the TLS handshake happens
// before any SMTP traffic; smtp.SendMail only does STARTTLS.
func (m *Mailer) sendImplicitTLS(addr string, auth smtp.Auth, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if err := c.Auth(auth); err != nil {
		return err
	}
	if err := c.Mail(m.cfg.Username); err != nil {
		return err
	}
	if err := c.Rcpt(m.cfg.Email); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// Collector is a log sink that gathers WARN+ lines during a run so a
// degraded run can end with a single digest mail.
type Collector struct {
	mu    sync.Mutex
	lines []string
}

// Emit implements log.Sink.
func (c *Collector) Emit(level appLog.Level, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, string(level)+": "+line)
}

// Lines returns the collected messages in arrival order.
func (c *Collector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}
