package mail

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	gomail "github.com/emersion/go-message/mail"
)

var (
	// ErrSMTPHostPortRequired is returned when Host/Port are missing.
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	// ErrSMTPNoRecipients is returned when To is empty.
	ErrSMTPNoRecipients = errors.New("no recipients provided")
	// ErrSMTPNoSender is returned when both Message.From and the configured default From are empty.
	ErrSMTPNoSender = errors.New("no sender provided")
)

// SMTP is a Mail implementation that composes RFC 5322 messages with go-message
// and submits them over net/smtp.
type SMTP struct {
	addr        string
	host        string
	defaultFrom string
	auth        smtp.Auth
	now         func() time.Time
}

// SMTPConfig configures the SMTP implementation.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port.
	Port int
	// Username is the SMTP authentication username.
	Username string
	// Password is the SMTP authentication password.
	Password string
	// From is the default sender when Message.From is empty.
	From string
}

// NewSMTP constructs an SMTP mail sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTP{
		addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:        cfg.Host,
		defaultFrom: cfg.From,
		auth:        auth,
		now:         time.Now,
	}, nil
}

// Send delivers a message over SMTP. The context deadline bounds the whole SMTP session.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if msg.From == "" {
		msg.From = s.defaultFrom
	}

	raw, err := Compose(msg, s.host, s.now())
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return err
		}
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	return submit(client, s.auth, msg.From, msg.To, raw)
}

func submit(c *smtp.Client, auth smtp.Auth, from string, to []string, raw []byte) error {
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(nil); err != nil {
			return err
		}
	}
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}

// Compose renders msg as an RFC 5322 message. A text-only message is written as a
// single part; text plus HTML becomes multipart/alternative.
func Compose(msg Message, host string, now time.Time) ([]byte, error) {
	if msg.From == "" {
		return nil, ErrSMTPNoSender
	}
	if len(msg.To) == 0 {
		return nil, ErrSMTPNoRecipients
	}

	from, err := gomail.ParseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("mail: invalid sender: %w", err)
	}
	to, err := parseAddresses(msg.To)
	if err != nil {
		return nil, err
	}

	var h gomail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*gomail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject(msg.Subject)
	h.Set("Message-Id", "<"+randomToken()+"@"+host+">")
	for k, v := range msg.Headers {
		h.Set(k, v)
	}

	var buf bytes.Buffer
	if msg.HTMLBody == "" {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		h.Set("Content-Transfer-Encoding", "quoted-printable")

		w, err := gomail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, msg.TextBody); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw, err := gomail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	iw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	if err := writeInlinePart(iw, "text/plain", msg.TextBody); err != nil {
		return nil, err
	}
	if err := writeInlinePart(iw, "text/html", msg.HTMLBody); err != nil {
		return nil, err
	}
	if err := iw.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeInlinePart(iw *gomail.InlineWriter, contentType, body string) error {
	var ph gomail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ph.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := iw.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return err
	}
	return w.Close()
}

func parseAddresses(list []string) ([]*gomail.Address, error) {
	out := make([]*gomail.Address, 0, len(list))
	for _, raw := range list {
		addr, err := gomail.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("mail: invalid recipient %q: %w", raw, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

func randomToken() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(b[:])
}

// Close implements io.Closer for interface compatibility.
func (s *SMTP) Close() error {
	return nil
}
