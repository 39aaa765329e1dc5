package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
)

// ErrNoRecipients is returned when a message has nobody to go to.
var ErrNoRecipients = errors.New("no recipients specified")

const defaultAttachmentType = "application/pdf"

// Mailer sends a message through a concrete transport
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// Message is an outbound email with optional attachments
type Message struct {
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTMLBody    string       `json:"html_body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents an email attachment
type Attachment struct {
	Name        string `json:"name"`
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
}

// Validate checks recipients and fills attachment defaults.
func (m *Message) Validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	for i, addr := range m.To {
		parsed, err := mail.ParseAddress(addr)
		if err != nil {
			return fmt.Errorf("invalid recipient %q: %w", addr, err)
		}
		m.To[i] = parsed.Address
	}
	for i := range m.Attachments {
		if m.Attachments[i].ContentType == "" {
			m.Attachments[i].ContentType = defaultAttachmentType
		}
	}
	return nil
}

// Sender identifies the From header of outgoing mail
type Sender struct {
	Address string
	Name    string
}

func (s Sender) header() string {
	return (&mail.Address{Name: s.Name, Address: s.Address}).String()
}

// buildMIME renders msg as a raw RFC 5322 message. boundary may be empty, in
// which case a random one is used.
func buildMIME(from Sender, msg *Message, boundary string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("From: " + from.header() + "\r\n")
	buf.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	buf.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")

	mw := multipart.NewWriter(&buf)
	if boundary != "" {
		if err := mw.SetBoundary(boundary); err != nil {
			return nil, fmt.Errorf("invalid boundary: %w", err)
		}
	}
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary()))

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=utf-8"},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64(body, []byte(msg.HTMLBody)); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(a.ContentType, map[string]string{"name": a.Name})},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Name})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, a.Data); err != nil {
			return nil, fmt.Errorf("failed to encode attachment %s: %w", a.Name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64 writes data base64 encoded in 76 column lines
func writeBase64(w io.Writer, data []byte) error {
	const lineLen = 76
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := lineLen
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := w.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}
