// Package archive copies temporary-mailbox messages somewhere permanent:
// an mbox file or a folder on the user's own IMAP account.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/normalize"
)

// envelopeFallback is the mbox "From " sender when a message has none.
const envelopeFallback = "MAILER-DAEMON"

// BuildRFC822 renders msg, received by mailbox, as an RFC 5322 message
// with a single inline body. HTML bodies are normalized and sent as
// text/html; anything else is text/plain.
func BuildRFC822(mailbox string, msg model.Message) ([]byte, error) {
	var h mail.Header

	date := msg.Timestamp
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)

	if from, err := mail.ParseAddress(msg.Sender); err == nil {
		h.SetAddressList("From", []*mail.Address{from})
	} else if msg.Sender != "" {
		h.Set("From", msg.Sender)
	}

	to := msg.To
	if to == "" {
		to = mailbox
	}
	if rcpt, err := mail.ParseAddress(to); err == nil {
		h.SetAddressList("To", []*mail.Address{rcpt})
	} else if to != "" {
		h.Set("To", to)
	}

	h.SetSubject(normalize.DecodeSubject(msg.Subject))
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}
	if msg.Code != "" {
		h.Set("X-Tempmail-Code", msg.Code)
	}

	body := msg.DisplayBody()
	if normalize.LooksLikeHTML(body) {
		body = normalize.HTML(body)
		h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	} else {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	}
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteMbox writes msgs to w in mbox format and returns how many were
// written.
func WriteMbox(w io.Writer, mailbox string, msgs []model.Message) (int, error) {
	mw := mbox.NewWriter(w)

	n := 0
	for _, msg := range msgs {
		raw, err := BuildRFC822(mailbox, msg)
		if err != nil {
			return n, err
		}

		from := envelopeFallback
		if addr, err := mail.ParseAddress(msg.Sender); err == nil {
			from = addr.Address
		}
		date := msg.Timestamp
		if date.IsZero() {
			date = time.Now()
		}

		entry, err := mw.CreateMessage(from, date)
		if err != nil {
			return n, fmt.Errorf("creating mbox entry: %w", err)
		}
		if _, err := entry.Write(raw); err != nil {
			return n, fmt.Errorf("writing mbox entry: %w", err)
		}
		n++
	}

	if err := mw.Close(); err != nil {
		return n, fmt.Errorf("closing mbox: %w", err)
	}
	return n, nil
}
