package model

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Message is a single email delivered to a temporary mailbox, as returned
// by the backend. Messages are immutable once fetched.
type Message struct {
	// Sender is the envelope sender. The backend may send it as "from".
	Sender string `json:"sender"`

	// To is the recipient mailbox address, when the backend includes it.
	To string `json:"to,omitempty"`

	// Subject is the raw header value, possibly a MIME encoded-word.
	Subject string `json:"subject"`

	// Body is the HTML or plain-text body.
	Body string `json:"body"`

	// HTMLContent is the backend's pre-extracted HTML part, if any.
	HTMLContent string `json:"htmlContent,omitempty"`

	// Code is the verification code the backend extracted, if any.
	Code string `json:"code,omitempty"`

	// Timestamp is when the backend received the message.
	Timestamp time.Time `json:"timestamp"`

	// Arrival is the message's position in the backend response. It keeps
	// the newest-first ordering stable for equal timestamps.
	Arrival int `json:"-"`
}

// messageJSON is the wire shape. Timestamps are kept as strings so that a
// malformed value degrades to the zero time instead of failing the batch.
type messageJSON struct {
	Sender      string `json:"sender"`
	From        string `json:"from"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	HTMLContent string `json:"htmlContent"`
	Code        string `json:"code"`
	Timestamp   string `json:"timestamp"`
}

// UnmarshalJSON accepts both "sender" and "from" for the sender field.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	sender := w.Sender
	if sender == "" {
		sender = w.From
	}

	*m = Message{
		Sender:      sender,
		To:          w.To,
		Subject:     w.Subject,
		Body:        w.Body,
		HTMLContent: w.HTMLContent,
		Code:        w.Code,
		Timestamp:   parseTimestamp(w.Timestamp),
	}
	return nil
}

// parseTimestamp parses an RFC 3339 timestamp, returning the zero time
// when the value is empty or malformed.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DisplayBody returns the body best suited for display: the extracted HTML
// part when present, otherwise the raw body.
func (m Message) DisplayBody() string {
	if m.HTMLContent != "" {
		return m.HTMLContent
	}
	return m.Body
}

// SortNewestFirst records each message's arrival position and sorts the
// slice in place by timestamp descending. Equal timestamps keep arrival
// order.
func SortNewestFirst(msgs []Message) {
	for i := range msgs {
		msgs[i].Arrival = i
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.After(msgs[j].Timestamp)
	})
}
