package mailbox

import "time"

// Summary is the envelope-level view of one message, derived per request.
type Summary struct {
	// ID is the IMAP UID of the message inside its mailbox. All operations
	// address messages by UID, never by sequence number.
	ID uint32 `json:"id"`
	// From is the first sender address.
	From string `json:"from"`
	To   []string `json:"to"`
	Cc   []string `json:"cc,omitempty"`
	// Subject of the message.
	Subject string `json:"subject"`
	// ReceivedAt is the internal date reported by the server.
	ReceivedAt time.Time `json:"receivedAt"`
	// Seen indicates the message carries the \Seen flag.
	Seen bool `json:"seen"`
	// Size of the full message in bytes.
	Size uint32 `json:"size"`
	// MessageID is the RFC 5322 Message-Id header, when present.
	MessageID string `json:"messageId,omitempty"`
}

// Content is a Summary plus the extracted bodies and attachment metadata.
type Content struct {
	Summary
	Text        string       `json:"text,omitempty"`
	HTML        string       `json:"html,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	// Raw is the unparsed message source, kept for local archiving. It is
	// never part of the serialized response.
	Raw []byte `json:"-"`
}

// Attachment describes one attachment leaf of the message structure.
// Only metadata is captured; the bytes stay on the server.
type Attachment struct {
	// ID is the IMAP part path of the attachment, e.g. "2" or "1.3".
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        uint32 `json:"size"`
	Inline      bool   `json:"inline"`
	ContentID   string `json:"contentId,omitempty"`
}
