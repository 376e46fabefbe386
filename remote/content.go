package remote

import (
	"bytes"
	"fmt"
	"io"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message"
	"github.com/lantianz/lantz-tmail/mailbox"
	"github.com/lantianz/lantz-tmail/provider"
)

// FetchContent retrieves one message by UID with its bodies and attachment
// metadata. The UID is an opaque stable identifier, never a sequence number.
func (c *Client) FetchContent(uid uint32) (*mailbox.Content, error) {
	if err := c.Select(); err != nil {
		return nil, err
	}

	rawSection := &imap.BodySectionName{Peek: true}
	items := append([]imap.FetchItem{imap.FetchBodyStructure, rawSection.FetchItem()}, summaryItems...)
	messages, err := c.FetchByUID([]uint32{uid}, items)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("uid %d: %w", uid, provider.ErrMessageNotFound)
	}
	msg := messages[0]

	content := &mailbox.Content{
		Summary: summaryFromMessage(msg),
	}

	var raw []byte
	if literal := msg.GetBody(rawSection); literal != nil {
		raw, err = io.ReadAll(literal)
		if err != nil {
			c.log.Printf("cannot read raw source of uid %d: %s", uid, err)
			raw = nil
		}
	}
	content.Raw = raw

	if msg.BodyStructure != nil {
		root := NewNode(msg.BodyStructure)
		// a failed download of one body never aborts the other
		if part := root.FindPart("text/plain"); part != nil {
			if data, err := c.DownloadPart(uid, part.PartPath()); err == nil {
				content.Text = string(data)
			} else {
				c.log.Printf("cannot download text part of uid %d: %s", uid, err)
			}
		}
		if part := root.FindPart("text/html"); part != nil {
			if data, err := c.DownloadPart(uid, part.PartPath()); err == nil {
				content.HTML = string(data)
			} else {
				c.log.Printf("cannot download html part of uid %d: %s", uid, err)
			}
		}
		content.Attachments = root.Attachments()
	}

	if content.Text == "" && content.HTML == "" && len(raw) > 0 {
		content.Text, content.HTML = extractFromRaw(raw)
		if content.Text == "" && content.HTML == "" {
			content.Text = afterHeaders(raw)
		}
	}
	return content, nil
}

// extractFromRaw recovers the bodies from the raw source when the structure
// tree declared no usable part or the downloads came back empty.
func extractFromRaw(raw []byte) (string, string) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return "", ""
	}
	var text, html string
	walkEntity(entity, &text, &html)
	return text, html
}

func walkEntity(entity *message.Entity, text, html *string) {
	mediaType, _, _ := entity.Header.ContentType()
	if reader := entity.MultipartReader(); reader != nil {
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				// skip faulty parts, keep what was already found
				break
			}
			walkEntity(part, text, html)
		}
		return
	}

	disposition, _, _ := entity.Header.ContentDisposition()
	if disposition == "attachment" {
		return
	}
	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return
	}
	switch mediaType {
	case "text/plain", "":
		if *text == "" {
			*text = string(body)
		}
	case "text/html":
		if *html == "" {
			*html = string(body)
		}
	}
}

// afterHeaders treats everything past the first blank line as plain text,
// the last resort when the source is not parseable as a MIME message.
func afterHeaders(raw []byte) string {
	for _, separator := range []string{"\r\n\r\n", "\n\n"} {
		if _, body, found := bytes.Cut(raw, []byte(separator)); found {
			return string(bytes.TrimSpace(body))
		}
	}
	return ""
}
