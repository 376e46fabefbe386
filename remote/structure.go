package remote

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/lantianz/lantz-tmail/mailbox"
)

// Node is one part of a message structure tree. A node is either a leaf
// (no children) or a multipart container with children, never both.
type Node struct {
	// Type is the normalized "type/subtype", lowercase.
	Type string
	// Path is the IMAP part path; empty on a single-part root.
	Path []int
	Size uint32
	// Disposition is the lowercase Content-Disposition value, if any.
	Disposition string
	Filename    string
	ContentID   string
	Children    []*Node
}

// NewNode converts a protocol body structure into a tree of tagged nodes.
func NewNode(bs *imap.BodyStructure) *Node {
	return newNode(bs, nil)
}

func newNode(bs *imap.BodyStructure, path []int) *Node {
	node := &Node{
		Type:        strings.ToLower(bs.MIMEType + "/" + bs.MIMESubType),
		Path:        path,
		Size:        bs.Size,
		Disposition: strings.ToLower(bs.Disposition),
		Filename:    partFilename(bs),
		ContentID:   strings.Trim(bs.Id, "<>"),
	}
	for i, part := range bs.Parts {
		childPath := make([]int, len(path)+1)
		copy(childPath, path)
		childPath[len(path)] = i + 1
		node.Children = append(node.Children, newNode(part, childPath))
	}
	return node
}

// IsMultipart reports whether the node is a multipart container.
func (n *Node) IsMultipart() bool {
	return strings.HasPrefix(n.Type, "multipart/")
}

// PartPath is the fetchable section path of this node. A single-part message
// carries no explicit path: its body is section 1.
func (n *Node) PartPath() []int {
	if len(n.Path) == 0 {
		return []int{1}
	}
	return n.Path
}

// PathString renders the part path in dotted section syntax, e.g. "1.2".
func (n *Node) PathString() string {
	path := n.PartPath()
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// FindPart returns the first node matching the given type, depth first.
// Only multipart containers are recursed into.
func (n *Node) FindPart(mimeType string) *Node {
	if n.Type == strings.ToLower(mimeType) {
		return n
	}
	if n.IsMultipart() {
		for _, child := range n.Children {
			if found := child.FindPart(mimeType); found != nil {
				return found
			}
		}
	}
	return nil
}

// Attachments walks the whole tree and collects attachment leaves: parts with
// an attachment or inline disposition, or with a filename, whose type is not
// exactly text/plain or text/html. Container nodes are traversed regardless
// of their own classification.
func (n *Node) Attachments() []mailbox.Attachment {
	return n.collectAttachments(nil)
}

func (n *Node) collectAttachments(accumulator []mailbox.Attachment) []mailbox.Attachment {
	if len(n.Children) == 0 && n.isAttachment() {
		filename := n.Filename
		if filename == "" {
			filename = fmt.Sprintf("attachment-%s", n.PathString())
		}
		accumulator = append(accumulator, mailbox.Attachment{
			ID:          n.PathString(),
			Filename:    filename,
			ContentType: n.Type,
			Size:        n.Size,
			Inline:      n.Disposition == "inline",
			ContentID:   n.ContentID,
		})
	}
	if n.IsMultipart() {
		for _, child := range n.Children {
			accumulator = child.collectAttachments(accumulator)
		}
	}
	return accumulator
}

func (n *Node) isAttachment() bool {
	if n.Type == "text/plain" || n.Type == "text/html" {
		return false
	}
	return n.Disposition == "attachment" || n.Disposition == "inline" || n.Filename != ""
}

func partFilename(bs *imap.BodyStructure) string {
	if name := paramValue(bs.DispositionParams, "filename"); name != "" {
		return name
	}
	return paramValue(bs.Params, "name")
}

func paramValue(params map[string]string, key string) string {
	for name, value := range params {
		if strings.EqualFold(name, key) {
			return value
		}
	}
	return ""
}
