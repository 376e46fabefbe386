package mailbox

import (
	"fmt"
	"strings"
)

const (
	DefaultPort   = 993
	DefaultFolder = "INBOX"
)

// Credentials identify the real mailbox behind a temporary address.
// They are immutable once captured in a session.
type Credentials struct {
	Domain   string `json:"domain"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Folder   string `json:"folder,omitempty"`
}

// WithDefaults returns a copy with the port and folder filled in when absent.
func (c Credentials) WithDefaults() Credentials {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Folder == "" {
		c.Folder = DefaultFolder
	}
	return c
}

// Addr is the dialing address "host:port".
func (c Credentials) Addr() string {
	c = c.WithDefaults()
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Key identifies a pooled connection: one entry per distinct credential set.
func (c Credentials) Key() string {
	c = c.WithDefaults()
	return fmt.Sprintf("%s:%d:%s", c.Host, c.Port, c.Username)
}

func (c Credentials) Validate() error {
	missing := make([]string, 0, 3)
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete mailbox credentials: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
