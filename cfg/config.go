package cfg

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/lantianz/lantz-tmail/mailbox"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDialTimeout   = 120 * time.Second
	DefaultMaxIdle       = 10 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

type Config struct {
	Accounts  map[string]Account `yaml:"accounts"`
	Tokens    Tokens             `yaml:"tokens"`
	Pool      Pool               `yaml:"pool"`
	Transport Transport          `yaml:"transport"`
	SMTP      SMTP               `yaml:"smtp"`
	Store     Store              `yaml:"store"`
}

// Account is one real catch-all mailbox serving temporary addresses for a
// domain.
type Account struct {
	Domain              string `yaml:"domain"`
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	Username            string `yaml:"username"`
	Password            string `yaml:"password"`
	Folder              string `yaml:"folder"`
	NoTLS               bool   `yaml:"noTLS"`
	SkipTLSVerification bool   `yaml:"skipTLSVerification"`
}

func (a Account) Credentials() mailbox.Credentials {
	return mailbox.Credentials{
		Domain:   a.Domain,
		Host:     a.Host,
		Port:     a.Port,
		Username: a.Username,
		Password: a.Password,
		Folder:   a.Folder,
	}.WithDefaults()
}

type Tokens struct {
	// Encrypt switches the whole process to authenticated-encryption tokens.
	Encrypt bool `yaml:"encrypt"`
	// Secret is required when Encrypt is set.
	Secret string `yaml:"secret"`
	// TTLHours limits token lifetime; 0 means tokens never expire.
	TTLHours int `yaml:"ttlHours"`
}

type Pool struct {
	MaxIdleMinutes int `yaml:"maxIdleMinutes"`
	SweepMinutes   int `yaml:"sweepMinutes"`
}

func (p Pool) MaxIdle() time.Duration {
	if p.MaxIdleMinutes <= 0 {
		return DefaultMaxIdle
	}
	return time.Duration(p.MaxIdleMinutes) * time.Minute
}

func (p Pool) SweepInterval() time.Duration {
	if p.SweepMinutes <= 0 {
		return DefaultSweepInterval
	}
	return time.Duration(p.SweepMinutes) * time.Minute
}

type Transport struct {
	DialTimeoutMS int `yaml:"dialTimeoutMS"`
	// DownloadRateKB caps part downloads in KiB/s; 0 means unlimited.
	DownloadRateKB int `yaml:"downloadRateKB"`
}

func (t Transport) DialTimeout() time.Duration {
	if t.DialTimeoutMS <= 0 {
		return DefaultDialTimeout
	}
	return time.Duration(t.DialTimeoutMS) * time.Millisecond
}

// SMTP is only used by the self-test probe.
type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Store struct {
	File string `yaml:"file"`
}

func newConfig() *Config {
	return &Config{
		Accounts: make(map[string]Account),
	}
}

// LoadFromFile loads the configuration from a YAML file, then applies
// environment overrides.
func LoadFromFile(fileName string) (*Config, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	return loadConfig(file)
}

// loadConfig from a io.ReadCloser
func loadConfig(reader io.ReadCloser) (*Config, error) {
	defer reader.Close()
	decoder := yaml.NewDecoder(reader)
	config := newConfig()
	err := decoder.Decode(config)
	if err != nil && err != io.EOF {
		return nil, err
	}
	config.applyEnvironment()
	if err = validateConfiguration(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvironment overlays the recognized environment options on top of the
// file values.
func (c *Config) applyEnvironment() {
	if value, ok := os.LookupEnv("TMAIL_ENCRYPTION_ENABLED"); ok {
		enabled, err := strconv.ParseBool(value)
		if err == nil {
			c.Tokens.Encrypt = enabled
		}
	}
	if value, ok := os.LookupEnv("TMAIL_ENCRYPTION_SECRET"); ok {
		c.Tokens.Secret = value
	}
	if value, ok := os.LookupEnv("TMAIL_TOKEN_TTL_HOURS"); ok {
		hours, err := strconv.Atoi(value)
		if err == nil {
			c.Tokens.TTLHours = hours
		}
	}
	if value, ok := os.LookupEnv("TMAIL_DIAL_TIMEOUT_MS"); ok {
		ms, err := strconv.Atoi(value)
		if err == nil {
			c.Transport.DialTimeoutMS = ms
		}
	}
}

func validateConfiguration(config *Config) error {
	for name, account := range config.Accounts {
		if account.Domain == "" {
			return fmt.Errorf("account %q: missing domain", name)
		}
		if err := account.Credentials().Validate(); err != nil {
			return fmt.Errorf("account %q: %w", name, err)
		}
	}
	return nil
}

// Account returns the named account, or the only one when name is empty.
func (c *Config) Account(name string) (Account, error) {
	if name == "" {
		if len(c.Accounts) == 1 {
			for _, account := range c.Accounts {
				return account, nil
			}
		}
		return Account{}, fmt.Errorf("no account name given and %d accounts configured", len(c.Accounts))
	}
	account, ok := c.Accounts[name]
	if !ok {
		return Account{}, fmt.Errorf("account not found: %s", name)
	}
	return account, nil
}
