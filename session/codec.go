package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingSecret = errors.New("token encryption secret is not configured")
	ErrInvalidToken  = errors.New("invalid session token")
	ErrTokenExpired  = errors.New("session token has expired")
)

const (
	ivSize  = 16
	tagSize = 16
)

// Codec turns sessions into opaque tokens and back.
//
// In plain mode the token is base64(JSON(session)). In encrypted mode it is
// base64(IV ‖ AuthTag ‖ Ciphertext) with AES-256-GCM over the same JSON,
// the key derived as SHA-256(secret). The mode is a process-wide switch:
// a codec never mixes both formats.
type Codec struct {
	// Encrypt enables the authenticated-encryption token format.
	Encrypt bool
	// Secret is required when Encrypt is set.
	Secret string
	// TTL bounds the age accepted by CheckExpiry; zero or negative means
	// tokens never expire.
	TTL time.Duration
}

// Encode stamps a fresh issuance time and serializes the session. Two tokens
// for identical credentials are never byte-identical.
func (c Codec) Encode(s Session) (string, error) {
	s.IssuedAt = time.Now().UTC()
	return c.encode(s)
}

func (c Codec) encode(s Session) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("cannot serialize session: %w", err)
	}
	if !c.Encrypt {
		return base64.StdEncoding.EncodeToString(payload), nil
	}

	aead, err := c.cipher()
	if err != nil {
		return "", err
	}
	iv := make([]byte, ivSize)
	if _, err = rand.Read(iv); err != nil {
		return "", fmt.Errorf("cannot generate IV: %w", err)
	}
	// Seal produces ciphertext ‖ tag, the token carries IV ‖ tag ‖ ciphertext
	sealed := aead.Seal(nil, iv, payload, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	token := make([]byte, 0, ivSize+len(sealed))
	token = append(token, iv...)
	token = append(token, tag...)
	token = append(token, ciphertext...)
	return base64.StdEncoding.EncodeToString(token), nil
}

// Decode is the inverse of Encode. Any malformed or tampered token fails with
// ErrInvalidToken; it never yields a different session.
func (c Codec) Decode(token string) (Session, error) {
	var s Session
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return s, fmt.Errorf("%w: bad base64 encoding", ErrInvalidToken)
	}

	payload := raw
	if c.Encrypt {
		aead, err := c.cipher()
		if err != nil {
			return s, err
		}
		if len(raw) < ivSize+tagSize {
			return s, fmt.Errorf("%w: truncated payload", ErrInvalidToken)
		}
		iv := raw[:ivSize]
		tag := raw[ivSize : ivSize+tagSize]
		ciphertext := raw[ivSize+tagSize:]

		sealed := make([]byte, 0, len(ciphertext)+tagSize)
		sealed = append(sealed, ciphertext...)
		sealed = append(sealed, tag...)
		payload, err = aead.Open(nil, iv, sealed, nil)
		if err != nil {
			return s, fmt.Errorf("%w: authentication failed", ErrInvalidToken)
		}
	}

	if err = json.Unmarshal(payload, &s); err != nil {
		return s, fmt.Errorf("%w: bad session payload", ErrInvalidToken)
	}
	return s, nil
}

// CheckExpiry fails with ErrTokenExpired when the session is older than the
// configured TTL. Sessions without an issuance time never expire.
func (c Codec) CheckExpiry(s Session) error {
	if c.TTL <= 0 || s.IssuedAt.IsZero() {
		return nil
	}
	if time.Since(s.IssuedAt) > c.TTL {
		return ErrTokenExpired
	}
	return nil
}

func (c Codec) cipher() (cipher.AEAD, error) {
	if c.Secret == "" {
		return nil, ErrMissingSecret
	}
	key := sha256.Sum256([]byte(c.Secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("cannot initialize cipher: %w", err)
	}
	return cipher.NewGCMWithNonceSize(block, ivSize)
}
