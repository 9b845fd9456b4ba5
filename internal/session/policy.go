// Package session implements the portal's signed session cookie and the
// server-side session store holding caller preferences.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// ErrInvalidSession is returned for a cookie that fails verification.
var ErrInvalidSession = errors.New("session: invalid cookie")

// Policy is the process-wide cookie policy.
type Policy struct {
	Name     string
	TTL      time.Duration
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	key      []byte
}

// PolicyConfig mirrors the session section of the service configuration.
type PolicyConfig struct {
	CookieName string
	Secret     string
	TTL        time.Duration
	Secure     bool
	HTTPOnly   bool
	SameSite   string
}

// NewPolicy derives the signing key from the secret.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session: secret is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "portal.sid"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	sameSite, err := parseSameSite(cfg.SameSite)
	if err != nil {
		return nil, err
	}

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(cfg.Secret), nil, []byte("portal session cookie v1"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("session: derive key: %w", err)
	}

	return &Policy{
		Name:     cfg.CookieName,
		TTL:      cfg.TTL,
		Secure:   cfg.Secure,
		HTTPOnly: cfg.HTTPOnly,
		SameSite: sameSite,
		key:      key,
	}, nil
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("session: invalid same_site %q", v)
	}
}

// Sign returns the cookie value for session id.
func (p *Policy) Sign(id string) string {
	return id + "." + p.signature(id)
}

// Verify returns the session id carried by a cookie value.
func (p *Policy) Verify(value string) (string, error) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", ErrInvalidSession
	}
	id, sig := value[:i], value[i+1:]
	if !hmac.Equal([]byte(sig), []byte(p.signature(id))) {
		return "", ErrInvalidSession
	}
	return id, nil
}

func (p *Policy) signature(id string) string {
	mac := hmac.New(sha256.New, p.key)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Cookie builds the session cookie for id.
func (p *Policy) Cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    p.Sign(id),
		Path:     "/",
		MaxAge:   int(p.TTL / time.Second),
		Expires:  time.Now().Add(p.TTL),
		Secure:   p.Secure,
		HttpOnly: p.HTTPOnly,
		SameSite: p.SameSite,
	}
}

// Expired builds a cookie that clears the session in the browser.
func (p *Policy) Expired() *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   p.Secure,
		HttpOnly: p.HTTPOnly,
		SameSite: p.SameSite,
	}
}
