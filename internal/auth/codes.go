// internal/auth/codes.go
//
// One-time email verification codes for signup and login.
// Codes are six crypto-random digits, expire after a short TTL, are bound to
// a purpose, and are consumed on first successful match. Comparison is
// constant-time.

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"sync"
	"time"
)

// Purpose binds a code to the flow that requested it.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeLogin  Purpose = "login"
)

// ValidPurpose reports whether p is a known purpose.
func ValidPurpose(p Purpose) bool {
	return p == PurposeSignup || p == PurposeLogin
}

type codeRecord struct {
	code      string
	purpose   Purpose
	expiresAt time.Time
}

// Codes is an in-memory store of pending verification codes keyed by email.
// Issuing a new code replaces any pending one for that address.
type Codes struct {
	mu      sync.Mutex
	ttl     time.Duration
	byEmail map[string]codeRecord
	now     func() time.Time
}

// NewCodes constructs a code store whose codes expire after ttl.
func NewCodes(ttl time.Duration) *Codes {
	return &Codes{
		ttl:     ttl,
		byEmail: make(map[string]codeRecord),
		now:     time.Now,
	}
}

// Issue generates and stores a fresh six-digit code for email.
func (c *Codes) Issue(email string, purpose Purpose) string {
	code := sixDigits()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byEmail[email] = codeRecord{
		code:      code,
		purpose:   purpose,
		expiresAt: c.now().Add(c.ttl),
	}
	return code
}

// Consume validates code against the pending record for email and deletes
// it on success. Wrong purpose, wrong format, expiry, or mismatch all fail
// without consuming the record.
func (c *Codes) Consume(email, code string, purpose Purpose) bool {
	if !ValidFormat(code) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.byEmail[email]
	if !ok || rec.purpose != purpose || c.now().After(rec.expiresAt) {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(rec.code), []byte(code)) != 1 {
		return false
	}
	delete(c.byEmail, email)
	return true
}

// ValidFormat reports whether s is exactly six ASCII digits.
func ValidFormat(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// sixDigits returns a uniform random code in [100000, 999999].
func sixDigits() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand failing means the process has bigger problems.
		panic(err)
	}
	return (n.Add(n, big.NewInt(100000))).String()
}
