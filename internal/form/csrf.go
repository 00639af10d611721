// internal/form/csrf.go
//
// LeadFlow – Forms subsystem: stateless CSRF token and fill-time guard.
//
// Context
//   Rendered pages embed a hidden `csrf_token` input and a `render_ts`
//   timestamp.  The server verifies both on POST to ensure the request
//   originated from a form it rendered and was not filled by a script.  The
//   token is *stateless*:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – calculated with the configured secret.
//
//   No server-side sessions are required, so any instance behind the load
//   balancer can verify a token another instance issued, provided they share
//   forms.csrf_key.
//
// Workflow
//   •  NewGuard(secret, minFill) → *Guard.  Empty secret = random key.
//   •  Token()            → token string for the renderer.
//   •  Verify(tok)        → constant-time verify; false on any failure.
//   •  Check(posted)      → form-level message, "" when the post is fine.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig
	maxAge     = 2 * time.Hour        // token valid window
	maxFill    = 30 * time.Minute     // render → submit upper bound

	// Hidden input names.
	FieldCSRF     = "csrf_token"
	FieldRenderTS = "render_ts"
)

// Guard issues and verifies CSRF tokens and enforces fill-time bounds.
type Guard struct {
	secret  []byte
	minFill time.Duration
	now     func() time.Time
}

// NewGuard returns a Guard keyed by secret.  When secret is shorter than 32
// bytes a random key is generated; tokens then die with the process.
func NewGuard(secret []byte, minFill time.Duration) *Guard {
	if len(secret) < 32 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
		zap.S().Warnw("forms.csrf_key not set or too short; using an ephemeral key")
	}
	return &Guard{secret: secret, minFill: minFill, now: time.Now}
}

// DecodeKey parses a base64url (raw or padded) or standard base64 key.
func DecodeKey(s string) []byte {
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b
		}
	}
	return nil
}

// Token creates a new CSRF token.  Call once per form render.
func (g *Guard) Token() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(g.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, g.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok passes HMAC and age checks.
func (g *Guard) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	// Timestamp window check.
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := g.now()
	if now.Sub(issued) > maxAge || issued.Sub(now) > time.Minute {
		// Future timestamp (clock skew) or older than maxAge.
		return false
	}

	return hmac.Equal(sig, g.sign(nonce, tsBytes))
}

func (g *Guard) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}

// Check verifies the CSRF token and render timestamp in posted.  It returns
// an empty string on success and a user-visible message on failure.
func (g *Guard) Check(posted url.Values) string {
	if tok := posted.Get(FieldCSRF); tok == "" || !g.Verify(tok) {
		return "Security token invalid.  Please refresh and try again."
	}
	return g.checkTiming(posted.Get(FieldRenderTS))
}

// checkTiming ensures the form was not submitted suspiciously fast or too late.
func (g *Guard) checkTiming(tsRaw string) string {
	if tsRaw == "" {
		return "Timestamp missing.  Please reload the page."
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return "Bad timestamp.  Please retry."
	}
	delta := g.now().Sub(time.UnixMicro(ts))
	switch {
	case delta < g.minFill:
		return "Form submitted too quickly.  Please enter the fields manually."
	case delta > maxFill:
		return "Form expired.  Please reload and submit again."
	default:
		return ""
	}
}
