package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Header names Slack attaches to every signed request.
const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"
)

const (
	// DefaultVersion is the signing scheme version Slack currently issues.
	DefaultVersion = "v0"

	// DefaultLeeway bounds how far behind the wall clock a request
	// timestamp may lag before the request is treated as a replay.
	DefaultLeeway = 5 * time.Minute
)

// Rejection reasons returned by Authenticate. All are safe to surface to
// callers; none contain the expected signature or the signing secret.
var (
	// ErrMalformedTimestamp means the timestamp header was present but not
	// an integer number of seconds.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrStaleTimestamp means the request timestamp is older than the
	// configured leeway allows.
	ErrStaleTimestamp = errors.New("timestamp too old")

	// ErrInvalidSignature means the supplied signature did not match the
	// one computed from the signing secret. Deliberately generic.
	ErrInvalidSignature = errors.New("signature invalid")
)

// MissingHeaderError reports a required signing header absent from the
// request. The Header field names the first missing header in check order.
type MissingHeaderError struct {
	Header string
}

func (e *MissingHeaderError) Error() string {
	return fmt.Sprintf("missing required header %q", e.Header)
}

// Request is the transport-agnostic view of an incoming webhook request.
//
// Headers holds one value per header name, looked up exactly as spelled in
// HeaderTimestamp and HeaderSignature. Body is the raw request body,
// byte-for-byte as received; re-encoding it before verification will break
// the signature.
type Request struct {
	Headers map[string]string
	Body    string
}

// AuthenticatorConfig configures an Authenticator.
type AuthenticatorConfig struct {
	// SigningSecret is the shared secret from the Slack app config. Required.
	SigningSecret string

	// Version overrides the signing scheme version (default "v0").
	Version string

	// Leeway overrides how old a request timestamp may be (default 5m).
	// Zero means the default; negative is a configuration error.
	Leeway time.Duration

	// Now overrides the clock, for deterministic tests (default time.Now).
	Now func() time.Time
}

// Authenticator verifies that webhook requests were signed by Slack.
//
// All fields are fixed at construction, so a single instance is safe for
// concurrent use. Authenticate performs no I/O and keeps no state between
// calls; its only side effect is one clock read.
type Authenticator struct {
	secret  []byte
	version string
	leeway  time.Duration
	now     func() time.Time
}

// NewAuthenticator builds an Authenticator from cfg, applying defaults for
// unset optional fields. The signing secret must be non-empty.
func NewAuthenticator(cfg AuthenticatorConfig) (*Authenticator, error) {
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if cfg.Leeway < 0 {
		return nil, fmt.Errorf("leeway must not be negative: %v", cfg.Leeway)
	}

	a := &Authenticator{
		secret:  []byte(cfg.SigningSecret),
		version: cfg.Version,
		leeway:  cfg.Leeway,
		now:     cfg.Now,
	}
	if a.version == "" {
		a.version = DefaultVersion
	}
	if a.leeway == 0 {
		a.leeway = DefaultLeeway
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// Authenticate checks req against the signing scheme and returns nil when
// the request should be trusted.
//
// Checks run in a fixed order and stop at the first failure:
//
//  1. Both signing headers present (timestamp checked first, so when both
//     are missing the timestamp header is the one reported).
//  2. Timestamp parses as base-10 integer seconds.
//  3. Timestamp is not older than now minus leeway. Timestamps ahead of
//     the local clock pass; a sender with a fast clock stays verifiable
//     while a replayed capture ages out.
//  4. HMAC-SHA256 over "{version}:{timestamp}:{body}" matches the supplied
//     signature under constant-time comparison.
//
// The returned error is the rejection reason. The outcome depends only on
// the request, the construction parameters, and the clock, so a retried
// call with the same inputs yields the same result.
func (a *Authenticator) Authenticate(req Request) error {
	ts, ok := req.Headers[HeaderTimestamp]
	if !ok {
		return &MissingHeaderError{Header: HeaderTimestamp}
	}
	sig, ok := req.Headers[HeaderSignature]
	if !ok {
		return &MissingHeaderError{Header: HeaderSignature}
	}

	issued, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrMalformedTimestamp
	}

	if issued < a.now().Add(-a.leeway).Unix() {
		return ErrStaleTimestamp
	}

	// The base string uses the timestamp exactly as it appeared on the
	// wire; reformatting the parsed value could change the bytes.
	base := a.version + ":" + ts + ":" + req.Body
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(base))
	expected := a.version + "=" + hex.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) != 1 {
		return ErrInvalidSignature
	}

	return nil
}

// Sign computes the signature header value for a timestamp and body. Used
// by tests and by clients that need to produce signed requests.
func (a *Authenticator) Sign(timestamp, body string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(a.version + ":" + timestamp + ":" + body))
	return a.version + "=" + hex.EncodeToString(mac.Sum(nil))
}
