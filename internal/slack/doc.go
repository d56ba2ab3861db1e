// Package slack authenticates and decodes Slack slash-command webhooks.
//
// The Authenticator implements Slack's request signing scheme: every
// request carries a timestamp header and an HMAC-SHA256 signature computed
// by Slack over "{version}:{timestamp}:{body}" with the app's signing
// secret. Verification recomputes that digest locally and compares it to
// the supplied header in constant time (crypto/subtle).
//
// # Security Model
//
//   - Header presence is checked before any parsing or crypto
//   - Timestamps older than the leeway are rejected to stop replays of
//     captured requests; future timestamps are allowed so a sender with a
//     fast clock is not locked out
//   - Signature comparison is constant-time
//   - Rejection reasons never include the expected signature or the secret
//
// # Request Flow
//
//  1. HTTP glue reads the raw body and copies the two signing headers
//  2. Authenticate returns nil (trusted) or a rejection reason
//  3. On success, ParseSlashCommand decodes the form-encoded payload
//  4. The handler acts on the command and replies with a Message
//
// The package performs no I/O and no logging. Callers own the transport,
// the response, and any record keeping.
package slack
