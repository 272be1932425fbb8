// Package tba implements token-based authentication for the cabinet
// endpoint: an OAuth 1.0-style Authorization header signed with HMAC-SHA256
// over the request method and URL.
//
// The account identifier travels inside the header value as the realm
// parameter. The endpoint requires that exact placement, so the header is
// assembled by hand rather than through a generic OAuth library.
package tba

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/suitesync/internal/common"
)

const SignatureMethod = "HMAC-SHA256"

// Credentials holds the five values every signed request needs: the account
// identifier plus the consumer and token key/secret pairs.
type Credentials struct {
	AccountID      string
	ConsumerKey    string
	ConsumerSecret string
	TokenID        string
	TokenSecret    string
}

// Validate reports the first missing credential. Signing must fail here,
// before any network call, rather than as a remote 401.
func (c Credentials) Validate() error {
	checks := []struct {
		name  string
		value string
	}{
		{"ACCOUNT_ID", c.AccountID},
		{"CONSUMER_KEY", c.ConsumerKey},
		{"CONSUMER_SECRET", c.ConsumerSecret},
		{"TOKEN_ID", c.TokenID},
		{"TOKEN_SECRET", c.TokenSecret},
	}
	for _, ch := range checks {
		if ch.value == "" {
			return fmt.Errorf("%w: %s", common.ErrConfigMissing, ch.name)
		}
	}
	return nil
}

// Signer produces per-request Authorization headers. Timestamp and nonce
// sources are injectable for tests; zero values use the real clock and
// random nonces.
type Signer struct {
	creds Credentials
	now   func() time.Time
	nonce func() string
}

type SignerOption func(*Signer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) { s.now = now }
}

// WithNonceSource overrides the nonce source.
func WithNonceSource(nonce func() string) SignerOption {
	return func(s *Signer) { s.nonce = nonce }
}

func NewSigner(creds Credentials, opts ...SignerOption) (*Signer, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	s := &Signer{
		creds: creds,
		now:   time.Now,
		nonce: randomNonce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func randomNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sign returns the Authorization header value for a single request. Every
// call produces a fresh timestamp and nonce, so a header is never valid for
// more than the one request it was computed for.
func (s *Signer) Sign(method, rawURL string) (string, error) {
	ts := fmt.Sprintf("%d", s.now().Unix())
	nonce := s.nonce()
	sig, err := signature(method, rawURL, s.creds, ts, nonce)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`OAuth realm="`)
	b.WriteString(percentEncode(s.creds.AccountID))
	b.WriteString(`", oauth_consumer_key="`)
	b.WriteString(percentEncode(s.creds.ConsumerKey))
	b.WriteString(`", oauth_token="`)
	b.WriteString(percentEncode(s.creds.TokenID))
	b.WriteString(`", oauth_signature_method="`)
	b.WriteString(SignatureMethod)
	b.WriteString(`", oauth_timestamp="`)
	b.WriteString(ts)
	b.WriteString(`", oauth_nonce="`)
	b.WriteString(percentEncode(nonce))
	b.WriteString(`", oauth_signature="`)
	b.WriteString(percentEncode(sig))
	b.WriteString(`"`)
	return b.String(), nil
}

// signature computes the base-string signature over method + URL + oauth
// parameters, keyed by consumerSecret&tokenSecret.
func signature(method, rawURL string, creds Credentials, timestamp, nonce string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	params := map[string][]string{
		"oauth_consumer_key":     {creds.ConsumerKey},
		"oauth_token":            {creds.TokenID},
		"oauth_signature_method": {SignatureMethod},
		"oauth_timestamp":        {timestamp},
		"oauth_nonce":            {nonce},
	}
	for k, vs := range u.Query() {
		params[k] = append(params[k], vs...)
	}

	base := strings.ToUpper(method) +
		"&" + percentEncode(baseURL(u)) +
		"&" + percentEncode(normalizeParams(params))

	key := percentEncode(creds.ConsumerSecret) + "&" + percentEncode(creds.TokenSecret)

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// baseURL strips the query and fragment, lowercases scheme and host.
func baseURL(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + u.EscapedPath()
}

// normalizeParams percent-encodes keys and values, sorts them, and joins
// with & per the OAuth parameter normalization rules.
func normalizeParams(params map[string][]string) string {
	pairs := make([]string, 0, len(params))
	for k, vs := range params {
		for _, v := range vs {
			pairs = append(pairs, percentEncode(k)+"="+percentEncode(v))
		}
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// percentEncode implements RFC 3986 encoding with the unreserved set only.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
