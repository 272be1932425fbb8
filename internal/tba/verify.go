package tba

import (
	"crypto/hmac"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/suitesync/internal/common"
)

// Params is a parsed Authorization header.
type Params struct {
	Realm           string
	ConsumerKey     string
	Token           string
	SignatureMethod string
	Timestamp       int64
	Nonce           string
	Signature       string
}

// ParseHeader decodes an "OAuth ..." Authorization header value into Params.
func ParseHeader(header string) (*Params, error) {
	const prefix = "OAuth "
	if !strings.HasPrefix(header, prefix) {
		return nil, fmt.Errorf("%w: not an OAuth header", common.ErrUnauthorized)
	}

	p := &Params{}
	for _, part := range strings.Split(header[len(prefix):], ",") {
		part = strings.TrimSpace(part)
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: malformed parameter %q", common.ErrUnauthorized, part)
		}
		v = strings.Trim(v, `"`)
		decoded, err := percentDecode(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
		}
		switch k {
		case "realm":
			p.Realm = decoded
		case "oauth_consumer_key":
			p.ConsumerKey = decoded
		case "oauth_token":
			p.Token = decoded
		case "oauth_signature_method":
			p.SignatureMethod = decoded
		case "oauth_timestamp":
			ts, err := strconv.ParseInt(decoded, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad timestamp", common.ErrUnauthorized)
			}
			p.Timestamp = ts
		case "oauth_nonce":
			p.Nonce = decoded
		case "oauth_signature":
			p.Signature = decoded
		}
	}

	if p.Realm == "" || p.ConsumerKey == "" || p.Token == "" ||
		p.Nonce == "" || p.Signature == "" || p.Timestamp == 0 {
		return nil, fmt.Errorf("%w: incomplete OAuth header", common.ErrUnauthorized)
	}
	return p, nil
}

// Verify recomputes the signature for method+rawURL with the given
// credentials and compares it against the header's. The caller is expected
// to have matched realm/keys against its configured credentials and to
// enforce timestamp and nonce policy separately.
func Verify(p *Params, method, rawURL string, creds Credentials) error {
	if p.SignatureMethod != SignatureMethod {
		return fmt.Errorf("%w: unsupported signature method %q", common.ErrInvalidSignature, p.SignatureMethod)
	}
	want, err := signature(method, rawURL, creds, strconv.FormatInt(p.Timestamp, 10), p.Nonce)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(p.Signature)) {
		return common.ErrInvalidSignature
	}
	return nil
}

// CheckTimestamp enforces a freshness window around the server clock.
func CheckTimestamp(p *Params, now time.Time, window time.Duration) error {
	issued := time.Unix(p.Timestamp, 0)
	if issued.Before(now.Add(-window)) || issued.After(now.Add(window)) {
		return common.ErrStaleTimestamp
	}
	return nil
}

func percentDecode(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated percent escape")
		}
		n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("bad percent escape %q", s[i:i+3])
		}
		b.WriteByte(byte(n))
		i += 2
	}
	return b.String(), nil
}
