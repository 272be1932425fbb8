// Package auth verifies signed Authorization headers on incoming requests:
// credential match, signature, timestamp freshness, and nonce replay.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dmitrijs2005/suitesync/internal/common"
	"github.com/dmitrijs2005/suitesync/internal/logging"
	"github.com/dmitrijs2005/suitesync/internal/tba"
)

// nonceCacheSize bounds replay tracking. With a 5 minute timestamp window
// the cache comfortably outlives every nonce it needs to remember.
const nonceCacheSize = 4096

// Verifier authenticates requests against a single configured credential
// set. Nonces are tracked in an LRU so a captured header cannot be replayed
// inside the timestamp window.
type Verifier struct {
	creds  tba.Credentials
	window time.Duration
	nonces *lru.Cache[string, struct{}]
	logger logging.Logger
	now    func() time.Time
}

func NewVerifier(creds tba.Credentials, window time.Duration, logger logging.Logger) (*Verifier, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	nonces, err := lru.New[string, struct{}](nonceCacheSize)
	if err != nil {
		return nil, err
	}
	return &Verifier{
		creds:  creds,
		window: window,
		nonces: nonces,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Middleware rejects unauthenticated requests with 401 before any handler
// runs. The response body mirrors the endpoint's JSON error shape.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := v.check(c.Request); err != nil {
			v.logger.Warn(c.Request.Context(), "request rejected",
				"remote", c.ClientIP(), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		c.Next()
	}
}

func (v *Verifier) check(r *http.Request) error {
	header := r.Header.Get("Authorization")
	if header == "" {
		return fmt.Errorf("%w: missing Authorization header", common.ErrUnauthorized)
	}

	p, err := tba.ParseHeader(header)
	if err != nil {
		return err
	}

	if p.Realm != v.creds.AccountID {
		return fmt.Errorf("%w: unknown realm", common.ErrUnauthorized)
	}
	if p.ConsumerKey != v.creds.ConsumerKey || p.Token != v.creds.TokenID {
		return fmt.Errorf("%w: unknown credentials", common.ErrUnauthorized)
	}

	if err := tba.CheckTimestamp(p, v.now(), v.window); err != nil {
		return err
	}

	if err := tba.Verify(p, r.Method, requestURL(r), v.creds); err != nil {
		return err
	}

	// Only after the signature checks out does the nonce get burned, so an
	// attacker cannot poison the cache with forged headers.
	if seen, _ := v.nonces.ContainsOrAdd(p.Nonce, struct{}{}); seen {
		return common.ErrNonceReused
	}
	return nil
}

// requestURL rebuilds the absolute URL the client signed. Signatures cover
// only the scheme, host, path and query, so this reconstruction matches the
// client side as long as no proxy rewrites the path.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// IsAuthError reports whether err belongs to the authentication family, for
// handlers that map errors onto status codes.
func IsAuthError(err error) bool {
	return errors.Is(err, common.ErrUnauthorized) ||
		errors.Is(err, common.ErrInvalidSignature) ||
		errors.Is(err, common.ErrNonceReused) ||
		errors.Is(err, common.ErrStaleTimestamp)
}
