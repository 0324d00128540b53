// Package idempotency remembers which order an Idempotency-Key produced.
//
// A key moves through two states: claimed (a request is in flight) and
// completed (bound to an order id). Release drops a claim whose request failed
// so the client may retry with the same key.
package idempotency

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	Header = "Idempotency-Key"
	TTL    = 24 * time.Hour
)

// ErrInFlight means another request holds the key and has not completed.
var ErrInFlight = errors.New("idempotency key is in use by a request in flight")

type Store interface {
	// Claim reserves key. When the key already completed it returns the bound
	// value and claimed=false.
	Claim(ctx context.Context, key string) (value string, claimed bool, err error)
	Complete(ctx context.Context, key, value string) error
	Release(ctx context.Context, key string) error
}

func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}
