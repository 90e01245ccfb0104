package credential

import (
	"context"
	"fmt"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/tcerr"
)

// Deferred wraps a provider whose resolution is slow, typically a network
// exchange, and starts one resolution in the background at construction.
// The first successful credential is cached and served from then on; wrap
// providers whose credentials expire in NewTemporary instead, Deferred never
// refreshes.
type Deferred struct {
	inner auth.CredentialProvider

	done       chan struct{}
	credential auth.Credential
	err        error
}

// NewDeferred starts resolving from inner and returns immediately. Callers
// retrieving before the resolution finished wait for it. The provider owns
// inner and shuts it down on Shutdown.
func NewDeferred(inner auth.CredentialProvider) *Deferred {
	d := &Deferred{inner: inner, done: make(chan struct{})}
	go d.resolve()
	return d
}

func (d *Deferred) resolve() {
	defer close(d.done)
	credential, err := d.inner.Retrieve(context.Background())
	if err != nil {
		d.err = fmt.Errorf("deferred %s resolution: %v: %w", d.inner, err, tcerr.ErrNoProvider)
		return
	}
	d.credential = credential
}

func (d *Deferred) Retrieve(ctx context.Context) (auth.Credential, error) {
	select {
	case <-d.done:
		return d.credential, d.err
	case <-ctx.Done():
		return auth.Credential{}, ctx.Err()
	}
}

// Shutdown waits for the background resolution, then shuts the inner
// provider down.
func (d *Deferred) Shutdown(ctx context.Context) error {
	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return d.inner.Shutdown(ctx)
}

func (d *Deferred) String() string {
	return fmt.Sprintf("deferred(%s)", d.inner)
}
