package credential

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/teco-project/teco-go/auth"
)

// DefaultRefreshHeadroom is how long before its expiration a cached
// credential is refreshed.
const DefaultRefreshHeadroom = 5 * time.Minute

// Temporary wraps a provider returning expiring credentials and serves a
// cached credential until it comes close to its expiration. At most one
// refresh is in flight; callers arriving during a refresh share its outcome.
// Credentials without an expiration are cached forever.
type Temporary struct {
	inner    auth.CredentialProvider
	headroom time.Duration

	mu         sync.RWMutex
	credential auth.Credential
	cached     bool

	group singleflight.Group
}

// WithRefreshHeadroom overrides how long before its expiration the
// credential is refreshed.
func WithRefreshHeadroom(d time.Duration) func(*Temporary) {
	return func(p *Temporary) { p.headroom = d }
}

// NewTemporary wraps inner. The provider owns inner and shuts it down on
// Shutdown.
func NewTemporary(inner auth.CredentialProvider, optFns ...func(*Temporary)) *Temporary {
	p := &Temporary{inner: inner, headroom: DefaultRefreshHeadroom}
	for _, fn := range optFns {
		fn(p)
	}
	return p
}

func (p *Temporary) Retrieve(ctx context.Context) (auth.Credential, error) {
	p.mu.RLock()
	credential, ok := p.credential, p.cached
	p.mu.RUnlock()
	if ok && !credential.IsExpiringWithin(p.headroom) {
		return credential, nil
	}

	v, err, _ := p.group.Do("refresh", func() (any, error) {
		credential, err := p.inner.Retrieve(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.credential, p.cached = credential, true
		p.mu.Unlock()
		return credential, nil
	})
	if err != nil {
		return auth.Credential{}, err
	}
	return v.(auth.Credential), nil
}

func (p *Temporary) Shutdown(ctx context.Context) error {
	return p.inner.Shutdown(ctx)
}

func (p *Temporary) String() string {
	return fmt.Sprintf("temporary(%s)", p.inner)
}
