package credential

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teco-project/teco-go/auth"
)

func expiringCredential(in time.Duration) auth.Credential {
	return auth.Credential{
		SecretID:  "id",
		SecretKey: "key",
		Token:     "token",
		CanExpire: true,
		Expires:   time.Now().Add(in),
	}
}

func TestTemporaryCachesFreshCredential(t *testing.T) {
	inner := &fakeProvider{name: "inner", credential: expiringCredential(time.Hour)}
	p := NewTemporary(inner)

	for i := 0; i < 3; i++ {
		cred, err := p.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "id", cred.SecretID)
	}

	retrieves, _ := inner.calls()
	assert.Equal(t, 1, retrieves)
}

func TestTemporaryRefreshesWithinHeadroom(t *testing.T) {
	// A minute to expiry is inside the default five minute headroom, so the
	// cache never satisfies a Retrieve.
	inner := &fakeProvider{name: "inner", credential: expiringCredential(time.Minute)}
	p := NewTemporary(inner)

	for i := 0; i < 3; i++ {
		_, err := p.Retrieve(context.Background())
		require.NoError(t, err)
	}

	retrieves, _ := inner.calls()
	assert.Equal(t, 3, retrieves)
}

func TestTemporaryHeadroomOption(t *testing.T) {
	inner := &fakeProvider{name: "inner", credential: expiringCredential(time.Minute)}
	p := NewTemporary(inner, WithRefreshHeadroom(time.Second))

	for i := 0; i < 3; i++ {
		_, err := p.Retrieve(context.Background())
		require.NoError(t, err)
	}

	retrieves, _ := inner.calls()
	assert.Equal(t, 1, retrieves)
}

func TestTemporaryNonExpiringCredential(t *testing.T) {
	inner := &fakeProvider{
		name:       "inner",
		credential: auth.Credential{SecretID: "id", SecretKey: "key"},
	}
	p := NewTemporary(inner)

	for i := 0; i < 3; i++ {
		_, err := p.Retrieve(context.Background())
		require.NoError(t, err)
	}

	retrieves, _ := inner.calls()
	assert.Equal(t, 1, retrieves)
}

func TestTemporaryPropagatesRefreshErrors(t *testing.T) {
	inner := &fakeProvider{name: "inner", err: errors.New("exchange down")}
	p := NewTemporary(inner)

	_, err := p.Retrieve(context.Background())
	assert.ErrorContains(t, err, "exchange down")
}

func TestTemporarySharesOneRefresh(t *testing.T) {
	block := make(chan struct{})
	inner := &fakeProvider{
		name:       "inner",
		credential: expiringCredential(time.Hour),
		block:      block,
	}
	p := NewTemporary(inner)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < len(errs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = p.Retrieve(context.Background())
		}(i)
	}

	// Let the callers pile up on the in-flight refresh before releasing it.
	time.Sleep(100 * time.Millisecond)
	close(block)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	retrieves, _ := inner.calls()
	assert.Equal(t, 1, retrieves)
}

func TestTemporaryShutdownShutsInner(t *testing.T) {
	inner := &fakeProvider{name: "inner"}
	p := NewTemporary(inner)

	require.NoError(t, p.Shutdown(context.Background()))

	_, shutdowns := inner.calls()
	assert.Equal(t, 1, shutdowns)
}

func TestTemporaryString(t *testing.T) {
	assert.Equal(t, "temporary(inner)", NewTemporary(&fakeProvider{name: "inner"}).String())
}
