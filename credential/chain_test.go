package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/tcerr"
)

func TestChainSelectsFirstWorkingProvider(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("nothing here")}
	working := &fakeProvider{
		name:       "working",
		credential: auth.Credential{SecretID: "id", SecretKey: "key"},
	}
	spare := &fakeProvider{
		name:       "spare",
		credential: auth.Credential{SecretID: "spare-id", SecretKey: "spare-key"},
	}

	chain, err := NewChain(context.Background(), broken, working, spare)
	require.NoError(t, err)
	assert.Equal(t, "chain(working)", chain.String())

	cred, err := chain.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id", cred.SecretID)

	// Selection stopped at the first success; Retrieve goes straight to the
	// selected provider.
	retrieves, _ := broken.calls()
	assert.Equal(t, 1, retrieves)
	retrieves, _ = working.calls()
	assert.Equal(t, 2, retrieves)
	retrieves, _ = spare.calls()
	assert.Equal(t, 0, retrieves)
}

func TestChainAllProvidersFail(t *testing.T) {
	first := &fakeProvider{name: "first", err: errors.New("first down")}
	second := &fakeProvider{name: "second", err: errors.New("second down")}

	_, err := NewChain(context.Background(), first, second)
	assert.ErrorIs(t, err, tcerr.ErrNoProvider)
	assert.ErrorContains(t, err, "first down")
	assert.ErrorContains(t, err, "second down")

	// A failed selection releases every member.
	_, shutdowns := first.calls()
	assert.Equal(t, 1, shutdowns)
	_, shutdowns = second.calls()
	assert.Equal(t, 1, shutdowns)
}

func TestChainShutdownReachesEveryMember(t *testing.T) {
	selected := &fakeProvider{
		name:       "selected",
		credential: auth.Credential{SecretID: "id", SecretKey: "key"},
	}
	unprobed := &fakeProvider{name: "unprobed"}

	chain, err := NewChain(context.Background(), selected, unprobed)
	require.NoError(t, err)

	require.NoError(t, chain.Shutdown(context.Background()))

	_, shutdowns := selected.calls()
	assert.Equal(t, 1, shutdowns)
	_, shutdowns = unprobed.calls()
	assert.Equal(t, 1, shutdowns)
}

func TestChainShutdownCollectsErrors(t *testing.T) {
	good := &fakeProvider{
		name:       "good",
		credential: auth.Credential{SecretID: "id", SecretKey: "key"},
	}
	stuck := &fakeProvider{name: "stuck", shutdownErr: errors.New("still busy")}

	chain, err := NewChain(context.Background(), good, stuck)
	require.NoError(t, err)

	err = chain.Shutdown(context.Background())
	assert.ErrorContains(t, err, "stuck")
	assert.ErrorContains(t, err, "still busy")
}

func TestDefaultChainProviders(t *testing.T) {
	names := func(providers []auth.CredentialProvider) []string {
		out := make([]string, 0, len(providers))
		for _, p := range providers {
			out = append(out, p.String())
		}
		return out
	}

	linux := defaultProviders("linux")
	assert.Equal(t, []string{
		"env",
		"temporary(instance-metadata)",
		"temporary(oidc)",
		"scf-env",
		"profile",
		"temporary(cli)",
	}, names(linux))

	elsewhere := defaultProviders("darwin")
	assert.Equal(t, []string{
		"env",
		"profile",
		"temporary(cli)",
	}, names(elsewhere))

	for _, p := range append(linux, elsewhere...) {
		require.NoError(t, p.Shutdown(context.Background()))
	}
}
