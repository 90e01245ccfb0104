package credential

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	log "github.com/sirupsen/logrus"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/tcerr"
)

// Chain resolves through the first provider of a list able to deliver a
// credential. Selection is eager: NewChain tries the providers in order and
// the chosen one serves every later Retrieve, so API calls pay no selection
// cost. The chain owns all its members, selected or not, and shuts them
// down on Shutdown.
type Chain struct {
	providers []auth.CredentialProvider
	selected  auth.CredentialProvider
}

// NewChain selects the first of providers able to deliver a credential.
// When every provider fails, their resources are released and the
// constructor fails with tcerr.ErrNoProvider.
func NewChain(ctx context.Context, providers ...auth.CredentialProvider) (*Chain, error) {
	c := &Chain{providers: providers}

	var errs []error
	for _, p := range providers {
		_, err := p.Retrieve(ctx)
		if err == nil {
			log.WithField("tc-provider", p.String()).Debug("selected credential provider")
			c.selected = p
			return c, nil
		}
		log.WithField("tc-provider", p.String()).WithError(err).Debug("credential provider not available")
		errs = append(errs, fmt.Errorf("%s: %v", p, err))
	}

	if err := c.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%v: %w", errors.Join(errs...), tcerr.ErrNoProvider)
}

func (c *Chain) Retrieve(ctx context.Context) (auth.Credential, error) {
	if c.selected == nil {
		return auth.Credential{}, tcerr.ErrNoProvider
	}
	return c.selected.Retrieve(ctx)
}

// Shutdown shuts every member down, not only the selected one: providers
// that lost the selection may still hold nested clients from their probe.
func (c *Chain) Shutdown(ctx context.Context) error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down %s provider: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Chain) String() string {
	if c.selected == nil {
		return "chain"
	}
	return fmt.Sprintf("chain(%s)", c.selected)
}

// NewDefaultChain resolves credentials the way the platform's first-party
// SDKs do: environment variables first, then the instance metadata service,
// the OIDC token exchange and the serverless runtime variables, and finally
// the shared and CLI credential files. On platforms without those runtimes
// only the environment and the credential files are consulted.
//
// Providers returning expiring credentials are wrapped in NewTemporary so a
// selected provider keeps refreshing ahead of expiry.
func NewDefaultChain(ctx context.Context) (*Chain, error) {
	return NewChain(ctx, defaultProviders(runtime.GOOS)...)
}

func defaultProviders(goos string) []auth.CredentialProvider {
	if goos == "linux" {
		return []auth.CredentialProvider{
			NewEnv(),
			NewTemporary(NewInstanceMetadata()),
			NewTemporary(NewOIDC()),
			NewSCFEnv(),
			NewProfile(),
			NewTemporary(NewCLIProfile()),
		}
	}
	return []auth.CredentialProvider{
		NewEnv(),
		NewProfile(),
		NewTemporary(NewCLIProfile()),
	}
}
