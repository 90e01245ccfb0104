// Package credential implements the credential providers of the SDK: static
// and environment sources, the shared credential files, the instance
// metadata service of CVM, the STS role exchanges, and the wrappers that
// cache, refresh and chain them.
//
// Providers are combined through NewChain; NewDefaultChain mirrors the
// resolution order of the platform's other SDKs.
package credential

import (
	"context"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/tcerr"
)

// Null never delivers a credential. It terminates provider chains and
// stands in where a provider is required but none is configured.
type Null struct{}

func NewNull() Null { return Null{} }

func (Null) Retrieve(context.Context) (auth.Credential, error) {
	return auth.Credential{}, tcerr.ErrNoProvider
}

func (Null) Shutdown(context.Context) error { return nil }

func (Null) String() string { return "null" }
