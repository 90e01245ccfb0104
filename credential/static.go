package credential

import (
	"context"

	"github.com/teco-project/teco-go/auth"
)

// Static serves one fixed credential for the lifetime of the provider.
type Static struct {
	credential auth.Credential
}

func NewStatic(credential auth.Credential) *Static {
	return &Static{credential: credential}
}

func (s *Static) Retrieve(context.Context) (auth.Credential, error) {
	return s.credential, nil
}

func (s *Static) Shutdown(context.Context) error { return nil }

func (s *Static) String() string { return "static" }
