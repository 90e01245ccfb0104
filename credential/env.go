package credential

import (
	"context"
	"fmt"
	"os"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/tcerr"
)

const (
	envSecretID  = "TENCENTCLOUD_SECRET_ID"
	envSecretKey = "TENCENTCLOUD_SECRET_KEY"
	envToken     = "TENCENTCLOUD_TOKEN"
)

// Env reads the credential from the TENCENTCLOUD_SECRET_ID,
// TENCENTCLOUD_SECRET_KEY and TENCENTCLOUD_TOKEN environment variables.
// The variables are read on every Retrieve.
type Env struct{}

func NewEnv() Env { return Env{} }

func (Env) Retrieve(context.Context) (auth.Credential, error) {
	id, key := os.Getenv(envSecretID), os.Getenv(envSecretKey)
	if id == "" || key == "" {
		return auth.Credential{}, fmt.Errorf("%s or %s is not set: %w", envSecretID, envSecretKey, tcerr.ErrNoProvider)
	}

	return auth.Credential{
		SecretID:  id,
		SecretKey: key,
		Token:     os.Getenv(envToken),
	}, nil
}

func (Env) Shutdown(context.Context) error { return nil }

func (Env) String() string { return "env" }
