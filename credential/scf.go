package credential

import (
	"context"
	"fmt"
	"os"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/tcerr"
)

const (
	envSCFSecretID     = "TENCENTCLOUD_SECRETID"
	envSCFSecretKey    = "TENCENTCLOUD_SECRETKEY"
	envSCFSessionToken = "TENCENTCLOUD_SESSIONTOKEN"
)

// SCFEnv reads the credential the serverless runtime injects into function
// environments. The variable names differ from the ones Env reads: the
// runtime spells them without underscores between the words.
type SCFEnv struct{}

func NewSCFEnv() SCFEnv { return SCFEnv{} }

func (SCFEnv) Retrieve(context.Context) (auth.Credential, error) {
	id, key := os.Getenv(envSCFSecretID), os.Getenv(envSCFSecretKey)
	if id == "" || key == "" {
		return auth.Credential{}, fmt.Errorf("%s or %s is not set: %w", envSCFSecretID, envSCFSecretKey, tcerr.ErrNoProvider)
	}

	return auth.Credential{
		SecretID:  id,
		SecretKey: key,
		Token:     os.Getenv(envSCFSessionToken),
	}, nil
}

func (SCFEnv) Shutdown(context.Context) error { return nil }

func (SCFEnv) String() string { return "scf-env" }
