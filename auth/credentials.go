// Package auth provides the credential model and the request signers of the
// SDK: the TC3-HMAC-SHA256 signer used by current service APIs, the legacy V1
// query signer and the object-storage signer.
package auth

import (
	"context"
	"fmt"
	"time"
)

// Credential is a set of API credentials. Token is only set for temporary
// credentials issued by STS or the instance metadata endpoint; those also
// carry their expiration in Expires with CanExpire set.
type Credential struct {
	SecretID  string
	SecretKey string
	Token     string

	CanExpire bool
	Expires   time.Time
}

// Empty reports whether either secret part is missing. Signing an empty
// credential fails unless the signing mode is SigningSkip.
func (c Credential) Empty() bool {
	return c.SecretID == "" || c.SecretKey == ""
}

// IsExpiringWithin reports whether the credential expires within d.
// Credentials without an expiration never expire.
func (c Credential) IsExpiringWithin(d time.Duration) bool {
	return c.CanExpire && time.Until(c.Expires) < d
}

// A CredentialProvider resolves the credential used to sign an outgoing
// request. Retrieve may reach the network and honors ctx. Shutdown releases
// provider-owned resources such as nested clients. String returns a short
// description for logs.
type CredentialProvider interface {
	Retrieve(ctx context.Context) (Credential, error)
	Shutdown(ctx context.Context) error
	fmt.Stringer
}
