// Package tcerr defines the error taxonomy of the SDK: sentinel errors for
// client and credential failures, and the typed errors decoded from service
// response envelopes.
package tcerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Client lifecycle errors.
var (
	ErrAlreadyShutDown     = errors.New("client is already shut down")
	ErrShutdownUnsupported = errors.New("shutdown is not supported for a process-shared client")
)

// Signer errors.
var (
	ErrNoSecretID  = errors.New("credential has an empty secret id")
	ErrNoSecretKey = errors.New("credential has an empty secret key")
)

// Credential resolution errors.
var (
	ErrNoProvider            = errors.New("no provider able to deliver a credential")
	ErrInvalidCredentialFile = errors.New("invalid credential file")
	ErrMissingProfile        = errors.New("credential file is missing the profile")
	ErrMissingSecretID       = errors.New("profile is missing secret_id")
	ErrMissingSecretKey      = errors.New("profile is missing secret_key")

	ErrMissingProviderID        = errors.New("OIDC provider id is not set")
	ErrMissingIdentityTokenFile = errors.New("OIDC identity token file is not set")
	ErrMissingRoleARN           = errors.New("role ARN is not set")
	ErrUnreadableIdentityToken  = errors.New("could not read the OIDC identity token file")

	ErrUnexpectedResponseStatus = errors.New("metadata endpoint returned an unexpected status")
	ErrNoRoleName               = errors.New("could not get the role name from the metadata endpoint")
	ErrNoMetadata               = errors.New("could not get credentials from the metadata endpoint")
	ErrMissingMetadata          = errors.New("metadata credentials are incomplete")
)

// Pagination errors.
var ErrTotalCountChanged = errors.New("total count changed between pages")

// InvalidURLError reports a request URL that could not be parsed or misses a
// host. It normally indicates a broken endpoint strategy.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid request URL %q, please report this at https://github.com/teco-project/teco-go/issues", e.URL)
}

// Context carries the response-side metadata of a failed API call.
type Context struct {
	RequestID string
	Message   string
	Status    int
	Header    http.Header
}

// APIError is implemented by every error decoded from a service response
// envelope.
type APIError interface {
	error
	ErrorCode() string
	ErrorContext() Context
}

// ServiceError is a service error whose code no taxonomy recognized. It still
// carries the code and the full response context.
type ServiceError struct {
	Code string
	Ctx  Context
}

func NewServiceError(code string, ctx Context) *ServiceError {
	return &ServiceError{Code: code, Ctx: ctx}
}

func (e *ServiceError) Error() string {
	return e.Code + ": " + e.Ctx.Message
}

func (e *ServiceError) ErrorCode() string     { return e.Code }
func (e *ServiceError) ErrorContext() Context { return e.Ctx }

// RawError carries the body of a response that did not follow the platform
// envelope, typically a non-200 answer from an intermediary.
type RawError struct {
	Body string
	Ctx  Context
}

func NewRawError(body string, ctx Context) *RawError {
	return &RawError{Body: body, Ctx: ctx}
}

func (e *RawError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s (status %d)", e.Ctx.Message, e.Ctx.Status)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Ctx.Message, e.Ctx.Status, e.Body)
}

func (e *RawError) ErrorContext() Context { return e.Ctx }

// Domain is one sub-taxonomy of service errors. It returns a typed error for
// codes it recognizes and nil for everything else. Domains are probed in
// order by the response decoder; see Common for the cross-service fallback.
type Domain func(code string, ctx Context) error

// Typed is implemented by service errors that belong to a known taxonomy.
// The response decoder logs typed errors itself; the executor logs the rest.
type Typed interface {
	TypedServiceError()
}

// IsTyped reports whether err was produced by an error taxonomy.
func IsTyped(err error) bool {
	var t Typed
	return errors.As(err, &t)
}
