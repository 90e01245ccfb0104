package tcerr

// Error codes shared by every service of the platform.
const (
	CodeActionOffline                = "ActionOffline"
	CodeAuthFailureInvalidAuth       = "AuthFailure.InvalidAuthorization"
	CodeAuthFailureInvalidSecretID   = "AuthFailure.InvalidSecretId"
	CodeAuthFailureMFAFailure        = "AuthFailure.MFAFailure"
	CodeAuthFailureSecretIDNotFound  = "AuthFailure.SecretIdNotFound"
	CodeAuthFailureSignatureExpire   = "AuthFailure.SignatureExpire"
	CodeAuthFailureSignatureFailure  = "AuthFailure.SignatureFailure"
	CodeAuthFailureTokenFailure      = "AuthFailure.TokenFailure"
	CodeAuthFailureUnauthorized      = "AuthFailure.UnauthorizedOperation"
	CodeDryRunOperation              = "DryRunOperation"
	CodeFailedOperation              = "FailedOperation"
	CodeInternalError                = "InternalError"
	CodeInvalidAction                = "InvalidAction"
	CodeInvalidParameter             = "InvalidParameter"
	CodeInvalidParameterValue        = "InvalidParameterValue"
	CodeInvalidRequest               = "InvalidRequest"
	CodeIPInBlacklist                = "IpInBlacklist"
	CodeIPNotInWhitelist             = "IpNotInWhitelist"
	CodeLimitExceeded                = "LimitExceeded"
	CodeMissingParameter             = "MissingParameter"
	CodeNoSuchProduct                = "NoSuchProduct"
	CodeNoSuchVersion                = "NoSuchVersion"
	CodeRequestLimitExceeded         = "RequestLimitExceeded"
	CodeRequestLimitExceededGlobal   = "RequestLimitExceeded.GlobalRegionUinLimitExceeded"
	CodeRequestLimitExceededIP       = "RequestLimitExceeded.IPLimitExceeded"
	CodeRequestLimitExceededUin      = "RequestLimitExceeded.UinLimitExceeded"
	CodeRequestSizeLimitExceeded     = "RequestSizeLimitExceeded"
	CodeResourceInUse                = "ResourceInUse"
	CodeResourceInsufficient         = "ResourceInsufficient"
	CodeResourceNotFound             = "ResourceNotFound"
	CodeResourceUnavailable          = "ResourceUnavailable"
	CodeResponseSizeLimitExceeded    = "ResponseSizeLimitExceeded"
	CodeServiceUnavailable           = "ServiceUnavailable"
	CodeUnauthorizedOperation        = "UnauthorizedOperation"
	CodeUnknownParameter             = "UnknownParameter"
	CodeUnsupportedOperation         = "UnsupportedOperation"
	CodeUnsupportedProtocol          = "UnsupportedProtocol"
	CodeUnsupportedRegion            = "UnsupportedRegion"
)

var commonCodes = map[string]struct{}{
	CodeActionOffline:               {},
	CodeAuthFailureInvalidAuth:      {},
	CodeAuthFailureInvalidSecretID:  {},
	CodeAuthFailureMFAFailure:       {},
	CodeAuthFailureSecretIDNotFound: {},
	CodeAuthFailureSignatureExpire:  {},
	CodeAuthFailureSignatureFailure: {},
	CodeAuthFailureTokenFailure:     {},
	CodeAuthFailureUnauthorized:     {},
	CodeDryRunOperation:             {},
	CodeFailedOperation:             {},
	CodeInternalError:               {},
	CodeInvalidAction:               {},
	CodeInvalidParameter:            {},
	CodeInvalidParameterValue:       {},
	CodeInvalidRequest:              {},
	CodeIPInBlacklist:               {},
	CodeIPNotInWhitelist:            {},
	CodeLimitExceeded:               {},
	CodeMissingParameter:            {},
	CodeNoSuchProduct:               {},
	CodeNoSuchVersion:               {},
	CodeRequestLimitExceeded:        {},
	CodeRequestLimitExceededGlobal:  {},
	CodeRequestLimitExceededIP:      {},
	CodeRequestLimitExceededUin:     {},
	CodeRequestSizeLimitExceeded:    {},
	CodeResourceInUse:               {},
	CodeResourceInsufficient:        {},
	CodeResourceNotFound:            {},
	CodeResourceUnavailable:         {},
	CodeResponseSizeLimitExceeded:   {},
	CodeServiceUnavailable:          {},
	CodeUnauthorizedOperation:       {},
	CodeUnknownParameter:            {},
	CodeUnsupportedOperation:        {},
	CodeUnsupportedProtocol:         {},
	CodeUnsupportedRegion:           {},
}

// CommonError is a service error with one of the platform's cross-service
// codes.
type CommonError struct {
	ServiceError
}

func (e *CommonError) TypedServiceError() {}

// Common is the taxonomy of cross-service error codes. The response decoder
// falls back to it after the per-service domains.
func Common(code string, ctx Context) error {
	if _, ok := commonCodes[code]; !ok {
		return nil
	}
	return &CommonError{ServiceError{Code: code, Ctx: ctx}}
}
