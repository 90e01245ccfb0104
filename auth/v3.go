package auth

import (
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teco-project/teco-go/tcerr"
)

// SigningMode selects the header set covered by a V3 signature.
type SigningMode int

const (
	// SigningDefault signs every header except the excluded set.
	SigningDefault SigningMode = iota
	// SigningMinimal signs only content-type and host.
	SigningMinimal
	// SigningSkip emits the fixed sentinel instead of a signature.
	SigningSkip
)

const (
	v3Algorithm   = "TC3-HMAC-SHA256"
	v3RequestType = "tc3_request"

	// SkipAuthorization is the authorization value of unsigned requests.
	SkipAuthorization = "SKIP"
	// UnsignedPayload is the body hash of payloads excluded from signing.
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// requestClient identifies this SDK generation to the platform.
	requestClient = "Teco"

	authorizationHeader = "Authorization"
	hostHeader          = "Host"
	timestampHeader     = "X-TC-Timestamp"
	requestClientHeader = "X-TC-RequestClient"
	contentSHA256Header = "X-TC-Content-SHA256"
	sessionTokenHeader  = "X-TC-Token"
)

// V3SignOptions control a single signing pass.
type V3SignOptions struct {
	// Mode selects the signed header set, SigningDefault when unset.
	Mode SigningMode
	// UnsignedPayload signs the UNSIGNED-PAYLOAD sentinel instead of the
	// body hash.
	UnsignedPayload bool
	// OmitSessionToken keeps the session token out of the signature and
	// appends its header after signing.
	OmitSessionToken bool
	// Date is the signing time, time.Now when zero.
	Date time.Time
}

// WithSigningMode selects the signing mode for one pass.
func WithSigningMode(mode SigningMode) func(*V3SignOptions) {
	return func(o *V3SignOptions) { o.Mode = mode }
}

// WithUnsignedPayload excludes the request body from the signature.
func WithUnsignedPayload() func(*V3SignOptions) {
	return func(o *V3SignOptions) { o.UnsignedPayload = true }
}

// WithOmitSessionToken defers the session token header until after signing.
func WithOmitSessionToken() func(*V3SignOptions) {
	return func(o *V3SignOptions) { o.OmitSessionToken = true }
}

// WithSigningDate pins the signing time, usually for tests.
func WithSigningDate(date time.Time) func(*V3SignOptions) {
	return func(o *V3SignOptions) { o.Date = date }
}

// V3Signer signs requests with the TC3-HMAC-SHA256 scheme of the platform's
// current service APIs.
type V3Signer struct {
	credential Credential
	service    string
}

// NewV3Signer returns a signer for one service, for example "cvm".
func NewV3Signer(credential Credential, service string) *V3Signer {
	return &V3Signer{credential: credential, service: service}
}

// Sign computes the authorization for r and stores it in the request
// headers. body must be the exact payload bytes the request will carry; nil
// signs the empty string. Sign mutates only the authorization, host and
// x-tc-* headers, so it can run after the request builder without
// invalidating anything it produced.
func (s *V3Signer) Sign(r *http.Request, body []byte, optFns ...func(*V3SignOptions)) error {
	options := V3SignOptions{}
	for _, fn := range optFns {
		fn(&options)
	}
	if options.Date.IsZero() {
		options.Date = time.Now()
	}

	if r.URL == nil || r.URL.Host == "" {
		return &tcerr.InvalidURLError{URL: requestURL(r)}
	}

	host := hostname(r.URL)
	r.Host = host
	r.Header.Set(hostHeader, host)
	r.Header.Set(requestClientHeader, requestClient)
	r.Header.Set(timestampHeader, strconv.FormatInt(options.Date.Unix(), 10))

	bodyHash := UnsignedPayload
	if !options.UnsignedPayload {
		bodyHash = sha256Hex(body)
	}
	r.Header.Set(contentSHA256Header, bodyHash)

	if options.Mode == SigningSkip {
		r.Header.Set(authorizationHeader, SkipAuthorization)
		return nil
	}

	if s.credential.SecretID == "" {
		return tcerr.ErrNoSecretID
	}
	if s.credential.SecretKey == "" {
		return tcerr.ErrNoSecretKey
	}

	if s.credential.Token != "" && !options.OmitSessionToken {
		r.Header.Set(sessionTokenHeader, s.credential.Token)
	} else {
		r.Header.Del(sessionTokenHeader)
	}

	rule := headerRule(defaultSignedHeaders)
	if options.Mode == SigningMinimal {
		rule = minimalSignedHeaders
	}
	signedNames, canonicalHeaders := buildCanonicalHeaders(r.Header, rule)

	path := r.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	canonicalRequest := strings.Join([]string{
		r.Method,
		path,
		r.URL.RawQuery,
		canonicalHeaders,
		signedNames,
		bodyHash,
	}, "\n")

	date := options.Date.UTC().Format("2006-01-02")
	scope := date + "/" + s.service + "/" + v3RequestType
	stringToSign := strings.Join([]string{
		v3Algorithm,
		strconv.FormatInt(options.Date.Unix(), 10),
		scope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	key := v3KeyCache.Get(s.credential, s.service, date)
	signature := hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))

	r.Header.Set(authorizationHeader, buildAuthorization(s.credential.SecretID+"/"+scope, signedNames, signature))

	// The token can join the wire format now that it cannot influence the
	// signature anymore.
	if options.OmitSessionToken && s.credential.Token != "" {
		r.Header.Set(sessionTokenHeader, s.credential.Token)
	}
	return nil
}

// buildCanonicalHeaders normalizes the headers admitted by rule: names are
// lowercased and sorted, values trimmed and lowercased, and multiple values
// of one name joined with commas.
func buildCanonicalHeaders(header http.Header, rule headerRule) (signedNames, canonical string) {
	signed := make(map[string][]string, len(header))
	names := make([]string, 0, len(header))
	for name, values := range header {
		lower := strings.ToLower(name)
		if !rule.includes(lower) {
			continue
		}
		if _, ok := signed[lower]; ok {
			signed[lower] = append(signed[lower], values...)
			continue
		}
		names = append(names, lower)
		signed[lower] = values
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		for i, v := range signed[name] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strings.ToLower(strings.TrimSpace(v)))
		}
		b.WriteByte('\n')
	}
	return strings.Join(names, ";"), b.String()
}

func buildAuthorization(credentialStr, signedNames, signature string) string {
	const credential = "Credential="
	const signedHeaders = "SignedHeaders="
	const signaturePart = "Signature="
	const commaSpace = ", "

	var parts strings.Builder
	parts.Grow(len(v3Algorithm) + 1 +
		len(credential) + len(credentialStr) + 2 +
		len(signedHeaders) + len(signedNames) + 2 +
		len(signaturePart) + len(signature),
	)
	parts.WriteString(v3Algorithm)
	parts.WriteByte(' ')
	parts.WriteString(credential)
	parts.WriteString(credentialStr)
	parts.WriteString(commaSpace)
	parts.WriteString(signedHeaders)
	parts.WriteString(signedNames)
	parts.WriteString(commaSpace)
	parts.WriteString(signaturePart)
	parts.WriteString(signature)
	return parts.String()
}

// hostname strips the port from the URL host when it is the scheme default.
func hostname(u *url.URL) string {
	port := u.Port()
	if port == "" {
		return u.Host
	}
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		return u.Hostname()
	}
	return u.Host
}

func requestURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}
