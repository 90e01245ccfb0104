package auth

import (
	"encoding/base64"
	"math/rand"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teco-project/teco-go/tcerr"
)

// V1Algorithm is the HMAC algorithm of a legacy V1 signature.
type V1Algorithm string

const (
	V1HmacSHA1   V1Algorithm = "HmacSHA1"
	V1HmacSHA256 V1Algorithm = "HmacSHA256"
)

// V1SignOptions control a single V1 signing pass.
type V1SignOptions struct {
	// OmitSessionToken keeps the session token out of the signature and
	// appends the Token parameter after signing.
	OmitSessionToken bool
	// Nonce overrides the random request nonce, usually for tests.
	Nonce *int32
	// Date is the signing time, time.Now when zero.
	Date time.Time
}

// WithV1Nonce pins the request nonce.
func WithV1Nonce(nonce int32) func(*V1SignOptions) {
	return func(o *V1SignOptions) { o.Nonce = &nonce }
}

// WithV1OmitSessionToken defers the Token parameter until after signing.
func WithV1OmitSessionToken() func(*V1SignOptions) {
	return func(o *V1SignOptions) { o.OmitSessionToken = true }
}

// WithV1SigningDate pins the signing time.
func WithV1SigningDate(date time.Time) func(*V1SignOptions) {
	return func(o *V1SignOptions) { o.Date = date }
}

// V1Signer signs requests with the legacy parameter-based scheme still used
// by a handful of older service APIs. The signature travels as a query
// parameter for GET requests and as a form field for POST requests; render
// the signed parameters with EncodeQuery or EncodeForm accordingly.
type V1Signer struct {
	credential Credential
	algorithm  V1Algorithm
}

func NewV1Signer(credential Credential, algorithm V1Algorithm) *V1Signer {
	if algorithm == "" {
		algorithm = V1HmacSHA1
	}
	return &V1Signer{credential: credential, algorithm: algorithm}
}

// Sign completes params with the common V1 parameters and the Signature
// entry. The input is not modified.
func (s *V1Signer) Sign(method, host, path string, params url.Values, optFns ...func(*V1SignOptions)) (url.Values, error) {
	options := V1SignOptions{}
	for _, fn := range optFns {
		fn(&options)
	}
	if options.Date.IsZero() {
		options.Date = time.Now()
	}

	if s.credential.SecretID == "" {
		return nil, tcerr.ErrNoSecretID
	}
	if s.credential.SecretKey == "" {
		return nil, tcerr.ErrNoSecretKey
	}
	if path == "" {
		path = "/"
	}

	signed := make(url.Values, len(params)+5)
	for k, v := range params {
		signed[k] = append([]string(nil), v...)
	}
	signed.Del("Signature")
	signed.Set("Timestamp", strconv.FormatInt(options.Date.Unix(), 10))
	nonce := rand.Int31()
	if options.Nonce != nil {
		nonce = *options.Nonce
	}
	signed.Set("Nonce", strconv.FormatInt(int64(nonce), 10))
	signed.Set("SecretId", s.credential.SecretID)
	if s.algorithm != V1HmacSHA1 {
		signed.Set("SignatureMethod", string(s.algorithm))
	} else {
		signed.Del("SignatureMethod")
	}

	tokenDeferred := false
	if s.credential.Token != "" {
		if options.OmitSessionToken {
			signed.Del("Token")
			tokenDeferred = true
		} else {
			signed.Set("Token", s.credential.Token)
		}
	}

	original := method + host + path + "?" + rawQuery(signed)

	var mac []byte
	if s.algorithm == V1HmacSHA256 {
		mac = hmacSHA256([]byte(s.credential.SecretKey), []byte(original))
	} else {
		mac = hmacSHA1([]byte(s.credential.SecretKey), []byte(original))
	}
	signed.Set("Signature", base64.StdEncoding.EncodeToString(mac))

	if tokenDeferred {
		signed.Set("Token", s.credential.Token)
	}
	return signed, nil
}

// rawQuery joins the parameters in ascending key order without any
// percent-encoding; the signature covers the raw values.
func rawQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range params[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}
