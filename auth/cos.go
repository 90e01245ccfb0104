package auth

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teco-project/teco-go/tcerr"
)

const (
	cosAlgorithm = "sha1"

	// DefaultSessionTokenKey carries the session token on object-storage
	// requests. It is never part of the signature.
	DefaultSessionTokenKey = "x-cos-security-token"

	// DefaultCOSExpiry bounds the validity window of an object-storage
	// signature when the caller does not pick one.
	DefaultCOSExpiry = time.Hour
)

// COSSignOptions control a single object-storage signing pass.
type COSSignOptions struct {
	// Date is the start of the validity window, time.Now when zero.
	Date time.Time
	// Expiry is the length of the validity window.
	Expiry time.Duration
}

// WithCOSSigningDate pins the start of the validity window.
func WithCOSSigningDate(date time.Time) func(*COSSignOptions) {
	return func(o *COSSignOptions) { o.Date = date }
}

// WithCOSExpiry sets the length of the validity window.
func WithCOSExpiry(expiry time.Duration) func(*COSSignOptions) {
	return func(o *COSSignOptions) { o.Expiry = expiry }
}

// COSSigner signs requests to the object-storage XML API with the
// double-HMAC-SHA1 scheme. The same signature renders either as an
// Authorization header value or as query items for presigned URLs.
type COSSigner struct {
	credential Credential
	tokenKey   string
}

// WithSessionTokenKey overrides the query or header key carrying the
// session token.
func WithSessionTokenKey(key string) func(*COSSigner) {
	return func(s *COSSigner) { s.tokenKey = key }
}

func NewCOSSigner(credential Credential, optFns ...func(*COSSigner)) *COSSigner {
	s := &COSSigner{credential: credential, tokenKey: DefaultSessionTokenKey}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Authorization renders the signature as an Authorization header value.
func (s *COSSigner) Authorization(method, path string, params url.Values, headers http.Header, optFns ...func(*COSSignOptions)) (string, error) {
	sig, err := s.compute(method, path, params, headers, optFns)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, item := range sig.items(s.credential.SecretID) {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(item[0])
		b.WriteByte('=')
		b.WriteString(item[1])
	}
	if s.credential.Token != "" {
		b.WriteByte('&')
		b.WriteString(s.tokenKey)
		b.WriteByte('=')
		b.WriteString(s.credential.Token)
	}
	return b.String(), nil
}

// SignedQuery renders the signature as query items for a presigned URL.
// Render the result with EncodeQuery.
func (s *COSSigner) SignedQuery(method, path string, params url.Values, headers http.Header, optFns ...func(*COSSignOptions)) (url.Values, error) {
	sig, err := s.compute(method, path, params, headers, optFns)
	if err != nil {
		return nil, err
	}

	signed := make(url.Values, len(params)+8)
	for k, v := range params {
		signed[k] = append([]string(nil), v...)
	}
	for _, item := range sig.items(s.credential.SecretID) {
		signed.Set(item[0], item[1])
	}
	if s.credential.Token != "" {
		signed.Set(s.tokenKey, s.credential.Token)
	}
	return signed, nil
}

// cosSignature is one computed signature with the lists it covers.
type cosSignature struct {
	keyTime    string
	headerList string
	paramList  string
	signature  string
}

// items returns the authorization items in their fixed order.
func (c cosSignature) items(secretID string) [7][2]string {
	return [7][2]string{
		{"q-sign-algorithm", cosAlgorithm},
		{"q-ak", secretID},
		{"q-sign-time", c.keyTime},
		{"q-key-time", c.keyTime},
		{"q-header-list", c.headerList},
		{"q-url-param-list", c.paramList},
		{"q-signature", c.signature},
	}
}

func (s *COSSigner) compute(method, path string, params url.Values, headers http.Header, optFns []func(*COSSignOptions)) (cosSignature, error) {
	options := COSSignOptions{Expiry: DefaultCOSExpiry}
	for _, fn := range optFns {
		fn(&options)
	}
	if options.Date.IsZero() {
		options.Date = time.Now()
	}

	if s.credential.SecretID == "" {
		return cosSignature{}, tcerr.ErrNoSecretID
	}
	if s.credential.SecretKey == "" {
		return cosSignature{}, tcerr.ErrNoSecretKey
	}
	if path == "" {
		path = "/"
	}

	start := options.Date.Unix()
	end := options.Date.Add(options.Expiry).Unix()
	keyTime := strconv.FormatInt(start, 10) + ";" + strconv.FormatInt(end, 10)

	paramPairs, paramList := encodeCOSPairs(params)
	headerPairs, headerList := encodeCOSPairs(url.Values(headers))

	httpString := strings.ToLower(method) + "\n" + path + "\n" + paramPairs + "\n" + headerPairs + "\n"
	stringToSign := cosAlgorithm + "\n" + keyTime + "\n" + sha1Hex([]byte(httpString)) + "\n"

	// The signing key is the hex string of the first HMAC, not its raw
	// bytes.
	signKey := hexHMACSHA1([]byte(s.credential.SecretKey), keyTime)
	signature := hexHMACSHA1([]byte(signKey), stringToSign)

	return cosSignature{
		keyTime:    keyTime,
		headerList: headerList,
		paramList:  paramList,
		signature:  signature,
	}, nil
}

// encodeCOSPairs lowercases and percent-encodes the item names and values,
// then emits the sorted "name=value" join and the sorted name list.
func encodeCOSPairs(items url.Values) (pairs string, names string) {
	encodedPairs := make([]string, 0, len(items))
	encodedNames := make([]string, 0, len(items))
	for name, values := range items {
		encoded := PercentEncode(strings.ToLower(name))
		encodedNames = append(encodedNames, encoded)
		for _, value := range values {
			encodedPairs = append(encodedPairs, encoded+"="+PercentEncode(value))
		}
	}
	sort.Strings(encodedPairs)
	sort.Strings(encodedNames)
	return strings.Join(encodedPairs, "&"), strings.Join(encodedNames, ";")
}
