package auth

import (
	"net/url"
	"sort"
	"strings"
)

// PercentEncode escapes s per RFC 3986, keeping only the unreserved set
// ALPHA / DIGIT / "-" / "." / "_" / "~".
func PercentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// formEncode escapes s as an HTML form value: space becomes "+" and the
// unreserved set is ALPHA / DIGIT / "-" / "." / "_".
func formEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "~", "%7E")
}

func encodePairs(params url.Values, escape func(string) string) string {
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
			b.WriteString(escape(k))
			b.WriteByte('=')
			b.WriteString(escape(v))
		}
	}
	return b.String()
}

// EncodeQuery renders params as an RFC 3986 query string with keys in
// ascending order.
func EncodeQuery(params url.Values) string {
	return encodePairs(params, PercentEncode)
}

// EncodeForm renders params as an application/x-www-form-urlencoded body
// with keys in ascending order.
func EncodeForm(params url.Values) string {
	return encodePairs(params, formEncode)
}
