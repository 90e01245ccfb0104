// Package endpoint provides the strategies that map a service and an
// optional region to the base URL requests are sent to.
package endpoint

import (
	"net/url"
	"strings"

	"github.com/teco-project/teco-go/region"
	"github.com/teco-project/teco-go/tcerr"
)

// DefaultDomain is the API domain of the platform.
const DefaultDomain = "tencentcloudapi.com"

// Resolver maps (service, region) to a base URL. Resolution is pure: the
// same inputs always produce the same URL.
type Resolver struct {
	desc    string
	resolve func(service string, r *region.Region) string
}

// Resolve returns the base URL for service in r. A nil region selects the
// strategy's region-less form.
func (e Resolver) Resolve(service string, r *region.Region) string {
	return e.resolve(service, r)
}

func (e Resolver) String() string {
	return e.desc
}

func serviceURL(service string, r *region.Region) string {
	if r == nil {
		return "https://" + service + "." + DefaultDomain
	}
	return "https://" + service + "." + r.ID + "." + DefaultDomain
}

// Service routes to the per-service domain, inserting the region id when one
// is known: https://{service}.{region}.tencentcloudapi.com.
func Service() Resolver {
	return Resolver{
		desc:    "service",
		resolve: serviceURL,
	}
}

// Global prefers the region-less per-service domain and only falls back to
// the regional form for regions outside the global class.
func Global() Resolver {
	return Resolver{
		desc: "global",
		resolve: func(service string, r *region.Region) string {
			if r == nil || r.Kind == region.KindGlobal {
				return serviceURL(service, nil)
			}
			return serviceURL(service, r)
		},
	}
}

// Regional pins every request to r, ignoring per-call regions.
func Regional(r region.Region) Resolver {
	return Resolver{
		desc: "regional " + r.ID,
		resolve: func(service string, _ *region.Region) string {
			return serviceURL(service, &r)
		},
	}
}

// Static routes every request to a fixed base URL. The URL must carry an
// http or https scheme.
func Static(rawURL string) (Resolver, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Resolver{}, &tcerr.InvalidURLError{URL: rawURL}
	}
	base := strings.TrimSuffix(u.String(), "/")
	return Resolver{
		desc: "static " + base,
		resolve: func(string, *region.Region) string {
			return base
		},
	}, nil
}

// Func wraps a caller-supplied resolution closure.
func Func(desc string, fn func(service string, r *region.Region) string) Resolver {
	return Resolver{desc: desc, resolve: fn}
}

// Factory builds the resolver per service and delegates to it, for callers
// that pick a different strategy depending on the service.
func Factory(desc string, fn func(service string) Resolver) Resolver {
	return Resolver{
		desc: desc,
		resolve: func(service string, r *region.Region) string {
			return fn(service).Resolve(service, r)
		},
	}
}
