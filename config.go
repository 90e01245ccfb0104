package teco

import (
	"time"

	"github.com/teco-project/teco-go/endpoint"
	"github.com/teco-project/teco-go/region"
	"github.com/teco-project/teco-go/tcerr"
)

// Language selects the language of API error messages.
type Language string

const (
	LanguageChinese Language = "zh-CN"
	LanguageEnglish Language = "en-US"
)

// DefaultTimeout bounds one request attempt when the config does not set
// its own timeout.
const DefaultTimeout = 20 * time.Second

// ServiceConfig carries everything the executor needs to call one service
// API. Values are immutable after construction; derive variants with With.
type ServiceConfig struct {
	// Service is the API product short name, for example "cvm".
	Service string
	// Version is the API version date, for example "2017-03-12".
	Version string
	// Region is the default region of requests without a per-call region.
	Region *region.Region
	// Language of API error messages, unset leaves the platform default.
	Language Language
	// Endpoint resolves the base URL, endpoint.Service when unset.
	Endpoint endpoint.Resolver
	// Error lists the service error taxonomy, probed in order before the
	// platform-common codes.
	Error []tcerr.Domain
	// Timeout bounds one request attempt including connection setup.
	Timeout time.Duration

	// Endpoint resolution can run arbitrary caller code, so the region-less
	// URL is computed once up front.
	defaultEndpoint string
}

// WithRegion sets the default request region.
func WithRegion(r *region.Region) func(*ServiceConfig) {
	return func(c *ServiceConfig) { c.Region = r }
}

// WithLanguage selects the language of API error messages.
func WithLanguage(l Language) func(*ServiceConfig) {
	return func(c *ServiceConfig) { c.Language = l }
}

// WithEndpoint overrides the endpoint resolution strategy.
func WithEndpoint(e endpoint.Resolver) func(*ServiceConfig) {
	return func(c *ServiceConfig) { c.Endpoint = e }
}

// WithErrorDomains installs the service error taxonomy.
func WithErrorDomains(domains ...tcerr.Domain) func(*ServiceConfig) {
	return func(c *ServiceConfig) { c.Error = domains }
}

// WithTimeout bounds one request attempt.
func WithTimeout(d time.Duration) func(*ServiceConfig) {
	return func(c *ServiceConfig) { c.Timeout = d }
}

// NewServiceConfig builds the config of one service API.
func NewServiceConfig(service, version string, optFns ...func(*ServiceConfig)) ServiceConfig {
	cfg := ServiceConfig{
		Service:  service,
		Version:  version,
		Endpoint: endpoint.Service(),
		Timeout:  DefaultTimeout,
	}
	for _, fn := range optFns {
		fn(&cfg)
	}
	cfg.defaultEndpoint = cfg.Endpoint.Resolve(cfg.Service, cfg.Region)
	return cfg
}

// Patch describes overrides for deriving one config from another. Nil
// fields keep the original value.
type Patch struct {
	Region   *region.Region
	Language *Language
	Endpoint *endpoint.Resolver
	Timeout  *time.Duration
}

// With returns a copy of c with the patch applied. The precomputed endpoint
// survives unless the patch carries a region or an endpoint strategy.
func (c ServiceConfig) With(p Patch) ServiceConfig {
	derived := c
	if p.Language != nil {
		derived.Language = *p.Language
	}
	if p.Timeout != nil {
		derived.Timeout = *p.Timeout
	}
	if p.Region == nil && p.Endpoint == nil {
		return derived
	}
	if p.Region != nil {
		derived.Region = p.Region
	}
	if p.Endpoint != nil {
		derived.Endpoint = *p.Endpoint
	}
	derived.defaultEndpoint = derived.Endpoint.Resolve(derived.Service, derived.Region)
	return derived
}

// EndpointFor resolves the base URL of one request. A nil region selects
// the config's default region.
func (c ServiceConfig) EndpointFor(r *region.Region) string {
	if r == nil {
		return c.defaultEndpoint
	}
	return c.Endpoint.Resolve(c.Service, r)
}
