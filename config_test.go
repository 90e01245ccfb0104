package teco

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teco-project/teco-go/endpoint"
	"github.com/teco-project/teco-go/region"
)

func TestNewServiceConfigDefaults(t *testing.T) {
	cfg := NewServiceConfig("cvm", "2017-03-12")

	assert.Equal(t, "cvm", cfg.Service)
	assert.Equal(t, "2017-03-12", cfg.Version)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "https://cvm.tencentcloudapi.com", cfg.EndpointFor(nil))
}

func TestServiceConfigEndpointFor(t *testing.T) {
	cfg := NewServiceConfig("cvm", "2017-03-12", WithRegion(&region.Guangzhou))

	assert.Equal(t, "https://cvm.ap-guangzhou.tencentcloudapi.com", cfg.EndpointFor(nil))
	assert.Equal(t, "https://cvm.ap-shanghai.tencentcloudapi.com", cfg.EndpointFor(&region.Shanghai))
}

func TestServiceConfigWithEmptyPatch(t *testing.T) {
	cfg := NewServiceConfig("cvm", "2017-03-12",
		WithRegion(&region.Guangzhou),
		WithLanguage(LanguageEnglish),
		WithTimeout(5*time.Second),
	)

	derived := cfg.With(Patch{})

	assert.Equal(t, cfg.Service, derived.Service)
	assert.Equal(t, cfg.Version, derived.Version)
	assert.Equal(t, cfg.Region, derived.Region)
	assert.Equal(t, cfg.Language, derived.Language)
	assert.Equal(t, cfg.Timeout, derived.Timeout)
	assert.Equal(t, cfg.EndpointFor(nil), derived.EndpointFor(nil))
}

func TestServiceConfigWithOverrides(t *testing.T) {
	cfg := NewServiceConfig("cvm", "2017-03-12", WithRegion(&region.Guangzhou))

	lang := LanguageChinese
	timeout := time.Minute
	derived := cfg.With(Patch{Region: &region.Shanghai, Language: &lang, Timeout: &timeout})

	assert.Equal(t, "https://cvm.ap-shanghai.tencentcloudapi.com", derived.EndpointFor(nil))
	assert.Equal(t, LanguageChinese, derived.Language)
	assert.Equal(t, time.Minute, derived.Timeout)

	// The original stays untouched.
	assert.Equal(t, "https://cvm.ap-guangzhou.tencentcloudapi.com", cfg.EndpointFor(nil))
	assert.Empty(t, cfg.Language)
}

func TestServiceConfigWithSkipsEndpointRecompute(t *testing.T) {
	resolutions := 0
	counting := endpoint.Func("counting", func(service string, _ *region.Region) string {
		resolutions++
		return "https://" + service + ".example.test"
	})

	cfg := NewServiceConfig("cvm", "2017-03-12", WithEndpoint(counting))
	assert.Equal(t, 1, resolutions)

	timeout := time.Minute
	derived := cfg.With(Patch{Timeout: &timeout})
	assert.Equal(t, 1, resolutions)
	assert.Equal(t, "https://cvm.example.test", derived.EndpointFor(nil))
	assert.Equal(t, 1, resolutions)

	cfg.With(Patch{Region: &region.Shanghai})
	assert.Equal(t, 2, resolutions)
}

func TestServiceConfigWithEndpointPatch(t *testing.T) {
	cfg := NewServiceConfig("cvm", "2017-03-12")

	static, err := endpoint.Static("http://localhost:8080")
	assert.NoError(t, err)
	derived := cfg.With(Patch{Endpoint: &static})

	assert.Equal(t, "http://localhost:8080", derived.EndpointFor(nil))
	assert.Equal(t, "https://cvm.tencentcloudapi.com", cfg.EndpointFor(nil))
}
