package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/endpoint"
	"github.com/teco-project/teco-go/tcerr"
)

const testRoleARN = "qcs::cam::uin/100023201586:roleName/operator"

func staticEndpoint(t *testing.T, rawURL string) endpoint.Resolver {
	t.Helper()
	e, err := endpoint.Static(rawURL)
	require.NoError(t, err)
	return e
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// assumeRoleBody mirrors the request payload of the token service calls.
type assumeRoleBody struct {
	RoleArn          string
	RoleSessionName  string
	DurationSeconds  int64
	Policy           string
	ProviderId       string
	WebIdentityToken string
}

// stsServer answers every request with one temporary credential and records
// what it received.
type stsServer struct {
	*httptest.Server

	mu      sync.Mutex
	bodies  []assumeRoleBody
	headers []http.Header
}

func newSTSServer(t *testing.T) *stsServer {
	t.Helper()
	s := &stsServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var body assumeRoleBody
		assert.NoError(t, json.Unmarshal(raw, &body))

		s.mu.Lock()
		s.bodies = append(s.bodies, body)
		s.headers = append(s.headers, r.Header.Clone())
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Response":{"RequestId":"req-sts","Credentials":{"TmpSecretId":"tmp-id","TmpSecretKey":"tmp-key","Token":"tmp-token"},"ExpiredTime":1893456000,"Expiration":"2030-01-01T00:00:00Z"}}`)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *stsServer) recorded(t *testing.T) (assumeRoleBody, http.Header) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.bodies, 1)
	return s.bodies[0], s.headers[0]
}

func TestSTSRetrieve(t *testing.T) {
	server := newSTSServer(t)

	upstream := NewStatic(auth.Credential{SecretID: "root-id", SecretKey: "root-key"})
	p := NewSTS(upstream, testRoleARN,
		WithSTSSessionName("operator-session"),
		WithSTSPolicy(`{"statement":[{"action":"name/cvm:Describe*"}]}`),
		WithSTSDuration(time.Hour),
		WithSTSEndpoint(staticEndpoint(t, server.URL)),
		WithSTSLogger(quietLogger()),
	)
	defer p.Shutdown(context.Background())

	cred, err := p.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tmp-id", cred.SecretID)
	assert.Equal(t, "tmp-key", cred.SecretKey)
	assert.Equal(t, "tmp-token", cred.Token)
	assert.True(t, cred.CanExpire)
	assert.Equal(t, int64(1893456000), cred.Expires.Unix())

	body, header := server.recorded(t)
	assert.Equal(t, testRoleARN, body.RoleArn)
	assert.Equal(t, "operator-session", body.RoleSessionName)
	assert.Equal(t, int64(3600), body.DurationSeconds)
	// Policies travel percent-encoded.
	assert.Equal(t, auth.PercentEncode(`{"statement":[{"action":"name/cvm:Describe*"}]}`), body.Policy)

	assert.Equal(t, "AssumeRole", header.Get("X-TC-Action"))
	assert.Equal(t, "2018-08-13", header.Get("X-TC-Version"))
	assert.Contains(t, header.Get("Authorization"), "TC3-HMAC-SHA256 Credential=root-id/")
}

func TestSTSDefaults(t *testing.T) {
	server := newSTSServer(t)

	upstream := NewStatic(auth.Credential{SecretID: "root-id", SecretKey: "root-key"})
	p := NewSTS(upstream, testRoleARN,
		WithSTSEndpoint(staticEndpoint(t, server.URL)),
		WithSTSLogger(quietLogger()),
	)
	defer p.Shutdown(context.Background())

	_, err := p.Retrieve(context.Background())
	require.NoError(t, err)

	body, _ := server.recorded(t)
	assert.True(t, strings.HasPrefix(body.RoleSessionName, "teco-go-"), "session name %q", body.RoleSessionName)
	assert.Equal(t, int64(7200), body.DurationSeconds)
	assert.Empty(t, body.Policy)
}

func TestSTSSessionNamesAreUniquePerCall(t *testing.T) {
	server := newSTSServer(t)

	upstream := NewStatic(auth.Credential{SecretID: "root-id", SecretKey: "root-key"})
	p := NewSTS(upstream, testRoleARN,
		WithSTSEndpoint(staticEndpoint(t, server.URL)),
		WithSTSLogger(quietLogger()),
	)
	defer p.Shutdown(context.Background())

	_, err := p.Retrieve(context.Background())
	require.NoError(t, err)
	_, err = p.Retrieve(context.Background())
	require.NoError(t, err)

	server.mu.Lock()
	defer server.mu.Unlock()
	require.Len(t, server.bodies, 2)
	assert.NotEqual(t, server.bodies[0].RoleSessionName, server.bodies[1].RoleSessionName)
}

func TestSTSMissingRoleARN(t *testing.T) {
	p := NewSTS(NewStatic(auth.Credential{SecretID: "id", SecretKey: "key"}), "")
	defer p.Shutdown(context.Background())

	_, err := p.Retrieve(context.Background())
	assert.ErrorIs(t, err, tcerr.ErrMissingRoleARN)
}

func TestSTSServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Response":{"RequestId":"req-err","Error":{"Code":"InvalidParameter","Message":"role not found"}}}`)
	}))
	defer server.Close()

	p := NewSTS(NewStatic(auth.Credential{SecretID: "id", SecretKey: "key"}), testRoleARN,
		WithSTSEndpoint(staticEndpoint(t, server.URL)),
		WithSTSLogger(quietLogger()),
	)
	defer p.Shutdown(context.Background())

	_, err := p.Retrieve(context.Background())
	assert.ErrorContains(t, err, "assuming role")
	assert.ErrorContains(t, err, "InvalidParameter")
}

func TestSTSUnusableResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Response":{"RequestId":"req-empty","ExpiredTime":1893456000}}`)
	}))
	defer server.Close()

	p := NewSTS(NewStatic(auth.Credential{SecretID: "id", SecretKey: "key"}), testRoleARN,
		WithSTSEndpoint(staticEndpoint(t, server.URL)),
		WithSTSLogger(quietLogger()),
	)
	defer p.Shutdown(context.Background())

	_, err := p.Retrieve(context.Background())
	assert.ErrorContains(t, err, "no usable credential")
}

func TestSTSShutdownClosesNestedClient(t *testing.T) {
	p := NewSTS(NewStatic(auth.Credential{SecretID: "id", SecretKey: "key"}), testRoleARN)

	require.NoError(t, p.Shutdown(context.Background()))
	assert.ErrorIs(t, p.Shutdown(context.Background()), tcerr.ErrAlreadyShutDown)
}

func TestNewSTSFromEnv(t *testing.T) {
	t.Setenv("TENCENTCLOUD_ROLE_ARN", testRoleARN)
	t.Setenv("TENCENTCLOUD_ROLE_SESSION_NAME", "env-session")

	server := newSTSServer(t)
	upstream := NewStatic(auth.Credential{SecretID: "root-id", SecretKey: "root-key"})
	p := NewSTSFromEnv(upstream,
		WithSTSEndpoint(staticEndpoint(t, server.URL)),
		WithSTSLogger(quietLogger()),
	)
	defer p.Shutdown(context.Background())

	_, err := p.Retrieve(context.Background())
	require.NoError(t, err)

	body, _ := server.recorded(t)
	assert.Equal(t, testRoleARN, body.RoleArn)
	assert.Equal(t, "env-session", body.RoleSessionName)
}
