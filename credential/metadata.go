package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/tcerr"
)

// DefaultMetadataEndpoint serves the CAM role credentials of a CVM instance.
const DefaultMetadataEndpoint = "http://metadata.tencentyun.com/latest/meta-data/cam/security-credentials"

const (
	metadataTimeout       = 2 * time.Second
	metadataRetryInterval = 100 * time.Millisecond
	metadataRetries       = 2
)

// InstanceMetadata reads the temporary credential of the CAM role bound to
// the instance from the metadata endpoint. Without a configured role name
// the endpoint is asked for one first. Credentials expire, so the provider
// is normally wrapped in NewTemporary.
type InstanceMetadata struct {
	role       string
	endpoint   string
	httpClient *http.Client
	owned      bool
}

// WithMetadataRole pins the CAM role to fetch credentials for, skipping the
// role name lookup.
func WithMetadataRole(role string) func(*InstanceMetadata) {
	return func(p *InstanceMetadata) { p.role = role }
}

// WithMetadataEndpoint overrides the metadata endpoint, usually for tests.
func WithMetadataEndpoint(endpoint string) func(*InstanceMetadata) {
	return func(p *InstanceMetadata) { p.endpoint = strings.TrimSuffix(endpoint, "/") }
}

// WithMetadataHTTPClient dispatches the metadata requests through hc. The
// client is treated as shared and not torn down on Shutdown.
func WithMetadataHTTPClient(hc *http.Client) func(*InstanceMetadata) {
	return func(p *InstanceMetadata) { p.httpClient = hc }
}

func NewInstanceMetadata(optFns ...func(*InstanceMetadata)) *InstanceMetadata {
	p := &InstanceMetadata{endpoint: DefaultMetadataEndpoint}
	for _, fn := range optFns {
		fn(p)
	}
	if p.httpClient == nil {
		// The endpoint answers from the local hypervisor; anything slower
		// than this means the instance has no metadata service.
		p.httpClient = &http.Client{Timeout: metadataTimeout}
		p.owned = true
	}
	return p
}

func (p *InstanceMetadata) Retrieve(ctx context.Context) (auth.Credential, error) {
	role := p.role
	if role == "" {
		body, err := p.fetch(ctx, p.endpoint)
		if err != nil {
			return auth.Credential{}, fmt.Errorf("%w: %w", tcerr.ErrNoRoleName, err)
		}
		role = strings.TrimSpace(string(body))
		if role == "" {
			return auth.Credential{}, fmt.Errorf("%w: no role is bound to the instance", tcerr.ErrNoRoleName)
		}
	}

	body, err := p.fetch(ctx, p.endpoint+"/"+role)
	if err != nil {
		return auth.Credential{}, fmt.Errorf("%w for role %q: %w", tcerr.ErrNoMetadata, role, err)
	}
	return parseMetadataCredential(body)
}

// fetch GETs one metadata URL, retrying transient failures a bounded number
// of times so a single dropped packet does not fail the whole chain.
func (p *InstanceMetadata) fetch(ctx context.Context, url string) ([]byte, error) {
	operation := func() ([]byte, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := p.httpClient.Do(r)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("%w: %s", tcerr.ErrUnexpectedResponseStatus, resp.Status)
			if resp.StatusCode < http.StatusInternalServerError {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return body, nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(metadataRetryInterval), metadataRetries),
		ctx,
	)
	return backoff.RetryWithData(operation, policy)
}

type metadataCredential struct {
	TmpSecretID  string `json:"TmpSecretId"`
	TmpSecretKey string `json:"TmpSecretKey"`
	Token        string `json:"Token"`
	ExpiredTime  int64  `json:"ExpiredTime"`
	Code         string `json:"Code"`
}

func parseMetadataCredential(body []byte) (auth.Credential, error) {
	var mc metadataCredential
	if err := json.Unmarshal(body, &mc); err != nil {
		return auth.Credential{}, fmt.Errorf("%w: credential payload: %v", tcerr.ErrNoMetadata, err)
	}
	if mc.Code != "" && mc.Code != "Success" {
		return auth.Credential{}, fmt.Errorf("%w: metadata code %q", tcerr.ErrNoMetadata, mc.Code)
	}
	if mc.TmpSecretID == "" || mc.TmpSecretKey == "" {
		return auth.Credential{}, tcerr.ErrMissingMetadata
	}
	return auth.Credential{
		SecretID:  mc.TmpSecretID,
		SecretKey: mc.TmpSecretKey,
		Token:     mc.Token,
		CanExpire: true,
		Expires:   time.Unix(mc.ExpiredTime, 0),
	}, nil
}

func (p *InstanceMetadata) Shutdown(context.Context) error {
	if p.owned {
		p.httpClient.CloseIdleConnections()
	}
	return nil
}

func (p *InstanceMetadata) String() string { return "instance-metadata" }
