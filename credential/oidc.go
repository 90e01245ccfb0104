package credential

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	teco "github.com/teco-project/teco-go"
	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/endpoint"
	"github.com/teco-project/teco-go/region"
	"github.com/teco-project/teco-go/tcerr"
)

const (
	envTKERegion    = "TKE_REGION"
	envTKEProvider  = "TKE_PROVIDER_ID"
	envTKETokenFile = "TKE_IDENTITY_TOKEN_FILE"
	envTKERoleARN   = "TKE_ROLE_ARN"
)

// OIDCOptions configure the token exchange and the nested API client that
// performs it.
type OIDCOptions struct {
	// Duration bounds the credential lifetime, DefaultSessionDuration when
	// zero.
	Duration time.Duration

	// Endpoint overrides endpoint resolution of the nested client.
	Endpoint endpoint.Resolver

	// HTTPClient dispatches the STS calls when set. It is treated as shared
	// and not torn down on Shutdown.
	HTTPClient *http.Client

	// Logger receives the logs of the nested client.
	Logger logrus.FieldLogger
}

func WithOIDCDuration(d time.Duration) func(*OIDCOptions) {
	return func(o *OIDCOptions) { o.Duration = d }
}

func WithOIDCEndpoint(e endpoint.Resolver) func(*OIDCOptions) {
	return func(o *OIDCOptions) { o.Endpoint = e }
}

func WithOIDCHTTPClient(hc *http.Client) func(*OIDCOptions) {
	return func(o *OIDCOptions) { o.HTTPClient = hc }
}

func WithOIDCLogger(logger logrus.FieldLogger) func(*OIDCOptions) {
	return func(o *OIDCOptions) { o.Logger = logger }
}

// OIDC exchanges the identity token of a Kubernetes service account for a
// temporary credential, the flow TKE wires up for pods with a bound CAM
// role. The exchange is an unsigned STS call, so the provider needs no
// upstream credential.
//
// The TKE_REGION, TKE_PROVIDER_ID, TKE_IDENTITY_TOKEN_FILE and TKE_ROLE_ARN
// environment variables and the token file are read on every Retrieve;
// tokens are projected with a short lifetime and must not be cached across
// refreshes.
type OIDC struct {
	duration time.Duration

	client *teco.Client
	cfg    teco.ServiceConfig
}

func NewOIDC(optFns ...func(*OIDCOptions)) *OIDC {
	options := OIDCOptions{Duration: DefaultSessionDuration}
	for _, fn := range optFns {
		fn(&options)
	}

	var cfgOpts []func(*teco.ServiceConfig)
	if !reflect.DeepEqual(options.Endpoint, endpoint.Resolver{}) {
		cfgOpts = append(cfgOpts, teco.WithEndpoint(options.Endpoint))
	}

	return &OIDC{
		duration: options.Duration,
		client: teco.NewClient(NewStatic(auth.Credential{}), teco.Options{
			HTTPClient: options.HTTPClient,
			Logger:     options.Logger,
		}),
		cfg: teco.NewServiceConfig(stsService, stsVersion, cfgOpts...),
	}
}

type assumeRoleWithWebIdentityInput struct {
	ProviderID       string `json:"ProviderId"`
	WebIdentityToken string `json:"WebIdentityToken"`
	RoleArn          string `json:"RoleArn"`
	RoleSessionName  string `json:"RoleSessionName"`
	DurationSeconds  int64  `json:"DurationSeconds,omitempty"`
}

func (p *OIDC) Retrieve(ctx context.Context) (auth.Credential, error) {
	providerID := os.Getenv(envTKEProvider)
	if providerID == "" {
		return auth.Credential{}, fmt.Errorf("%s is not set: %w", envTKEProvider, tcerr.ErrMissingProviderID)
	}
	tokenFile := os.Getenv(envTKETokenFile)
	if tokenFile == "" {
		return auth.Credential{}, fmt.Errorf("%s is not set: %w", envTKETokenFile, tcerr.ErrMissingIdentityTokenFile)
	}
	roleARN := os.Getenv(envTKERoleARN)
	if roleARN == "" {
		return auth.Credential{}, fmt.Errorf("%s is not set: %w", envTKERoleARN, tcerr.ErrMissingRoleARN)
	}

	token, err := os.ReadFile(tokenFile)
	if err != nil {
		return auth.Credential{}, fmt.Errorf("%w %s: %v", tcerr.ErrUnreadableIdentityToken, tokenFile, err)
	}

	var callRegion *region.Region
	if id := os.Getenv(envTKERegion); id != "" {
		r := region.New(id)
		callRegion = &r
	}

	input := assumeRoleWithWebIdentityInput{
		ProviderID:       providerID,
		WebIdentityToken: strings.TrimSpace(string(token)),
		RoleArn:          roleARN,
		RoleSessionName:  defaultSessionName(),
		DurationSeconds:  int64(p.duration / time.Second),
	}

	var output assumeRoleOutput
	err = p.client.Execute(ctx, p.cfg, teco.Operation{
		Action:   "AssumeRoleWithWebIdentity",
		Method:   http.MethodPost,
		Region:   callRegion,
		SkipAuth: true,
		Input:    input,
	}, &output)
	if err != nil {
		return auth.Credential{}, fmt.Errorf("assuming role %q with web identity: %w", roleARN, err)
	}
	return output.credential()
}

func (p *OIDC) Shutdown(ctx context.Context) error {
	return p.client.Close(ctx)
}

func (p *OIDC) String() string { return "oidc" }
