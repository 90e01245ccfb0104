package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	teco "github.com/teco-project/teco-go"
	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/endpoint"
	"github.com/teco-project/teco-go/region"
	"github.com/teco-project/teco-go/tcerr"
)

const (
	stsService = "sts"
	stsVersion = "2018-08-13"

	envRoleARN         = "TENCENTCLOUD_ROLE_ARN"
	envRoleSessionName = "TENCENTCLOUD_ROLE_SESSION_NAME"
)

// DefaultSessionDuration is the lifetime requested for assumed-role
// credentials when no duration is configured.
const DefaultSessionDuration = 7200 * time.Second

// STSOptions configure the role assumption and the nested API client that
// performs it.
type STSOptions struct {
	// SessionName names the temporary session in audit logs. A random
	// "teco-go-" name is generated per call when empty.
	SessionName string

	// Policy further restricts the permissions of the temporary credential.
	// It is passed verbatim; the provider percent-encodes it on the wire.
	Policy string

	// Duration bounds the credential lifetime, DefaultSessionDuration when
	// zero.
	Duration time.Duration

	// Region selects the STS deployment to call. The global endpoint is
	// used when nil.
	Region *region.Region

	// Endpoint overrides endpoint resolution of the nested client.
	Endpoint endpoint.Resolver

	// HTTPClient dispatches the STS calls when set. It is treated as shared
	// and not torn down on Shutdown.
	HTTPClient *http.Client

	// Logger receives the logs of the nested client.
	Logger logrus.FieldLogger
}

func WithSTSSessionName(name string) func(*STSOptions) {
	return func(o *STSOptions) { o.SessionName = name }
}

func WithSTSPolicy(policy string) func(*STSOptions) {
	return func(o *STSOptions) { o.Policy = policy }
}

func WithSTSDuration(d time.Duration) func(*STSOptions) {
	return func(o *STSOptions) { o.Duration = d }
}

func WithSTSRegion(r *region.Region) func(*STSOptions) {
	return func(o *STSOptions) { o.Region = r }
}

func WithSTSEndpoint(e endpoint.Resolver) func(*STSOptions) {
	return func(o *STSOptions) { o.Endpoint = e }
}

func WithSTSHTTPClient(hc *http.Client) func(*STSOptions) {
	return func(o *STSOptions) { o.HTTPClient = hc }
}

func WithSTSLogger(logger logrus.FieldLogger) func(*STSOptions) {
	return func(o *STSOptions) { o.Logger = logger }
}

// STS assumes a role through the security token service and serves the
// role's temporary credential. The AssumeRole call itself is signed with
// the upstream provider's credential. Wrap the provider in NewTemporary to
// refresh the credential before it expires.
type STS struct {
	roleARN     string
	sessionName string
	policy      string
	duration    time.Duration

	client *teco.Client
	cfg    teco.ServiceConfig
}

func NewSTS(upstream auth.CredentialProvider, roleARN string, optFns ...func(*STSOptions)) *STS {
	options := STSOptions{Duration: DefaultSessionDuration}
	for _, fn := range optFns {
		fn(&options)
	}

	var cfgOpts []func(*teco.ServiceConfig)
	if options.Region != nil {
		cfgOpts = append(cfgOpts, teco.WithRegion(options.Region))
	}
	if !reflect.DeepEqual(options.Endpoint, endpoint.Resolver{}) {
		cfgOpts = append(cfgOpts, teco.WithEndpoint(options.Endpoint))
	}

	return &STS{
		roleARN:     roleARN,
		sessionName: options.SessionName,
		policy:      options.Policy,
		duration:    options.Duration,
		client: teco.NewClient(upstream, teco.Options{
			HTTPClient: options.HTTPClient,
			Logger:     options.Logger,
		}),
		cfg: teco.NewServiceConfig(stsService, stsVersion, cfgOpts...),
	}
}

// NewSTSFromEnv builds the provider from the TENCENTCLOUD_ROLE_ARN and
// TENCENTCLOUD_ROLE_SESSION_NAME environment variables. The variables are
// read once, at construction.
func NewSTSFromEnv(upstream auth.CredentialProvider, optFns ...func(*STSOptions)) *STS {
	fromEnv := func(o *STSOptions) {
		o.SessionName = os.Getenv(envRoleSessionName)
	}
	return NewSTS(upstream, os.Getenv(envRoleARN), append([]func(*STSOptions){fromEnv}, optFns...)...)
}

type assumeRoleInput struct {
	RoleArn         string `json:"RoleArn"`
	RoleSessionName string `json:"RoleSessionName"`
	DurationSeconds int64  `json:"DurationSeconds,omitempty"`
	Policy          string `json:"Policy,omitempty"`
}

type assumeRoleOutput struct {
	Credentials *temporaryCredentials `json:"Credentials"`
	ExpiredTime int64                 `json:"ExpiredTime"`
}

type temporaryCredentials struct {
	TmpSecretID  string `json:"TmpSecretId"`
	TmpSecretKey string `json:"TmpSecretKey"`
	Token        string `json:"Token"`
}

func (o assumeRoleOutput) credential() (auth.Credential, error) {
	if o.Credentials == nil || o.Credentials.TmpSecretID == "" || o.Credentials.TmpSecretKey == "" {
		return auth.Credential{}, errors.New("STS response carries no usable credential")
	}
	return auth.Credential{
		SecretID:  o.Credentials.TmpSecretID,
		SecretKey: o.Credentials.TmpSecretKey,
		Token:     o.Credentials.Token,
		CanExpire: true,
		Expires:   time.Unix(o.ExpiredTime, 0),
	}, nil
}

func defaultSessionName() string {
	return "teco-go-" + uuid.NewString()
}

func (s *STS) Retrieve(ctx context.Context) (auth.Credential, error) {
	if s.roleARN == "" {
		return auth.Credential{}, tcerr.ErrMissingRoleARN
	}

	sessionName := s.sessionName
	if sessionName == "" {
		sessionName = defaultSessionName()
	}
	input := assumeRoleInput{
		RoleArn:         s.roleARN,
		RoleSessionName: sessionName,
		DurationSeconds: int64(s.duration / time.Second),
	}
	if s.policy != "" {
		input.Policy = auth.PercentEncode(s.policy)
	}

	var output assumeRoleOutput
	err := s.client.Execute(ctx, s.cfg, teco.Operation{
		Action: "AssumeRole",
		Method: http.MethodPost,
		Input:  input,
	}, &output)
	if err != nil {
		return auth.Credential{}, fmt.Errorf("assuming role %q: %w", s.roleARN, err)
	}
	return output.credential()
}

func (s *STS) Shutdown(ctx context.Context) error {
	return s.client.Close(ctx)
}

func (s *STS) String() string { return "sts" }
