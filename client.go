package teco

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/metrics"
	"github.com/teco-project/teco-go/region"
	"github.com/teco-project/teco-go/tcerr"
)

// Options configure a Client.
type Options struct {
	// HTTPClient dispatches the requests when set; the Client then never
	// tears its transport down on Close. Unset builds an owned pooled
	// transport.
	HTTPClient *http.Client

	// SigningMode selects the default V3 header set, auth.SigningDefault
	// when unset. Operations with SkipAuth force auth.SigningSkip.
	SigningMode auth.SigningMode

	// Logger receives request logs, logrus.StandardLogger when nil.
	Logger logrus.FieldLogger

	// RetryPolicy decides on repeat attempts, DefaultRetryPolicy when nil.
	RetryPolicy RetryPolicy

	// Metrics receives request instrumentation, metrics.Default when nil.
	Metrics *metrics.Metrics

	// ProcessShared marks a process-wide client; Close refuses with
	// tcerr.ErrShutdownUnsupported so no component tears down a client it
	// does not own.
	ProcessShared bool
}

// Operation identifies one API call.
type Operation struct {
	// Action is the API action name, for example "DescribeInstances".
	Action string
	// Path is appended to the endpoint base URL, usually empty.
	Path string
	// Method is the HTTP method of the call.
	Method string
	// Region overrides the config's default region for this call.
	Region *region.Region
	// SkipAuth sends the operation unsigned, for STS calls that establish
	// the very credential other requests sign with.
	SkipAuth bool
	// Input is the request model: JSON body for POST, dotted query
	// parameters for GET, nothing when nil.
	Input any
	// Logger overrides the client logger for this call.
	Logger logrus.FieldLogger
}

// Client executes operations against the platform's service APIs. One
// client serves any number of services and is safe for concurrent use.
type Client struct {
	provider      auth.CredentialProvider
	httpClient    *http.Client
	ownsTransport bool
	signingMode   auth.SigningMode
	logger        logrus.FieldLogger
	retryPolicy   RetryPolicy
	metrics       *metrics.Metrics
	processShared bool

	requestID atomic.Uint64
	shut      atomic.Bool

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient returns a client resolving credentials from provider. A nil
// provider yields a client whose operations fail with tcerr.ErrNoProvider.
func NewClient(provider auth.CredentialProvider, opts Options) *Client {
	c := &Client{
		provider:      provider,
		httpClient:    opts.HTTPClient,
		signingMode:   opts.SigningMode,
		logger:        opts.Logger,
		retryPolicy:   opts.RetryPolicy,
		metrics:       opts.Metrics,
		processShared: opts.ProcessShared,
		sleep:         sleepContext,
	}
	if c.provider == nil {
		c.provider = nullProvider{}
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient()
		c.ownsTransport = true
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if c.retryPolicy == nil {
		c.retryPolicy = DefaultRetryPolicy()
	}
	if c.metrics == nil {
		c.metrics = metrics.Default()
	}
	return c
}

// Execute runs one operation to completion, retrying per the client's
// policy, and unmarshals the response payload into out. out may be nil when
// the caller discards the payload.
func (c *Client) Execute(ctx context.Context, cfg ServiceConfig, op Operation, out any) error {
	if c.shut.Load() {
		return tcerr.ErrAlreadyShutDown
	}

	logger := op.Logger
	if logger == nil {
		logger = c.logger
	}
	logger = logger.WithFields(logrus.Fields{
		"tc-request-id": c.requestID.Add(1),
		"tc-service":    cfg.Service,
		"tc-action":     op.Action,
	})

	credential, err := c.provider.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieving credential from %s provider: %w", c.provider, err)
	}

	r, body, err := buildRequest(ctx, cfg, op)
	if err != nil {
		return err
	}

	mode := c.signingMode
	if op.SkipAuth {
		mode = auth.SigningSkip
	}
	if err := auth.NewV3Signer(credential, cfg.Service).Sign(r, body, auth.WithSigningMode(mode)); err != nil {
		return fmt.Errorf("signing request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err := c.dispatch(ctx, logger, cfg, op, r, body, out)
		if err == nil {
			return nil
		}

		wait, retry := c.retryPolicy.Decide(err, attempt)
		if !retry {
			// Typed service errors were already logged by the decoder.
			if !tcerr.IsTyped(err) {
				logger.WithError(err).Error("API request failed")
			}
			return err
		}

		logger.WithFields(logrus.Fields{
			"tc-attempt": attempt,
			"tc-wait":    wait,
		}).Debug("retrying API request")
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// dispatch sends one attempt with the config's timeout and decodes it. The
// signed request is cloned so every attempt starts from the same bytes.
func (c *Client) dispatch(ctx context.Context, logger logrus.FieldLogger, cfg ServiceConfig, op Operation, r *http.Request, body []byte, out any) error {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attempt := r.Clone(attemptCtx)
	if len(body) > 0 {
		attempt.Body = io.NopCloser(bytes.NewReader(body))
		attempt.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	logger.WithFields(logrus.Fields{
		"tc-method": attempt.Method,
		"tc-url":    attempt.URL.String(),
	}).Debug("dispatching API request")

	c.metrics.IncRequests(cfg.Service, op.Action)
	start := time.Now()
	resp, err := c.httpClient.Do(attempt)
	c.metrics.MeasureRequest(cfg.Service, op.Action, start)
	if err != nil {
		c.metrics.IncRequestErrors(cfg.Service, op.Action)
		return fmt.Errorf("dispatching request: %w", err)
	}
	defer resp.Body.Close()
	logger.WithField("tc-status", resp.StatusCode).Debug("received API response")

	if err := decodeResponse(logger, resp, cfg, out); err != nil {
		c.metrics.IncRequestErrors(cfg.Service, op.Action)
		return err
	}
	return nil
}

// Close shuts the credential provider down and, when the client owns its
// transport, releases idle connections. A second call fails with
// tcerr.ErrAlreadyShutDown; process-shared clients always refuse with
// tcerr.ErrShutdownUnsupported.
func (c *Client) Close(ctx context.Context) error {
	if c.processShared {
		return tcerr.ErrShutdownUnsupported
	}
	if !c.shut.CompareAndSwap(false, true) {
		return tcerr.ErrAlreadyShutDown
	}

	err := c.provider.Shutdown(ctx)
	if c.ownsTransport {
		c.httpClient.CloseIdleConnections()
	}
	if err != nil {
		return fmt.Errorf("shutting down %s provider: %w", c.provider, err)
	}
	return nil
}

// nullProvider backs clients constructed without a provider.
type nullProvider struct{}

func (nullProvider) Retrieve(context.Context) (auth.Credential, error) {
	return auth.Credential{}, tcerr.ErrNoProvider
}

func (nullProvider) Shutdown(context.Context) error { return nil }

func (nullProvider) String() string { return "null" }

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
