package esplora

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/descwallet/internal/core/ports"
	"github.com/tdex-network/descwallet/pkg/circuitbreaker"
	"github.com/tdex-network/descwallet/pkg/httputil"
	"go.uber.org/ratelimit"
)

const (
	DefaultConcurrency       = 4
	DefaultRequestsPerSecond = 20
)

var (
	// ErrMissingBaseURL ...
	ErrMissingBaseURL = errors.New("missing esplora base url")
	// ErrBroadcastRejected is returned when the server refuses a tx.
	ErrBroadcastRejected = errors.New("transaction rejected")
)

// ServiceArgs holds the options to connect to an Esplora server.
type ServiceArgs struct {
	BaseURL string
	// Optional http(s) or socks5 proxy URL.
	Proxy string
	// Max number of requests in flight.
	Concurrency uint8
	// Max number of requests per second.
	RequestsPerSecond int
	Timeout           time.Duration
	Retry             uint8
}

func (a ServiceArgs) validate() error {
	if len(a.BaseURL) <= 0 {
		return ErrMissingBaseURL
	}
	if !strings.HasPrefix(a.BaseURL, "http://") &&
		!strings.HasPrefix(a.BaseURL, "https://") {
		return fmt.Errorf("invalid esplora base url %q", a.BaseURL)
	}
	return nil
}

type esplora struct {
	apiURL  string
	client  *httputil.Client
	cb      *gobreaker.CircuitBreaker
	policy  circuitbreaker.RetryPolicy
	limiter ratelimit.Limiter
	sem     chan struct{}
}

// NewService returns a new esplora service as a ports.BlockchainService
// interface.
func NewService(args ServiceArgs) (ports.BlockchainService, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}

	client, err := httputil.NewClient(args.Timeout, args.Proxy)
	if err != nil {
		return nil, err
	}

	concurrency := int(args.Concurrency)
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	rps := args.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	service := &esplora{
		apiURL:  strings.TrimSuffix(args.BaseURL, "/"),
		client:  client,
		cb:      circuitbreaker.NewCircuitBreaker("esplora"),
		policy:  circuitbreaker.NewRetryPolicy(args.Retry),
		limiter: ratelimit.New(rps),
		sem:     make(chan struct{}, concurrency),
	}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (e *esplora) Close() {
	e.client.Close()
}

func (e *esplora) healthCheck() error {
	_, err := e.GetBlockHeight(context.Background())
	return err
}

// request sends the request through the circuit breaker, retrying on
// network errors, 429 and 5xx responses.
func (e *esplora) request(
	ctx context.Context, method, path, body string,
) (string, error) {
	url := fmt.Sprintf("%s%s", e.apiURL, path)
	headers := map[string]string{}
	if method == http.MethodPost {
		headers["Content-Type"] = "text/plain"
	}

	iResp, err := circuitbreaker.Execute(
		ctx, e.cb, e.policy, func() (interface{}, error) {
			select {
			case e.sem <- struct{}{}:
			case <-ctx.Done():
				return nil, circuitbreaker.Permanent(ctx.Err())
			}
			defer func() { <-e.sem }()
			e.limiter.Take()

			status, resp, err := e.client.NewHTTPRequest(
				ctx, method, url, body, headers,
			)
			if err != nil {
				if ctx.Err() != nil {
					return nil, circuitbreaker.Permanent(ctx.Err())
				}
				return nil, err
			}
			if status != http.StatusOK {
				err := newResponseError(method, path, status, resp)
				if status == http.StatusTooManyRequests || status >= 500 {
					return nil, err
				}
				return nil, circuitbreaker.Permanent(err)
			}
			return resp, nil
		},
	)
	if err != nil {
		log.WithError(err).Debugf("esplora: %s %s failed", method, path)
		return "", err
	}
	return iResp.(string), nil
}

type responseError struct {
	method string
	path   string
	status int
	body   string
}

func newResponseError(method, path string, status int, body string) error {
	return &responseError{method, path, status, strings.TrimSpace(body)}
}

func (e *responseError) Error() string {
	return fmt.Sprintf(
		"%s %s: unexpected status %d: %s", e.method, e.path, e.status, e.body,
	)
}
