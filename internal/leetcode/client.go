package leetcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"leetfresh/internal/apperr"
	"leetfresh/internal/providers"
	"leetfresh/internal/structures"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
)

const maxResponseSize = 32 << 20

// ClientInterface is the same-origin, credentialed transport to LeetCode.
type ClientInterface interface {
	GetJSON(ctx context.Context, op, path string, out any) error
	GraphQL(ctx context.Context, op, query string, variables any, out any) error
}

type Client struct {
	baseURL   string
	session   string
	csrfToken string
	userAgent string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
}

func NewClient(conf *structures.Config, httpClient *http.Client, breaker *gobreaker.CircuitBreaker, logger providers.Logger, metrics providers.MetricsProviderInterface) ClientInterface {
	return &Client{
		baseURL:   strings.TrimRight(conf.LeetCode.BaseURL, "/"),
		session:   conf.LeetCode.Session,
		csrfToken: conf.LeetCode.CsrfToken,
		userAgent: conf.LeetCode.UserAgent,
		http:      httpClient,
		breaker:   breaker,
		logger:    logger,
		metrics:   metrics,
	}
}

// IsTransportFailure is the breaker policy: only network-level failures
// count, a bad payload says nothing about reachability.
func IsTransportFailure() providers.BreakerFailure {
	return func(err error) bool {
		return apperr.Is(err, apperr.NetworkError)
	}
}

type graphQLRequest struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (c *Client) GetJSON(ctx context.Context, op, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return apperr.Wrap(apperr.ProtocolError, op, err)
	}
	body, err := c.do(op, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.IncRemoteCalls(op, "protocol_error")
		return apperr.Wrap(apperr.ProtocolError, op, err)
	}
	c.metrics.IncRemoteCalls(op, "ok")
	return nil
}

// GraphQL posts query and decodes the data member into out. A non-empty
// errors member is reported as an ApplicationError.
func (c *Client) GraphQL(ctx context.Context, op, query string, variables any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return apperr.Wrap(apperr.ProtocolError, op, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/graphql", bytes.NewReader(payload))
	if err != nil {
		return apperr.Wrap(apperr.ProtocolError, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(op, req)
	if err != nil {
		return err
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.IncRemoteCalls(op, "protocol_error")
		return apperr.Wrap(apperr.ProtocolError, op, err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		c.metrics.IncRemoteCalls(op, "application_error")
		return apperr.Application(op, strings.Join(msgs, "; "))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		c.metrics.IncRemoteCalls(op, "protocol_error")
		return apperr.Protocol(op, "response has no data")
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		c.metrics.IncRemoteCalls(op, "protocol_error")
		return apperr.Wrap(apperr.ProtocolError, op, err)
	}
	c.metrics.IncRemoteCalls(op, "ok")
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-requested-with", "XMLHttpRequest")
	req.Header.Set("Referer", c.baseURL+"/")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: "LEETCODE_SESSION", Value: c.session})
	}
	if c.csrfToken != "" {
		req.AddCookie(&http.Cookie{Name: "csrftoken", Value: c.csrfToken})
		req.Header.Set("x-csrftoken", c.csrfToken)
	}
	return req, nil
}

// do sends req through the circuit breaker and returns the body of a 2xx
// response.
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperr.Network(op, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, apperr.Network(op, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, apperr.Protocol(op, fmt.Sprintf("unexpected status %d", resp.StatusCode))
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = apperr.Network(op, err)
		}
		c.metrics.IncRemoteCalls(op, strings.ToLower(string(apperr.KindOf(err))))
		c.logger.Debugf(providers.TypeRemote, "%s %s failed: %s", req.Method, req.URL.Path, err)
		return nil, err
	}
	return res.([]byte), nil
}
