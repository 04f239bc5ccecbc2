// Package backendclient is a connection-pooled async HTTP client for
// the InfluxDB-like time-series backend: batched line-protocol writes,
// SQL-like dialect queries, JSON reply parsing. A circuit breaker
// trips on the second consecutive failure (one retry), giving the
// Data Logger and Log Reader the signal they need to transition to
// ERROR once the internal retry budget is exhausted.
package backendclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/karabo-go/karabologd/pkg/log"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Config configures one direction (read or write) of backend access.
type Config struct {
	URL      string
	User     string
	Password string
	DBName   string
	Timeout  time.Duration
}

// Client is a pooled HTTP client bound to a read Config and a write
// Config, matching the external interface's four URL/user/password
// pairs.
type Client struct {
	write Config
	read  Config

	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     zerolog.Logger
}

// New builds a Client. writeCfg and readCfg may point at the same
// backend instance or at different read/write replicas.
func New(writeCfg, readCfg Config) *Client {
	c := &Client{
		write: writeCfg,
		read:  readCfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: log.WithComponent("backendclient"),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend-store",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("backend circuit breaker state change")
			metrics.BackendCircuitState.Set(float64(to))
		},
	})

	return c
}

// Tripped reports whether the circuit breaker is currently open,
// meaning the internal retry budget against the backend has been
// exhausted. Callers use this to drive their own ON -> ERROR
// transition.
func (c *Client) Tripped() bool {
	return c.breaker.State() == gobreaker.StateOpen
}

// WriteBatch submits a batch of line-protocol lines to the backend's
// write endpoint. Lines are joined with newlines and sent as a single
// request; the batch is either fully submitted or fully discarded,
// never partially written, satisfying the cancellation invariant in
// the concurrency model.
func (c *Client) WriteBatch(ctx context.Context, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.BackendRequestDuration, "write")

	body := bytes.Join(stringsToBytes(lines), []byte("\n"))
	metrics.FlushBatchBytes.Observe(float64(len(body)))

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doWrite(ctx, body)
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BackendRequestsTotal.WithLabelValues("write", status).Inc()
	return err
}

func (c *Client) doWrite(ctx context.Context, body []byte) error {
	reqURL := fmt.Sprintf("%s/write?db=%s", c.write.URL, c.write.DBName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build write request: %w", err)
	}
	req.SetBasicAuth(c.write.User, c.write.Password)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("write batch: backend returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}

// QueryResult is the parsed JSON reply from a query.
type QueryResult struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"values"`
}

// QueryDB executes queryText (the SQL-like u-suffixed-microsecond
// dialect built by pkg/backendclient/query.go) against the read
// endpoint and parses the JSON reply.
func (c *Client) QueryDB(ctx context.Context, queryText string) (*QueryResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.BackendRequestDuration, "query")

	v, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doQuery(ctx, queryText)
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BackendRequestsTotal.WithLabelValues("query", status).Inc()

	if err != nil {
		return nil, err
	}
	return v.(*QueryResult), nil
}

func (c *Client) doQuery(ctx context.Context, queryText string) (*QueryResult, error) {
	reqURL := fmt.Sprintf("%s/query?db=%s&q=%s", c.read.URL, c.read.DBName, url.QueryEscape(queryText))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.SetBasicAuth(c.read.User, c.read.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("query backend: backend returned %d: %s", resp.StatusCode, msg)
	}

	var result QueryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse query reply: %w", err)
	}
	return &result, nil
}

// Ping probes the backend's reachability without writing or querying.
// The run modes' health prober does not call it; it checks
// <read URL>/ping through pkg/health's HTTPChecker instead.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.read.URL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("ping backend: backend returned %d", resp.StatusCode)
	}
	return nil
}

func stringsToBytes(lines []string) [][]byte {
	out := make([][]byte, len(lines))
	for i, l := range lines {
		out[i] = []byte(l)
	}
	return out
}
