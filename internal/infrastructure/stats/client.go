package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/metrics"
	appCtx "github.com/baechuer/real-time-ressys/services/participation-service/internal/pkg/context"
)

var (
	ErrTimeout     = errors.New("stats_timeout")
	ErrUnavailable = errors.New("stats_unavailable")
)

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stats collector returned %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Failures int
	Reset    time.Duration
}

// Client talks to the stats collector over HTTP. Every failure surfaces as a
// domain IntegrationError wrapping the transport cause.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	breaker *Breaker
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Reset <= 0 {
		cfg.Reset = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		http:    &http.Client{},
		breaker: NewBreaker(cfg.Failures, cfg.Reset, 1),
	}
}

type hitBody struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

type viewStat struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

func (c *Client) RecordHit(ctx context.Context, h domain.Hit) error {
	body, err := json.Marshal(hitBody{
		App:       h.App,
		URI:       h.URI,
		IP:        h.IP,
		Timestamp: domain.FormatTime(h.Timestamp),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	err = c.breaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.do(ctx, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})
	metrics.RecordStatsCall("hit", err, time.Since(start))
	return c.wrap("record hit", err)
}

func (c *Client) ViewCounts(ctx context.Context, q domain.ViewQuery) (map[string]int64, error) {
	out := make(map[string]int64, len(q.URIs))
	if len(q.URIs) == 0 {
		return out, nil
	}

	params := url.Values{}
	params.Set("start", domain.FormatTime(q.Start))
	params.Set("end", domain.FormatTime(q.End))
	params.Set("unique", fmt.Sprint(q.Unique))
	for _, u := range q.URIs {
		params.Add("uris", u)
	}

	start := time.Now()
	err := c.breaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		resp, err := c.do(ctx, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var rows []viewStat
		if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
			return fmt.Errorf("decode stats: %w", err)
		}
		for _, r := range rows {
			out[r.URI] += r.Hits
		}
		return nil
	})
	metrics.RecordStatsCall("views", err, time.Since(start))
	if err != nil {
		return nil, c.wrap("view counts", err)
	}
	return out, nil
}

// do applies the per-call timeout, forwards the request id and turns non-2xx
// responses into a StatusError.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	req = req.WithContext(ctx)
	if rid := appCtx.GetRequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ErrTimeout
		}
		return nil, ErrUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		cancel()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (c *Client) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	logger.Logger.Debug().Err(err).Str("op", op).Str("breaker", c.breaker.State().String()).Msg("stats call failed")
	return domain.WrapIntegration("stats "+op+" failed", err)
}

// cancelBody releases the call's timeout once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
