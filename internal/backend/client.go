package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zrougamed/cerberus-watch/internal/models"
	"github.com/zrougamed/cerberus-watch/internal/stream"

	"github.com/valyala/fasthttp"
)

const (
	DEFAULT_START_PATH  = "/api/simulate"
	DEFAULT_STREAM_PATH = "/api/stream"
)

var ErrBadResponse = errors.New("unexpected start response")

type Config struct {
	BaseURL    string
	StartPath  string
	StreamPath string
	// StartTimeout bounds the start call; zero waits indefinitely.
	StartTimeout time.Duration
}

type Client struct {
	cfg    Config
	http   *fasthttp.Client
	stream *http.Client
}

func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.StartPath == "" {
		cfg.StartPath = DEFAULT_START_PATH
	}
	if cfg.StreamPath == "" {
		cfg.StreamPath = DEFAULT_STREAM_PATH
	}

	return &Client{
		cfg: cfg,
		http: &fasthttp.Client{
			Name: "cerberus-watch",
		},
		// No client timeout: the stream lives as long as the run.
		stream: &http.Client{},
	}
}

func (c *Client) StartURL() string {
	return c.cfg.BaseURL + c.cfg.StartPath
}

func (c *Client) StreamURL() string {
	return c.cfg.BaseURL + c.cfg.StreamPath
}

// StartSimulation asks the backend to start a run of duration seconds. Any
// reply that decodes as a start response is returned, whatever its HTTP
// status; the caller decides acceptance from its status field.
func (c *Client) StartSimulation(duration int) (*models.StartResponse, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	body, err := json.Marshal(models.StartRequest{Duration: duration})
	if err != nil {
		return nil, err
	}

	req.SetRequestURI(c.StartURL())
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBody(body)

	if c.cfg.StartTimeout > 0 {
		err = c.http.DoTimeout(req, resp, c.cfg.StartTimeout)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.StartURL(), err)
	}

	var result models.StartResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w (HTTP %d): %v", ErrBadResponse, resp.StatusCode(), err)
	}

	if result.Message == "" && !result.Accepted() {
		result.Message = fmt.Sprintf("Backend rejected the simulation (HTTP %d)", resp.StatusCode())
	}

	return &result, nil
}

// OpenStream subscribes to the push stream. Hooks run on the subscription's
// goroutine, never on the caller's.
func (c *Client) OpenStream(ctx context.Context, hooks stream.Hooks) stream.Handle {
	return stream.Subscribe(ctx, c.stream, c.StreamURL(), hooks)
}
