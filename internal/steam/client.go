package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"

	"github.com/desertthunder/steamlink/internal/shared"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultRetryWaitMin = 250 * time.Millisecond
	defaultRetryWaitMax = 5 * time.Second
	maxResponseBytes    = 1 << 20
)

// Player is the public profile returned by GetPlayerSummaries.
type Player struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	Avatar      string `json:"avatar"`
	AvatarFull  string `json:"avatarfull"`
}

type playerSummaries struct {
	Response struct {
		Players []Player `json:"players"`
	} `json:"response"`
}

// ClientOpts configures a [Client]. Zero values select the Steam production endpoints and defaults.
type ClientOpts struct {
	Endpoint   string
	APIBaseURL string
	APIKey     string

	// HTTPClient replaces the retrying client built from Timeout and MaxRetries.
	HTTPClient *http.Client
	Logger     *log.Logger

	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// BreakerTrips is the number of consecutive failed requests that opens the circuit (default 5). BreakerTimeout is
	// how long it stays open before a probe request is let through (default 30s).
	BreakerTrips   uint32
	BreakerTimeout time.Duration
}

// Client talks to the Steam OpenID provider and the Steam Web API.
type Client struct {
	endpoint   string
	apiBaseURL string
	apiKey     string
	http       *http.Client
	logger     *log.Logger
}

// NewClient creates a [Client] from opts.
func NewClient(opts ClientOpts) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = DefaultAPIBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = newHTTPClient(opts)
	}

	return &Client{
		endpoint:   opts.Endpoint,
		apiBaseURL: strings.TrimSuffix(opts.APIBaseURL, "/"),
		apiKey:     opts.APIKey,
		http:       opts.HTTPClient,
		logger:     opts.Logger,
	}
}

func newHTTPClient(opts ClientOpts) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = defaultRetryWaitMin
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = defaultRetryWaitMax
	}
	if opts.BreakerTrips == 0 {
		opts.BreakerTrips = defaultBreakerTrips
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = defaultBreakerTimeout
	}

	logger := opts.Logger
	rc := retryablehttp.Client{
		HTTPClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: newCircuitTransport(http.DefaultTransport, opts.BreakerTrips, opts.BreakerTimeout, logger),
		},
		Logger:       nil,
		RetryWaitMin: opts.RetryWaitMin,
		RetryWaitMax: opts.RetryWaitMax,
		RetryMax:     opts.MaxRetries,
		RequestLogHook: func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			logger.Debug("sending steam request", "host", req.URL.Host, "path", req.URL.Path, "attempt", attempt)
		},
		ResponseLogHook: func(_ retryablehttp.Logger, resp *http.Response) {
			logger.Debug("received steam response", "path", resp.Request.URL.Path, "status", resp.StatusCode)
		},
		CheckRetry:   retryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return rc.StandardClient()
}

// retryPolicy is [retryablehttp.DefaultRetryPolicy] except that an open circuit is returned at once.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if errors.Is(err, gobreaker.ErrOpenState) {
		return false, err
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// HasAPIKey reports whether [Client.PlayerSummary] can be used.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Verify asks the provider to confirm the assertion with a check_authentication request and returns the asserted
// Steam ID. A response other than is_valid:true yields [shared.ErrVerifyFailed].
func (c *Client) Verify(ctx context.Context, a Assertion) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	steamID, err := a.SteamID()
	if err != nil {
		return "", err
	}

	form := a.CheckParams().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	if !isValid(body) {
		c.logger.Warn("steam rejected assertion", "steam_id", steamID)
		return "", fmt.Errorf("%w: steam id %s", shared.ErrVerifyFailed, steamID)
	}
	return steamID, nil
}

// isValid scans a key:value response body for is_valid:true.
func isValid(body []byte) bool {
	for _, line := range strings.Split(string(body), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && key == "is_valid" {
			return value == "true"
		}
	}
	return false
}

// PlayerSummary fetches the public profile for steamID.
func (c *Client) PlayerSummary(ctx context.Context, steamID string) (*Player, error) {
	if !c.HasAPIKey() {
		return nil, shared.ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamids", steamID)
	endpoint := c.apiBaseURL + "/ISteamUser/GetPlayerSummaries/v0002/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var summaries playerSummaries
	if err := json.Unmarshal(body, &summaries); err != nil {
		return nil, fmt.Errorf("%w: failed to decode player summaries: %w", shared.ErrAPIRequest, err)
	}

	for _, p := range summaries.Response.Players {
		if p.SteamID == steamID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrPlayerNotFound, steamID)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error carries the full URL, which includes the API key. The retry layer nests them.
		var urlErr *url.Error
		for errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", shared.ErrAPIRequest, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}
