package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"tft-tracker/internal/config"
	"tft-tracker/internal/constants"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrUnknownHTTP     = errors.New("unexpected http status")
	ErrEmptyIdentifier = errors.New("identifier must not be empty")
)

// HTTPError is a classified non-2xx response. It unwraps to ErrForbidden,
// ErrRateLimited or ErrUnknownHTTP.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration
	Path       string
	kind       error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%v: %s returned %d", e.kind, e.Path, e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.kind
}

func classify(status int) error {
	switch status {
	case fasthttp.StatusUnauthorized, fasthttp.StatusForbidden:
		return ErrForbidden
	case fasthttp.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrUnknownHTTP
	}
}

type RiotClient struct {
	apiKey      string
	platform    string
	region      string
	baseURL     string
	matchCount  int
	client      *fasthttp.Client
	logger      zerolog.Logger
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	AppLimit       string        `json:"app_limit"`
	AppCount       string        `json:"app_count"`
	MethodCount    string        `json:"method_count"`
	RetryAfter     time.Duration `json:"retry_after"`
	LastStatusCode int           `json:"last_status_code"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func NewRiotClient(cfg *config.Config, logger zerolog.Logger) *RiotClient {
	return &RiotClient{
		apiKey:     cfg.RiotAPIKey,
		platform:   cfg.RiotPlatform,
		region:     cfg.RiotRegion,
		baseURL:    strings.TrimRight(cfg.RiotBaseURL, "/"),
		matchCount: cfg.MatchCount,
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger.With().Str("component", "riot_client").Logger(),
	}
}

func (c *RiotClient) RateLimit() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *RiotClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if v := string(resp.Header.Peek("X-App-Rate-Limit")); v != "" {
		c.rateLimit.AppLimit = v
	}
	if v := string(resp.Header.Peek("X-App-Rate-Limit-Count")); v != "" {
		c.rateLimit.AppCount = v
	}
	if v := string(resp.Header.Peek("X-Method-Rate-Limit-Count")); v != "" {
		c.rateLimit.MethodCount = v
	}
	c.rateLimit.RetryAfter = retryAfter(resp)
	c.rateLimit.LastStatusCode = resp.StatusCode()
	c.rateLimit.UpdatedAt = time.Now()
}

func retryAfter(resp *fasthttp.Response) time.Duration {
	v := string(resp.Header.Peek("Retry-After"))
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func (c *RiotClient) host(name string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", name)
}

// FetchLadder lists the current challenger ladder of the configured platform.
// On failure the entries are nil and the classified error has already been logged.
func (c *RiotClient) FetchLadder(ctx context.Context) ([]LeagueEntry, error) {
	path := "/tft/league/v1/challenger?queue=" + constants.RankedQueue
	list, err := doRequest[LeagueList](ctx, c, c.host(c.platform), path)
	if err != nil {
		return nil, err
	}

	for i := range list.Entries {
		if list.Entries[i].Tier == "" {
			list.Entries[i].Tier = list.Tier
		}
	}
	return list.Entries, nil
}

func (c *RiotClient) FetchMatchIDs(ctx context.Context, puuid string) ([]string, error) {
	if puuid == "" {
		return nil, ErrEmptyIdentifier
	}

	path := fmt.Sprintf("/tft/match/v1/matches/by-puuid/%s/ids?count=%d", url.PathEscape(puuid), c.matchCount)
	ids, err := doRequest[[]string](ctx, c, c.host(c.region), path)
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

func (c *RiotClient) FetchMatch(ctx context.Context, matchID string) (*Match, error) {
	if matchID == "" {
		return nil, ErrEmptyIdentifier
	}

	path := "/tft/match/v1/matches/" + url.PathEscape(matchID)
	return doRequest[Match](ctx, c, c.host(c.region), path)
}

// FetchAccount resolves a Riot ID (game name + tag line) to its account.
func (c *RiotClient) FetchAccount(ctx context.Context, gameName, tagLine string) (*Account, error) {
	if gameName == "" || tagLine == "" {
		return nil, ErrEmptyIdentifier
	}

	path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s", url.PathEscape(gameName), url.PathEscape(tagLine))
	return doRequest[Account](ctx, c, c.host(c.region), path)
}

func doRequest[T any](ctx context.Context, client *RiotClient, host, path string) (*T, error) {
	log := client.logger.With().Str("path", path).Logger()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(host + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", client.apiKey)
	req.Header.Set("Accept", "application/json")

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = client.client.DoDeadline(req, resp, deadline)
	} else {
		err = client.client.DoTimeout(req, resp, constants.ExternalAPITimeout)
	}
	if err != nil {
		log.Error().Err(err).Msg("request failed")
		return nil, fmt.Errorf("request %s: %w", path, err)
	}

	client.updateRateLimit(resp)

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		httpErr := &HTTPError{
			StatusCode: status,
			RetryAfter: retryAfter(resp),
			Path:       path,
			kind:       classify(status),
		}
		logHTTPError(log, httpErr)
		return nil, httpErr
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		log.Error().Err(err).Int("status", status).Msg("failed to decode response")
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &result, nil
}

func logHTTPError(log zerolog.Logger, err *HTTPError) {
	switch {
	case errors.Is(err, ErrForbidden):
		log.Error().Int("status", err.StatusCode).Msg("forbidden, check the API key and its permissions")
	case errors.Is(err, ErrRateLimited):
		log.Warn().
			Int("status", err.StatusCode).
			Dur("retry_after", err.RetryAfter).
			Msg("rate limit exceeded, wait and try again later")
	default:
		log.Error().Int("status", err.StatusCode).Msg("unexpected API response")
	}
}
