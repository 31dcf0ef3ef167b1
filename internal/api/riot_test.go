package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"tft-tracker/internal/config"
	"tft-tracker/internal/logger"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ladderBody = `{
  "tier": "CHALLENGER",
  "leagueId": "abc",
  "queue": "RANKED_TFT",
  "name": "Zed's Ravagers",
  "entries": [
    {"puuid": "p1", "leaguePoints": 1510, "rank": "I", "wins": 120, "losses": 300, "veteran": true, "inactive": false, "freshBlood": false, "hotStreak": true},
    {"puuid": "p2", "leaguePoints": 980, "rank": "I", "wins": 80, "losses": 200, "veteran": false, "inactive": false, "freshBlood": true, "hotStreak": false}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*RiotClient, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	cfg := &config.Config{
		RiotAPIKey:   "RGAPI-test",
		RiotPlatform: "na1",
		RiotRegion:   "americas",
		RiotBaseURL:  srv.URL,
		MatchCount:   5,
	}
	return NewRiotClient(cfg, logger.NewWithWriter(&buf, zerolog.DebugLevel)), &buf
}

func TestFetchLadder(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tft/league/v1/challenger", r.URL.Path)
		assert.Equal(t, "RANKED_TFT", r.URL.Query().Get("queue"))
		assert.Equal(t, "RGAPI-test", r.Header.Get("X-Riot-Token"))
		w.Header().Set("X-App-Rate-Limit", "20:1,100:120")
		w.Header().Set("X-App-Rate-Limit-Count", "1:1,1:120")
		_, _ = w.Write([]byte(ladderBody))
	})

	entries, err := client.FetchLadder(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "p1", entries[0].Puuid)
	assert.Equal(t, 1510, entries[0].LeaguePoints)
	assert.Equal(t, "CHALLENGER", entries[0].Tier)
	assert.True(t, entries[0].Veteran)
	assert.True(t, entries[0].HotStreak)
	assert.True(t, entries[1].FreshBlood)

	rl := client.RateLimit()
	assert.Equal(t, "20:1,100:120", rl.AppLimit)
	assert.Equal(t, "1:1,1:120", rl.AppCount)
	assert.Equal(t, http.StatusOK, rl.LastStatusCode)
}

func TestFetchLadder_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		wantErr    error
		wantLog    string
	}{
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			retryAfter: "7",
			wantErr:    ErrRateLimited,
			wantLog:    "rate limit exceeded",
		},
		{
			name:    "forbidden",
			status:  http.StatusForbidden,
			wantErr: ErrForbidden,
			wantLog: "forbidden, check the API key",
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			wantErr: ErrForbidden,
			wantLog: "forbidden, check the API key",
		},
		{
			name:    "server error",
			status:  http.StatusServiceUnavailable,
			wantErr: ErrUnknownHTTP,
			wantLog: "unexpected API response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
			})

			entries, err := client.FetchLadder(context.Background())
			assert.Empty(t, entries)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, logs.String(), tt.wantLog)

			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
		})
	}
}

func TestFetchLadder_RetryAfterRecorded(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchLadder(context.Background())

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 12*time.Second, httpErr.RetryAfter)
	assert.Equal(t, 12*time.Second, client.RateLimit().RetryAfter)
}

func TestFetchMatchIDs(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tft/match/v1/matches/by-puuid/p1/ids", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`["NA1_1","NA1_2"]`))
	})

	ids, err := client.FetchMatchIDs(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"NA1_1", "NA1_2"}, ids)
}

func TestFetchMatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tft/match/v1/matches/NA1_1", r.URL.Path)
		_, _ = w.Write([]byte(`{
		  "metadata": {"match_id": "NA1_1", "participants": ["p1"]},
		  "info": {
		    "endOfGameResult": "GameComplete",
		    "game_datetime": 1736360384613,
		    "game_length": 2256.49,
		    "game_version": "Version 14.24",
		    "queue_id": 1100,
		    "tft_game_type": "standard",
		    "tft_set_core_name": "TFTSet13",
		    "tft_set_number": 13,
		    "participants": [{
		      "puuid": "p1", "placement": 2, "level": 9, "riotIdGameName": "waxade", "riotIdTagline": "NA1",
		      "units": [{"character_id": "TFT13_Jinx", "itemNames": ["TFT_Item_InfinityEdge"], "name": "", "tier": 3}],
		      "traits": [{"name": "TFT13_Sniper", "num_units": 2, "tier_current": 1, "tier_total": 3}]
		    }]
		  }
		}`))
	})

	match, err := client.FetchMatch(context.Background(), "NA1_1")
	require.NoError(t, err)
	assert.Equal(t, "NA1_1", match.Metadata.MatchID)
	assert.Equal(t, int64(1736360384613), match.Info.GameDatetime)
	assert.Equal(t, 13, match.Info.TFTSetNumber)
	require.Len(t, match.Info.Participants, 1)
	p := match.Info.Participants[0]
	assert.Nil(t, p.PartnerGroupID)
	assert.Equal(t, []string{"TFT_Item_InfinityEdge"}, p.Units[0].ItemNames)
	assert.Equal(t, 2, p.Traits[0].NumUnits)
}

func TestFetchAccount(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/riot/account/v1/accounts/by-riot-id/WizardHatDave/1111", r.URL.Path)
		_, _ = w.Write([]byte(`{"puuid":"p9","gameName":"WizardHatDave","tagLine":"1111"}`))
	})

	account, err := client.FetchAccount(context.Background(), "WizardHatDave", "1111")
	require.NoError(t, err)
	assert.Equal(t, "p9", account.Puuid)
}

func TestEmptyIdentifiers(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})
	ctx := context.Background()

	_, err := client.FetchMatchIDs(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
	_, err = client.FetchMatch(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
	_, err = client.FetchAccount(ctx, "name", "")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
}

func TestCancelledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, err := client.FetchLadder(ctx)
	assert.Empty(t, entries)
	assert.ErrorIs(t, err, context.Canceled)
}
