package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"tft-tracker/internal/config"
	"tft-tracker/internal/database"
	"tft-tracker/internal/domain"
	"tft-tracker/internal/middleware"
	"tft-tracker/internal/repository"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(config.DBConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tft.db"),
	}, zerolog.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	log := zerolog.New(io.Discard)
	db := openTestDB(t)

	loader := repository.NewLoader(db, log)
	matches := repository.NewMatchRepository(loader, log)
	ladder := repository.NewLadderRepository(loader, log)
	ctx := context.Background()
	at := time.Date(2026, 10, 12, 20, 0, 0, 0, time.UTC)

	record := &domain.MatchRecord{
		Match: domain.Match{MatchID: "NA1_1", GameDatetime: at, TFTSetNumber: 13},
		Participants: []domain.Participant{
			{Puuid: "p1", MatchID: "NA1_1", Placement: 2, RiotIDGameName: "alice"},
		},
		Units: []domain.UnitInstance{
			{CharacterID: "TFT13_Jinx", Puuid: "p1", MatchID: "NA1_1", Tier: 2, ItemNames: domain.ItemNames{"TFT_Item_Bloodthirster", "TFT_Item_InfinityEdge"}},
			{CharacterID: "TFT13_Vi", Puuid: "p1", MatchID: "NA1_1", Tier: 1},
		},
		Traits: []domain.TraitInstance{
			{Puuid: "p1", MatchID: "NA1_1", TraitName: "TFT13_Warband", TierCurrent: 1, TierTotal: 3, NumUnits: 2},
		},
	}

	err := loader.WithConn(ctx, func(conn *sqlx.Conn) error {
		if _, err := matches.Save(ctx, conn, record); err != nil {
			return err
		}
		_, err := ladder.SaveSnapshot(ctx, conn, []domain.LadderEntry{
			{Puuid: "p1", SummonerName: "a", LeaguePoints: 1300, Wins: 1, Losses: 1, Date: "2026-10-12", FetchedAt: at},
		})
		return err
	})
	require.NoError(t, err)

	return NewDashboardServer(repository.NewStatsRepository(db, log)).Routes()
}

func get(t *testing.T, h http.Handler, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestDashboard_Endpoints(t *testing.T) {
	h := newTestServer(t)

	var board []repository.LeaderboardRow
	rec := get(t, h, "/api/leaderboard?limit=5", &board)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Len(t, board, 1)
	assert.Equal(t, "alice", board[0].Name)
	assert.Equal(t, 50.0, board[0].WinPct)

	var history []repository.LadderPoint
	require.Equal(t, http.StatusOK, get(t, h, "/api/ladder/history?puuid=p1", &history).Code)
	assert.Len(t, history, 1)

	var units []repository.UnitUsage
	require.Equal(t, http.StatusOK, get(t, h, "/api/units?set=13&from=2026-10-12&to=2026-10-12", &units).Code)
	assert.Len(t, units, 2)

	require.Equal(t, http.StatusOK, get(t, h, "/api/units?set=12", &units).Code)
	assert.Empty(t, units)

	var traits []repository.Count
	require.Equal(t, http.StatusOK, get(t, h, "/api/traits", &traits).Code)
	assert.Equal(t, []repository.Count{{Name: "Conqueror", Count: 1}}, traits)

	var items []repository.Count
	require.Equal(t, http.StatusOK, get(t, h, "/api/items?character=Jinx&limit=1", &items).Code)
	assert.Equal(t, []repository.Count{{Name: "Bloodthirster", Count: 1}}, items)

	var comp []repository.Count
	require.Equal(t, http.StatusOK, get(t, h, "/api/teamcomp?character=TFT13_Jinx", &comp).Code)
	assert.Equal(t, []repository.Count{{Name: "Vi", Count: 1}}, comp)

	var placements []repository.Placement
	require.Equal(t, http.StatusOK, get(t, h, "/api/placements?name=alice&name=nobody", &placements).Code)
	require.Len(t, placements, 1)
	assert.Equal(t, 2, placements[0].Placement)

	var dash DashboardResponse
	require.Equal(t, http.StatusOK, get(t, h, "/api/dashboard?set=13", &dash).Code)
	assert.Len(t, dash.Leaderboard, 1)
	assert.Len(t, dash.Units, 2)
	assert.Len(t, dash.Traits, 1)

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz", nil).Code)
}

func TestDashboard_BadRequests(t *testing.T) {
	h := newTestServer(t)

	for _, target := range []string{
		"/api/leaderboard?limit=abc",
		"/api/ladder/history",
		"/api/units?from=12-10-2026",
		"/api/units?from=2026-10-12&to=2026-10-01",
		"/api/items",
		"/api/teamcomp?character=Jinx&limit=-1",
		"/api/dashboard?set=x",
	} {
		rec := get(t, h, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "bad request", target)
	}

	assert.Equal(t, http.StatusMethodNotAllowed, httpStatus(h, http.MethodPost, "/api/traits"))
}

func httpStatus(h http.Handler, method, target string) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec.Code
}

func TestDashboard_EmptyStoreReturnsArrays(t *testing.T) {
	db := openTestDB(t)
	h := NewDashboardServer(repository.NewStatsRepository(db, zerolog.New(io.Discard))).Routes()

	for _, target := range []string{
		"/api/leaderboard",
		"/api/ladder/history?puuid=nobody",
		"/api/placements?name=nobody",
	} {
		rec := get(t, h, target, nil)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "[]\n", rec.Body.String(), target)
	}
}

func TestDashboard_ErrorCarriesRequestID(t *testing.T) {
	h := middleware.RequestID(zerolog.Nop())(newTestServer(t))

	req := httptest.NewRequest(http.MethodGet, "/api/ladder/history", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-1", body["request_id"])
	assert.Contains(t, body["error"], "puuid is required")
}
