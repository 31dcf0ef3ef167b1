package repository

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"tft-tracker/internal/domain"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// StatsRepository serves the read-only dashboard queries.
type StatsRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewStatsRepository(db *sqlx.DB, logger zerolog.Logger) *StatsRepository {
	return &StatsRepository{db: db, logger: logger}
}

// Filter narrows match-scoped queries. Zero values disable a criterion.
type Filter struct {
	SetNumber int
	From      time.Time
	To        time.Time // inclusive day
	Puuid     string
}

func (f Filter) where() (string, []any) {
	var clauses []string
	var args []any

	if f.SetNumber > 0 {
		clauses = append(clauses, "m.tft_set_number = ?")
		args = append(args, f.SetNumber)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "m.game_datetime >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "m.game_datetime < ?")
		args = append(args, f.To.UTC().AddDate(0, 0, 1))
	}
	if f.Puuid != "" {
		clauses = append(clauses, "x.puuid = ?")
		args = append(args, f.Puuid)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type LeaderboardRow struct {
	Puuid        string  `db:"puuid" json:"puuid"`
	Name         string  `db:"name" json:"name"`
	Date         string  `db:"date" json:"date"`
	Tier         string  `db:"tier" json:"tier"`
	LeaguePoints int     `db:"leaguepoints" json:"league_points"`
	Wins         int     `db:"wins" json:"wins"`
	Losses       int     `db:"losses" json:"losses"`
	WinPct       float64 `db:"-" json:"win_pct"`
}

// Leaderboard returns each player's most recent snapshot ordered by league points.
func (r *StatsRepository) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	const query = `
		SELECT cl.puuid,
		       COALESCE((SELECT p.riotidgamename FROM participants p
		                 WHERE p.puuid = cl.puuid ORDER BY p.id DESC LIMIT 1), cl.summonername) AS name,
		       CAST(cl.date AS TEXT) AS date,
		       cl.tier, cl.leaguepoints, cl.wins, cl.losses
		FROM challenger_league cl
		WHERE cl.date = (SELECT MAX(c2.date) FROM challenger_league c2 WHERE c2.puuid = cl.puuid)
		ORDER BY cl.leaguepoints DESC, cl.puuid
		LIMIT ?`

	rows := []LeaderboardRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), limit); err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	for i := range rows {
		rows[i].WinPct = winPct(rows[i].Wins, rows[i].Losses)
	}
	return rows, nil
}

type LadderPoint struct {
	Date         string `db:"date" json:"date"`
	LeaguePoints int    `db:"leaguepoints" json:"league_points"`
	Wins         int    `db:"wins" json:"wins"`
	Losses       int    `db:"losses" json:"losses"`
}

func (r *StatsRepository) LadderHistory(ctx context.Context, puuid string) ([]LadderPoint, error) {
	const query = `
		SELECT CAST(date AS TEXT) AS date, leaguepoints, wins, losses
		FROM challenger_league
		WHERE puuid = ?
		ORDER BY date`

	points := []LadderPoint{}
	if err := r.db.SelectContext(ctx, &points, r.db.Rebind(query), puuid); err != nil {
		return nil, fmt.Errorf("failed to query ladder history: %w", err)
	}
	return points, nil
}

type UnitUsage struct {
	Unit  string `json:"unit"`
	Tier  int    `json:"tier"`
	Count int    `json:"count"`
	Total int    `json:"total"` // all tiers of the unit
}

// UnitUsage counts fielded units per (unit, star tier), most used units first.
func (r *StatsRepository) UnitUsage(ctx context.Context, f Filter) ([]UnitUsage, error) {
	where, args := f.where()
	query := `
		SELECT x.character_id, x.tier, COUNT(*) AS count
		FROM units x
		JOIN matches m ON m.match_id = x.match_id` + where + `
		GROUP BY x.character_id, x.tier`

	var raw []struct {
		CharacterID string `db:"character_id"`
		Tier        int    `db:"tier"`
		Count       int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &raw, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query unit usage: %w", err)
	}

	type key struct {
		unit string
		tier int
	}
	counts := make(map[key]int)
	totals := make(map[string]int)
	for _, row := range raw {
		k := key{UnitLabel(row.CharacterID), row.Tier}
		counts[k] += row.Count
		totals[k.unit] += row.Count
	}

	usage := make([]UnitUsage, 0, len(counts))
	for k, c := range counts {
		usage = append(usage, UnitUsage{Unit: k.unit, Tier: k.tier, Count: c, Total: totals[k.unit]})
	}
	slices.SortFunc(usage, func(a, b UnitUsage) int {
		return cmp.Or(
			cmp.Compare(b.Total, a.Total),
			cmp.Compare(a.Unit, b.Unit),
			cmp.Compare(a.Tier, b.Tier),
		)
	})
	return usage, nil
}

type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (r *StatsRepository) TraitCounts(ctx context.Context, f Filter) ([]Count, error) {
	where, args := f.where()
	query := `
		SELECT x.trait_name AS name, COUNT(*) AS count
		FROM traits x
		JOIN matches m ON m.match_id = x.match_id` + where + `
		GROUP BY x.trait_name`

	var raw []struct {
		Name  string `db:"name"`
		Count int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &raw, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query trait counts: %w", err)
	}

	counts := make(map[string]int)
	for _, row := range raw {
		counts[TraitLabel(row.Name)] += row.Count
	}
	return sortedCounts(counts, 0), nil
}

type boardUnit struct {
	Puuid       string           `db:"puuid"`
	MatchID     string           `db:"match_id"`
	CharacterID string           `db:"character_id"`
	ItemNames   domain.ItemNames `db:"itemnames"`
}

func (r *StatsRepository) boardUnits(ctx context.Context, f Filter) ([]boardUnit, error) {
	where, args := f.where()
	query := `
		SELECT x.puuid, x.match_id, x.character_id, x.itemnames
		FROM units x
		JOIN matches m ON m.match_id = x.match_id` + where

	var units []boardUnit
	if err := r.db.SelectContext(ctx, &units, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}

	r.logger.Debug().Int("units", len(units)).Int("set", f.SetNumber).Str("puuid", f.Puuid).Msg("board units loaded")
	return units, nil
}

// TopItems counts the items equipped on a unit, most used first.
func (r *StatsRepository) TopItems(ctx context.Context, f Filter, unit string, limit int) ([]Count, error) {
	units, err := r.boardUnits(ctx, f)
	if err != nil {
		return nil, err
	}

	label := UnitLabel(unit)
	counts := make(map[string]int)
	for _, u := range units {
		if UnitLabel(u.CharacterID) != label {
			continue
		}
		for _, item := range u.ItemNames {
			counts[ItemLabel(item)]++
		}
	}
	return sortedCounts(counts, limit), nil
}

// TeamComp counts the other units fielded on boards that contain unit.
func (r *StatsRepository) TeamComp(ctx context.Context, f Filter, unit string, limit int) ([]Count, error) {
	units, err := r.boardUnits(ctx, f)
	if err != nil {
		return nil, err
	}

	type board struct{ puuid, matchID string }
	label := UnitLabel(unit)
	boards := make(map[board][]string)
	withUnit := make(map[board]bool)
	for _, u := range units {
		b := board{u.Puuid, u.MatchID}
		l := UnitLabel(u.CharacterID)
		boards[b] = append(boards[b], l)
		if l == label {
			withUnit[b] = true
		}
	}

	counts := make(map[string]int)
	for b := range withUnit {
		for _, l := range boards[b] {
			if l != label {
				counts[l]++
			}
		}
	}
	return sortedCounts(counts, limit), nil
}

type Placement struct {
	Name         string    `db:"riotidgamename" json:"name"`
	MatchID      string    `db:"match_id" json:"match_id"`
	Placement    int       `db:"placement" json:"placement"`
	Level        int       `db:"level" json:"level"`
	DamageDealt  int       `db:"total_damage_to_players" json:"damage_dealt"`
	GameDatetime time.Time `db:"game_datetime" json:"game_datetime"`
}

// Placements lists match results of the players with the given Riot game names.
func (r *StatsRepository) Placements(ctx context.Context, names []string) ([]Placement, error) {
	if len(names) == 0 {
		return []Placement{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT p.riotidgamename, p.match_id, p.placement, p.level, p.total_damage_to_players, m.game_datetime
		FROM participants p
		JOIN matches m ON m.match_id = p.match_id
		WHERE p.riotidgamename IN (?)
		ORDER BY m.game_datetime, p.riotidgamename`, names)
	if err != nil {
		return nil, fmt.Errorf("failed to build placements query: %w", err)
	}

	placements := []Placement{}
	if err := r.db.SelectContext(ctx, &placements, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query placements: %w", err)
	}
	return placements, nil
}

func sortedCounts(counts map[string]int, limit int) []Count {
	out := make([]Count, 0, len(counts))
	for name, c := range counts {
		out = append(out, Count{Name: name, Count: c})
	}
	slices.SortFunc(out, func(a, b Count) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Name, b.Name))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func winPct(wins, losses int) float64 {
	games := wins + losses
	if games == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(games)*1000) / 10
}
