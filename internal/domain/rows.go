package domain

const (
	TableLadder       = "challenger_league"
	TableMatches      = "matches"
	TableParticipants = "participants"
	TableUnits        = "units"
	TableTraits       = "traits"
)

// Natural keys, used as ON CONFLICT targets.
var (
	LadderKey      = []string{"puuid", "date"}
	MatchKey       = []string{"match_id"}
	ParticipantKey = []string{"puuid", "match_id"}
	UnitKey        = []string{"puuid", "match_id", "character_id", "unit_index"}
	TraitKey       = []string{"trait_name", "puuid", "match_id"}
)

func (e LadderEntry) Columns() []string {
	return []string{
		"puuid", "summonername", "leaguepoints", "tier", "rank", "wins", "losses",
		"veteran", "inactive", "freshblood", "hotstreak", "date", "fetched_at",
	}
}

func (e LadderEntry) Values() []any {
	return []any{
		e.Puuid, e.SummonerName, e.LeaguePoints, e.Tier, e.Rank, e.Wins, e.Losses,
		e.Veteran, e.Inactive, e.FreshBlood, e.HotStreak, e.Date, e.FetchedAt,
	}
}

func (m Match) Columns() []string {
	return []string{
		"match_id", "game_version", "game_datetime", "queue_id", "endofgameresult",
		"game_length", "tft_game_type", "tft_set_core_name", "tft_set_number",
	}
}

func (m Match) Values() []any {
	return []any{
		m.MatchID, m.GameVersion, m.GameDatetime, m.QueueID, m.EndOfGameResult,
		m.GameLength, m.TFTGameType, m.TFTSetCoreName, m.TFTSetNumber,
	}
}

func (p Participant) Columns() []string {
	return []string{
		"puuid", "match_id", "placement", "level", "total_damage_to_players",
		"riotidgamename", "riotidtagline", "partner_group_id", "gold_left",
		"last_round", "players_eliminated", "time_eliminated", "win",
	}
}

func (p Participant) Values() []any {
	return []any{
		p.Puuid, p.MatchID, p.Placement, p.Level, p.TotalDamageToPlayers,
		p.RiotIDGameName, p.RiotIDTagline, nullableInt(p.PartnerGroupID), p.GoldLeft,
		p.LastRound, p.PlayersEliminated, p.TimeEliminated, p.Win,
	}
}

func (u UnitInstance) Columns() []string {
	return []string{"character_id", "puuid", "unit_name", "tier", "match_id", "itemnames", "unit_index"}
}

func (u UnitInstance) Values() []any {
	return []any{u.CharacterID, u.Puuid, u.UnitName, u.Tier, u.MatchID, u.ItemNames, u.UnitIndex}
}

func (t TraitInstance) Columns() []string {
	return []string{"puuid", "trait_name", "tier_current", "tier_total", "match_id", "num_units"}
}

func (t TraitInstance) Values() []any {
	return []any{t.Puuid, t.TraitName, t.TierCurrent, t.TierTotal, t.MatchID, t.NumUnits}
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
