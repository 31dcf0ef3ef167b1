package api

type LeagueList struct {
	LeagueID string        `json:"leagueId"`
	Name     string        `json:"name"`
	Queue    string        `json:"queue"`
	Tier     string        `json:"tier"`
	Entries  []LeagueEntry `json:"entries"`
}

type LeagueEntry struct {
	Puuid        string `json:"puuid"`
	SummonerID   string `json:"summonerId"`
	SummonerName string `json:"summonerName"`
	LeaguePoints int    `json:"leaguePoints"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Veteran      bool   `json:"veteran"`
	Inactive     bool   `json:"inactive"`
	FreshBlood   bool   `json:"freshBlood"`
	HotStreak    bool   `json:"hotStreak"`
}

type Account struct {
	Puuid    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	DataVersion  string   `json:"data_version"`
	MatchID      string   `json:"match_id"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	EndOfGameResult string             `json:"endOfGameResult"`
	GameDatetime    int64              `json:"game_datetime"` // epoch millis
	GameLength      float64            `json:"game_length"`
	GameVersion     string             `json:"game_version"`
	QueueID         int                `json:"queue_id"`
	TFTGameType     string             `json:"tft_game_type"`
	TFTSetCoreName  string             `json:"tft_set_core_name"`
	TFTSetNumber    int                `json:"tft_set_number"`
	Participants    []MatchParticipant `json:"participants"`
}

type MatchParticipant struct {
	Puuid                string       `json:"puuid"`
	RiotIDGameName       string       `json:"riotIdGameName"`
	RiotIDTagline        string       `json:"riotIdTagline"`
	Placement            int          `json:"placement"`
	Level                int          `json:"level"`
	TotalDamageToPlayers int          `json:"total_damage_to_players"`
	GoldLeft             int          `json:"gold_left"`
	LastRound            int          `json:"last_round"`
	PlayersEliminated    int          `json:"players_eliminated"`
	TimeEliminated       float64      `json:"time_eliminated"`
	PartnerGroupID       *int         `json:"partner_group_id"`
	Win                  bool         `json:"win"`
	Units                []MatchUnit  `json:"units"`
	Traits               []MatchTrait `json:"traits"`
}

type MatchUnit struct {
	CharacterID string   `json:"character_id"`
	ItemNames   []string `json:"itemNames"`
	Name        string   `json:"name"`
	Rarity      int      `json:"rarity"`
	Tier        int      `json:"tier"`
}

type MatchTrait struct {
	Name        string `json:"name"`
	NumUnits    int    `json:"num_units"`
	Style       int    `json:"style"`
	TierCurrent int    `json:"tier_current"`
	TierTotal   int    `json:"tier_total"`
}
