package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type LadderEntry struct {
	Puuid        string `validate:"required"`
	SummonerName string
	LeaguePoints int
	Tier         string
	Rank         string
	Wins         int
	Losses       int
	Veteran      bool
	Inactive     bool
	FreshBlood   bool
	HotStreak    bool
	Date         string `validate:"required,datetime=2006-01-02"` // snapshot day, part of the natural key
	FetchedAt    time.Time
}

type Match struct {
	MatchID         string `validate:"required"`
	GameVersion     string
	GameDatetime    time.Time
	QueueID         int
	EndOfGameResult string
	GameLength      float64 // seconds
	TFTGameType     string
	TFTSetCoreName  string
	TFTSetNumber    int
}

type Participant struct {
	Puuid                string `validate:"required"`
	MatchID              string `validate:"required"`
	Placement            int
	Level                int
	TotalDamageToPlayers int
	RiotIDGameName       string
	RiotIDTagline        string
	PartnerGroupID       *int // double up only
	GoldLeft             int
	LastRound            int
	PlayersEliminated    int
	TimeEliminated       float64
	Win                  bool
}

type UnitInstance struct {
	CharacterID string `validate:"required"`
	Puuid       string `validate:"required"`
	MatchID     string `validate:"required"`
	UnitName    string
	Tier        int // star level
	ItemNames   ItemNames
	UnitIndex   int // 0 for the first copy of a character on a board
}

type TraitInstance struct {
	Puuid       string `validate:"required"`
	MatchID     string `validate:"required"`
	TraitName   string `validate:"required"`
	TierCurrent int
	TierTotal   int
	NumUnits    int
}

// MatchRecord is everything one match contributes to the store.
type MatchRecord struct {
	Match        Match
	Participants []Participant   `validate:"dive"`
	Units        []UnitInstance  `validate:"dive"`
	Traits       []TraitInstance `validate:"dive"`
}

// ItemNames is stored as a JSON array so both drivers share one column type.
type ItemNames []string

func (n ItemNames) Value() (driver.Value, error) {
	if n == nil {
		n = ItemNames{}
	}
	b, err := json.Marshal([]string(n))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (n *ItemNames) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*n = ItemNames{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported item names type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode item names: %w", err)
	}
	*n = out
	return nil
}
