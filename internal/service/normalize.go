package service

import (
	"errors"
	"fmt"
	"tft-tracker/internal/api"
	"tft-tracker/internal/constants"
	"tft-tracker/internal/domain"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrMissingMatchID = errors.New("match payload has no match id")

var validate = validator.New()

// Roster is the set of tracked player ids. A nil Roster admits everyone.
type Roster map[string]struct{}

func NewRoster(entries []api.LeagueEntry) Roster {
	roster := make(Roster, len(entries))
	for _, e := range entries {
		roster[e.Puuid] = struct{}{}
	}
	return roster
}

func (r Roster) Contains(puuid string) bool {
	if r == nil {
		return true
	}
	_, ok := r[puuid]
	return ok
}

// Normalize flattens one match payload into typed rows. Only participants
// in roster contribute participant, unit and trait rows.
func Normalize(raw *api.Match, roster Roster) (*domain.MatchRecord, error) {
	if raw == nil || raw.Metadata.MatchID == "" {
		return nil, ErrMissingMatchID
	}

	matchID := raw.Metadata.MatchID
	info := raw.Info
	record := &domain.MatchRecord{
		Match: domain.Match{
			MatchID:         matchID,
			GameVersion:     info.GameVersion,
			GameDatetime:    time.UnixMilli(info.GameDatetime).UTC(),
			QueueID:         info.QueueID,
			EndOfGameResult: info.EndOfGameResult,
			GameLength:      info.GameLength,
			TFTGameType:     info.TFTGameType,
			TFTSetCoreName:  info.TFTSetCoreName,
			TFTSetNumber:    info.TFTSetNumber,
		},
	}

	for _, p := range info.Participants {
		if !roster.Contains(p.Puuid) {
			continue
		}

		record.Participants = append(record.Participants, domain.Participant{
			Puuid:                p.Puuid,
			MatchID:              matchID,
			Placement:            p.Placement,
			Level:                p.Level,
			TotalDamageToPlayers: p.TotalDamageToPlayers,
			RiotIDGameName:       p.RiotIDGameName,
			RiotIDTagline:        p.RiotIDTagline,
			PartnerGroupID:       p.PartnerGroupID,
			GoldLeft:             p.GoldLeft,
			LastRound:            p.LastRound,
			PlayersEliminated:    p.PlayersEliminated,
			TimeEliminated:       p.TimeEliminated,
			Win:                  p.Win,
		})

		seen := make(map[string]int)
		for _, u := range p.Units {
			record.Units = append(record.Units, domain.UnitInstance{
				CharacterID: u.CharacterID,
				Puuid:       p.Puuid,
				MatchID:     matchID,
				UnitName:    u.Name,
				Tier:        u.Tier,
				ItemNames:   domain.ItemNames(u.ItemNames),
				UnitIndex:   seen[u.CharacterID],
			})
			seen[u.CharacterID]++
		}

		for _, t := range p.Traits {
			record.Traits = append(record.Traits, domain.TraitInstance{
				Puuid:       p.Puuid,
				MatchID:     matchID,
				TraitName:   t.Name,
				TierCurrent: t.TierCurrent,
				TierTotal:   t.TierTotal,
				NumUnits:    t.NumUnits,
			})
		}
	}

	if err := validate.Struct(record); err != nil {
		return nil, fmt.Errorf("invalid match %s: %w", matchID, err)
	}
	return record, nil
}

// LadderEntries stamps a ladder listing with the snapshot day of fetchedAt.
func LadderEntries(entries []api.LeagueEntry, fetchedAt time.Time) ([]domain.LadderEntry, error) {
	fetchedAt = fetchedAt.UTC()
	date := fetchedAt.Format(constants.SnapshotDateLayout)

	out := make([]domain.LadderEntry, 0, len(entries))
	for _, e := range entries {
		entry := domain.LadderEntry{
			Puuid:        e.Puuid,
			SummonerName: e.SummonerName,
			LeaguePoints: e.LeaguePoints,
			Tier:         e.Tier,
			Rank:         e.Rank,
			Wins:         e.Wins,
			Losses:       e.Losses,
			Veteran:      e.Veteran,
			Inactive:     e.Inactive,
			FreshBlood:   e.FreshBlood,
			HotStreak:    e.HotStreak,
			Date:         date,
			FetchedAt:    fetchedAt,
		}
		if err := validate.Struct(entry); err != nil {
			return nil, fmt.Errorf("invalid ladder entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}
