package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"tft-tracker/internal/api"
	"tft-tracker/internal/constants"

	"github.com/rs/zerolog"
)

var ErrInvalidRiotID = errors.New("riot id must look like name#tag")

type PlayerService struct {
	riot   *api.RiotClient
	logger zerolog.Logger
}

func NewPlayerService(riot *api.RiotClient, logger zerolog.Logger) *PlayerService {
	return &PlayerService{riot: riot, logger: logger}
}

// ParseRiotID splits "name#tag", undoing URL escaping of either part.
func ParseRiotID(riotID string) (name, tag string, err error) {
	name, tag, ok := strings.Cut(riotID, "#")
	name, tag = strings.TrimSpace(name), strings.TrimSpace(tag)
	if !ok || name == "" || tag == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRiotID, riotID)
	}

	if name, err = url.QueryUnescape(name); err != nil {
		return "", "", fmt.Errorf("failed to unescape name: %w", err)
	}
	if tag, err = url.QueryUnescape(tag); err != nil {
		return "", "", fmt.Errorf("failed to unescape tag: %w", err)
	}
	return name, tag, nil
}

// Lookup resolves a Riot ID to the account holding its puuid.
func (s *PlayerService) Lookup(ctx context.Context, riotID string) (*api.Account, error) {
	name, tag, err := ParseRiotID(riotID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("name", name).Str("tag", tag).Msg("looking up account")

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	account, err := s.riot.FetchAccount(apiCtx, name, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	s.logger.Debug().Str("puuid", account.Puuid).Msg("account resolved")
	return account, nil
}
