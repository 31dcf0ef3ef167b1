package repository

import (
	"regexp"
	"strings"
)

var (
	setPrefix  = regexp.MustCompile(`(?i)^tft\d*_`)
	itemPrefix = regexp.MustCompile(`(?i)^tft\d*_item_`)
)

// Renamed in-game after release, the API still reports the old names.
var (
	traitAliases = map[string]string{
		"Warband": "Conqueror",
		"Cabal":   "Black Rose",
	}
	itemAliases = map[string]string{
		"Frozenheart": "Protectorsvow",
	}
)

// UnitLabel turns "TFT13_Jinx" into "Jinx".
func UnitLabel(characterID string) string {
	return capitalize(setPrefix.ReplaceAllString(characterID, ""))
}

func TraitLabel(name string) string {
	label := capitalize(setPrefix.ReplaceAllString(name, ""))
	if alias, ok := traitAliases[label]; ok {
		return alias
	}
	return label
}

func ItemLabel(name string) string {
	label := capitalize(itemPrefix.ReplaceAllString(name, ""))
	if alias, ok := itemAliases[label]; ok {
		return alias
	}
	return label
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
