package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	fxmodules "tft-tracker/internal/fx"
	"tft-tracker/internal/service"

	"go.uber.org/fx"
)

// lookup resolves a Riot ID such as "name#tag" to its puuid.
func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: lookup <game name>#<tag line>")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	riotID := flag.Arg(0)

	app := fx.New(
		fxmodules.LookupModule,
		fx.NopLogger,
		fx.Invoke(func(players *service.PlayerService) error {
			account, err := players.Lookup(context.Background(), riotID)
			if err != nil {
				return err
			}
			fmt.Printf("%s#%s %s\n", account.GameName, account.TagLine, account.Puuid)
			return nil
		}),
	)

	if err := app.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
