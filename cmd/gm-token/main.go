// Package main mints a game-master credential token for the sheet service.
package main

import (
	"flag"
	"os"

	"github.com/louisbranch/dungeonsheet/internal/platform/config"
	"github.com/louisbranch/dungeonsheet/internal/tools/gmtoken"
)

func main() {
	cfg, err := gmtoken.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := gmtoken.Run(cfg, os.Stdout); err != nil {
		config.Exitf("mint token: %v", err)
	}
}
