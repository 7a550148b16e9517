// Package main resets the demo character record in the local database.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/louisbranch/dungeonsheet/internal/platform/config"
	"github.com/louisbranch/dungeonsheet/internal/tools/seedchar"
)

func main() {
	cfg, err := seedchar.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := seedchar.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("seed character: %v", err)
	}
}
