// Package main starts the character-sheet service and handles termination.
//
// The process is a transport adapter around the sheet mutation engine: HTTP
// mutations in, websocket event fan-out to per-character observers.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	sheetcmd "github.com/louisbranch/dungeonsheet/internal/cmd/sheet"
)

func main() {
	cfg, err := sheetcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[SHEET] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sheetcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
