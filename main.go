/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	releaseVersion = "1.0.0"
)

func main() {
	log.SetFlags(0)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("WARN: Unable to read .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}
