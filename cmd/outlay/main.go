package main

import (
	"context"
	"os"

	"outlay/internal/cli"
	"outlay/internal/report"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	menu := cli.NewMenu(repo, report.NewReporter(repo), os.Stdin, os.Stdout)
	if err := menu.Run(context.Background()); err != nil {
		logger.Error("Menu loop failed", "error", err)
		os.Exit(1)
	}
}
