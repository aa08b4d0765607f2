package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dredgelabs/dredge/pkg/config"
	"github.com/dredgelabs/dredge/pkg/log"
	"github.com/dredgelabs/dredge/pkg/syncer"
)

// SyncCommand creates the sync command
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Download dataset files from the configured S3 bucket",
		Action: func(ctx context.Context, c *cli.Command) error {
			log.SetGlobalDebug(c.Bool("debug"))
			return syncDatasets(ctx, c.String("config"))
		},
	}
}

func syncDatasets(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sy, err := syncer.New(ctx, cfg.S3)
	if err != nil {
		return err
	}

	downloaded, err := sy.Sync(ctx, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("syncing datasets: %w", err)
	}

	if len(downloaded) == 0 {
		fmt.Println("All datasets up to date")
		return nil
	}
	fmt.Printf("Downloaded %d files:\n", len(downloaded))
	for _, p := range downloaded {
		fmt.Printf("  %s\n", p)
	}
	return nil
}
