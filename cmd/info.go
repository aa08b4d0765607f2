package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dredgelabs/dredge/pkg/config"
	"github.com/dredgelabs/dredge/pkg/dataset"
	"github.com/dredgelabs/dredge/pkg/log"
)

// InfoCommand creates the info command
func InfoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the loaded datasets and their detected schemas",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Dataset directory (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log.SetGlobalDebug(c.Bool("debug"))
			return showInfo(c.String("config"), c.String("data-dir"))
		},
	}
}

func showInfo(configPath, dataDirOverride string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	dataDir := cfg.DataDir
	if dataDirOverride != "" {
		dataDir = dataDirOverride
	}

	registry, err := dataset.LoadAll(dataDir)
	if err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}
	defer func() { _ = registry.Close() }()

	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Printf("Datasets: %d\n\n", registry.Len())

	for _, e := range registry.Entries() {
		mode := "plain (LIKE)"
		if e.IsFTS {
			mode = "fts5 (MATCH)"
		}
		fmt.Printf("%s\n", e.Key)
		fmt.Printf("  file:    %s\n", e.Filename)
		fmt.Printf("  table:   %s\n", e.TableName)
		fmt.Printf("  mode:    %s\n", mode)
		if len(e.Columns) > 0 {
			fmt.Printf("  columns: %s\n", strings.Join(e.Columns, ", "))
		}
		if e.FallbackTable != "" && e.FallbackTable != e.TableName {
			fmt.Printf("  fallback: %s (%s)\n", e.FallbackTable, strings.Join(e.FallbackColumns, ", "))
		}
		fmt.Println()
	}
	return nil
}
