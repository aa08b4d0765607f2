package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dredgelabs/dredge/pkg/config"
	"github.com/dredgelabs/dredge/pkg/dataset"
	"github.com/dredgelabs/dredge/pkg/log"
	"github.com/dredgelabs/dredge/pkg/search"
)

var (
	resultHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("214"))

	fieldNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	noResultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the local datasets from the command line",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "criterion",
				Aliases: []string{"q"},
				Usage:   "Search criterion as type=value (repeatable, e.g. -q email=foo@bar.com)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Pagination offset",
				Value: 0,
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Dataset directory (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log.SetGlobalDebug(c.Bool("debug"))
			return searchDatasets(ctx, c.String("config"), c.StringSlice("criterion"),
				c.Int("limit"), c.Int("offset"), c.String("data-dir"))
		},
	}
}

// searchDatasets runs one search against the local data directory,
// without going through the HTTP layer.
func searchDatasets(ctx context.Context, configPath string, rawCriteria []string, limit, offset int, dataDirOverride string) error {
	criteria, err := parseCriteria(rawCriteria)
	if err != nil {
		return err
	}
	if len(criteria) == 0 {
		return fmt.Errorf("at least one --criterion type=value is required")
	}

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

	if registry.Len() == 0 {
		fmt.Println(noResultStyle.Render(fmt.Sprintf("No datasets found in %s", dataDir)))
		return nil
	}

	results := search.NewService(registry).Search(ctx, criteria, limit, offset)
	if results.Total == 0 {
		fmt.Println(noResultStyle.Render("No results found"))
		return nil
	}

	titler := cases.Title(language.English)
	for i, row := range results.Results {
		source, _ := row["_source"].(string)
		header := fmt.Sprintf("%d. %s", i+1, titler.String(source))
		fmt.Println(resultHeaderStyle.Render(header))
		printRow(row)
		if i < len(results.Results)-1 {
			fmt.Println()
		}
	}
	fmt.Printf("\nTotal: %d results across %d datasets\n", results.Total, registry.Len())
	return nil
}

// printRow prints the parsed fields of a result, internal fields last.
func printRow(row map[string]any) {
	keys := make([]string, 0, len(row))
	for k := range row {
		if k == "_source" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := strings.HasPrefix(keys[i], "_"), strings.HasPrefix(keys[j], "_")
		if li != lj {
			return lj
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		v := fmt.Sprintf("%v", row[k])
		if strings.HasPrefix(k, "_") {
			fmt.Printf("   %s\n", sourceStyle.Render(fmt.Sprintf("%s: %s", k, v)))
			continue
		}
		fmt.Printf("   %s: %s\n", fieldNameStyle.Render(k), v)
	}
}

// parseCriteria turns type=value pairs from the command line into
// search criteria.
func parseCriteria(raw []string) ([]search.Criterion, error) {
	criteria := make([]search.Criterion, 0, len(raw))
	for _, r := range raw {
		typ, value, ok := strings.Cut(r, "=")
		if !ok || typ == "" {
			return nil, fmt.Errorf("invalid criterion %q, expected type=value", r)
		}
		criteria = append(criteria, search.Criterion{Type: typ, Value: value})
	}
	return criteria, nil
}
