package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/quicknote/internal"
	"github.com/starford/quicknote/internal/history"
	"github.com/starford/quicknote/internal/query"
)

var version = "dev"

func options(cmd *cli.Command) []internal.Option {
	return []internal.Option{
		internal.WithConfigFile(cmd.String("config")),
		internal.WithVersion(version),
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	if err := internal.Run(ctx, options(cmd)...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	if err := internal.RunMCP(ctx, options(cmd)...); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func note(ctx context.Context, cmd *cli.Command) error {
	raw := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(raw) == "" {
		return cli.Exit(query.Usage, 2)
	}

	app, err := internal.Open(options(cmd)...)
	if err != nil {
		return fmt.Errorf("failed to open app: %w", err)
	}
	defer app.Close()

	run := app.Notes.Submit(ctx, raw)
	if !run.Outcome.Succeeded() {
		return cli.Exit(fmt.Sprintf("%s: %s", run.Message.Title, run.Message.Text), 1)
	}
	fmt.Fprintf(cmd.Root().Writer, "%s: %s\n", run.Message.Title, run.Message.Text)
	return nil
}

func parse(_ context.Context, cmd *cli.Command) error {
	q := query.Parse(strings.Join(cmd.Args().Slice(), " "))
	if !q.Valid() {
		return cli.Exit(query.Usage, 2)
	}
	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(q)
}

func showHistory(ctx context.Context, cmd *cli.Command) error {
	app, err := internal.Open(options(cmd)...)
	if err != nil {
		return fmt.Errorf("failed to open app: %w", err)
	}
	defer app.Close()

	runs, err := app.Notes.History(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tOUTCOME\tTITLE\tNOTEBOOK\tNOTE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Outcome, r.Title, r.Notebook, r.NoteID)
	}
	return tw.Flush()
}

func main() {
	cmd := &cli.Command{
		Name:    "quicknote",
		Usage:   "Create or append Joplin notes from a single line: <title> <content> [!notebook]",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "note",
				Usage:     "Create a note or append to the note with the same title",
				ArgsUsage: "<title> <content> [!notebook]",
				Action:    note,
			},
			{
				Name:      "parse",
				Usage:     "Show how a query is split without contacting Joplin",
				ArgsUsage: "<title> <content> [!notebook]",
				Action:    parse,
			},
			{
				Name:   "history",
				Usage:  "List recent runs",
				Action: showHistory,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum runs to show",
						Value:   history.DefaultLimit,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
