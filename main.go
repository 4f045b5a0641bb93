package main

import (
	"fmt"
	"os"

	dbactions "github.com/desarrollo-Urbani/Visor-leads-urbani/internal/db"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/internal/normalize"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/help"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "visor-leads",
		Usage: "Normaliza exportes de leads/chat al esquema nombre,email,telefono,renta,proyecto,observacion",
		Commands: []*cli.Command{
			{
				Name:      "normalize",
				Usage:     "Normalize a lead export (wrapped chat CSV, plain CSV or XLSX)",
				ArgsUsage: "<input file>",
				Action:    normalize.Action,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output CSV path (default: <input>_ai_normalized.csv)",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "YAML config file overriding the built-in defaults",
					},
					&cli.StringFlag{
						Name:  "format",
						Value: normalize.FormatAuto,
						Usage: "input format: auto, chat or table",
					},
					&cli.BoolFlag{
						Name:  "no-llm",
						Usage: "skip Ollama and use heuristic summaries only",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "only log errors",
					},
					dbFlag(),
				},
			},
			{
				Name:  "coldstart",
				Usage: "Print a YAML quick-start guide",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
			{
				Name:  "db",
				Usage: "Inspect and load the lead database",
				Subcommands: []*cli.Command{
					{
						Name:      "import",
						Usage:     "Import an already-normalized CSV into the lead store",
						ArgsUsage: "<normalized.csv>",
						Action:    dbactions.ImportAction,
						Flags:     []cli.Flag{dbFlag()},
					},
					{
						Name:   "leads",
						Usage:  "List stored leads",
						Action: dbactions.LeadsAction,
						Flags: []cli.Flag{
							dbFlag(),
							&cli.Int64Flag{
								Name:  "run",
								Usage: "only show leads from this run",
							},
							&cli.IntFlag{
								Name:  "limit",
								Value: 50,
								Usage: "maximum leads to show",
							},
						},
					},
					{
						Name:   "runs",
						Usage:  "List recorded normalization runs",
						Action: dbactions.RunsAction,
						Flags: []cli.Flag{
							dbFlag(),
							&cli.IntFlag{
								Name:  "limit",
								Value: 20,
								Usage: "maximum runs to show",
							},
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "db",
		Usage: "SQLite database path (default: next to the binary)",
	}
}
