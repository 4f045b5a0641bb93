// Package db holds the CLI actions for inspecting and loading the lead store.
package db

import (
	"fmt"
	"strings"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/db"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/storage"
	"github.com/urfave/cli/v2"
)

// ImportAction loads an already-normalized CSV into the lead store.
func ImportAction(c *cli.Context) error {
	inputPath := c.Args().First()
	if inputPath == "" {
		return fmt.Errorf("no CSV given (usage: %s db import <normalized.csv>)", c.App.Name)
	}

	store := &storage.Storage{}
	records, err := store.ReadLeadsCSV(inputPath)
	if err != nil {
		return err
	}

	database, err := db.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runID, err := database.InsertRun(inputPath, inputPath, len(records), 0, len(records))
	if err != nil {
		return err
	}
	if err := database.InsertLeads(runID, records); err != nil {
		return err
	}

	fmt.Printf("Imported %d leads from %s (run %d)\n", len(records), inputPath, runID)
	return nil
}

// LeadsAction lists stored leads, optionally scoped to one run.
func LeadsAction(c *cli.Context) error {
	database, err := db.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	leads, err := database.ListLeads(c.Int64("run"), c.Int("limit"))
	if err != nil {
		return err
	}

	if len(leads) == 0 {
		fmt.Println("No leads found")
		return nil
	}

	fmt.Printf("%-6s %-5s %-25s %-28s %-15s %-10s %-20s\n",
		"ID", "Run", "Nombre", "Email", "Teléfono", "Renta", "Proyecto")
	fmt.Println(strings.Repeat("-", 115))

	for _, l := range leads {
		fmt.Printf("%-6d %-5d %-25s %-28s %-15s %-10s %-20s\n",
			l.LeadID,
			l.RunID,
			clip(l.Name, 25),
			clip(l.Email, 28),
			l.Phone,
			l.Income,
			clip(l.Project, 20),
		)
	}

	fmt.Printf("\nTotal: %d leads\n", len(leads))
	fmt.Printf("\nTip: Use '%s db runs' to see which run produced them\n", c.App.Name)
	return nil
}

// RunsAction lists recorded normalization runs, newest first.
func RunsAction(c *cli.Context) error {
	database, err := db.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Printf("%-6s %-20s %-8s %-8s %-10s %-30s\n",
		"ID", "Created", "Rows", "IA", "Heurist.", "Input")
	fmt.Println(strings.Repeat("-", 90))

	for _, r := range runs {
		fmt.Printf("%-6d %-20s %-8d %-8d %-10d %-30s\n",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.RowCount,
			r.EnrichedCount,
			r.HeuristicCount,
			clip(r.InputPath, 30),
		)
	}

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use '%s db leads --run <id>' to see a run's leads\n", c.App.Name)
	return nil
}

func clip(s string, max int) string {
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max-1]) + "…"
	}
	return s
}
