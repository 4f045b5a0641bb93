package normalize

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/db"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/ollama"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/storage"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/summary"
	"github.com/urfave/cli/v2"
)

// Action runs the normalize command: ingest, extract, summarize, export,
// record the run.
func Action(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	inputPath := c.Args().First()
	if inputPath == "" {
		return fmt.Errorf("no input file given (usage: %s normalize <input.csv>)", c.App.Name)
	}
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file: %w", err)
	}

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	outputPath := c.String("output")
	if outputPath == "" {
		outputPath = defaultOutputPath(inputPath)
	}

	var enricher summary.Enricher
	if c.Bool("no-llm") {
		logger.Info("enrichment disabled, heuristic summaries only")
	} else {
		client := ollama.NewClient(cfg.Ollama)
		if err := client.EnsureReady(c.Context); err != nil {
			logger.Warn("ollama not reachable, falling back to heuristic summaries", "error", err)
		} else {
			if err := client.Warmup(c.Context); err != nil {
				logger.Warn("model warmup failed, continuing", "error", err)
			}
			enricher = client
		}
	}

	gen := summary.NewGenerator(enricher, cfg, logger)
	pipeline := New(cfg, gen, logger, os.Stdout)

	fmt.Printf("📂 Leyendo: %s\n", inputPath)
	records, stats, err := pipeline.Run(c.Context, inputPath, c.String("format"))
	if err != nil {
		return err
	}
	fmt.Printf("   %d leads encontrados.\n\n", stats.Total)

	store := &storage.Storage{}
	if err := store.WriteLeadsCSV(outputPath, records); err != nil {
		return err
	}

	recordRun(c.String("db"), inputPath, outputPath, records, stats, logger)

	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Printf("✅ Archivo generado: %s\n", outputPath)
	fmt.Printf("   Total leads: %d\n", stats.Total)
	fmt.Printf("   Con perfil IA 🤖: %d\n", stats.Enriched)
	fmt.Printf("   Sin perfil (heurística): %d\n", stats.Heuristic)
	fmt.Printf("%s\n\n", strings.Repeat("=", 60))

	printPreview(records)
	return nil
}

// recordRun stores run provenance and the produced leads. The export already
// succeeded at this point, so store failures only warn.
func recordRun(dbPath, inputPath, outputPath string, records []models.LeadRecord, stats Stats, logger *slog.Logger) {
	database, err := db.Open(dbPath)
	if err != nil {
		logger.Warn("could not open lead database, run not recorded", "error", err)
		return
	}
	defer database.Close()

	runID, err := database.InsertRun(inputPath, outputPath, stats.Total, stats.Enriched, stats.Heuristic)
	if err != nil {
		logger.Warn("could not record run", "error", err)
		return
	}
	if err := database.InsertLeads(runID, records); err != nil {
		logger.Warn("could not store leads", "error", err, "run_id", runID)
		return
	}
	logger.Info("run recorded", "run_id", runID, "db", database.Path())
}

func printPreview(records []models.LeadRecord) {
	preview := records
	if len(preview) > 5 {
		preview = preview[:5]
	}
	if len(preview) == 0 {
		return
	}

	fmt.Println("📋 PREVIEW (primeros 5 leads):")
	fmt.Println(strings.Repeat("-", 80))
	for _, r := range preview {
		fmt.Printf("  Nombre:    %s\n", r.Name)
		fmt.Printf("  Email:     %s\n", orPlaceholder(r.Email, "(no encontrado)"))
		fmt.Printf("  Teléfono:  %s\n", r.Phone)
		fmt.Printf("  Renta:     %s\n", r.Income)
		fmt.Printf("  Proyecto:  %s\n", orPlaceholder(r.Project, "(no especificado)"))
		fmt.Printf("  Observ:    %s...\n\n", truncateRunes(strings.ReplaceAll(r.Note, "\n", " "), 120))
	}
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// defaultOutputPath derives <input>_ai_normalized.csv next to the input.
func defaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_ai_normalized.csv"
}
