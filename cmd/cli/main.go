package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/budgemon/budgemon/internal/archive"
	"github.com/budgemon/budgemon/internal/chat"
	"github.com/budgemon/budgemon/internal/config"
	infraBQ "github.com/budgemon/budgemon/internal/infra/bigquery"
	"github.com/budgemon/budgemon/internal/llm"
	"github.com/budgemon/budgemon/internal/logger"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	log := logger.NewWithOptions(os.Stderr, cfg.LogLevel, "console")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "interpret":
		runInterpret(cfg, log)
	case "recent":
		runRecent(cfg, log)
	case "show":
		runShow(cfg, log)
	case "migrate":
		runMigrate(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("BudgeMon CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  interpret  Interpret a chat message and print the result")
	fmt.Println("  recent     List recently archived interpretations")
	fmt.Println("  show       Show one archived interpretation")
	fmt.Println("  migrate    Create the interpretations table if missing")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runInterpret(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("interpret", flag.ExitOnError)
	message := fs.String("message", "", "Chat message to interpret")
	file := fs.String("file", "", "Path to a JSON request body (cards, transactions, conversationHistory)")
	cardList := fs.String("cards", "", "Comma-separated card names (overrides the file)")
	pet := fs.String("pet", "", "Persona: lumi or luna (overrides the file)")
	fs.Parse(os.Args[2:])

	var req chat.Request
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("Failed to read request file")
		}
		if err := json.Unmarshal(data, &req); err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("Failed to decode request file")
		}
	}
	if *message != "" {
		req.Message = *message
	}
	if *cardList != "" {
		req.Cards = parseCards(*cardList)
	}
	if *pet != "" {
		req.PetType = *pet
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	completer, err := llm.New(ctx, llm.Options{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.OpenAIBaseURL,
	})
	if err != nil && !errors.Is(err, llm.ErrNoAPIKey) {
		log.Fatal().Err(err).Msg("Failed to create completion client")
	}

	var c chat.Completer
	if completer != nil {
		c = completer
	}
	interp, err := chat.NewService(c, cfg.CompletionTimeout).Interpret(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Interpretation failed")
	}

	out, _ := json.MarshalIndent(interp.Result, "", "  ")
	fmt.Println(string(out))
	fmt.Printf("\n%s: %s\n", interp.Persona.DisplayName(), chat.Reply(interp.Result, interp.Persona))
}

func openRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) *infraBQ.BigQueryInterpretationRepository {
	if cfg.ArchiveProject == "" {
		log.Fatal().Msg("Error: ARCHIVE_PROJECT is required")
	}
	repo, err := infraBQ.NewBigQueryInterpretationRepository(ctx, cfg.ArchiveProject, cfg.ArchiveDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	return repo
}

func runRecent(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("recent", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of interpretations to list")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo := openRepository(ctx, cfg, log)
	defer repo.Close()

	rows, err := repo.ListRecentInterpretations(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list interpretations")
	}

	fmt.Printf("Found %d interpretations:\n\n", len(rows))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tOUTPUT ID\tOUTCOME\tPERSONA\tLATENCY\tMESSAGE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\n",
			r.CreatedTS.Format("2006-01-02 15:04:05"),
			r.OutputID,
			r.Outcome,
			r.Persona,
			r.LatencyMS,
			truncate(r.Message, 60),
		)
	}
	w.Flush()
}

func runShow(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	id := fs.String("id", "", "Output ID of the interpretation")
	raw := fs.Bool("raw", false, "Fetch the full record from the GCS archive")
	fs.Parse(os.Args[2:])

	if *id == "" {
		log.Fatal().Msg("Error: -id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo := openRepository(ctx, cfg, log)
	defer repo.Close()

	row, err := repo.GetInterpretation(ctx, *id)
	if errors.Is(err, infraBQ.ErrInterpretationNotFound) {
		log.Fatal().Str("output_id", *id).Msg("Interpretation not found")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load interpretation")
	}

	fmt.Printf("Output ID:  %s\n", row.OutputID)
	fmt.Printf("Request ID: %s\n", row.RequestID)
	fmt.Printf("Created:    %s\n", row.CreatedTS.Format(time.RFC3339))
	fmt.Printf("Provider:   %s (%dms)\n", row.Provider, row.LatencyMS)
	fmt.Printf("Persona:    %s\n", row.Persona)
	fmt.Printf("Outcome:    %s\n", row.Outcome)
	fmt.Printf("Message:    %s\n", row.Message)
	fmt.Printf("\nResult:\n%s\n", row.ResultJSON)
	fmt.Printf("\nCompletion:\n%s\n", row.RawText)

	if !*raw {
		return
	}
	if cfg.ArchiveBucket == "" {
		log.Fatal().Msg("Error: ARCHIVE_BUCKET is required for -raw")
	}

	sink, err := archive.NewGCSSink(ctx, cfg.ArchiveBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer sink.Close()

	object := archive.ObjectName(row.OutputID, row.CreatedTS)
	rec, err := sink.Fetch(ctx, object)
	if err != nil {
		log.Fatal().Err(err).Str("object", sink.URI(object)).Msg("Failed to fetch archived record")
	}

	out, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Printf("\nArchived record (%s):\n%s\n", sink.URI(object), out)
}

func runMigrate(cfg *config.Config, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo := openRepository(ctx, cfg, log)
	defer repo.Close()

	if err := repo.EnsureTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure interpretations table")
	}

	fmt.Printf("Table %s.%s.%s is ready.\n", cfg.ArchiveProject, cfg.ArchiveDataset, infraBQ.InterpretationsTable)
}

// parseCards turns "Visa, Cash" into cards with no balance.
func parseCards(list string) []chat.Card {
	var cards []chat.Card
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			cards = append(cards, chat.Card{Name: name})
		}
	}
	return cards
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
