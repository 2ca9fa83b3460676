package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"pharmacy-assistant-be/internal/bootstrap"
	"pharmacy-assistant-be/internal/config"
	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/internal/repository/unitofwork"
	"pharmacy-assistant-be/internal/service"
	"pharmacy-assistant-be/pkg/assistant/intent"
	"pharmacy-assistant-be/pkg/assistant/inventory"
	"pharmacy-assistant-be/pkg/assistant/pipeline"
	"pharmacy-assistant-be/pkg/assistant/session"
	"pharmacy-assistant-be/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	flagIntent  string
	flagDrug    string
	flagSources []string
	flagNoDB    bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the pharmacy assistant from the terminal",
	Long: `Runs the assistant pipeline locally against the configured inventory
database and clinical providers. Without a question it starts an interactive
conversation that keeps session context between turns.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&flagIntent, "intent", "", "intent hint (drug_info, stock_check, dosage, alternatives, other)")
	rootCmd.Flags().StringVar(&flagDrug, "drug", "", "drug name, when not part of the question")
	rootCmd.Flags().StringSliceVar(&flagSources, "sources", nil, "allowed sources (internal_db, external_db, web_search)")
	rootCmd.Flags().BoolVar(&flagNoDB, "no-db", false, "skip the inventory database")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "show intent, classification and resolver rules")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	var inv inventory.Lookup
	if !flagNoDB && cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
		if err != nil {
			return fmt.Errorf("failed to connect to inventory database: %w", err)
		}
		inv = service.NewInventoryService(unitofwork.NewRepositoryFactory(db))
	}

	executor, err := bootstrap.NewExecutor(cfg, inv, logger.NewNopLogger())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) > 0 {
		_, err := ask(ctx, executor, strings.Join(args, " "), session.Empty())
		return err
	}
	return converse(ctx, executor)
}

func converse(ctx context.Context, executor *pipeline.Executor) error {
	color.New(color.FgHiBlack).Println("Type a question, or \"exit\" to quit.")
	sess := session.Empty()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgHiBlue, color.Bold).Print("you> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			return nil
		}
		next, err := ask(ctx, executor, text, sess)
		if err != nil {
			color.Red("error: %v", err)
			continue
		}
		if next != nil {
			sess = *next
		}
	}
}

func ask(ctx context.Context, executor *pipeline.Executor, text string, sess session.Context) (*session.Context, error) {
	res, err := executor.Run(ctx, intent.Request{
		Text:     text,
		Intent:   flagIntent,
		DrugName: flagDrug,
		Sources:  flagSources,
	}, sess)
	if err != nil {
		return nil, err
	}

	outcomeColor(res.Outcome).Printf("[%s] ", res.Outcome)
	fmt.Println(res.Envelope.Text)
	if len(res.Envelope.Sources) > 0 {
		color.Cyan("sources: %s", strings.Join(res.Envelope.Sources, ", "))
	}
	if flagVerbose {
		color.New(color.FgHiBlack).Printf("intent=%s drug=%q class=%s rules=%s\n",
			res.Intent, res.DrugName, res.Classification, strings.Join(res.Rules, ","))
	}
	return res.Envelope.SuggestedSessionContext, nil
}

func outcomeColor(o pipeline.Outcome) *color.Color {
	switch o {
	case pipeline.OutcomeAnswered:
		return color.New(color.FgGreen)
	case pipeline.OutcomeClarification, pipeline.OutcomeNeedDrug:
		return color.New(color.FgYellow)
	case pipeline.OutcomePrescription, pipeline.OutcomeInteractionAlert:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgHiBlack)
	}
}
