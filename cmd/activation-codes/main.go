// Command activation-codes manages activation codes from the shell.
//
//	activation-codes generate --count 50 --type general_monthly --valid-days 30
//	activation-codes list --unused --type choose_single_subject_yearly
//	activation-codes deactivate <code-id>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/activation"
	"github.com/Omarrawas/Atmetny1/internal/config"
	"github.com/Omarrawas/Atmetny1/internal/database"
	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	svc         *activation.Service
	mongoClient *mongo.Client

	genCount       int
	genType        string
	genName        string
	genSubjectID   string
	genSubjectName string
	genValidFrom   string
	genValidDays   int

	listType   string
	listUnused bool
	listLimit  int64
	listJSON   bool
)

var (
	rootCmd = &cobra.Command{
		Use:               "activation-codes",
		Short:             "Generate, list and deactivate subscription activation codes",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(os.Getenv("LOG_LEVEL"))
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.MongoDB.URI == "" {
				return fmt.Errorf("MONGODB_URI is required")
			}
			client, err := database.ConnectWithRetry(cmd.Context(), cfg.MongoDB.URI, cfg.MongoDB.Timeout, 3)
			if err != nil {
				return err
			}
			mongoClient = client
			svc = activation.NewService(activation.NewMongoStore(client, client.Database(cfg.MongoDB.Database)))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if mongoClient != nil {
				_ = mongoClient.Disconnect(context.Background())
			}
		},
		SilenceUsage: true,
	}
	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Create a batch of unused codes and print their values",
		RunE:  runGenerate,
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List codes, newest first",
		RunE:  runList,
	}
	deactivateCmd = &cobra.Command{
		Use:   "deactivate [code-id]",
		Short: "Disable a code so it can no longer be redeemed",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeactivate,
	}
)

func init() {
	rootCmd.AddCommand(generateCmd, listCmd, deactivateCmd)

	generateCmd.Flags().IntVarP(&genCount, "count", "n", 1, "number of codes to create")
	generateCmd.Flags().StringVarP(&genType, "type", "t", "", "plan type, e.g. general_monthly or choose_single_subject_yearly")
	generateCmd.Flags().StringVar(&genName, "name", "", "display name of the plan")
	generateCmd.Flags().StringVar(&genSubjectID, "subject-id", "", "bind the codes to a subject")
	generateCmd.Flags().StringVar(&genSubjectName, "subject-name", "", "name of the bound subject")
	generateCmd.Flags().StringVar(&genValidFrom, "valid-from", "", "first valid day (YYYY-MM-DD), defaults to today")
	generateCmd.Flags().IntVar(&genValidDays, "valid-days", 30, "days the codes stay redeemable")
	_ = generateCmd.MarkFlagRequired("type")

	listCmd.Flags().StringVarP(&listType, "type", "t", "", "only codes of this type")
	listCmd.Flags().BoolVar(&listUnused, "unused", false, "only codes that were not redeemed")
	listCmd.Flags().Int64Var(&listLimit, "limit", 100, "maximum number of codes")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON instead of a table")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	from := time.Now().UTC().Truncate(24 * time.Hour)
	if genValidFrom != "" {
		t, err := time.Parse(time.DateOnly, genValidFrom)
		if err != nil {
			return fmt.Errorf("invalid --valid-from: %w", err)
		}
		from = t
	}
	codes, err := svc.Generate(cmd.Context(), activation.GenerateRequest{
		Count:       genCount,
		Type:        genType,
		Name:        genName,
		SubjectID:   genSubjectID,
		SubjectName: genSubjectName,
		ValidFrom:   from,
		ValidUntil:  from.AddDate(0, 0, genValidDays),
	})
	if err != nil {
		return err
	}
	for _, c := range codes {
		fmt.Println(c.EncodedValue)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	codes, err := svc.List(cmd.Context(), activation.ListFilter{Type: listType, OnlyUnused: listUnused, Limit: listLimit})
	if err != nil {
		return err
	}
	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(codes)
	}
	for _, c := range codes {
		state := "unused"
		switch {
		case c.IsUsed:
			state = "used"
		case !c.IsActive:
			state = "inactive"
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", c.ID, c.EncodedValue, c.Type, state, c.ValidUntil.Format(time.DateOnly))
	}
	return nil
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	if err := svc.Deactivate(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("code %s deactivated\n", args[0])
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
