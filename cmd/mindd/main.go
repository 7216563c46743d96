package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/collectivemind/assistant/config"
	"github.com/collectivemind/assistant/internal/ingest"
	"github.com/collectivemind/assistant/internal/search"
	srv "github.com/collectivemind/assistant/internal/server"
	"github.com/collectivemind/assistant/internal/store"
	openai "github.com/collectivemind/assistant/provider/openai"
)

func main() {
	root := &cobra.Command{Use: "mindd", Short: "CollectiveMind assistant service"}
	root.AddCommand(serveCMD(), migrateCMD(), indexCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCMD() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return srv.Run(cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.json)")
	return cmd
}

func migrateCMD() *cobra.Command {
	var cfgPath, dir, direction string
	var steps int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			dsn, err := cfg.Databases.Postgres.DSN()
			if err != nil {
				return err
			}
			return srv.Migrate(dir, dsn, direction, steps)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.json)")
	cmd.Flags().StringVar(&dir, "dir", "file://migrations", "migrations source")
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return cmd
}

func indexCMD() *cobra.Command {
	var cfgPath string
	var noEmbed bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the retrieval index once to validate corpus and embeddings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			dsn, err := cfg.Databases.Postgres.DSN()
			if err != nil {
				return err
			}
			st, err := store.NewWithDSN(ctx, dsn)
			if err != nil {
				return err
			}
			engine, err := search.NewBleveEngine()
			if err != nil {
				return err
			}
			logger := log.New(os.Stderr, "[INDEX] ", log.LstdFlags)
			if noEmbed {
				return ingest.Reindex(ctx, st, engine, nil, logger)
			}
			llm, err := openai.NewClient(cfg.LLM)
			if err != nil {
				return err
			}
			if err := ingest.Reindex(ctx, st, engine, llm, logger); err != nil {
				return err
			}
			fmt.Println("index built")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.json)")
	cmd.Flags().BoolVar(&noEmbed, "no-embed", false, "skip embeddings, lexical only")
	return cmd
}
