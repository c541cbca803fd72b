package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/examdesk/core/internal/adapters/repository"
	"github.com/examdesk/core/internal/application/services"
	"github.com/examdesk/core/internal/infrastructure/config"
	"github.com/examdesk/core/internal/infrastructure/logger"
	"github.com/examdesk/core/internal/infrastructure/server"
	"github.com/examdesk/core/internal/ports"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ExamDesk backend server",
		Long:  "Start the loopback HTTP server the GUI front end connects to",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the questions document",
		Long:  "Ensure a questions document exists at the resolved path, copying the bundled default or creating the minimal empty structure",
		Run: func(cmd *cobra.Command, args []string) {
			env := mustBuildEnv()
			defer env.close()

			if err := env.questions.Initialize(context.Background()); err != nil {
				log.Fatalf("Initialization failed: %v", err)
			}

			path, err := env.resolver.Resolve()
			if err != nil {
				log.Fatalf("Failed to resolve document path: %v", err)
			}
			fmt.Printf("Questions document ready at %s\n", path)
		},
	}
}

// NewGreetCommand creates the greet command
func NewGreetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "greet [name]",
		Short: "Print a greeting",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			env := mustBuildEnv()
			defer env.close()

			fmt.Println(env.questions.Greet(args[0]))
		},
	}
}

// NewSaveCommand creates the save command
func NewSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save [file]",
		Short: "Validate and persist a questions document",
		Long:  "Read a JSON document from the given file (or stdin when the argument is \"-\"), validate it and overwrite the questions document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				log.Fatalf("Failed to read input: %v", err)
			}

			env := mustBuildEnv()
			defer env.close()

			confirmation, err := env.questions.SaveQuestions(context.Background(), string(data))
			if err != nil {
				log.Fatalf("Save failed: %v", err)
			}
			fmt.Println(confirmation)
		},
	}
}

// NewReadCommand creates the read command
func NewReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Print the raw questions document",
		Run: func(cmd *cobra.Command, args []string) {
			env := mustBuildEnv()
			defer env.close()

			contents, err := env.questions.ReadQuestions(context.Background())
			if err != nil {
				log.Fatalf("Read failed: %v", err)
			}
			fmt.Print(contents)
		},
	}
}

// NewAnalyzeCommand creates the analyze command
func NewAnalyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the questions database",
		Long:  "Report question counts per topic and difficulty, duplicate IDs and texts, and per-question review warnings",
		Run: func(cmd *cobra.Command, args []string) {
			env := mustBuildEnv()
			defer env.close()

			report, err := env.analysis.Analyze(context.Background())
			if err != nil {
				log.Fatalf("Analysis failed: %v", err)
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				log.Fatalf("Failed to render report: %v", err)
			}
			fmt.Println(string(out))
		},
	}
}

// NewMergeCommand creates the merge command
func NewMergeCommand() *cobra.Command {
	mergeCmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge an extraction batch into the questions document",
		Long:  "Fold a batch of extracted questions into the live document, skipping duplicates and backing up the current file first",
		Run: func(cmd *cobra.Command, args []string) {
			input, _ := cmd.Flags().GetString("input")
			prefix, _ := cmd.Flags().GetString("prefix")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			if input == "" {
				log.Fatal("--input is required")
			}

			env := mustBuildEnv()
			defer env.close()

			report, err := env.merge.Merge(context.Background(), ports.MergeRequest{
				InputPath: input,
				IDPrefix:  prefix,
				DryRun:    dryRun,
			})
			if err != nil {
				log.Fatalf("Merge failed: %v", err)
			}

			fmt.Printf("Added: %d\n", report.Added)
			fmt.Printf("Duplicates skipped: %d\n", len(report.Duplicates))
			fmt.Printf("Total questions: %d\n", report.TotalAfter)
			if report.BackupPath != "" {
				fmt.Printf("Backup: %s\n", report.BackupPath)
			}
			if report.DryRun {
				fmt.Println("Dry run: no files were changed")
			}
		},
	}

	mergeCmd.Flags().String("input", "", "Extraction batch file (required)")
	mergeCmd.Flags().String("prefix", "", "ID prefix for merged questions (default \"ext\")")
	mergeCmd.Flags().Bool("dry-run", false, "Preview the merge without writing")

	return mergeCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print ExamDesk backend version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("ExamDesk Backend v1.0.0")
		},
	}
}

// env bundles the wired services for one CLI invocation.
type env struct {
	cfg       *config.Config
	logger    *logger.Logger
	resolver  *repository.PathResolver
	questions *services.QuestionsService
	analysis  *services.AnalysisService
	merge     *services.MergeService
}

func (e *env) close() {
	_ = e.logger.Close()
}

func mustBuildEnv() *env {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	resolver := repository.NewPathResolver(repository.Locations{
		WorkDir:     cfg.Storage.WorkDir,
		ParentDir:   cfg.Storage.ParentDir,
		DataDir:     cfg.Storage.DataDir,
		ResourceDir: cfg.Storage.ResourceDir,
	})
	store := repository.NewFileDocumentStore(resolver)

	return &env{
		cfg:       cfg,
		logger:    appLogger,
		resolver:  resolver,
		questions: services.NewQuestionsService(store, appLogger),
		analysis:  services.NewAnalysisService(store, appLogger),
		merge:     services.NewMergeService(store, resolver, appLogger),
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	srv, err := server.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize server", "error", err)
	}

	appLogger.Info("Starting ExamDesk backend server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
	)

	if err := srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)); err != nil {
		appLogger.Fatal("Server failed to start", "error", err)
	}
}
