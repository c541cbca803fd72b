package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/examdesk/core/cmd/examdesk/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "examdesk",
		Short: "ExamDesk backend",
		Long:  `ExamDesk backend owns the questions database of the ExamDesk study application and exposes the commands the GUI front end invokes: greet, save and read, plus maintenance tooling around the questions file.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewGreetCommand())
	rootCmd.AddCommand(commands.NewSaveCommand())
	rootCmd.AddCommand(commands.NewReadCommand())
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewMergeCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
