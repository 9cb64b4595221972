package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	sourceconfig "surveywizard/internal/config"
	"surveywizard/internal/model"
	"surveywizard/internal/repository"
	"surveywizard/internal/service"
	"surveywizard/internal/tui"
	"surveywizard/internal/view"
)

var (
	surveyFile string
	remoteURL  string
	remoteTok  string
	sessionID  string
	userID     string
	timeout    time.Duration
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "survey",
	Short: "Take a survey in the terminal",
	Long: `Runs a survey one question at a time. Questions come from a YAML
survey file, the built-in survey, or a remote question endpoint.`,
	RunE: runSurvey,
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a YAML survey file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		survey, err := repository.LoadSurveyFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d questions\n", survey.Title, len(survey.Questions))
		for i, q := range survey.Questions {
			fmt.Printf("  %d. [%s] %s\n", i+1, q.Kind, q.Prompt)
			for _, opt := range q.Options {
				fmt.Printf("       - %s\n", opt)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&surveyFile, "file", "f", "", "YAML survey file (default: built-in survey)")
	rootCmd.Flags().StringVar(&remoteURL, "remote", "", "Remote question endpoint URL")
	rootCmd.Flags().StringVar(&remoteTok, "token", "", "Bearer token for the remote endpoint")
	rootCmd.Flags().StringVar(&sessionID, "session-id", "", "Session identifier forwarded to the remote endpoint")
	rootCmd.Flags().StringVar(&userID, "user-id", "", "User identifier forwarded to the remote endpoint")
	rootCmd.Flags().StringVar(&logFile, "log", "", "Write logs to this file (default: discard)")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for each question request")

	rootCmd.AddCommand(validateCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSurvey(cmd *cobra.Command, args []string) error {
	// the terminal belongs to the wizard
	log.SetOutput(io.Discard)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	survey := model.DefaultSurvey()
	if surveyFile != "" {
		var err error
		survey, err = repository.LoadSurveyFile(surveyFile)
		if err != nil {
			return err
		}
	}

	var source service.QuestionSource
	if remoteURL != "" {
		source = service.NewRemoteSource(&sourceconfig.SourceConfig{
			Kind:      sourceconfig.SourceRemote,
			URL:       remoteURL,
			Token:     remoteTok,
			TimeoutMS: int(timeout / time.Millisecond),
		})
	} else {
		static, err := service.NewStaticSource(survey)
		if err != nil {
			return err
		}
		source = static
	}

	identity := model.Identity{SessionID: sessionID, UserID: userID}
	ctrl := service.NewSurveyController("cli", survey.ID, identity, source, timeout)

	snap, err := tui.Run(ctrl, view.MetaFromSurvey(survey))
	if err != nil {
		return err
	}
	if snap.State == model.StateTerminated {
		fmt.Printf("Answered %d questions.\n", snap.Transcript.Answers())
		for _, turn := range snap.Transcript {
			who := "Q"
			if turn.FromUser {
				who = "A"
			}
			fmt.Printf("  %s: %s\n", who, turn.Text)
		}
	}
	return nil
}
