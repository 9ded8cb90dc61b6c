package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sangamhq/vivah"
	"github.com/sangamhq/vivah/internal/config"
	"github.com/sangamhq/vivah/internal/logging"
	"github.com/sangamhq/vivah/internal/presentation/tui"
)

// runCmd starts the wizard interactively in the terminal.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the registration wizard interactively",
	Long:  `Starts the registration wizard in the terminal. Progress is saved between runs; use the same --wizard ID to resume.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		wizardID, _ := cmd.Flags().GetString("wizard")

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		logger := logging.New(logging.ParseLevel(cfg.LogLevel))

		store, _, err := buildStore(cfg)
		if err != nil {
			fmt.Printf("Error building store: %v\n", err)
			os.Exit(1)
		}

		engine, err := vivah.New(
			vivah.WithStore(store),
			vivah.WithBackend(buildBackend(cfg)),
			vivah.WithLogger(logger),
			vivah.WithEffectTimeout(cfg.Effects.Timeout),
		)
		if err != nil {
			fmt.Printf("Error initializing vivah: %v\n", err)
			os.Exit(1)
		}

		tui.PrintBanner()

		runner := vivah.NewRunner()
		runner.Input = os.Stdin
		runner.Output = os.Stdout
		runner.Renderer = tui.NewRenderer()
		if term.IsTerminal(int(os.Stdin.Fd())) {
			runner.ReadPassword = func() (string, error) {
				secret, err := term.ReadPassword(int(os.Stdin.Fd()))
				return string(secret), err
			}
		}

		ctrl := engine.Wizard(cmd.Context(), wizardID)
		if err := runner.Run(cmd.Context(), ctrl); err != nil {
			fmt.Printf("Error running wizard: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("wizard", "local", "Wizard ID to start or resume")

	// Preserve "vivah" with no subcommand as the interactive wizard.
	rootCmd.Run = runCmd.Run
}
