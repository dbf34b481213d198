package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sirenlab/calltriage/internal/bus"
	"github.com/sirenlab/calltriage/internal/config"
	"github.com/sirenlab/calltriage/internal/daemon"
	"github.com/sirenlab/calltriage/internal/tui"
)

func main() {
	_ = rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "calltriage",
	Short: "Live emergency-call triage for dispatch operators",
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		statusCmd(),
		versionCmd(),
		stopCmd(),
		reloadCmd(),
		initCmd(),
		configureCmd(),
		assessCmd(),
		rulesCmd(),
		modelsCmd(),
		feedCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the triage daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := daemon.New()
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}
			return d.Run()
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand('s')
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the control protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand('v')
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand('q')
			if err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func reloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload configuration and rules in the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand('r')
			if err != nil {
				return fmt.Errorf("failed to reload: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveDefault(); err != nil {
				return err
			}
			path, _ := config.GetConfigPath()
			fmt.Printf("Config file written to %s\n", path)
			fmt.Println()
			showNextSteps()
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration menu for calltriage.
This walks through:
- Transcription provider, credentials and language
- Server address and timeouts
- Session debounce tuning
- Recommendation publishing (log, NATS or none)
- The triage rule file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.LoadOrDefault()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration menu error: %w", err)
	}

	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved.")
	fmt.Println()
	showNextSteps()
	return nil
}

func showNextSteps() {
	daemonRunning := bus.CheckExistingDaemon() != nil

	fmt.Println("Next steps:")
	if daemonRunning {
		fmt.Println("1. Apply the changes: calltriage reload")
	} else {
		fmt.Println("1. Start the daemon: calltriage serve")
	}
	fmt.Println("2. Feed it a test call: calltriage feed --demo 3s")
	fmt.Println()

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Config file location: %s\n", configPath)
}
