package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "sudokurace",
		Short: "CLI tool for the sudoku race server",
		Long: `sudokurace is a CLI tool for the sudoku race server.

It covers the JSON API (rooms, history, puzzle previews), plays a race over
the websocket protocol, and follows a room's broadcasts as a spectator.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load the saved seat if not provided via flag/env
			if err := cfg.LoadSeat(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: SUDOKURACE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Player token (env: SUDOKURACE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.RoomID, "room", cfg.RoomID, "Room ID (env: SUDOKURACE_ROOM)")
	rootCmd.PersistentFlags().StringVar(&cfg.SeatFile, "seat-file", cfg.SeatFile, "Saved seat path (env: SUDOKURACE_SEAT_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	rootCmd.AddCommand(newRoomCmd())
	rootCmd.AddCommand(newPuzzleCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
