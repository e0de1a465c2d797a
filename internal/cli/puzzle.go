package cli

import (
	"github.com/spf13/cobra"
)

func newPuzzleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "puzzle",
		Short: "Puzzle commands",
	}

	cmd.AddCommand(newPuzzleGenerateCmd())

	return cmd
}

func newPuzzleGenerateCmd() *cobra.Command {
	var difficulty string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a puzzle preview without creating a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if difficulty != "" {
				req["difficulty"] = difficulty
			}

			var result Puzzle
			if err := client.Post(cmd.Context(), "/api/puzzle/generate", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "easy, medium, hard or very_hard (default: medium)")

	return cmd
}
