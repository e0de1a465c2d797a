package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomInfoCmd())
	cmd.AddCommand(newRoomHistoryCmd())

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var difficulty string

	cmd := &cobra.Command{
		Use:   "create <nickname>",
		Short: "Create a room and take the host seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"player_name": args[0]}
			if difficulty != "" {
				req["difficulty"] = difficulty
			}

			var result SeatResult
			if err := client.Post(cmd.Context(), "/api/room/create", req, &result); err != nil {
				return err
			}

			return saveAndPrintSeat(result)
		},
	}

	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "easy, medium, hard or very_hard (default: medium)")

	return cmd
}

func newRoomJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <room-id> <nickname>",
		Short: "Join a room as the guest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"room_id":     args[0],
				"player_name": args[1],
			}

			var result SeatResult
			if err := client.Post(cmd.Context(), "/api/room/join", req, &result); err != nil {
				return err
			}

			return saveAndPrintSeat(result)
		},
	}
}

func newRoomInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [room-id]",
		Short: "Show a room's public state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, err := roomArg(args)
			if err != nil {
				return err
			}

			var result RoomInfo
			if err := client.Get(cmd.Context(), "/api/room/info?room_id="+url.QueryEscape(roomID), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRoomHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [room-id]",
		Short: "List a room's finished games",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, err := roomArg(args)
			if err != nil {
				return err
			}

			var result History
			if err := client.Get(cmd.Context(), "/api/room/history?room_id="+url.QueryEscape(roomID), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func saveAndPrintSeat(seat SeatResult) error {
	if err := cfg.SaveSeat(Seat{RoomID: seat.RoomID, PlayerToken: seat.PlayerToken}); err != nil {
		return fmt.Errorf("failed to save seat: %w", err)
	}
	NewOutput(cfg.Output).Print(seat)
	return nil
}

// roomArg picks the explicit room argument, falling back to the saved seat
func roomArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if cfg.RoomID == "" {
		return "", fmt.Errorf("no room given and no saved seat; pass a room id or --room")
	}
	return cfg.RoomID, nil
}
