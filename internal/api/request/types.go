package request

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	PlayerName string `json:"player_name"`
	Difficulty string `json:"difficulty,omitempty"`
}

// JoinRoomRequest is the request body for joining a room
type JoinRoomRequest struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

// GeneratePuzzleRequest is the request body for a puzzle preview
type GeneratePuzzleRequest struct {
	Difficulty string `json:"difficulty,omitempty"`
}
