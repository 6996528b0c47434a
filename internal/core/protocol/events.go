package protocol

// Inbound events.
const (
	EventCreateGame = "create_game"
	EventJoinGame   = "join_game"
	EventMovePaddle = "move_paddle"
)

// Outbound events.
const (
	EventGameCreated = "game_created"
	EventGameJoined  = "game_joined"
	EventGameError   = "game_error"
	EventGameState   = "game_state"
	EventGameLog     = "game_log"
	EventGameOver    = "game_over"
)

type CreateGame struct {
	PlayerName string `json:"playerName" msgpack:"playerName"`
	MaxScore   int    `json:"maxScore" msgpack:"maxScore"`
}

type JoinGame struct {
	PlayerName string `json:"playerName" msgpack:"playerName"`
	GameID     string `json:"gameId" msgpack:"gameId"`
}

type MovePaddle struct {
	GameID    string `json:"gameId" msgpack:"gameId"`
	Direction string `json:"direction" msgpack:"direction"`
}

// GameAssigned acknowledges game_created and game_joined.
type GameAssigned struct {
	GameID     string `json:"gameId" msgpack:"gameId"`
	PlayerRole string `json:"playerRole" msgpack:"playerRole"`
}

type GameOver struct {
	Winner string `json:"winner" msgpack:"winner"`
}
