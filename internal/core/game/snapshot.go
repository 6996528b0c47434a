package game

// Snapshot is the read-only projection of a match sent to its participants.
type Snapshot struct {
	Players   PlayersSnapshot `json:"players" msgpack:"players"`
	Ball      BoxSnapshot     `json:"ball" msgpack:"ball"`
	Paddle1   BoxSnapshot     `json:"paddle1" msgpack:"paddle1"`
	Paddle2   BoxSnapshot     `json:"paddle2" msgpack:"paddle2"`
	IsRunning bool            `json:"is_running" msgpack:"is_running"`
	MaxScore  int             `json:"maxScore" msgpack:"maxScore"`
	GameID    string          `json:"gameId" msgpack:"gameId"`
	Canvas    CanvasSnapshot  `json:"canvas" msgpack:"canvas"`
}

type PlayersSnapshot struct {
	P1 PlayerSnapshot `json:"p1" msgpack:"p1"`
	P2 PlayerSnapshot `json:"p2" msgpack:"p2"`
}

type PlayerSnapshot struct {
	Name    string `json:"name" msgpack:"name"`
	Score   int    `json:"score" msgpack:"score"`
	IsReady bool   `json:"isReady" msgpack:"isReady"`
}

type BoxSnapshot struct {
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

type CanvasSnapshot struct {
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

func playerSnapshot(p Player) PlayerSnapshot {
	return PlayerSnapshot{Name: p.Name, Score: p.Score, IsReady: p.Ready}
}

func paddleSnapshot(p *Paddle) BoxSnapshot {
	return BoxSnapshot{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

func ballSnapshot(b *Ball) BoxSnapshot {
	return BoxSnapshot{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}
