package game

import "time"

// Court geometry and tuning. Units are canvas pixels and pixels per tick.
const (
	CourtWidth  = 800.0
	CourtHeight = 500.0

	PaddleWidth  = 10.0
	PaddleHeight = 100.0
	PaddleInset  = 10.0
	PaddleSpeed  = 8.0

	BallSize           = 10.0
	BallBaseSpeed      = 5.0
	BallSpeedIncrement = 0.5

	TickRate     = 60
	TickInterval = time.Second / TickRate

	// WaitingName is player2's placeholder name until someone attaches.
	WaitingName = "Waiting..."
)
