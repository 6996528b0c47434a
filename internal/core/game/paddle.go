package game

import (
	"fmt"

	"github.com/zeusync/pong/internal/core/physics"
)

// Direction is a paddle's vertical intent. Up moves toward y = 0.
type Direction int8

const (
	DirectionUp   Direction = -1
	DirectionStop Direction = 0
	DirectionDown Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	case DirectionStop:
		return "stop"
	default:
		return fmt.Sprintf("direction(%d)", int8(d))
	}
}

// ParseDirection maps the wire names "up", "down" and "stop".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return DirectionUp, nil
	case "down":
		return DirectionDown, nil
	case "stop":
		return DirectionStop, nil
	default:
		return DirectionStop, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

type Paddle struct {
	X, Y          float64
	Width, Height float64
	Speed         float64
	dy            Direction
}

// NewPaddle places a paddle at column x, vertically centered.
func NewPaddle(x float64) *Paddle {
	return &Paddle{
		X:      x,
		Y:      CourtHeight/2 - PaddleHeight/2,
		Width:  PaddleWidth,
		Height: PaddleHeight,
		Speed:  PaddleSpeed,
	}
}

func (p *Paddle) Update() {
	p.Y += float64(p.dy) * p.Speed
	p.Y = physics.Clamp(p.Y, 0, CourtHeight-p.Height)
}

// SetDirection stores the intent applied on the next Update. Values outside
// {-1, 0, 1} are treated as stop.
func (p *Paddle) SetDirection(d Direction) {
	if d < DirectionUp || d > DirectionDown {
		d = DirectionStop
	}
	p.dy = d
}

func (p *Paddle) Direction() Direction {
	return p.dy
}

func (p *Paddle) Bounds() physics.Rect {
	return physics.Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}
