package game

import (
	"math/rand"
	"time"

	"github.com/zeusync/pong/internal/core/physics"
)

// RandomSource draws orientations on reset. *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a time-seeded source for production use.
func NewRandomSource() RandomSource {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

type Ball struct {
	X, Y          float64
	Width, Height float64
	// XOrientation and YOrientation are always +1 or -1.
	XOrientation int
	YOrientation int
	Speed        float64

	rnd RandomSource
}

func NewBall(rnd RandomSource) *Ball {
	if rnd == nil {
		rnd = NewRandomSource()
	}
	b := &Ball{
		Width:  BallSize,
		Height: BallSize,
		rnd:    rnd,
	}
	b.Reset()
	return b
}

// Reset recenters the ball, redraws both orientations and restores the base speed.
func (b *Ball) Reset() {
	court := physics.Rect{Width: CourtWidth, Height: CourtHeight}
	b.X, b.Y = court.Centered(b.Width, b.Height)
	b.XOrientation = b.coin()
	b.YOrientation = b.coin()
	b.Speed = BallBaseSpeed
}

func (b *Ball) coin() int {
	if b.rnd.Float64() > 0.5 {
		return 1
	}
	return -1
}

// Update advances the ball one tick. The wall check uses the position from
// before this tick's movement.
func (b *Ball) Update(p1, p2 *Paddle) {
	if b.Y+b.Height >= CourtHeight || b.Y <= 0 {
		b.YOrientation = -b.YOrientation
	}

	b.X += b.Speed * float64(b.XOrientation)
	b.Y += b.Speed * float64(b.YOrientation)

	b.CheckPaddleCollision(p1)
	b.CheckPaddleCollision(p2)
}

// CheckPaddleCollision reflects the ball off p when they overlap and the ball
// is still travelling toward p's half of the court. It reports whether a
// reflection happened.
func (b *Ball) CheckPaddleCollision(p *Paddle) bool {
	if !b.Bounds().Overlaps(p.Bounds()) {
		return false
	}

	towardLeft := b.XOrientation == -1 && p.X < CourtWidth/2
	towardRight := b.XOrientation == 1 && p.X > CourtWidth/2
	if !towardLeft && !towardRight {
		return false
	}

	b.XOrientation = -b.XOrientation
	b.Speed += BallSpeedIncrement
	return true
}

func (b *Ball) Bounds() physics.Rect {
	return physics.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}
