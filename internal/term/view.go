// Package term renders a pong match in a terminal and forwards keyboard input
// to the server.
package term

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/pong/internal/core/game"
	"github.com/zeusync/pong/internal/core/physics"
)

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBall    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	stylePaddle1 = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	stylePaddle2 = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
)

const (
	runeBall   = '●'
	runePaddle = '█'
)

// View draws snapshots onto a screen. Row 0 holds the score line, the last
// row holds the status line and the court fills the rows in between.
type View struct {
	screen tcell.Screen
}

func NewView(screen tcell.Screen) *View {
	return &View{screen: screen}
}

// Court is the cell rectangle inside the border.
func (v *View) Court() (x, y, w, h int) {
	sw, sh := v.screen.Size()
	return 1, 2, max(sw-2, 1), max(sh-4, 1)
}

func (v *View) Draw(s *game.Snapshot, status string) {
	v.screen.Clear()
	sw, sh := v.screen.Size()

	cx, cy, cw, ch := v.Court()
	v.border(cx-1, cy-1, cw+2, ch+2)

	if s != nil {
		v.text(0, 0, scoreLine(s), styleStatus)
		v.box(s.Paddle1, runePaddle, stylePaddle1)
		v.box(s.Paddle2, runePaddle, stylePaddle2)
		bx, by := v.cell(s.Ball.X+s.Ball.Width/2, s.Ball.Y+s.Ball.Height/2)
		v.screen.SetContent(bx, by, runeBall, nil, styleBall)
	}

	if status != "" && sh > 0 {
		v.text(0, sh-1, truncate(status, sw), styleDefault)
	}
	v.screen.Show()
}

func scoreLine(s *game.Snapshot) string {
	return fmt.Sprintf("%s %d : %d %s   (first to %d)  %s",
		s.Players.P1.Name, s.Players.P1.Score,
		s.Players.P2.Score, s.Players.P2.Name,
		s.MaxScore, s.GameID)
}

// cell maps a court coordinate to a screen cell inside the border.
func (v *View) cell(x, y float64) (int, int) {
	cx, cy, cw, ch := v.Court()
	col := int(physics.Clamp(x/game.CourtWidth*float64(cw), 0, float64(cw-1)))
	row := int(physics.Clamp(y/game.CourtHeight*float64(ch), 0, float64(ch-1)))
	return cx + col, cy + row
}

func (v *View) box(b game.BoxSnapshot, r rune, style tcell.Style) {
	x0, y0 := v.cell(b.X, b.Y)
	x1, y1 := v.cell(b.X+b.Width-1, b.Y+b.Height-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			v.screen.SetContent(x, y, r, nil, style)
		}
	}
}

func (v *View) border(x, y, w, h int) {
	for i := x; i < x+w; i++ {
		v.screen.SetContent(i, y, tcell.RuneHLine, nil, styleBorder)
		v.screen.SetContent(i, y+h-1, tcell.RuneHLine, nil, styleBorder)
	}
	// Centre line.
	mid := x + w/2
	for j := y + 1; j < y+h-1; j += 2 {
		v.screen.SetContent(mid, j, tcell.RuneVLine, nil, styleBorder)
	}
}

func (v *View) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
