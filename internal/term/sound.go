package term

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Sound plays short cues. Every method is a no-op until Init succeeds.
type Sound struct {
	mu      sync.Mutex
	enabled bool
}

func NewSound() *Sound {
	return &Sound{}
}

func (s *Sound) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	s.enabled = true
	return nil
}

func (s *Sound) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Point plays a short high beep.
func (s *Sound) Point() {
	s.tone(880, 60*time.Millisecond)
}

// GameOver plays a longer low tone.
func (s *Sound) GameOver() {
	s.tone(220, 400*time.Millisecond)
}

func (s *Sound) tone(freq float64, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(d), sine))
}

func (s *Sound) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		speaker.Close()
		s.enabled = false
	}
}
