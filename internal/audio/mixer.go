// Package audio synthesizes and mixes the short sound cues played by the terminal client.
package audio

import (
	"fmt"
	"os"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// SampleRate is the output rate of every cue and of the speaker
const SampleRate = beep.SampleRate(44100)

// maxActiveSounds caps concurrently mixed cues; the oldest is dropped
const maxActiveSounds = 8

// Cue is a game moment with a sound
type Cue uint8

const (
	CueFood Cue = iota
	CueBonus
	CueHazard
	CueGameOver
	cueCount
)

func (c Cue) String() string {
	switch c {
	case CueFood:
		return "food"
	case CueBonus:
		return "bonus"
	case CueHazard:
		return "hazard"
	case CueGameOver:
		return "gameover"
	default:
		return "unknown"
	}
}

// Mixer holds the cue samples and mixes queued cues.
// It is a beep.Streamer so it can feed the speaker directly.
type Mixer struct {
	mu     sync.Mutex
	sounds [cueCount][][2]float64
	active []*activeSound
	volume float64
}

type activeSound struct {
	data     [][2]float64
	position int
}

// NewMixer creates a mixer with synthesized cues at volume (0.0-1.0)
func NewMixer(volume float64) *Mixer {
	m := &Mixer{volume: clampVolume(volume)}
	for c := Cue(0); c < cueCount; c++ {
		m.sounds[c] = synthesize(c)
	}
	return m
}

// LoadCue replaces a synthesized cue with a WAV file, resampling when needed
func (m *Mixer) LoadCue(c Cue, path string) error {
	if c >= cueCount {
		return fmt.Errorf("load cue: unknown cue %d", c)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load cue %s: %w", c, err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode cue %s: %w", c, err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != SampleRate {
		s = beep.Resample(4, format.SampleRate, SampleRate, streamer)
	}

	data := render(s)
	m.mu.Lock()
	m.sounds[c] = data
	m.mu.Unlock()
	return nil
}

// Queue starts playing a cue
func (m *Mixer) Queue(c Cue) {
	if c >= cueCount {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.sounds[c]
	if len(data) == 0 {
		return
	}
	m.active = append(m.active, &activeSound{data: data})
	if len(m.active) > maxActiveSounds {
		m.active = m.active[1:]
	}
}

// Active returns the number of cues still playing
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// SetVolume adjusts the cue volume (0.0 to 1.0)
func (m *Mixer) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clampVolume(v)
}

// Stream mixes the active cues into samples. It never ends; silence fills the gaps.
func (m *Mixer) Stream(samples [][2]float64) (n int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range samples {
		samples[i] = [2]float64{}
	}

	alive := m.active[:0]
	for _, s := range m.active {
		remaining := len(s.data) - s.position
		toRead := len(samples)
		if toRead > remaining {
			toRead = remaining
		}
		for i := 0; i < toRead; i++ {
			samples[i][0] += s.data[s.position+i][0] * m.volume
			samples[i][1] += s.data[s.position+i][1] * m.volume
		}
		s.position += toRead
		if s.position < len(s.data) {
			alive = append(alive, s)
		}
	}
	for i := len(alive); i < len(m.active); i++ {
		m.active[i] = nil
	}
	m.active = alive

	for i := range samples {
		samples[i][0] = softLimit(samples[i][0])
		samples[i][1] = softLimit(samples[i][1])
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (m *Mixer) Err() error {
	return nil
}

// softLimit compresses peaks above ±0.9 and clamps to [-1, 1]
func softLimit(v float64) float64 {
	if v > 0.9 {
		v = 0.9 + (v-0.9)/4
	} else if v < -0.9 {
		v = -0.9 + (v+0.9)/4
	}
	if v > 1 {
		return 1
	} else if v < -1 {
		return -1
	}
	return v
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// render drains a finite streamer into memory
func render(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}
