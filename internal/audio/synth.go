package audio

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
)

type note struct {
	freq     float64
	duration time.Duration
}

var cueNotes = [cueCount][]note{
	CueFood:     {{880, 60 * time.Millisecond}},
	CueBonus:    {{660, 60 * time.Millisecond}, {990, 90 * time.Millisecond}},
	CueHazard:   {{140, 200 * time.Millisecond}},
	CueGameOver: {{440, 120 * time.Millisecond}, {330, 120 * time.Millisecond}, {220, 240 * time.Millisecond}},
}

// synthesize renders a cue as a sequence of sine notes with a short release
func synthesize(c Cue) [][2]float64 {
	var parts []beep.Streamer
	for _, n := range cueNotes[c] {
		sine, err := generators.SineTone(SampleRate, n.freq)
		if err != nil {
			continue
		}
		parts = append(parts, beep.Take(SampleRate.N(n.duration), sine))
	}
	if len(parts) == 0 {
		return nil
	}

	data := render(beep.Seq(parts...))
	applyRelease(data, SampleRate.N(15*time.Millisecond))
	for i := range data {
		data[i][0] *= 0.4
		data[i][1] *= 0.4
	}
	return data
}

// applyRelease fades the last n samples to silence to avoid clicks
func applyRelease(data [][2]float64, n int) {
	if n > len(data) {
		n = len(data)
	}
	start := len(data) - n
	for i := start; i < len(data); i++ {
		vol := float64(len(data)-i) / float64(n)
		data[i][0] *= vol
		data[i][1] *= vol
	}
}
