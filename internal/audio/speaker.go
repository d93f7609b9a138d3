package audio

import (
	"time"

	"github.com/gopxl/beep/speaker"
)

// Output plays a mixer on the system speaker
type Output struct {
	mixer       *Mixer
	initialized bool
}

// NewOutput initializes the speaker and starts streaming m.
// Callers treat an error as "run without sound".
func NewOutput(m *Mixer) (*Output, error) {
	if err := speaker.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	speaker.Play(m)
	return &Output{mixer: m, initialized: true}, nil
}

// Close stops playback
func (o *Output) Close() {
	if o == nil || !o.initialized {
		return
	}
	speaker.Clear()
	o.initialized = false
}
