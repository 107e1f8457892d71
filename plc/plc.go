// Package plc tracks the loss and comfort-noise state of a SILK decoder.
// It decides, frame by frame, whether the decoder synthesizes normally,
// conceals a lost frame by extrapolation, or only plays comfort noise,
// and it bounds the energy of consecutive concealed frames.
//
// The signal processing itself lives in the silk package; State only holds
// the decisions so they can be inspected and tested on their own.
package plc

import "math"

// Mode is the concealment mode of the current frame.
type Mode int

const (
	// ModeNormal: the frame was received and decoded.
	ModeNormal Mode = iota

	// ModeConcealing: the frame was lost and is extrapolated from the
	// last received pitch and spectral envelope.
	ModeConcealing

	// ModeComfortNoise: the stream has been inactive long enough that lost
	// frames are replaced by comfort noise only. Received inactive frames
	// keep the decoder in this mode until enough active frames arrive.
	ModeComfortNoise
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeConcealing:
		return "concealing"
	case ModeComfortNoise:
		return "comfort-noise"
	}
	return "unknown"
}

// Default hysteresis of the comfort-noise mode, in 20 ms frames. Entering
// matches the encoder, which stops transmitting after five inactive frames.
const (
	DefaultCNGEnterFrames = 5
	DefaultCNGExitFrames  = 2
)

// Config sets the comfort-noise hysteresis.
type Config struct {
	// CNGEnterFrames is the number of consecutive inactive frames after
	// which the decoder switches to comfort noise.
	CNGEnterFrames int

	// CNGExitFrames is the number of consecutive active frames needed to
	// leave comfort noise.
	CNGExitFrames int
}

// DefaultConfig returns the default hysteresis.
func DefaultConfig() Config {
	return Config{
		CNGEnterFrames: DefaultCNGEnterFrames,
		CNGExitFrames:  DefaultCNGExitFrames,
	}
}

// State tracks concealment decisions across frames. The zero value is not
// ready for use; call NewState.
type State struct {
	cfg Config

	mode      Mode
	lostCount int

	// cng is the hysteresis output: set after CNGEnterFrames inactive
	// frames, cleared after CNGExitFrames active ones.
	cng         bool
	inactiveRun int
	activeRun   int

	// Mean energy per sample of the last concealed frame, or -1 when the
	// previous frame was not concealed.
	concealEnergy float64
}

// NewState creates a state with the given hysteresis. Non-positive values
// fall back to the defaults.
func NewState(cfg Config) *State {
	if cfg.CNGEnterFrames <= 0 {
		cfg.CNGEnterFrames = DefaultCNGEnterFrames
	}
	if cfg.CNGExitFrames <= 0 {
		cfg.CNGExitFrames = DefaultCNGExitFrames
	}
	s := &State{cfg: cfg}
	s.Reset()
	return s
}

// Reset returns to normal decoding and forgets the activity history.
func (s *State) Reset() {
	s.mode = ModeNormal
	s.lostCount = 0
	s.cng = false
	s.inactiveRun = 0
	s.activeRun = 0
	s.concealEnergy = -1
}

// RecordFrame records a received frame and its voice activity flag and
// returns the resulting mode.
func (s *State) RecordFrame(active bool) Mode {
	s.lostCount = 0
	s.concealEnergy = -1
	if active {
		s.inactiveRun = 0
		s.activeRun++
		if s.cng && s.activeRun >= s.cfg.CNGExitFrames {
			s.cng = false
		}
	} else {
		s.activeRun = 0
		s.inactiveRun++
		if s.inactiveRun >= s.cfg.CNGEnterFrames {
			s.cng = true
		}
	}
	s.mode = ModeNormal
	if s.cng {
		s.mode = ModeComfortNoise
	}
	return s.mode
}

// RecordLoss records a lost frame and returns the mode to conceal it with.
func (s *State) RecordLoss() Mode {
	s.lostCount++
	s.activeRun = 0
	s.mode = ModeConcealing
	if s.cng {
		s.mode = ModeComfortNoise
	}
	return s.mode
}

// LimitGain returns the gain to apply to a concealed frame with the given
// mean energy per sample so that its energy does not exceed that of the
// previous concealed frame, and records the limited energy. The first
// concealed frame after a received one is never limited.
func (s *State) LimitGain(energy float64) float64 {
	gain := 1.0
	if s.concealEnergy >= 0 && energy > s.concealEnergy {
		if s.concealEnergy == 0 {
			gain = 0
		} else {
			gain = math.Sqrt(s.concealEnergy / energy)
		}
		energy = s.concealEnergy
	}
	s.concealEnergy = energy
	return gain
}

// RecordConcealEnergy replaces the energy recorded by the last LimitGain
// call with the energy measured after the gain was applied.
func (s *State) RecordConcealEnergy(energy float64) {
	s.concealEnergy = energy
}

// Mode returns the mode of the last recorded frame.
func (s *State) Mode() Mode {
	return s.mode
}

// LostCount returns the number of consecutive lost frames.
func (s *State) LostCount() int {
	return s.lostCount
}

// ComfortNoise reports whether the comfort-noise hysteresis is engaged.
func (s *State) ComfortNoise() bool {
	return s.cng
}
