package thermal

import "strings"

// Mode names a cooling strategy. The mode scales the sink conductance of
// the network model.
type Mode string

const (
	ModeAir    Mode = "air"
	ModeFin    Mode = "fin"
	ModePCM    Mode = "pcm"
	ModeLiquid Mode = "liquid"
)

// SinkMultiplier returns the sink conductance multiplier for the mode.
// Unknown modes behave like air cooling.
func (m Mode) SinkMultiplier() float64 {
	switch Mode(strings.ToLower(string(m))) {
	case ModeFin:
		return 2.5
	case ModePCM:
		return 4.0
	case ModeLiquid:
		return 6.0
	default:
		return 1.0
	}
}

func (m Mode) String() string { return string(m) }
