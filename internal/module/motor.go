package module

import (
	"unicode/utf8"

	"github.com/maryam97/pyactr/internal/model"
)

// MotorTiming holds the three phases of a key press in seconds.
type MotorTiming struct {
	Preparation float64
	Initiation  float64
	Execution   float64
}

// Motor is the manual module. It only understands press_key.
type Motor struct {
	timing   MotorTiming
	prepared bool
	lastKey  string
}

// NewMotor returns a manual module. When prepared is set the first press
// skips the preparation phase.
func NewMotor(timing MotorTiming, prepared bool) *Motor {
	return &Motor{timing: timing, prepared: prepared}
}

func (m *Motor) Name() string { return "motor" }

func (m *Motor) Request(now float64, req Request) Outcome {
	if req.Type != model.ManualType.Name {
		return failed(0, "MOTOR FAILED: unsupported request %s", req)
	}
	if cmd, _ := req.Arg("cmd"); cmd.Symbol != "press_key" {
		return failed(0, "MOTOR FAILED: unsupported command %s", cmd)
	}
	key, _ := req.Arg("key")
	if key.Symbol == "" {
		return failed(0, "MOTOR FAILED: press_key needs a key")
	}

	latency := m.timing.Initiation + m.timing.Execution
	if !m.prepared && key.Symbol != m.lastKey {
		latency += m.timing.Preparation
	}
	m.prepared = false
	m.lastKey = key.Symbol

	r, _ := utf8.DecodeRuneInString(key.Symbol)
	return Outcome{Latency: latency, Key: r, Detail: "KEY PRESSED: " + key.Symbol}
}
