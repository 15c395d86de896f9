package circuit

import (
	"fmt"
	"math"
)

// Switch holds a user-set level until toggled.
type Switch struct {
	Value Level
}

func (s *Switch) Kind() Kind                      { return KindSwitch }
func (s *Switch) Eval(in, out []Level, t float64) { out[0] = s.Value }
func (s *Switch) Set(l Level)                     { s.Value = l }
func (s *Switch) Get() Level                      { return s.Value }

func (s *Switch) GetParams() map[string]float64 {
	return map[string]float64{"value": float64(s.Value)}
}

func (s *Switch) SetParam(name string, value float64) error {
	if name != "value" {
		return fmt.Errorf("%w: %s.%s", ErrUnknownParam, KindSwitch, name)
	}
	s.Value = FromBool(value != 0)
	return nil
}

// Button is high only while pressed.
type Button struct {
	Pressed bool
}

func (b *Button) Kind() Kind                      { return KindButton }
func (b *Button) Eval(in, out []Level, t float64) { out[0] = FromBool(b.Pressed) }
func (b *Button) Set(l Level)                     { b.Pressed = l.Bool() }
func (b *Button) Get() Level                      { return FromBool(b.Pressed) }

func (b *Button) GetParams() map[string]float64 {
	return map[string]float64{"pressed": float64(FromBool(b.Pressed))}
}

func (b *Button) SetParam(name string, value float64) error {
	if name != "pressed" {
		return fmt.Errorf("%w: %s.%s", ErrUnknownParam, KindButton, name)
	}
	b.Pressed = value != 0
	return nil
}

type Const struct {
	Value Level
}

func (c *Const) Kind() Kind                      { return KindConst }
func (c *Const) Eval(in, out []Level, t float64) { out[0] = c.Value }

func (c *Const) GetParams() map[string]float64 {
	return map[string]float64{"value": float64(c.Value)}
}

func (c *Const) SetParam(name string, value float64) error {
	if name != "value" {
		return fmt.Errorf("%w: %s.%s", ErrUnknownParam, KindConst, name)
	}
	c.Value = FromBool(value != 0)
	return nil
}

const DefaultClockPeriod = 1.0

// Clock toggles its output every half period of simulated time. The
// time comes from the circuit, not the wall clock, so runs repeat
// exactly for the same sequence of Step durations.
type Clock struct {
	Period float64
	level  Level
	last   float64
}

func NewClock(period float64) *Clock {
	return &Clock{Period: period}
}

func (c *Clock) Kind() Kind { return KindClock }

func (c *Clock) Eval(in, out []Level, t float64) {
	half := c.Period / 2
	if half > 0 && t-c.last >= half {
		n := math.Floor((t - c.last) / half)
		if int64(n)%2 == 1 {
			c.level = c.level.Not()
		}
		c.last += n * half
	}
	out[0] = c.level
}

func (c *Clock) Hold(out []Level) { out[0] = c.level }

func (c *Clock) GetParams() map[string]float64 {
	return map[string]float64{
		"period": c.Period,
		"level":  float64(c.level),
		"last":   c.last,
	}
}

func (c *Clock) SetParam(name string, value float64) error {
	switch name {
	case "period":
		if value <= 0 {
			return fmt.Errorf("clock period must be positive, got %f", value)
		}
		c.Period = value
	case "level":
		c.level = FromBool(value != 0)
	case "last":
		c.last = value
	default:
		return fmt.Errorf("%w: %s.%s", ErrUnknownParam, KindClock, name)
	}
	return nil
}

// LED is an output indicator; its value is the level on its single input.
type LED struct{}

func (l *LED) Kind() Kind                      { return KindLED }
func (l *LED) Eval(in, out []Level, t float64) {}
