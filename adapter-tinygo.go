//go:build tinygo

package sx1262

import (
	"machine"
)

// tinygoPin wraps a machine.Pin to satisfy the Pin interface.
type tinygoPin struct {
	pin machine.Pin
}

func (p *tinygoPin) Out(l Level) error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.pin.Set(bool(l))
	return nil
}

func (p *tinygoPin) In(pull Pull) error {
	var mPull machine.PinMode
	switch pull {
	case PullUp:
		mPull = machine.PinInputPullup
	case PullDown:
		mPull = machine.PinInputPulldown
	default:
		mPull = machine.PinInput
	}
	p.pin.Configure(machine.PinConfig{Mode: mPull})
	return nil
}

func (p *tinygoPin) Read() Level {
	return Level(p.pin.Get())
}

func (p *tinygoPin) Watch(edge Edge, handler func()) error {
	var mEdge machine.PinChange
	switch edge {
	case RisingEdge:
		mEdge = machine.PinRising
	case FallingEdge:
		mEdge = machine.PinFalling
	case BothEdges:
		mEdge = machine.PinToggle
	default:
		return nil
	}

	return p.pin.SetInterrupt(mEdge, func(machine.Pin) {
		handler()
	})
}

func (p *tinygoPin) Unwatch() error {
	// TinyGo doesn't always have a clear "Unwatch", so we just reconfigure
	// the pin as a plain input.
	p.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}

// tinygoSPI wraps a machine.SPI to satisfy the SPI interface.
type tinygoSPI struct {
	spi *machine.SPI
	cs  machine.Pin
}

func (s *tinygoSPI) Tx(w, r []byte) error {
	s.cs.Low()
	err := s.spi.Tx(w, r)
	s.cs.High()
	return err
}

// NewTinyGo creates a new SX1262 radio for TinyGo systems.
func NewTinyGo(c BoardConfig, spi *machine.SPI, csPin, rstPin, busyPin, dio1Pin machine.Pin) (*Radio, error) {
	// Configure CS pin as output and set high (inactive)
	csPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	csPin.High()

	rstWrapper := &tinygoPin{pin: rstPin}
	busyWrapper := &tinygoPin{pin: busyPin}

	var dio1Wrapper Pin
	if dio1Pin != machine.NoPin {
		dio1Wrapper = &tinygoPin{pin: dio1Pin}
	}

	spiWrapper := &tinygoSPI{spi: spi, cs: csPin}

	hwConfig := HardwareConfig{
		BoardConfig: c,
		Reset:       rstWrapper,
		Busy:        busyWrapper,
		Dio1:        dio1Wrapper,
	}
	return NewWithHardware(hwConfig, spiWrapper)
}
