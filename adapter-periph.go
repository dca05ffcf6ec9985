//go:build !tinygo

package sx1262

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// realPin wraps a gpio.PinIO to satisfy the Pin interface.
type realPin struct {
	gpio.PinIO
	stopWatch chan struct{}
}

func (p *realPin) Out(l Level) error {
	if l == High {
		return p.PinIO.Out(gpio.High)
	}
	return p.PinIO.Out(gpio.Low)
}

func (p *realPin) In(pull Pull) error {
	var pPull gpio.Pull
	switch pull {
	case PullFloat:
		pPull = gpio.Float
	case PullDown:
		pPull = gpio.PullDown
	case PullUp:
		pPull = gpio.PullUp
	default:
		pPull = gpio.PullNoChange
	}
	return p.PinIO.In(pPull, gpio.NoEdge)
}

func (p *realPin) Read() Level {
	if p.PinIO.Read() == gpio.High {
		return High
	}
	return Low
}

func (p *realPin) Watch(edge Edge, handler func()) error {
	var pEdge gpio.Edge
	switch edge {
	case RisingEdge:
		pEdge = gpio.RisingEdge
	case FallingEdge:
		pEdge = gpio.FallingEdge
	case BothEdges:
		pEdge = gpio.BothEdges
	default:
		pEdge = gpio.NoEdge
	}

	// Ensure we are in input mode with the correct edge detection
	if err := p.PinIO.In(gpio.PullDown, pEdge); err != nil {
		return err
	}

	p.stopWatch = make(chan struct{})

	go func() {
		for {
			// Wait for edge with -1 (infinite timeout)
			if p.PinIO.WaitForEdge(-1) {
				select {
				case <-p.stopWatch:
					return
				default:
					handler()
				}
			} else {
				// WaitForEdge returned false (timeout or error), check stop
				select {
				case <-p.stopWatch:
					return
				default:
				}
			}
		}
	}()
	return nil
}

func (p *realPin) Unwatch() error {
	if p.stopWatch != nil {
		close(p.stopWatch)
		p.stopWatch = nil
	}
	// Disable edge detection
	return p.PinIO.In(gpio.PullDown, gpio.NoEdge)
}

// Config holds the configuration for the Linux/periph.io driver.
type Config struct {
	BoardConfig
	// ResetPin is the GPIO pin number (BCM numbering) for the RESET pin.
	// Defaults to 22 if not provided.
	ResetPin int
	// BusyPin is the GPIO pin number (BCM numbering) for the BUSY pin.
	// Defaults to 23 if not provided.
	BusyPin int
	// Dio1Pin is the GPIO pin number (BCM numbering) for the DIO1 interrupt pin.
	// Optional. If not provided, interrupt waiting is unavailable.
	Dio1Pin int
	// SpiBusPath is the path to the SPI bus (e.g., "/dev/spidev0.0").
	// Defaults to "/dev/spidev0.0" if not provided.
	SpiBusPath string
	// SpiClockHz is the SPI clock frequency in Hz.
	// Defaults to 8000000 (8MHz) if not provided. The SX1262 supports up to 16MHz.
	SpiClockHz int
}

// New creates and initializes a new SX1262 radio for Linux systems.
// It applies configuration defaults, initializes the GPIO and SPI interfaces
// using periph.io, and pushes the board configuration into the chip.
// It returns the initialized radio or an error if hardware initialization fails.
func New(c Config) (*Radio, error) {
	// 1. Initialize periph.io host (Required for both SPI and GPIO)
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io host: %w", err)
	}

	// 2. Default SPI Path
	if c.SpiBusPath == "" {
		c.SpiBusPath = "/dev/spidev0.0"
	}

	// 3. Open the SPI Port
	p, err := spireg.Open(c.SpiBusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port: %w", err)
	}

	// 4. Default Clock
	if c.SpiClockHz == 0 {
		c.SpiClockHz = 8000000
	}

	// 5. Create the SPI Connection (Mode 0, 8 bits)
	conn, err := p.Connect(physic.Frequency(c.SpiClockHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create SPI connection: %w", err)
	}

	// 6. Setup RESET Pin
	if c.ResetPin == 0 {
		c.ResetPin = 22
	}
	rstName := fmt.Sprintf("GPIO%d", c.ResetPin)
	realRst := gpioreg.ByName(rstName)
	if realRst == nil {
		p.Close()
		return nil, fmt.Errorf("failed to open RESET pin %s", rstName)
	}
	rstWrapper := &realPin{PinIO: realRst}

	// 7. Setup BUSY Pin
	if c.BusyPin == 0 {
		c.BusyPin = 23
	}
	busyName := fmt.Sprintf("GPIO%d", c.BusyPin)
	realBusy := gpioreg.ByName(busyName)
	if realBusy == nil {
		p.Close()
		return nil, fmt.Errorf("failed to open BUSY pin %s", busyName)
	}
	busyWrapper := &realPin{PinIO: realBusy}

	// 8. Setup DIO1 Pin
	var dio1Wrapper Pin
	if c.Dio1Pin != 0 {
		dio1Name := fmt.Sprintf("GPIO%d", c.Dio1Pin)
		realDio1 := gpioreg.ByName(dio1Name)
		if realDio1 == nil {
			p.Close()
			return nil, fmt.Errorf("failed to open DIO1 pin %s", dio1Name)
		}
		dio1Wrapper = &realPin{PinIO: realDio1}
	}

	// 9. Call internal constructor
	hwConfig := HardwareConfig{
		BoardConfig: c.BoardConfig,
		Reset:       rstWrapper,
		Busy:        busyWrapper,
		Dio1:        dio1Wrapper,
	}
	radio, err := NewWithHardware(hwConfig, conn)
	if err != nil {
		p.Close()
		return nil, err
	}

	// Store the port closer so we can close it later
	radio.port = p
	return radio, nil
}
