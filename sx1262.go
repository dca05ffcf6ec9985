package sx1262

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	ErrPkg     = errors.New("sx1262dev")
	ErrTimeout = errors.New("timeout waiting for device")
)

// --- SX126x Commands/Registers ---

// SX126x command opcodes
const (
	_SET_SLEEP          = 0x84
	_SET_STANDBY        = 0x80
	_SET_REGULATOR_MODE = 0x96
	_SET_DIO2_RF_SWITCH = 0x9D
	_SET_DIO3_TCXO_CTRL = 0x97
	_SET_PA_CONFIG      = 0x95
	_SET_TX_PARAMS      = 0x8E
	_WRITE_REGISTER     = 0x0D
	_READ_REGISTER      = 0x1D
	_GET_STATUS         = 0xC0
	_NOP                = 0x00
)

// SX126x register addresses
const (
	_REG_OCP = 0x08E7
)

const (
	_STANDBY_RC = 0x00
)

// How long to wait for the BUSY line to drop after reset or a command.
const busyTimeout = 100 * time.Millisecond

// HardwareConfig bundles the board configuration with the bus and pin
// handles of the shield. It is the hardware context handed to the radio;
// the caller must keep the pins valid for the life of the Radio.
type HardwareConfig struct {
	BoardConfig
	// Reset is the active-low reset line.
	Reset Pin
	// Busy is high while the chip processes a command.
	Busy Pin
	// Dio1 is the interrupt line.
	// Optional. If not provided, WaitForInterrupt is unavailable.
	Dio1 Pin
}

// Radio owns the hardware context of the SX1262 shield and pushes the
// board's configuration answers into the chip. Construction fully
// initializes the hardware; to re-initialize, construct again. There is no
// shared global instance.
type Radio struct {
	config  HardwareConfig
	conn    SPI
	board   *Board
	irqChan chan struct{}
	port    io.Closer
	mu      sync.Mutex
	scratch [8]byte
}

// NewWithHardware creates and initializes a new SX1262 radio with the
// provided hardware interfaces. It resets the chip, waits for it to become
// ready and applies the board configuration (regulator mode, RF switch,
// over-current protection).
func NewWithHardware(c HardwareConfig, conn SPI) (*Radio, error) {
	if conn == nil {
		return nil, fmt.Errorf("SPI connection not configured")
	}
	if c.Reset == nil {
		return nil, fmt.Errorf("RESET pin not configured")
	}
	if c.Busy == nil {
		return nil, fmt.Errorf("BUSY pin not configured")
	}

	r := &Radio{
		config: c,
		conn:   conn,
		board:  NewBoard(c.BoardConfig),
	}

	globalLogger.Info("Initializing SX1262 SPI communication...")

	// Setup BUSY as input before the first command.
	r.config.Busy.In(PullNoChange)

	// Setup DIO1 if provided
	if r.config.Dio1 != nil {
		r.config.Dio1.In(PullDown)
		r.irqChan = make(chan struct{}, 1)
		err := r.config.Dio1.Watch(RisingEdge, func() {
			select {
			case r.irqChan <- struct{}{}:
			default:
				// Channel full
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to watch DIO1 pin: %w", err)
		}
	}

	if err := r.reset(); err != nil {
		return nil, err
	}

	if err := r.applyBoardConfig(); err != nil {
		return nil, err
	}

	// Verify Connection
	// Read back the OCP register to ensure SPI write/read is working.
	ocp, err := r.readRegister(_REG_OCP)
	if err != nil {
		return nil, err
	}
	if ocp != r.board.OCPValue() {
		r.Close()
		return nil, fmt.Errorf("failed to verify SX1262 connection: check wiring/power")
	}

	globalLogger.Info("SX1262 initialized. Ready to operate.")

	return r, nil
}

// Board returns the board query surface of the shield.
func (r *Radio) Board() *Board {
	return r.board
}

func (r *Radio) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return fmt.Sprintf("SX1262(RegMode=%s, DIO2AsRFSwitch=%v, OCP=0x%02X, TxPowerOffset=%d)",
		r.board.RegulatorMode(),
		r.board.DIO2AsRFSwitch(),
		r.board.OCPValue(),
		r.config.TxPowerOffset,
	)
}

// Close puts the chip to sleep, closes the SPI connection and releases the
// GPIO pins. This method is concurrent safe.
func (r *Radio) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. Sleep (cold start on wakeup)
	r.writeCommand(_SET_SLEEP, 0x00)
	globalLogger.Info("SX1262 put to sleep.")

	// 2. Clean up SPI
	if r.port != nil {
		if err := r.port.Close(); err != nil {
			globalLogger.Warn("Failed to close SPI port")
		}
		globalLogger.Info("SPI bus closed.")
	}

	// 3. Clean up GPIO
	if r.config.Dio1 != nil {
		r.config.Dio1.Unwatch()
	}
	globalLogger.Info("GPIO interface closed.")

	return nil
}

// --- SX1262 Core Functions (SPI interaction) ---

// reset pulses the RESET line and waits for BUSY to drop.
// Call with lock held or before the Radio is shared.
func (r *Radio) reset() error {
	r.config.Reset.Out(Low)
	time.Sleep(200 * time.Microsecond)
	r.config.Reset.Out(High)
	time.Sleep(time.Millisecond)

	if err := r.waitBusy(); err != nil {
		return fmt.Errorf("device not ready after reset: %w", err)
	}

	return r.writeCommand(_SET_STANDBY, _STANDBY_RC)
}

// applyBoardConfig writes the board's configuration answers into the chip.
// Call with lock held or before the Radio is shared.
func (r *Radio) applyBoardConfig() error {
	if err := r.writeCommand(_SET_REGULATOR_MODE, byte(r.board.RegulatorMode())); err != nil {
		return err
	}

	if r.board.DIO2AsRFSwitch() {
		if err := r.writeCommand(_SET_DIO2_RF_SWITCH, 0x01); err != nil {
			return err
		}
	}

	xosc := r.board.XoscConfig()
	if xosc.RadioControlled {
		timeout := xosc.StartupTicks
		if err := r.writeCommand(_SET_DIO3_TCXO_CTRL,
			byte(xosc.SupplyVoltage),
			byte(timeout>>16), byte(timeout>>8), byte(timeout)); err != nil {
			return err
		}
	}

	return r.writeRegister(_REG_OCP, r.board.OCPValue())
}

// waitBusy polls the BUSY line until it drops or busyTimeout elapses.
func (r *Radio) waitBusy() error {
	deadline := time.Now().Add(busyTimeout)
	for r.config.Busy.Read() == High {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %w", ErrPkg, ErrTimeout)
		}
		time.Sleep(10 * time.Microsecond)
	}
	return nil
}

func (r *Radio) spiTransfer(len int) error {
	// Perform full-duplex transaction on the scratch buffer.
	// We use the same slice for read and write.
	slice := r.scratch[:len]
	if err := r.conn.Tx(slice, slice); err != nil {
		globalLogger.Error("SPI Transfer Error")
		return fmt.Errorf("%w: spi transfer: %w", ErrPkg, err)
	}
	return nil
}

func (r *Radio) writeCommand(opcode byte, params ...byte) error {
	if err := r.waitBusy(); err != nil {
		return err
	}
	r.scratch[0] = opcode
	copy(r.scratch[1:], params)
	return r.spiTransfer(1 + len(params))
}

func (r *Radio) writeRegister(addr uint16, val byte) error {
	if err := r.waitBusy(); err != nil {
		return err
	}
	r.scratch[0] = _WRITE_REGISTER
	r.scratch[1] = byte(addr >> 8)
	r.scratch[2] = byte(addr)
	r.scratch[3] = val
	return r.spiTransfer(4)
}

func (r *Radio) readRegister(addr uint16) (byte, error) {
	if err := r.waitBusy(); err != nil {
		return 0, err
	}
	r.scratch[0] = _READ_REGISTER
	r.scratch[1] = byte(addr >> 8)
	r.scratch[2] = byte(addr)
	r.scratch[3] = _NOP // status byte
	r.scratch[4] = _NOP // register value
	if err := r.spiTransfer(5); err != nil {
		return 0, err
	}
	return r.scratch[4], nil
}

// --- Transmit configuration ---

// ApplyTxConfig resolves the transmit configuration for the requested system
// output power and writes it into the chip (PA configuration, output power
// and ramp time). It returns the applied configuration so the caller can
// reconcile requested vs. actual transmit power.
// This method is concurrent safe.
func (r *Radio) ApplyTxConfig(freqHz uint32, systemDbm int8) (TxConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tc := r.board.GetTxConfig(freqHz, systemDbm)

	err := r.writeCommand(_SET_PA_CONFIG,
		tc.PA.PaDutyCycle, tc.PA.HpMax, tc.PA.DeviceSel, tc.PA.PaLut)
	if err != nil {
		return TxConfig{}, fmt.Errorf("failed to set PA config: %w", err)
	}

	err = r.writeCommand(_SET_TX_PARAMS, byte(tc.ConfiguredDbm), byte(tc.RampTime))
	if err != nil {
		return TxConfig{}, fmt.Errorf("failed to set tx params: %w", err)
	}

	return tc, nil
}

// Status reads the chip status byte.
// This method is concurrent safe.
func (r *Radio) Status() (byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.waitBusy(); err != nil {
		return 0, err
	}
	r.scratch[0] = _GET_STATUS
	r.scratch[1] = _NOP
	if err := r.spiTransfer(2); err != nil {
		return 0, err
	}
	return r.scratch[1], nil
}

// WaitReady blocks until the BUSY line drops or the context is cancelled.
// This method is concurrent safe.
func (r *Radio) WaitReady(ctx context.Context) error {
	for {
		if r.config.Busy.Read() == Low {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// WaitForInterrupt blocks until DIO1 goes high (active) or the context is
// cancelled. If the DIO1 pin is not configured, it returns an error.
// This method is concurrent safe.
func (r *Radio) WaitForInterrupt(ctx context.Context) error {
	if r.config.Dio1 == nil {
		return fmt.Errorf("DIO1 pin not configured")
	}

	// Check if the interrupt is already pending.
	if r.config.Dio1.Read() == High {
		return nil
	}

	select {
	case <-r.irqChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
