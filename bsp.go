package sx1262

import "fmt"

// RegulatorMode selects the power regulator of the SX1262.
type RegulatorMode byte

const (
	// RegModeLDO uses only the linear regulator.
	RegModeLDO RegulatorMode = 0x00
	// RegModeDCDC uses the DC-DC converter in addition to the LDO.
	RegModeDCDC RegulatorMode = 0x01
)

func (m RegulatorMode) String() string {
	switch m {
	case RegModeLDO:
		return "LDO"
	case RegModeDCDC:
		return "DC-DC"
	default:
		return "unknown"
	}
}

// RampTime is the PA ramp-up duration used when keying transmission on.
type RampTime byte

const (
	Ramp10us   RampTime = 0x00
	Ramp20us   RampTime = 0x01
	Ramp40us   RampTime = 0x02
	Ramp80us   RampTime = 0x03
	Ramp200us  RampTime = 0x04
	Ramp800us  RampTime = 0x05
	Ramp1700us RampTime = 0x06
	Ramp3400us RampTime = 0x07
)

func (r RampTime) String() string {
	switch r {
	case Ramp10us:
		return "10µs"
	case Ramp20us:
		return "20µs"
	case Ramp40us:
		return "40µs"
	case Ramp80us:
		return "80µs"
	case Ramp200us:
		return "200µs"
	case Ramp800us:
		return "800µs"
	case Ramp1700us:
		return "1700µs"
	case Ramp3400us:
		return "3400µs"
	default:
		return "unknown"
	}
}

// TcxoVoltage is the supply voltage for a radio-controlled TCXO.
type TcxoVoltage byte

const (
	Tcxo1V6 TcxoVoltage = 0x00
	Tcxo1V7 TcxoVoltage = 0x01
	Tcxo1V8 TcxoVoltage = 0x02
	Tcxo2V2 TcxoVoltage = 0x03
	Tcxo2V4 TcxoVoltage = 0x04
	Tcxo2V7 TcxoVoltage = 0x05
	Tcxo3V0 TcxoVoltage = 0x06
	Tcxo3V3 TcxoVoltage = 0x07
)

// XoscConfig describes the oscillator setup of the board.
// When RadioControlled is false the remaining fields are meaningless.
type XoscConfig struct {
	RadioControlled bool
	SupplyVoltage   TcxoVoltage
	StartupTicks    uint32
}

// BoardConfig holds the board-level properties of the SX1262 shield.
// These are fixed at configuration time, not computed at runtime.
type BoardConfig struct {
	// DisableDIO2TxSwitch disconnects DIO2 from the RF switch control.
	// The shield routes the TX switch through DIO2, so leave this false
	// unless the board drives the switch externally.
	DisableDIO2TxSwitch bool
	// TxPowerOffset is added to every requested output power before
	// resolution. Defaults to 0.
	TxPowerOffset int8
}

// TxConfig is the transmit configuration to be applied to the chip for a
// requested output power. ExpectedDbm is the request after the board offset;
// ConfiguredDbm is the power the PA table actually configures. Callers can
// compare the two to reconcile requested vs. actual transmit power.
type TxConfig struct {
	ExpectedDbm   int8
	ConfiguredDbm int8
	PA            PAConfig
	RampTime      RampTime
}

func (c TxConfig) String() string {
	return fmt.Sprintf("TxConfig(Expected=%ddBm, Configured=%ddBm, HpMax=0x%02X, PaDutyCycle=0x%02X, Ramp=%s)",
		c.ExpectedDbm, c.ConfiguredDbm, c.PA.HpMax, c.PA.PaDutyCycle, c.RampTime)
}

// Board answers the configuration queries the radio driver makes during
// initialization and transmit setup. All answers are constants or table
// lookups; a Board is stateless and safe for concurrent use.
type Board struct {
	cfg BoardConfig
}

// NewBoard returns a Board for the given shield configuration.
func NewBoard(cfg BoardConfig) *Board {
	return &Board{cfg: cfg}
}

// RegulatorMode returns the regulator mode of the shield.
// The shield always runs the DC-DC converter.
func (b *Board) RegulatorMode() RegulatorMode {
	return RegModeDCDC
}

// DIO2AsRFSwitch reports whether DIO2 controls the RF switch.
func (b *Board) DIO2AsRFSwitch() bool {
	return !b.cfg.DisableDIO2TxSwitch
}

// XoscConfig returns the oscillator configuration.
// The shield has no radio-controlled TCXO.
func (b *Board) XoscConfig() XoscConfig {
	return XoscConfig{RadioControlled: false}
}

// OCPValue returns the over-current protection limit in steps of 2.5 mA.
// From the SX1261-2 data sheet, table 5-2.
func (b *Board) OCPValue() uint8 {
	return 0x38
}

// GetTxConfig resolves the transmit configuration for the requested system
// output power at the given frequency. The board power offset is applied
// before resolution and the shield's fixed 40µs PA ramp time is attached.
func (b *Board) GetTxConfig(freqHz uint32, systemDbm int8) TxConfig {
	requested := systemDbm + b.cfg.TxPowerOffset
	entry := ResolveTxPower(freqHz, requested)

	return TxConfig{
		ExpectedDbm:   requested,
		ConfiguredDbm: entry.Power,
		PA:            entry.PA,
		RampTime:      Ramp40us,
	}
}
