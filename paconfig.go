package sx1262

// Supported RF band and output power range of the SX1262 shield.
// Requests outside these bounds resolve to the safe default entry.
const (
	// FreqMin is the lowest supported RF frequency in Hz.
	FreqMin uint32 = 150000000
	// FreqMax is the highest supported RF frequency in Hz.
	FreqMax uint32 = 960000000

	// MinPower is the lowest requestable output power in dBm.
	MinPower int8 = -9
	// MaxPower is the highest requestable output power in dBm.
	MaxPower int8 = 22
)

// defaultPower is the requested power the resolver falls back to when the
// frequency or power is out of range.
const defaultPower int8 = 6

// PAConfig holds the power amplifier register fields of the SX1262.
// The values are written verbatim into the chip's SetPaConfig command, so
// they must match the shield characterization exactly.
type PAConfig struct {
	DeviceSel   uint8
	HpMax       uint8
	PaDutyCycle uint8
	PaLut       uint8
}

// TxPowerEntry pairs the chip output power setting with the PA configuration
// that realizes a requested power on this shield. Power is the value to
// configure, not the requested dBm; the two usually differ because the PA
// stage cannot hit every power exactly.
type TxPowerEntry struct {
	Power int8
	PA    PAConfig
}

// paTable maps a requested output power to the PA configuration characterized
// for the SX1262 shield. Index i corresponds to a request of MinPower+i dBm.
// The values come from bench characterization against real hardware and are
// not derivable from a formula.
var paTable = [MaxPower - MinPower + 1]TxPowerEntry{
	{Power: 2, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x01, DeviceSel: 0x00, PaLut: 0x01}},  // -9 dBm
	{Power: 5, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}},  // -8 dBm
	{Power: 5, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x01, DeviceSel: 0x00, PaLut: 0x01}},  // -7 dBm
	{Power: 8, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}},  // -6 dBm
	{Power: 3, PA: PAConfig{HpMax: 0x02, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}},  // -5 dBm
	{Power: 9, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}},  // -4 dBm
	{Power: 10, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}}, // -3 dBm
	{Power: 11, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}}, // -2 dBm
	{Power: 13, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x01, DeviceSel: 0x00, PaLut: 0x01}}, // -1 dBm
	{Power: 19, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x01, DeviceSel: 0x00, PaLut: 0x01}}, // 0 dBm
	{Power: 16, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x01, DeviceSel: 0x00, PaLut: 0x01}}, // 1 dBm
	{Power: 20, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}}, // 2 dBm
	{Power: 18, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x03, DeviceSel: 0x00, PaLut: 0x01}}, // 3 dBm
	{Power: 21, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}}, // 4 dBm
	{Power: 16, PA: PAConfig{HpMax: 0x02, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}}, // 5 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}}, // 6 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x01, DeviceSel: 0x00, PaLut: 0x01}}, // 7 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x02, DeviceSel: 0x00, PaLut: 0x01}}, // 8 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x03, DeviceSel: 0x00, PaLut: 0x01}}, // 9 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x01, PaDutyCycle: 0x04, DeviceSel: 0x00, PaLut: 0x01}}, // 10 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x02, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}}, // 11 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x02, PaDutyCycle: 0x01, DeviceSel: 0x00, PaLut: 0x01}}, // 12 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x02, PaDutyCycle: 0x02, DeviceSel: 0x00, PaLut: 0x01}}, // 13 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x02, PaDutyCycle: 0x03, DeviceSel: 0x00, PaLut: 0x01}}, // 14 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x03, PaDutyCycle: 0x01, DeviceSel: 0x00, PaLut: 0x01}}, // 15 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x03, PaDutyCycle: 0x02, DeviceSel: 0x00, PaLut: 0x01}}, // 16 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x05, PaDutyCycle: 0x00, DeviceSel: 0x00, PaLut: 0x01}}, // 17 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x05, PaDutyCycle: 0x01, DeviceSel: 0x00, PaLut: 0x01}}, // 18 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x05, PaDutyCycle: 0x02, DeviceSel: 0x00, PaLut: 0x01}}, // 19 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x06, PaDutyCycle: 0x03, DeviceSel: 0x00, PaLut: 0x01}}, // 20 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x06, PaDutyCycle: 0x04, DeviceSel: 0x00, PaLut: 0x01}}, // 21 dBm
	{Power: 22, PA: PAConfig{HpMax: 0x07, PaDutyCycle: 0x04, DeviceSel: 0x00, PaLut: 0x01}}, // 22 dBm
}

// SupportsFrequency reports whether hz lies inside the shield's RF band.
func SupportsFrequency(hz uint32) bool {
	return FreqMin <= hz && hz <= FreqMax
}

// SupportsPower reports whether dbm can be resolved exactly from the table.
func SupportsPower(dbm int8) bool {
	return MinPower <= dbm && dbm <= MaxPower
}

// ResolveTxPower returns the PA configuration for the requested output power
// at the given frequency. Inside the supported band and power range this is a
// direct table lookup. Out-of-range requests never fail: they resolve to the
// 6 dBm entry, a safe default for this shield.
func ResolveTxPower(freqHz uint32, dbm int8) TxPowerEntry {
	if SupportsFrequency(freqHz) && SupportsPower(dbm) {
		return paTable[int(dbm)-int(MinPower)]
	}

	globalLogger.Warn("tx power request out of range, using 6dBm default")
	return paTable[int(defaultPower)-int(MinPower)]
}
