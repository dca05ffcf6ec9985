package sx1262

import (
	"bytes"
	"context"
	"testing"
)

// --- Mocks ---

type mockPin struct {
	mode     string
	level    Level
	pull     Pull
	watching bool
}

func (m *mockPin) Out(l Level) error {
	m.mode = "output"
	m.level = l
	return nil
}

func (m *mockPin) In(pull Pull) error {
	m.mode = "input"
	m.pull = pull
	return nil
}

func (m *mockPin) Read() Level { return m.level }

func (m *mockPin) Watch(edge Edge, handler func()) error {
	m.watching = true
	return nil
}

func (m *mockPin) Unwatch() error {
	m.watching = false
	return nil
}

type mockSPIConn struct {
	tx      []byte
	rxQueue [][]byte // Queue of responses to return for subsequent Tx calls
}

func (m *mockSPIConn) Tx(w, r []byte) error {
	m.tx = append(m.tx, w...)

	if len(m.rxQueue) > 0 {
		// Pop the next response
		nextRx := m.rxQueue[0]
		m.rxQueue = m.rxQueue[1:]

		// Copy min(len(r), len(nextRx))
		n := len(r)
		if len(nextRx) < n {
			n = len(nextRx)
		}
		copy(r, nextRx[:n])
	}
	return nil
}

func (m *mockSPIConn) queueRx(data []byte) {
	m.rxQueue = append(m.rxQueue, data)
}

// queueInitRx queues the responses NewWithHardware consumes:
// SetStandby, SetRegulatorMode, SetDIO2AsRfSwitchCtrl and the OCP register
// write get dummies, then the OCP readback returns the expected 0x38.
func (m *mockSPIConn) queueInitRx() {
	for i := 0; i < 4; i++ {
		m.queueRx([]byte{0})
	}
	m.queueRx([]byte{0x00, 0x00, 0x00, 0x00, 0x38})
}

func newTestRadio(t *testing.T, cfg BoardConfig) (*Radio, *mockSPIConn, *mockPin) {
	t.Helper()

	mockSPI := &mockSPIConn{}
	mockSPI.queueInitRx()
	mockRst := &mockPin{}

	radio, err := NewWithHardware(HardwareConfig{
		BoardConfig: cfg,
		Reset:       mockRst,
		Busy:        &mockPin{}, // reads Low: chip always ready
	}, mockSPI)
	if err != nil {
		t.Fatalf("NewWithHardware failed: %v", err)
	}
	return radio, mockSPI, mockRst
}

// --- Tests ---

func TestInitialization(t *testing.T) {
	SetLogger(&nopLogger{}) // Silence logs

	_, mockSPI, mockRst := newTestRadio(t, BoardConfig{})

	// Verify RESET was pulsed and released High
	if mockRst.mode != "output" {
		t.Errorf("Expected RESET pin to be output, got %s", mockRst.mode)
	}
	if mockRst.level != High {
		t.Errorf("Expected RESET to be released High after init, got %v", mockRst.level)
	}

	// Verify SPI commands
	// Standby in RC mode right after reset.
	if !bytes.Contains(mockSPI.tx, []byte{_SET_STANDBY, 0x00}) {
		t.Errorf("Expected SetStandby(RC), TX trace: %X", mockSPI.tx)
	}

	// The board runs the DC-DC regulator.
	if !bytes.Contains(mockSPI.tx, []byte{_SET_REGULATOR_MODE, 0x01}) {
		t.Errorf("Expected SetRegulatorMode(DC-DC), TX trace: %X", mockSPI.tx)
	}

	// DIO2 drives the TX switch by default.
	if !bytes.Contains(mockSPI.tx, []byte{_SET_DIO2_RF_SWITCH, 0x01}) {
		t.Errorf("Expected SetDIO2AsRfSwitchCtrl(1), TX trace: %X", mockSPI.tx)
	}

	// OCP register write: 0x0D, addr 0x08E7, value 0x38.
	if !bytes.Contains(mockSPI.tx, []byte{_WRITE_REGISTER, 0x08, 0xE7, 0x38}) {
		t.Errorf("Expected OCP register write, TX trace: %X", mockSPI.tx)
	}

	// No TCXO on this shield: DIO3 must stay untouched.
	if bytes.Contains(mockSPI.tx, []byte{_SET_DIO3_TCXO_CTRL}) {
		t.Errorf("Unexpected SetDIO3AsTcxoCtrl, TX trace: %X", mockSPI.tx)
	}
}

func TestInitializationDIO2Disabled(t *testing.T) {
	SetLogger(&nopLogger{})

	_, mockSPI, _ := newTestRadio(t, BoardConfig{DisableDIO2TxSwitch: true})

	if bytes.Contains(mockSPI.tx, []byte{_SET_DIO2_RF_SWITCH, 0x01}) {
		t.Errorf("Expected no SetDIO2AsRfSwitchCtrl with the switch disabled, TX trace: %X", mockSPI.tx)
	}
}

func TestInitializationVerifyFailure(t *testing.T) {
	SetLogger(&nopLogger{})

	mockSPI := &mockSPIConn{}
	// OCP readback returns garbage instead of 0x38.
	for i := 0; i < 4; i++ {
		mockSPI.queueRx([]byte{0})
	}
	mockSPI.queueRx([]byte{0x00, 0x00, 0x00, 0x00, 0xFF})

	_, err := NewWithHardware(HardwareConfig{
		Reset: &mockPin{},
		Busy:  &mockPin{},
	}, mockSPI)
	if err == nil {
		t.Fatal("Expected verification error, got nil")
	}
}

func TestInitializationMissingPins(t *testing.T) {
	SetLogger(&nopLogger{})

	if _, err := NewWithHardware(HardwareConfig{Busy: &mockPin{}}, &mockSPIConn{}); err == nil {
		t.Error("Expected error without RESET pin")
	}
	if _, err := NewWithHardware(HardwareConfig{Reset: &mockPin{}}, &mockSPIConn{}); err == nil {
		t.Error("Expected error without BUSY pin")
	}
	if _, err := NewWithHardware(HardwareConfig{Reset: &mockPin{}, Busy: &mockPin{}}, nil); err == nil {
		t.Error("Expected error without SPI connection")
	}
}

func TestApplyTxConfig(t *testing.T) {
	SetLogger(&nopLogger{})

	radio, mockSPI, _ := newTestRadio(t, BoardConfig{})
	mockSPI.tx = nil

	tc, err := radio.ApplyTxConfig(434000000, 5)
	if err != nil {
		t.Fatalf("ApplyTxConfig failed: %v", err)
	}

	if tc.ExpectedDbm != 5 || tc.ConfiguredDbm != 16 {
		t.Errorf("ApplyTxConfig returned %+v, want expected 5 / configured 16", tc)
	}

	// SetPaConfig(paDutyCycle, hpMax, deviceSel, paLut) for the 5dBm entry.
	if !bytes.Contains(mockSPI.tx, []byte{_SET_PA_CONFIG, 0x00, 0x02, 0x00, 0x01}) {
		t.Errorf("Expected SetPaConfig for 5dBm, TX trace: %X", mockSPI.tx)
	}

	// SetTxParams(power, rampTime): 16dBm, 40µs ramp.
	if !bytes.Contains(mockSPI.tx, []byte{_SET_TX_PARAMS, 16, 0x02}) {
		t.Errorf("Expected SetTxParams(16, 40µs), TX trace: %X", mockSPI.tx)
	}
}

func TestApplyTxConfigFallback(t *testing.T) {
	SetLogger(&nopLogger{})

	radio, mockSPI, _ := newTestRadio(t, BoardConfig{})
	mockSPI.tx = nil

	// Out-of-band frequency degrades to the 6dBm entry on the wire too.
	tc, err := radio.ApplyTxConfig(1000000000, 14)
	if err != nil {
		t.Fatalf("ApplyTxConfig failed: %v", err)
	}

	if tc.ConfiguredDbm != 22 {
		t.Errorf("ConfiguredDbm = %d, want 22", tc.ConfiguredDbm)
	}
	if !bytes.Contains(mockSPI.tx, []byte{_SET_PA_CONFIG, 0x00, 0x01, 0x00, 0x01}) {
		t.Errorf("Expected SetPaConfig for the 6dBm default, TX trace: %X", mockSPI.tx)
	}
	if !bytes.Contains(mockSPI.tx, []byte{_SET_TX_PARAMS, 22, 0x02}) {
		t.Errorf("Expected SetTxParams(22, 40µs), TX trace: %X", mockSPI.tx)
	}
}

func TestClose(t *testing.T) {
	SetLogger(&nopLogger{})

	radio, mockSPI, _ := newTestRadio(t, BoardConfig{})
	mockSPI.tx = nil

	if err := radio.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !bytes.Contains(mockSPI.tx, []byte{_SET_SLEEP, 0x00}) {
		t.Errorf("Expected SetSleep on close, TX trace: %X", mockSPI.tx)
	}
}

func TestStatus(t *testing.T) {
	SetLogger(&nopLogger{})

	radio, mockSPI, _ := newTestRadio(t, BoardConfig{})
	mockSPI.tx = nil
	mockSPI.rxQueue = nil

	// GetStatus: [0xC0, NOP] -> [rfu, status]
	mockSPI.queueRx([]byte{0x00, 0x22})

	status, err := radio.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != 0x22 {
		t.Errorf("Status() = 0x%02X, want 0x22", status)
	}
	if !bytes.Contains(mockSPI.tx, []byte{_GET_STATUS}) {
		t.Errorf("Expected GetStatus command, TX trace: %X", mockSPI.tx)
	}
}

func TestWaitForInterrupt(t *testing.T) {
	SetLogger(&nopLogger{})

	// Without DIO1 configured the call must fail.
	radio, _, _ := newTestRadio(t, BoardConfig{})
	if err := radio.WaitForInterrupt(context.Background()); err == nil {
		t.Error("Expected error without DIO1 pin")
	}

	// With DIO1 already high it returns immediately.
	mockSPI := &mockSPIConn{}
	mockSPI.queueInitRx()
	dio1 := &mockPin{level: High}
	radio2, err := NewWithHardware(HardwareConfig{
		Reset: &mockPin{},
		Busy:  &mockPin{},
		Dio1:  dio1,
	}, mockSPI)
	if err != nil {
		t.Fatalf("NewWithHardware failed: %v", err)
	}
	if !dio1.watching {
		t.Error("Expected DIO1 to be watched after init")
	}
	if err := radio2.WaitForInterrupt(context.Background()); err != nil {
		t.Errorf("WaitForInterrupt with DIO1 high: %v", err)
	}
}

func TestWaitReady(t *testing.T) {
	SetLogger(&nopLogger{})

	radio, _, _ := newTestRadio(t, BoardConfig{})

	// Busy mock reads Low, so the radio is immediately ready.
	if err := radio.WaitReady(context.Background()); err != nil {
		t.Errorf("WaitReady: %v", err)
	}

	// A cancelled context aborts the wait when the chip stays busy.
	radio.config.Busy.(*mockPin).level = High
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := radio.WaitReady(ctx); err == nil {
		t.Error("Expected context error while busy")
	}
}
