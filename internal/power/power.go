// Package power drives the speaker's vendor power characteristic over a
// single GATT connection: scan for the address, connect, write, disconnect.
package power

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/theriverman/megaboom/internal/logging"
	"github.com/theriverman/megaboom/internal/scan"
)

// PowerCharacteristicUUID is the vendor characteristic that toggles the
// speaker. The payload is the local adapter MAC followed by a command byte.
const PowerCharacteristicUUID = "c6d6dc0d-07f5-47ef-9b59-630622b01fd3"

// Vendor command bytes.
const (
	cmdOn  byte = 1
	cmdOff byte = 2
)

// ConnectError indicates the device could not be reached within the scan
// window or the connection attempt failed.
type ConnectError struct {
	ID  string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.ID, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// WriteError indicates the characteristic write was rejected. The device's
// power state is unknown after this.
type WriteError struct {
	ID  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("power write to %s failed: %v", e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ParseMAC converts a MAC in any common separator style to its 6 raw bytes.
func ParseMAC(mac string) ([]byte, error) {
	cleaned := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(mac))
	if len(cleaned) != 12 {
		return nil, fmt.Errorf("bad MAC format: %q", mac)
	}
	b, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("bad MAC format: %q", mac)
	}
	return b, nil
}

// Payload builds the vendor write payload: the paired host's MAC bytes
// followed by the command byte.
func Payload(localMAC string, on bool) ([]byte, error) {
	macBytes, err := ParseMAC(localMAC)
	if err != nil {
		return nil, err
	}
	cmd := cmdOff
	if on {
		cmd = cmdOn
	}
	return append(macBytes, cmd), nil
}

// Actuator sends a power command to a device by identifier.
type Actuator interface {
	SetPower(bleID string, on bool, localMAC string, timeout time.Duration) error
}

// BLEActuator actuates over the default platform adapter.
type BLEActuator struct {
	adapter *bluetooth.Adapter
}

// NewBLEActuator returns an actuator backed by the default adapter.
func NewBLEActuator() *BLEActuator {
	return &BLEActuator{adapter: bluetooth.DefaultAdapter}
}

// SetPower connects to the device with the given identifier and writes the
// power command. Single attempt, no retry; the connection is torn down on
// every exit path.
func (a *BLEActuator) SetPower(bleID string, on bool, localMAC string, timeout time.Duration) error {
	payload, err := Payload(localMAC, on)
	if err != nil {
		return err
	}

	if err := a.adapter.Enable(); err != nil {
		return fmt.Errorf("%w: %v", scan.ErrBluetoothUnavailable, err)
	}

	addr, err := a.findAddress(bleID, timeout)
	if err != nil {
		return err
	}

	logging.Debug("connecting", zap.String("ble_id", bleID))
	device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return &ConnectError{ID: bleID, Err: err}
	}
	defer device.Disconnect()

	char, err := findPowerCharacteristic(device)
	if err != nil {
		return &WriteError{ID: bleID, Err: err}
	}

	logging.Debug("writing power command",
		zap.Bool("on", on),
		zap.Int("payload_len", len(payload)))
	if _, err := char.WriteWithoutResponse(payload); err != nil {
		return &WriteError{ID: bleID, Err: err}
	}
	return nil
}

// findAddress scans until the advertiser with the given identifier is seen
// so the platform can connect using its own address representation.
func (a *BLEActuator) findAddress(bleID string, timeout time.Duration) (bluetooth.Address, error) {
	type found struct {
		addr bluetooth.Address
	}
	foundCh := make(chan found, 1)
	errCh := make(chan error, 1)

	go func() {
		errCh <- a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if strings.EqualFold(result.Address.String(), bleID) {
				select {
				case foundCh <- found{addr: result.Address}:
				default:
				}
				adapter.StopScan()
			}
		})
	}()

	select {
	case f := <-foundCh:
		<-errCh
		return f.addr, nil
	case err := <-errCh:
		if err != nil {
			return bluetooth.Address{}, &ConnectError{ID: bleID, Err: err}
		}
		// Scan stopped without a sighting.
		select {
		case f := <-foundCh:
			return f.addr, nil
		default:
			return bluetooth.Address{}, &ConnectError{ID: bleID, Err: errors.New("device not seen in scan window")}
		}
	case <-time.After(timeout):
		a.adapter.StopScan()
		<-errCh
		// The callback may have fired just before the stop.
		select {
		case f := <-foundCh:
			return f.addr, nil
		default:
			return bluetooth.Address{}, &ConnectError{ID: bleID, Err: errors.New("device not seen in scan window")}
		}
	}
}

func findPowerCharacteristic(device bluetooth.Device) (*bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to discover services: %w", err)
	}
	for i := range services {
		chars, err := services[i].DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to discover characteristics: %w", err)
		}
		for j := range chars {
			if strings.EqualFold(chars[j].UUID().String(), PowerCharacteristicUUID) {
				return &chars[j], nil
			}
		}
	}
	return nil, fmt.Errorf("power characteristic %s not found", PowerCharacteristicUUID)
}
