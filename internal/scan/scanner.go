// Package scan listens for BLE advertisements for a bounded duration and
// normalizes the platform library's varied advertisement shapes into a
// fixed DeviceRecord.
package scan

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/theriverman/megaboom/internal/logging"
)

// UnnamedSentinel is the display name for advertisers that broadcast no
// local name. Such devices are always included in filtered scans so
// operators can identify them by manufacturer id and RSSI.
const UnnamedSentinel = "<no name>"

// ErrBluetoothUnavailable indicates the adapter could not be initialized.
var ErrBluetoothUnavailable = errors.New("bluetooth adapter unavailable")

// DeviceRecord is one advertiser seen during a scan window.
type DeviceRecord struct {
	ID              string
	Name            string
	RSSI            int16
	ManufacturerIDs []uint16
}

// Named reports whether the advertiser broadcast a local name.
func (r DeviceRecord) Named() bool { return r.Name != UnnamedSentinel }

// MatchesName reports whether the record passes a case-insensitive name
// substring filter. Unnamed records always pass.
func (r DeviceRecord) MatchesName(substring string) bool {
	if substring == "" || !r.Named() {
		return true
	}
	return strings.Contains(strings.ToLower(r.Name), strings.ToLower(substring))
}

// NormalizeName maps an empty advertisement name to the sentinel.
func NormalizeName(localName string) string {
	if localName == "" {
		return UnnamedSentinel
	}
	return localName
}

// Filter returns the records that pass MatchesName, preserving order.
func Filter(records []DeviceRecord, substring string) []DeviceRecord {
	if substring == "" {
		return records
	}
	out := make([]DeviceRecord, 0, len(records))
	for _, r := range records {
		if r.MatchesName(substring) {
			out = append(out, r)
		}
	}
	return out
}

// Scanner produces advertiser records from a single bounded scan.
type Scanner interface {
	Scan(timeout time.Duration, nameFilter string) ([]DeviceRecord, error)
}

// BLEScanner scans using the default platform adapter.
type BLEScanner struct {
	adapter *bluetooth.Adapter
}

// NewBLEScanner returns a scanner backed by the default adapter.
func NewBLEScanner() *BLEScanner {
	return &BLEScanner{adapter: bluetooth.DefaultAdapter}
}

// Scan listens for advertisements until timeout elapses, deduplicating by
// identifier, then returns the records that pass the name filter. A single
// attempt; adapter failures surface as ErrBluetoothUnavailable.
func (s *BLEScanner) Scan(timeout time.Duration, nameFilter string) ([]DeviceRecord, error) {
	if err := s.adapter.Enable(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBluetoothUnavailable, err)
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]*DeviceRecord)
	)

	logging.Debug("starting advertisement scan",
		zap.Duration("timeout", timeout),
		zap.String("name_filter", nameFilter))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			id := result.Address.String()
			name := NormalizeName(result.LocalName())

			mu.Lock()
			defer mu.Unlock()
			rec, ok := seen[id]
			if !ok {
				rec = &DeviceRecord{ID: id, Name: name}
				seen[id] = rec
			}
			// Later packets may carry the name the first one lacked.
			if !rec.Named() && name != UnnamedSentinel {
				rec.Name = name
			}
			rec.RSSI = result.RSSI
			for _, m := range result.ManufacturerData() {
				if !containsUint16(rec.ManufacturerIDs, m.CompanyID) {
					rec.ManufacturerIDs = append(rec.ManufacturerIDs, m.CompanyID)
				}
			}
		})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
	case <-time.After(timeout):
		if err := s.adapter.StopScan(); err != nil {
			logging.Debug("failed to stop scan", zap.Error(err))
		}
		if err := <-errCh; err != nil {
			logging.Debug("scan returned error after stop", zap.Error(err))
		}
	}

	mu.Lock()
	records := make([]DeviceRecord, 0, len(seen))
	for _, rec := range seen {
		records = append(records, *rec)
	}
	mu.Unlock()

	// Strongest signal first so output is stable and the nearest device
	// tops the list.
	sort.Slice(records, func(i, j int) bool {
		if records[i].RSSI != records[j].RSSI {
			return records[i].RSSI > records[j].RSSI
		}
		return records[i].ID < records[j].ID
	})

	logging.Debug("scan complete", zap.Int("advertisers", len(records)))
	return Filter(records, nameFilter), nil
}

func containsUint16(s []uint16, v uint16) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
