// Package selector resolves which device a power operation targets.
// Precedence, highest first: an explicit identifier flag, a name substring
// match against a fresh scan, then the configured default device.
package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theriverman/megaboom/internal/config"
	"github.com/theriverman/megaboom/internal/scan"
)

// ErrNoDefault indicates no explicit target was given and the config has
// no default device.
var ErrNoDefault = errors.New("no default device configured; provide --ble-id or --name, or set a default via 'scan --remember'")

// NoMatchError indicates a name substring matched no named advertiser.
type NoMatchError struct {
	Name string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no advertiser with name containing %q found", e.Name)
}

// AmbiguousMatchError indicates a name substring matched more than one
// advertiser. Resolution is deterministic, so ambiguity is an error rather
// than a guess.
type AmbiguousMatchError struct {
	Name    string
	Matches []scan.DeviceRecord
}

func (e *AmbiguousMatchError) Error() string {
	ids := make([]string, len(e.Matches))
	for i, m := range e.Matches {
		ids[i] = fmt.Sprintf("%s (%s)", m.ID, m.Name)
	}
	return fmt.Sprintf("name %q matches %d advertisers: %s", e.Name, len(e.Matches), strings.Join(ids, ", "))
}

// DanglingDefaultError indicates default_device names a label missing from
// the devices map.
type DanglingDefaultError struct {
	Label string
}

func (e *DanglingDefaultError) Error() string {
	return fmt.Sprintf("default device %q is not present in the config file", e.Label)
}

// IsSelectionError reports whether err belongs to the selection failure
// family.
func IsSelectionError(err error) bool {
	var noMatch *NoMatchError
	var ambiguous *AmbiguousMatchError
	var dangling *DanglingDefaultError
	return errors.Is(err, ErrNoDefault) ||
		errors.As(err, &noMatch) ||
		errors.As(err, &ambiguous) ||
		errors.As(err, &dangling)
}

// ScanFunc performs a fresh scan filtered by a name substring. It is only
// invoked when name-based resolution is actually needed.
type ScanFunc func(nameFilter string) ([]scan.DeviceRecord, error)

// Resolve returns exactly one device identifier or an error from the
// selection family. scanFn must be non-nil when name resolution can occur.
func Resolve(explicitID, nameSubstring string, cfg *config.Config, scanFn ScanFunc) (string, error) {
	if explicitID != "" {
		return explicitID, nil
	}
	if nameSubstring != "" {
		return resolveByName(nameSubstring, scanFn)
	}

	label, entry := cfg.DefaultEntry()
	if label == "" {
		return "", ErrNoDefault
	}
	if entry == nil {
		return "", &DanglingDefaultError{Label: label}
	}
	if entry.BLEID != "" {
		return entry.BLEID, nil
	}
	if entry.NameHint != "" {
		return resolveByName(entry.NameHint, scanFn)
	}
	return "", &DanglingDefaultError{Label: label}
}

func resolveByName(substring string, scanFn ScanFunc) (string, error) {
	records, err := scanFn(substring)
	if err != nil {
		return "", err
	}
	matches := make([]scan.DeviceRecord, 0, len(records))
	for _, r := range records {
		// Unnamed advertisers pass the scan filter for display purposes
		// but can never be selected by name.
		if r.Named() && r.MatchesName(substring) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return "", &NoMatchError{Name: substring}
	case 1:
		return matches[0].ID, nil
	default:
		return "", &AmbiguousMatchError{Name: substring, Matches: matches}
	}
}
