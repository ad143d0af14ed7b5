package selector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theriverman/megaboom/internal/config"
	"github.com/theriverman/megaboom/internal/scan"
)

func staticScan(records ...scan.DeviceRecord) ScanFunc {
	return func(string) ([]scan.DeviceRecord, error) {
		return records, nil
	}
}

func failScan(t *testing.T) ScanFunc {
	return func(string) ([]scan.DeviceRecord, error) {
		t.Fatal("scan should not have been invoked")
		return nil, nil
	}
}

func TestExplicitIDTakesPrecedence(t *testing.T) {
	cfg := config.New()
	cfg.Remember("livingroom", "DEFAULT-ID", "", true)

	id, err := Resolve("EXPLICIT-ID", "MEGABOOM", cfg, failScan(t))
	require.NoError(t, err)
	assert.Equal(t, "EXPLICIT-ID", id)
}

func TestNameResolvesSingleMatch(t *testing.T) {
	records := []scan.DeviceRecord{
		{ID: "AAA", Name: "UE MEGABOOM"},
		{ID: "BBB", Name: "Kitchen TV"},
	}
	id, err := Resolve("", "megaboom", config.New(), staticScan(records...))
	require.NoError(t, err)
	assert.Equal(t, "AAA", id)
}

func TestNameZeroMatches(t *testing.T) {
	_, err := Resolve("", "MEGABOOM", config.New(), staticScan())
	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, "MEGABOOM", noMatch.Name)
	assert.True(t, IsSelectionError(err))
}

func TestNameAmbiguousMatches(t *testing.T) {
	records := []scan.DeviceRecord{
		{ID: "AAA", Name: "UE MEGABOOM"},
		{ID: "BBB", Name: "MEGABOOM 3"},
	}
	_, err := Resolve("", "megaboom", config.New(), staticScan(records...))
	var ambiguous *AmbiguousMatchError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Matches, 2)
	assert.True(t, IsSelectionError(err))
}

func TestUnnamedNeverSelectedByName(t *testing.T) {
	records := []scan.DeviceRecord{
		{ID: "AAA", Name: scan.UnnamedSentinel, ManufacturerIDs: []uint16{71}},
	}
	_, err := Resolve("", "MEGABOOM", config.New(), staticScan(records...))
	var noMatch *NoMatchError
	assert.ErrorAs(t, err, &noMatch)
}

func TestDefaultDeviceUsed(t *testing.T) {
	cfg := config.New()
	cfg.Remember("livingroom", "AAA", "", true)

	id, err := Resolve("", "", cfg, failScan(t))
	require.NoError(t, err)
	assert.Equal(t, "AAA", id)
}

func TestNoDefaultConfigured(t *testing.T) {
	_, err := Resolve("", "", config.New(), failScan(t))
	assert.ErrorIs(t, err, ErrNoDefault)
	assert.True(t, IsSelectionError(err))
}

func TestDanglingDefaultReported(t *testing.T) {
	cfg := config.New()
	cfg.DefaultDevice = "ghost"

	_, err := Resolve("", "", cfg, failScan(t))
	var dangling *DanglingDefaultError
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, "ghost", dangling.Label)
	assert.True(t, IsSelectionError(err))
}

func TestDefaultEntryNameHintFallback(t *testing.T) {
	cfg := config.New()
	cfg.Devices["boom"] = &config.DeviceEntry{NameHint: "MEGABOOM"}
	cfg.DefaultDevice = "boom"

	records := []scan.DeviceRecord{{ID: "CCC", Name: "UE MEGABOOM"}}
	id, err := Resolve("", "", cfg, staticScan(records...))
	require.NoError(t, err)
	assert.Equal(t, "CCC", id)
}

func TestScanErrorPropagates(t *testing.T) {
	scanErr := errors.New("radio on fire")
	_, err := Resolve("", "MEGABOOM", config.New(), func(string) ([]scan.DeviceRecord, error) {
		return nil, scanErr
	})
	assert.ErrorIs(t, err, scanErr)
	assert.False(t, IsSelectionError(err))
}
