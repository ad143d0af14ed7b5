// Package cli defines the megaboom command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/theriverman/megaboom/internal/config"
	"github.com/theriverman/megaboom/internal/power"
	"github.com/theriverman/megaboom/internal/scan"
	"github.com/theriverman/megaboom/internal/selector"
	"github.com/theriverman/megaboom/internal/tui"
	"github.com/theriverman/megaboom/internal/version"
)

// Runtime carries the wired components into command Run methods via
// kong.Bind, so tests can substitute fakes.
type Runtime struct {
	Scanner    scan.Scanner
	Actuator   power.Actuator
	ConfigPath string
	DetectMAC  func() string
	Stdout     io.Writer
}

// CLI is the root command structure for megaboom.
type CLI struct {
	Verbose bool `short:"v" help:"Enable verbose debug output"`

	Scan       ScanCmd       `cmd:"" help:"Scan BLE advertisements; optionally remember a device"`
	Power      PowerCmd      `cmd:"" help:"Send power on/off to the configured or named speaker"`
	PowerID    PowerIDCmd    `cmd:"" name:"power-id" help:"Send power on/off to a specific BLE id from scan output"`
	ConfigPath ConfigPathCmd `cmd:"" name:"config-path" help:"Print the config file path"`
	Version    VersionCmd    `cmd:"" help:"Print the build version"`
	Tui        TuiCmd        `cmd:"" help:"Interactively pick a speaker from a scan"`
}

// --- scan ---

type ScanCmd struct {
	Name       string        `help:"Substring of BLE device name to match (optional)"`
	Timeout    time.Duration `default:"8s" help:"Scan duration"`
	Remember   bool          `help:"Store the matched device in the config file (requires --name)"`
	RememberAs string        `name:"remember-as" help:"Label to store the device under (default: the name substring)"`
	SetDefault bool          `name:"set-default" help:"Make the remembered device the default"`
}

func (c *ScanCmd) Run(rt *Runtime) error {
	if c.Remember && c.Name == "" {
		return errors.New("--remember requires --name to select which device to store")
	}

	records, err := rt.Scanner.Scan(c.Timeout, c.Name)
	if err != nil {
		return err
	}

	fmt.Fprintln(rt.Stdout, "Discovered BLE devices:")
	for _, r := range records {
		line := fmt.Sprintf("- %s  id=%s  rssi=%d", r.Name, r.ID, r.RSSI)
		if len(r.ManufacturerIDs) > 0 {
			line += fmt.Sprintf("  mfg_ids=%v", r.ManufacturerIDs)
		}
		fmt.Fprintln(rt.Stdout, line)
	}

	if !c.Remember {
		return nil
	}
	return c.remember(rt, records)
}

// remember stores the strongest named match. Scanning is an identification
// aid, so unlike power resolution multiple matches are not an error here.
func (c *ScanCmd) remember(rt *Runtime, records []scan.DeviceRecord) error {
	var matches []scan.DeviceRecord
	for _, r := range records {
		if r.Named() && r.MatchesName(c.Name) {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return &selector.NoMatchError{Name: c.Name}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].RSSI > matches[j].RSSI })
	dev := matches[0]

	label := c.RememberAs
	if label == "" {
		label = c.Name
	}

	cfg, err := config.Load(rt.ConfigPath)
	if err != nil {
		return err
	}
	isDefault := cfg.Remember(label, dev.ID, c.Name, c.SetDefault)
	if err := config.Save(rt.ConfigPath, cfg); err != nil {
		return err
	}

	suffix := ""
	if isDefault {
		suffix = " and set as default"
	}
	fmt.Fprintf(rt.Stdout, "Saved ble_id=%s under %q in %s%s\n", dev.ID, label, rt.ConfigPath, suffix)
	return nil
}

// --- power ---

type PowerCmd struct {
	Action  string        `arg:"" enum:"on,off" help:"Power action"`
	BleID   string        `name:"ble-id" help:"BLE identifier to connect to (overrides --name and the default device)"`
	Name    string        `help:"Substring of BLE device name (optional if a default is configured)"`
	MyMac   string        `name:"my-mac" help:"Bluetooth MAC of a host already paired with the speaker (auto-detected if omitted)"`
	Timeout time.Duration `default:"8s" help:"Scan/connect timeout"`
}

func (c *PowerCmd) Run(rt *Runtime) error {
	cfg, err := config.Load(rt.ConfigPath)
	if err != nil {
		return err
	}

	scanFn := func(nameFilter string) ([]scan.DeviceRecord, error) {
		return rt.Scanner.Scan(c.Timeout, nameFilter)
	}
	bleID, err := selector.Resolve(c.BleID, c.Name, cfg, scanFn)
	if err != nil {
		return err
	}

	mac, err := localMAC(c.MyMac, rt.DetectMAC)
	if err != nil {
		return err
	}

	on := c.Action == "on"
	if err := rt.Actuator.SetPower(bleID, on, mac, c.Timeout); err != nil {
		return err
	}
	fmt.Fprintf(rt.Stdout, "Sent power %s to %s\n", c.Action, bleID)
	return nil
}

// --- power-id ---

type PowerIDCmd struct {
	BleID  string `arg:"" name:"ble-id" help:"BLE identifier to connect to, e.g. from scan output"`
	Action string `arg:"" enum:"on,off" help:"Power action"`

	MyMac      string        `name:"my-mac" help:"Bluetooth MAC of a host already paired with the speaker (auto-detected if omitted)"`
	Timeout    time.Duration `default:"8s" help:"Connect timeout"`
	Remember   bool          `help:"Store this BLE id in the config file"`
	RememberAs string        `name:"remember-as" help:"Label to store the device under (default: the BLE id)"`
	SetDefault bool          `name:"set-default" help:"Make the remembered device the default"`
}

func (c *PowerIDCmd) Run(rt *Runtime) error {
	mac, err := localMAC(c.MyMac, rt.DetectMAC)
	if err != nil {
		return err
	}

	on := c.Action == "on"
	if err := rt.Actuator.SetPower(c.BleID, on, mac, c.Timeout); err != nil {
		return err
	}
	fmt.Fprintf(rt.Stdout, "Sent power %s to %s\n", c.Action, c.BleID)

	if !c.Remember {
		return nil
	}
	label := c.RememberAs
	if label == "" {
		label = c.BleID
	}
	cfg, err := config.Load(rt.ConfigPath)
	if err != nil {
		return err
	}
	isDefault := cfg.Remember(label, c.BleID, "", c.SetDefault)
	if err := config.Save(rt.ConfigPath, cfg); err != nil {
		return err
	}
	suffix := ""
	if isDefault {
		suffix = " and set as default"
	}
	fmt.Fprintf(rt.Stdout, "Saved ble_id=%s under %q in %s%s\n", c.BleID, label, rt.ConfigPath, suffix)
	return nil
}

// --- config-path ---

type ConfigPathCmd struct{}

func (c *ConfigPathCmd) Run(rt *Runtime) error {
	fmt.Fprintln(rt.Stdout, rt.ConfigPath)
	return nil
}

// --- version ---

type VersionCmd struct{}

func (c *VersionCmd) Run(rt *Runtime) error {
	fmt.Fprintln(rt.Stdout, version.Full())
	return nil
}

// --- tui ---

type TuiCmd struct {
	Timeout time.Duration `default:"8s" help:"Scan duration"`
	MyMac   string        `name:"my-mac" help:"Bluetooth MAC of a host already paired with the speaker (auto-detected if omitted)"`
}

func (c *TuiCmd) Run(rt *Runtime) error {
	return tui.Run(tui.Deps{
		Scanner:    rt.Scanner,
		Actuator:   rt.Actuator,
		ConfigPath: rt.ConfigPath,
		LocalMAC: func() (string, error) {
			return localMAC(c.MyMac, rt.DetectMAC)
		},
		Timeout: c.Timeout,
	})
}

// localMAC applies the flag-over-detection precedence for the local
// adapter MAC.
func localMAC(explicit string, detect func() string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if detect != nil {
		if mac := detect(); mac != "" {
			return mac, nil
		}
	}
	return "", errors.New("could not determine local Bluetooth MAC; provide --my-mac 'AA:BB:CC:DD:EE:FF'")
}
