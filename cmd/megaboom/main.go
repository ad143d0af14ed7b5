package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/theriverman/megaboom/internal/cli"
	"github.com/theriverman/megaboom/internal/config"
	"github.com/theriverman/megaboom/internal/hostmac"
	"github.com/theriverman/megaboom/internal/logging"
	"github.com/theriverman/megaboom/internal/power"
	"github.com/theriverman/megaboom/internal/scan"
	"github.com/theriverman/megaboom/internal/selector"
)

func main() {
	var root cli.CLI
	ctx := kong.Parse(&root,
		kong.Name("megaboom"),
		kong.Description("Toggle power on a UE MEGABOOM speaker over BLE."),
		kong.UsageOnError(),
	)

	if root.Verbose {
		_ = logging.Initialize("debug")
	} else {
		_ = logging.Initialize("")
	}
	defer logging.Sync()

	cfgPath, err := config.Path()
	if err != nil {
		fmt.Fprintf(os.Stderr, "megaboom: %v\n", err)
		os.Exit(1)
	}

	rt := &cli.Runtime{
		Scanner:    scan.NewBLEScanner(),
		Actuator:   power.NewBLEActuator(),
		ConfigPath: cfgPath,
		DetectMAC:  hostmac.Detect,
		Stdout:     os.Stdout,
	}

	if err := ctx.Run(rt); err != nil {
		fmt.Fprintf(os.Stderr, "megaboom: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps component error kinds to distinct exit statuses.
func exitCode(err error) int {
	var cfgErr *config.ConfigError
	var connErr *power.ConnectError
	var writeErr *power.WriteError
	switch {
	case errors.As(err, &cfgErr):
		return 2
	case errors.Is(err, scan.ErrBluetoothUnavailable):
		return 3
	case selector.IsSelectionError(err):
		return 4
	case errors.As(err, &connErr):
		return 5
	case errors.As(err, &writeErr):
		return 6
	}
	return 1
}
