// Package hostmac best-effort detects the MAC of the local Bluetooth
// adapter. The speaker's power payload embeds the MAC of a host it has
// been paired with, so the CLI needs one even when the user doesn't pass
// --my-mac.
package hostmac

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/theriverman/megaboom/internal/logging"
)

var macRE = regexp.MustCompile(`(?i)\b([0-9a-f]{2}(?::[0-9a-f]{2}){5})\b`)

// Detect returns the local adapter MAC, or "" when it cannot be
// determined. An explicit --my-mac flag always takes precedence over this.
var Detect = detect

func detect() string {
	switch runtime.GOOS {
	case "darwin":
		return detectDarwin()
	case "linux":
		return detectLinux()
	default:
		return ""
	}
}

func detectDarwin() string {
	out, err := exec.Command("system_profiler", "SPBluetoothDataType").Output()
	if err != nil {
		logging.Debug("system_profiler failed", zap.Error(err))
		return ""
	}
	return ParseProfilerOutput(string(out))
}

// ParseProfilerOutput extracts the controller MAC from system_profiler
// output, preferring lines that name the controller or an address field
// over incidental MACs of paired peripherals.
func ParseProfilerOutput(out string) string {
	var preferred, any []string
	for _, line := range strings.Split(out, "\n") {
		m := macRE.FindString(line)
		if m == "" {
			continue
		}
		mac := strings.ToUpper(m)
		any = append(any, mac)
		lower := strings.ToLower(line)
		if strings.Contains(lower, "bluetooth controller") || strings.Contains(lower, "address") {
			preferred = append(preferred, mac)
		}
	}
	if len(preferred) > 0 {
		return preferred[0]
	}
	if len(any) > 0 {
		return any[0]
	}
	return ""
}

func detectLinux() string {
	paths, err := filepath.Glob("/sys/class/bluetooth/*/address")
	if err != nil || len(paths) == 0 {
		return ""
	}
	data, err := os.ReadFile(paths[0])
	if err != nil {
		logging.Debug("failed to read adapter address", zap.String("path", paths[0]), zap.Error(err))
		return ""
	}
	mac := strings.ToUpper(strings.TrimSpace(string(data)))
	if macRE.FindString(mac) == "" {
		return ""
	}
	return mac
}
