package main

import (
	"fmt"
	"os"
	"strings"

	"maple/internal/target"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI decides on the progress UI. It draws on stderr, so the
// module printed on stdout can still be piped.
func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stderr)
	}
}

func resolveTarget(triple string) (target.Target, error) {
	t, ok := target.Known(strings.TrimSpace(triple))
	if !ok {
		return target.Target{}, fmt.Errorf("unknown target %q (set ptr-size in a config file for custom targets)", triple)
	}
	return t, nil
}
