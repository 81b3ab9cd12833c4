package target

import "fmt"

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple   string // e.g. "x86_64-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:   "x86_64-linux-gnu",
		PtrSize:  8,
		PtrAlign: 8,
	}
}

func AArch64LinuxGNU() Target {
	return Target{
		Triple:   "aarch64-linux-gnu",
		PtrSize:  8,
		PtrAlign: 8,
	}
}

// ARMLinuxGNUEABI is the 32-bit target; pointers are 4 bytes.
func ARMLinuxGNUEABI() Target {
	return Target{
		Triple:   "arm-linux-gnueabi",
		PtrSize:  4,
		PtrAlign: 4,
	}
}

// Validate reports configurations the IR core cannot represent.
func (t Target) Validate() error {
	switch t.PtrSize {
	case 4, 8:
	default:
		return fmt.Errorf("target %q: unsupported pointer size %d (expected 4 or 8)", t.Triple, t.PtrSize)
	}
	if t.PtrAlign <= 0 || t.PtrAlign > t.PtrSize {
		return fmt.Errorf("target %q: invalid pointer alignment %d", t.Triple, t.PtrAlign)
	}
	return nil
}

// Known returns the built-in target for a triple.
func Known(triple string) (Target, bool) {
	switch triple {
	case "x86_64-linux-gnu":
		return X86_64LinuxGNU(), true
	case "aarch64-linux-gnu":
		return AArch64LinuxGNU(), true
	case "arm-linux-gnueabi":
		return ARMLinuxGNUEABI(), true
	default:
		return Target{}, false
	}
}
