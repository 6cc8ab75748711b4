package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const gb = 1 << 30

// Requirements are the minimums for recording a session without dropped
// frames.
type Requirements struct {
	CPUs       int
	MemoryGB   float64
	FreeDiskGB float64
}

var DefaultRequirements = Requirements{CPUs: 2, MemoryGB: 8, FreeDiskGB: 5}

// Host is what the machine has.
type Host struct {
	CPUs       int
	MemoryGB   float64
	FreeDiskGB float64
}

// Probe measures the machine; dir is the data directory whose volume is
// checked for free space.
func Probe(dir string) (Host, error) {
	var h Host

	n, err := cpu.Counts(true)
	if err != nil {
		return h, fmt.Errorf("cpu count: %w", err)
	}
	h.CPUs = n

	vm, err := mem.VirtualMemory()
	if err != nil {
		return h, fmt.Errorf("memory: %w", err)
	}
	h.MemoryGB = float64(vm.Total) / gb

	du, err := disk.Usage(dir)
	if err != nil {
		return h, fmt.Errorf("disk usage of %s: %w", dir, err)
	}
	h.FreeDiskGB = float64(du.Free) / gb
	return h, nil
}

// Check lists every requirement the host misses.
func (r Requirements) Check(h Host) []string {
	var warnings []string
	if h.CPUs < r.CPUs {
		warnings = append(warnings, fmt.Sprintf("%d logical CPUs, %d recommended", h.CPUs, r.CPUs))
	}
	if h.MemoryGB < r.MemoryGB {
		warnings = append(warnings, fmt.Sprintf("%.1f GB RAM, %.0f GB recommended", h.MemoryGB, r.MemoryGB))
	}
	if h.FreeDiskGB < r.FreeDiskGB {
		warnings = append(warnings, fmt.Sprintf("%.1f GB free disk, %.0f GB recommended", h.FreeDiskGB, r.FreeDiskGB))
	}
	return warnings
}

// Preflight probes the host and returns the warnings to show the RA.
func Preflight(dir string, r Requirements) ([]string, Host, error) {
	h, err := Probe(dir)
	if err != nil {
		return nil, h, err
	}
	return r.Check(h), h, nil
}
