package latency

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TimingConfig holds latency values for the MIPS32 operation classes and
// for the memory side of the platform. Values describe a simple in-order
// embedded core.
type TimingConfig struct {
	// ALULatency is the execution latency for ALU, shift and compare
	// operations. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency" yaml:"alu_latency"`

	// BranchLatency is the execution latency of branches and jumps.
	// Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency" yaml:"branch_latency"`

	// LoadLatency is the issue latency of a load. The access itself is
	// timed by the bus. Default: 1 cycle.
	LoadLatency uint64 `json:"load_latency" yaml:"load_latency"`

	// StoreLatency is the issue latency of a store. Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency" yaml:"store_latency"`

	// MultiplyLatency is the latency of MULT, MULTU and MUL.
	// Default: 3 cycles.
	MultiplyLatency uint64 `json:"multiply_latency" yaml:"multiply_latency"`

	// DivideLatency is the latency of DIV and DIVU. Default: 17 cycles.
	DivideLatency uint64 `json:"divide_latency" yaml:"divide_latency"`

	// SyscallLatency is the latency of SYSCALL and BREAK.
	// Default: 1 cycle (handling is in the exception vector).
	SyscallLatency uint64 `json:"syscall_latency" yaml:"syscall_latency"`

	// CP0Latency is the latency of MFC0, MTC0, ERET and RDHWR.
	// Default: 1 cycle.
	CP0Latency uint64 `json:"cp0_latency" yaml:"cp0_latency"`

	// CacheHitLatency is the L1 cache hit latency seen by a bus port.
	// Default: 1 cycle.
	CacheHitLatency uint64 `json:"cache_hit_latency" yaml:"cache_hit_latency"`

	// MemoryLatency is the RAM access latency on a cache miss or on an
	// uncached access. Default: 20 cycles.
	MemoryLatency uint64 `json:"memory_latency" yaml:"memory_latency"`

	// DeviceLatency is the access latency of memory-mapped devices.
	// Default: 4 cycles.
	DeviceLatency uint64 `json:"device_latency" yaml:"device_latency"`
}

// DefaultTimingConfig returns a TimingConfig with default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:      1,
		BranchLatency:   1,
		LoadLatency:     1,
		StoreLatency:    1,
		MultiplyLatency: 3,
		DivideLatency:   17,
		SyscallLatency:  1,
		CP0Latency:      1,
		CacheHitLatency: 1,
		MemoryLatency:   20,
		DeviceLatency:   4,
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads a TimingConfig from a JSON or YAML file, chosen by the
// file extension. Fields missing from the file keep their defaults.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON or YAML file.
func (c *TimingConfig) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.DivideLatency == 0 {
		return fmt.Errorf("divide_latency must be > 0")
	}
	if c.SyscallLatency == 0 {
		return fmt.Errorf("syscall_latency must be > 0")
	}
	if c.CP0Latency == 0 {
		return fmt.Errorf("cp0_latency must be > 0")
	}
	if c.CacheHitLatency > c.MemoryLatency {
		return fmt.Errorf("cache_hit_latency must be <= memory_latency")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
