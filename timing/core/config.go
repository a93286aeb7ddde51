package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/mipsiss/timing/cache"
	"github.com/sarchlab/mipsiss/timing/latency"
)

// CacheGeometry describes one L1 cache. Its latencies come from the timing
// configuration. A zero Size removes the cache.
type CacheGeometry struct {
	Size          int `json:"size" yaml:"size"`
	Associativity int `json:"associativity" yaml:"associativity"`
	BlockSize     int `json:"block_size" yaml:"block_size"`
}

// Config describes the simulated platform.
type Config struct {
	// Ident is the processor number, visible in EBase.CPUNum.
	Ident uint32 `json:"ident" yaml:"ident"`
	// LittleEndian selects the byte order of the core.
	LittleEndian bool `json:"little_endian" yaml:"little_endian"`

	RAMBase uint32 `json:"ram_base" yaml:"ram_base"`
	RAMSize uint32 `json:"ram_size" yaml:"ram_size"`
	// The boot ROM window holds the reset vector. It is writable so that
	// programs can be loaded into it.
	ROMBase uint32 `json:"rom_base" yaml:"rom_base"`
	ROMSize uint32 `json:"rom_size" yaml:"rom_size"`

	SimHelperBase uint32 `json:"simhelper_base" yaml:"simhelper_base"`
	TimerBase     uint32 `json:"timer_base" yaml:"timer_base"`
	// TimerIRQ is the hardware interrupt line of the timer.
	TimerIRQ uint `json:"timer_irq" yaml:"timer_irq"`
	// TimerPeriod starts the timer at reset when non-zero; otherwise
	// software programs it.
	TimerPeriod uint32 `json:"timer_period" yaml:"timer_period"`

	ICache CacheGeometry `json:"icache" yaml:"icache"`
	DCache CacheGeometry `json:"dcache" yaml:"dcache"`

	// Quantum is the largest number of cycles handed to one Step.
	Quantum uint32 `json:"quantum" yaml:"quantum"`
	// MaxCycles bounds Run. Zero means unbounded.
	MaxCycles uint64 `json:"max_cycles" yaml:"max_cycles"`

	Timing *latency.TimingConfig `json:"timing" yaml:"timing"`
}

// DefaultConfig returns a little-endian platform with 64MB of RAM at 0, a
// 1MB boot ROM at the reset vector and 16KB L1 caches.
func DefaultConfig() *Config {
	l1i := cache.DefaultL1IConfig()
	l1d := cache.DefaultL1DConfig()

	return &Config{
		Ident:         0,
		LittleEndian:  true,
		RAMBase:       0x00000000,
		RAMSize:       64 << 20,
		ROMBase:       0x1fc00000,
		ROMSize:       1 << 20,
		SimHelperBase: 0x1f000000,
		TimerBase:     0x1f001000,
		TimerIRQ:      0,
		ICache: CacheGeometry{
			Size:          l1i.Size,
			Associativity: l1i.Associativity,
			BlockSize:     l1i.BlockSize,
		},
		DCache: CacheGeometry{
			Size:          l1d.Size,
			Associativity: l1d.Associativity,
			BlockSize:     l1d.BlockSize,
		},
		Quantum:   64,
		MaxCycles: 0,
		Timing:    latency.DefaultTimingConfig(),
	}
}

// LoadConfig reads a platform configuration. Files ending in .yaml or .yml
// are YAML, anything else JSON. Fields missing from the file keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func (g CacheGeometry) withTiming(t *latency.TimingConfig) cache.Config {
	return cache.Config{
		Size:          g.Size,
		Associativity: g.Associativity,
		BlockSize:     g.BlockSize,
		HitLatency:    t.CacheHitLatency,
		MissLatency:   t.MemoryLatency,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Timing == nil {
		return fmt.Errorf("missing timing configuration")
	}
	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("timing: %w", err)
	}
	if err := c.ICache.withTiming(c.Timing).Validate(); err != nil {
		return fmt.Errorf("icache: %w", err)
	}
	if err := c.DCache.withTiming(c.Timing).Validate(); err != nil {
		return fmt.Errorf("dcache: %w", err)
	}
	if c.RAMSize == 0 {
		return fmt.Errorf("ram_size must be > 0")
	}
	if c.Quantum == 0 {
		return fmt.Errorf("quantum must be > 0")
	}
	if c.TimerIRQ > 5 {
		return fmt.Errorf("timer_irq must be in 0..5, got %d", c.TimerIRQ)
	}
	if c.Ident > 0x3ff {
		return fmt.Errorf("ident must fit in 10 bits, got %#x", c.Ident)
	}
	return nil
}
