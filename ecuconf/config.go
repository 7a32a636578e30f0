package ecuconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"uptane.dev/director/verify"
)

// Config holds the per-ECU settings that parameterise a verify.Context:
// this ECU's own identity, the directory used to persist trust state
// across reboots, the allocator choice (PoolSize) and the signature
// threshold. MaxSigs and BufSize are only checked by ValidateConfig
// against the verify package's build-time constants; the Grammar Walker
// and Verification Pipeline always use those constants, not these fields.
type Config struct {
	ECUID      string `json:"ecu_id"`
	HardwareID string `json:"hardware_id"`
	DataDir    string `json:"data_dir"`
	LogLevel   string `json:"log_level"`
	MaxSigs    int    `json:"max_sigs"`
	BufSize    int    `json:"buf_size"`
	PoolSize   int    `json:"pool_size"` // 0 = heap allocator, >0 = pooled
	Threshold  uint   `json:"threshold"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".uptane-director"
	}
	return filepath.Join(home, ".uptane-director")
}

func DefaultConfig() Config {
	return Config{
		DataDir:   DefaultDataDir(),
		LogLevel:  "info",
		MaxSigs:   verify.MaxSigs,
		BufSize:   verify.BufSize,
		PoolSize:  0,
		Threshold: 1,
	}
}

// ValidateConfig checks a Config: identifiers and data_dir must be set,
// log_level must be known, max_sigs >= threshold >= 1, and the
// configured MaxSigs/BufSize bounds must not exceed the build-time
// constants compiled into this binary's verify package. The number of
// trusted keys is not known here; NewContext checks threshold against it.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.ECUID) == "" {
		return errors.New("ecu_id is required")
	}
	if strings.TrimSpace(cfg.HardwareID) == "" {
		return errors.New("hardware_id is required")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.MaxSigs <= 0 || cfg.MaxSigs > verify.MaxSigs {
		return fmt.Errorf("max_sigs must be 1..%d", verify.MaxSigs)
	}
	if cfg.BufSize <= 0 || cfg.BufSize > verify.BufSize {
		return fmt.Errorf("buf_size must be 1..%d", verify.BufSize)
	}
	if cfg.PoolSize < 0 {
		return errors.New("pool_size must be >= 0 (0 selects the heap allocator)")
	}
	if cfg.Threshold < 1 {
		return errors.New("threshold must be >= 1")
	}
	if int(cfg.Threshold) > cfg.MaxSigs {
		return errors.New("threshold must not exceed max_sigs")
	}
	return nil
}

// Allocator builds the verify.Allocator this Config selects: a
// PoolAllocator when PoolSize > 0, otherwise a HeapAllocator.
func (cfg Config) Allocator() verify.Allocator {
	if cfg.PoolSize > 0 {
		return verify.NewPoolAllocator(cfg.PoolSize)
	}
	return verify.NewHeapAllocator()
}
