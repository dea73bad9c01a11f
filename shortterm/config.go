package shortterm

import (
	"fmt"
	"time"
)

// Importance thresholds governing retention class and critical backup.
const (
	// PriorityThreshold routes an entry to the prioritized bucket.
	PriorityThreshold = 0.7

	// BackupThreshold additionally copies an entry to the critical-backup
	// shelf.
	BackupThreshold = 0.9
)

// extendedFactor scales the base retention period for the prioritized and
// coordination buckets.
const extendedFactor = 3

// Config configures the short-term store.
type Config struct {
	// RetentionPeriod is the base TTL for normal-bucket entries. The
	// prioritized and coordination buckets retain entries three times as
	// long. Default: 30 minutes.
	RetentionPeriod time.Duration

	// SweepInterval is the period of the background expiry sweep.
	// Default: 60 seconds.
	SweepInterval time.Duration

	// BackupRetention is how long critical-backup copies are kept.
	// Default: 7 days.
	BackupRetention time.Duration
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.RetentionPeriod == 0 {
		c.RetentionPeriod = 30 * time.Minute
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 60 * time.Second
	}
	if c.BackupRetention == 0 {
		c.BackupRetention = 7 * 24 * time.Hour
	}
}

// Validate performs validation on the Config.
func (c *Config) Validate() error {
	if c.RetentionPeriod <= 0 {
		return fmt.Errorf("shortterm: retention_period must be positive, got %s", c.RetentionPeriod)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("shortterm: sweep_interval must be positive, got %s", c.SweepInterval)
	}
	if c.BackupRetention <= 0 {
		return fmt.Errorf("shortterm: backup_retention must be positive, got %s", c.BackupRetention)
	}
	return nil
}
