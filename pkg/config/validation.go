package config

import "fmt"

func (c *ViewerConfig) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%s is required", KeyListenAddr)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyHistorySize, c.HistorySize)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyRefreshMS, c.RefreshInterval)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyWorkers, c.Workers)
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("%s must be positive", KeyMaxMessageMB)
	}
	if c.UI != UITUI && c.UI != UIQuiet {
		return fmt.Errorf("%s must be %q or %q, got %q", KeyUI, UITUI, UIQuiet, c.UI)
	}
	if c.StatusInterval <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyStatusSeconds, c.StatusInterval)
	}
	return nil
}

func (c *TrainerConfig) validate() error {
	if c.DashboardAddr == "" {
		return fmt.Errorf("%s is required", KeyDashboardAddr)
	}
	if c.StreamMode != "persistent" && c.StreamMode != "per-batch" {
		return fmt.Errorf("%s must be \"persistent\" or \"per-batch\", got %q", KeyStreamMode, c.StreamMode)
	}
	if c.PingTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyPingTimeoutMS, c.PingTimeout)
	}
	if c.Batches < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyBatches, c.Batches)
	}
	if c.Step < 0 {
		return fmt.Errorf("%s must not be negative, got %s", KeyStepMS, c.Step)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyBatchSize, c.BatchSize)
	}
	if c.Tiles < 0 || c.Tiles > 16 {
		return fmt.Errorf("%s must be between 0 and 16, got %d", KeyTiles, c.Tiles)
	}
	if c.ImageSize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyImageSize, c.ImageSize)
	}
	if c.LossMode != "random" && c.LossMode != "decay" {
		return fmt.Errorf("%s must be \"random\" or \"decay\", got %q", KeyLossMode, c.LossMode)
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("%s must be positive", KeyMaxMessageMB)
	}
	return nil
}
