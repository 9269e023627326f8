package catalog

import "log/slog"

// Persister is anything that can write its state durably
type Persister interface {
	Persist() error
}

// Checkpointer persists a catalog every Interval items processed by one run
// and once more when the run finishes, bounding loss on a crash to
// Interval-1 items.
type Checkpointer struct {
	target    Persister
	interval  int
	processed int
}

// NewCheckpointer returns a Checkpointer; interval <= 0 means 10.
func NewCheckpointer(target Persister, interval int) *Checkpointer {
	if interval <= 0 {
		interval = 10
	}
	return &Checkpointer{target: target, interval: interval}
}

// Tick records one processed item and persists on every interval boundary.
func (c *Checkpointer) Tick() error {
	c.processed++
	if c.processed%c.interval != 0 {
		return nil
	}
	if err := c.target.Persist(); err != nil {
		return err
	}
	slog.Info("Checkpoint saved", "processed", c.processed)
	return nil
}

// Finish persists unconditionally.
func (c *Checkpointer) Finish() error {
	if err := c.target.Persist(); err != nil {
		return err
	}
	slog.Debug("Catalog saved", "processed", c.processed)
	return nil
}
