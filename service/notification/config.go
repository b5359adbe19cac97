package notification

import "time"

// Config represents dispatcher settings.
type Config struct {
	ReviewDestination string        `json:"reviewDestination" yaml:"reviewDestination"`
	AuditDestination  string        `json:"auditDestination,omitempty" yaml:"auditDestination,omitempty"`
	PreviewLimit      int           `json:"previewLimit,omitempty" yaml:"previewLimit,omitempty"`
	QueueBuffer       int           `json:"queueBuffer,omitempty" yaml:"queueBuffer,omitempty"`
	NotifyTimeout     time.Duration `json:"notifyTimeout,omitempty" yaml:"notifyTimeout,omitempty"`
}

func (c *Config) previewLimit() int {
	if c == nil || c.PreviewLimit <= 0 {
		return DefaultPreviewLimit
	}
	return c.PreviewLimit
}

func (c *Config) notifyTimeout() time.Duration {
	if c == nil || c.NotifyTimeout <= 0 {
		return 10 * time.Second
	}
	return c.NotifyTimeout
}
