package memory

import (
	"time"

	"github.com/osstd/The-Blog/pkg/kv"
)

func init() {
	kv.Register("memory", func(cfg *kv.Config) (kv.Store, error) {
		interval := cfg.JanitorInterval
		if interval <= 0 {
			interval = time.Minute
		}
		return New(interval), nil
	})
}
