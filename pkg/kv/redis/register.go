package redis

import "github.com/osstd/The-Blog/pkg/kv"

func init() {
	kv.Register("redis", func(cfg *kv.Config) (kv.Store, error) {
		return New(cfg.RedisURL)
	})
}
