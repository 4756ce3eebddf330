// Package cache stores encoded render outputs for the HTTP service.
//
// Three backends share the Store interface:
//
//	mem := cache.NewMemory(64 << 20)           // in-process LRU, byte budget
//	rdb, err := cache.NewRedis(ctx, cache.RedisConfig{Addr: "localhost:6379"})
//	off := cache.Null{}                        // caching disabled
//
// Keys come from Key, which hashes everything that affects the output.
// Every Store is safe for concurrent use.
package cache
