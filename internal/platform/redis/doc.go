// Package redis provides the Redis-backed cache and work-queue
// implementations used by the application, built on go-redis.
package redis
