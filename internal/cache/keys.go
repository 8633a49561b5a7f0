package cache

import (
	"fmt"
	"time"
)

// RateLimitKey buckets requests per API key prefix and wall-clock minute.
func RateLimitKey(keyPrefix string, now time.Time) string {
	return fmt.Sprintf("contractscan:ratelimit:%s:%d", keyPrefix, now.Unix()/60)
}
