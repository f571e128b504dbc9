package model

import (
	"time"
)

// Now returns the current time in UTC truncated to seconds, the precision
// both sqlite and mysql DATETIME columns keep.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
