package pipeline

import "time"

var clockEpoch = time.Now()

func nowMS() int64 {
	return time.Since(clockEpoch).Milliseconds()
}
