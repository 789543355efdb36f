package postgres

import "time"

func secondsToDuration(sec int64) time.Duration {
	return time.Duration(sec) * time.Second
}
