package miner

import "time"

// Progress is a point-in-time view of a search for progress reporters
type Progress struct {
	Hashes    uint64
	PerWorker []uint64
	Elapsed   time.Duration
	Found     bool
}

// Rate returns the average hashes per second
func (p Progress) Rate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Hashes) / p.Elapsed.Seconds()
}
