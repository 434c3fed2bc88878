package bot

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

const maxLatencySamples = 1024

// latencies keeps the most recent decision times, in milliseconds.
type latencies struct {
	samples []float64
}

func (l *latencies) add(d time.Duration) {
	if len(l.samples) == maxLatencySamples {
		l.samples = l.samples[1:]
	}
	l.samples = append(l.samples, float64(d.Microseconds())/1000)
}

func (l *latencies) summary() (mean, stddev float64, n int) {
	n = len(l.samples)
	switch n {
	case 0:
		return 0, 0, 0
	case 1:
		return l.samples[0], 0, 1
	}
	mean, stddev = stat.MeanStdDev(l.samples, nil)
	return mean, stddev, n
}
