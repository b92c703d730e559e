package loadprofile

import (
	"errors"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// CriticalQuantile is the time-weighted load quantile reported as the
// critical load: the bank covers the load for all but the busiest 5% of the
// time.
const CriticalQuantile = 0.95

var ErrTooShort = errors.New("history needs at least two readings spanning some time")

// Profile summarises a power history.
type Profile struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Days       float64   `json:"days"`
	Samples    int       `json:"samples"`
	TotalKWh   float64   `json:"total_kwh"`
	DailyKWh   float64   `json:"daily_kwh"`
	PeakKW     float64   `json:"peak_kw"`
	CriticalKW float64   `json:"critical_kw"`
}

// Estimate integrates readings as a step function: each value holds until
// the next reading, and the last reading only marks the end of the history.
// Negative values (export) count as zero load.
func Estimate(readings []Reading) (Profile, error) {
	if len(readings) < 2 {
		return Profile{}, ErrTooShort
	}
	start := readings[0].Timestamp
	end := readings[len(readings)-1].Timestamp
	span := end.Sub(start)
	if span <= 0 {
		return Profile{}, ErrTooShort
	}

	type interval struct {
		kw    float64
		hours float64
	}
	intervals := make([]interval, 0, len(readings)-1)

	var totalKWh, peakKW float64
	for i := 0; i < len(readings)-1; i++ {
		hours := readings[i+1].Timestamp.Sub(readings[i].Timestamp).Hours()
		if hours <= 0 {
			continue
		}
		kw := math.Max(0, readings[i].Watts) / 1000
		totalKWh += kw * hours
		peakKW = math.Max(peakKW, kw)
		intervals = append(intervals, interval{kw: kw, hours: hours})
	}

	sort.Slice(intervals, func(i, j int) bool { return intervals[i].kw < intervals[j].kw })
	loads := make([]float64, len(intervals))
	weights := make([]float64, len(intervals))
	for i, iv := range intervals {
		loads[i] = iv.kw
		weights[i] = iv.hours
	}

	days := span.Hours() / 24
	return Profile{
		Start:      start,
		End:        end,
		Days:       days,
		Samples:    len(readings),
		TotalKWh:   totalKWh,
		DailyKWh:   totalKWh / days,
		PeakKW:     peakKW,
		CriticalKW: stat.Quantile(CriticalQuantile, stat.Empirical, loads, weights),
	}, nil
}
