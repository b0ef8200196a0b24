package boundary

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loweringHistory is a piecewise-linear time series of cumulative elevation
// change, read from a two-column whitespace file.
type loweringHistory struct {
	times   []float64
	changes []float64
}

func readLoweringHistory(path string) (*loweringHistory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lowering history: %w", err)
	}
	defer f.Close()

	h := &loweringHistory{}
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cols := strings.Fields(text)
		if len(cols) != 2 {
			return nil, fmt.Errorf("lowering history %s:%d: want 2 columns, got %d", path, line, len(cols))
		}
		t, err := strconv.ParseFloat(cols[0], 64)
		if err != nil {
			return nil, fmt.Errorf("lowering history %s:%d: %w", path, line, err)
		}
		v, err := strconv.ParseFloat(cols[1], 64)
		if err != nil {
			return nil, fmt.Errorf("lowering history %s:%d: %w", path, line, err)
		}
		if len(h.times) > 0 && t <= h.times[len(h.times)-1] {
			return nil, fmt.Errorf("lowering history %s:%d: times must increase", path, line)
		}
		h.times = append(h.times, t)
		h.changes = append(h.changes, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(h.times) < 2 {
		return nil, fmt.Errorf("lowering history %s: need at least two rows", path)
	}
	return h, nil
}

// at interpolates cumulative change at time t, clamping outside the record.
func (h *loweringHistory) at(t float64) float64 {
	n := len(h.times)
	if t <= h.times[0] {
		return h.changes[0]
	}
	if t >= h.times[n-1] {
		return h.changes[n-1]
	}
	lo := 0
	for i := 1; i < n; i++ {
		if h.times[i] >= t {
			lo = i - 1
			break
		}
	}
	frac := (t - h.times[lo]) / (h.times[lo+1] - h.times[lo])
	return h.changes[lo] + frac*(h.changes[lo+1]-h.changes[lo])
}
