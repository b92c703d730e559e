// Package loadprofile estimates sizing loads from a recorded power history.
package loadprofile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Reading is one power sample in watts.
type Reading struct {
	Timestamp time.Time
	SensorID  string
	Watts     float64
}

// History export columns. Other columns are ignored and order does not matter.
const (
	colEntity  = "entity_id"
	colState   = "state"
	colChanged = "last_changed"
)

var ErrMultipleSensors = errors.New("history holds more than one sensor")

// Parse reads a Home Assistant history export of one power sensor:
//
//	entity_id,state,last_changed
//	sensor.house_power,759.59,2024-11-21T13:00:00.000Z
//
// With entity set, rows of other sensors are dropped; otherwise the export
// must hold a single sensor. States that are not numbers (e.g. "unavailable")
// are gaps in the history, not errors. The result is sorted by time.
func Parse(r io.Reader, entity string) ([]Reading, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var readings []Reading
	sensors := map[string]struct{}{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}

		rd, ok := cols.reading(record)
		if !ok || (entity != "" && rd.SensorID != entity) {
			continue
		}
		sensors[rd.SensorID] = struct{}{}
		readings = append(readings, rd)
	}

	if len(sensors) > 1 {
		ids := make([]string, 0, len(sensors))
		for id := range sensors {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return nil, fmt.Errorf("%w: %s", ErrMultipleSensors, strings.Join(ids, ", "))
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
	return readings, nil
}

// ParseFile parses the history export at path.
func ParseFile(path, entity string) ([]Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	readings, err := Parse(f, entity)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return readings, nil
}

type columns struct {
	entity, state, changed int
}

func columnIndex(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	get := func(name string) int {
		i, ok := idx[name]
		if !ok {
			missing = append(missing, name)
		}
		return i
	}
	cols := columns{entity: get(colEntity), state: get(colState), changed: get(colChanged)}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("history header lacks %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) reading(record []string) (Reading, bool) {
	field := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	watts, err := strconv.ParseFloat(field(c.state), 64)
	if err != nil || math.IsNaN(watts) || math.IsInf(watts, 0) {
		return Reading{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, field(c.changed))
	if err != nil {
		return Reading{}, false
	}
	return Reading{Timestamp: ts, SensorID: field(c.entity), Watts: watts}, true
}
