// Package tempstore stores temperature readings reported by remote devices.
package tempstore

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("remotetemp.tempstore")

// Reading represents a single temperature reading taken from one
// sensor on one device.
type Reading struct {
	// Time holds the time that the reading was taken.
	Time time.Time
	// DeviceID identifies the device that reported the reading.
	DeviceID string
	// SensorID identifies the sensor on the device that the
	// reading was taken from.
	SensorID string
	// TempC holds the temperature in degrees Celsius.
	TempC float64
}

// Store represents somewhere that readings can be appended to.
// Implementations must be safe to use concurrently.
type Store interface {
	// Append adds the given reading to the store.
	Append(r Reading) error
	// Close closes the store.
	Close() error
}

// MarshalText implements encoding.TextMarshaler by encoding the
// reading as a single line with four comma-separated fields:
//
//	timestamp of reading (in milliseconds since the unix epoch)
//	device id
//	sensor id
//	temperature (in degrees Celsius)
func (r Reading) MarshalText() ([]byte, error) {
	if err := checkID("device", r.DeviceID); err != nil {
		return nil, err
	}
	if err := checkID("sensor", r.SensorID); err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("%d,%s,%s,%g",
		r.Time.UnixNano()/1e6,
		r.DeviceID,
		r.SensorID,
		r.TempC,
	)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, decoding
// a reading from the form produced by MarshalText.
func (r *Reading) UnmarshalText(data []byte) error {
	fields := strings.Split(string(data), ",")
	if len(fields) != 4 {
		return fmt.Errorf("invalid reading line found: %q", data)
	}
	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp in reading line %q", fields[0])
	}
	tempC, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return fmt.Errorf("invalid temperature in reading line %q", fields[3])
	}
	if fields[1] == "" {
		return fmt.Errorf("empty device id in reading line %q", data)
	}
	if fields[2] == "" {
		return fmt.Errorf("empty sensor id in reading line %q", data)
	}
	*r = Reading{
		Time:     time.Unix(ts/1000, (ts%1000)*1e6),
		DeviceID: fields[1],
		SensorID: fields[2],
		TempC:    tempC,
	}
	return nil
}

func checkID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("empty %s id", kind)
	}
	if strings.ContainsAny(id, ",\n") {
		return fmt.Errorf("invalid %s id %q", kind, id)
	}
	return nil
}

// ReadingReader represents a source of readings.
// Each call to ReadReading returns the next reading in the stream.
type ReadingReader interface {
	// ReadReading returns the next reading in the stream.
	// It returns io.EOF at the end of the available readings.
	ReadReading() (Reading, error)
}

// NewReadingReader returns a ReadingReader that reads line-encoded
// readings (see Reading.MarshalText) from r. Malformed lines
// are skipped rather than terminating the stream, so a store file
// with the odd truncated line can still be read.
func NewReadingReader(r io.Reader) ReadingReader {
	return &fileReadingReader{
		scanner: bufio.NewScanner(r),
	}
}

type fileReadingReader struct {
	scanner *bufio.Scanner
}

func (r *fileReadingReader) ReadReading() (Reading, error) {
	for {
		if !r.scanner.Scan() {
			if r.scanner.Err() == nil {
				return Reading{}, io.EOF
			}
			return Reading{}, r.scanner.Err()
		}
		if strings.TrimSpace(r.scanner.Text()) == "" {
			continue
		}
		var reading Reading
		if err := reading.UnmarshalText(r.scanner.Bytes()); err != nil {
			logger.Warningf("skipping %v", err)
			continue
		}
		return reading, nil
	}
}

// ReadAll reads all the readings from r until io.EOF.
func ReadAll(r ReadingReader) ([]Reading, error) {
	var readings []Reading
	for {
		reading, err := r.ReadReading()
		if err == io.EOF {
			return readings, nil
		}
		if err != nil {
			return readings, err
		}
		readings = append(readings, reading)
	}
}

// MemStore is a simple memory-based implementation of Store,
// suitable for testing.
type MemStore struct {
	mu       sync.Mutex
	readings []Reading
}

// Append implements Store.Append.
func (s *MemStore) Append(r Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, r)
	return nil
}

// Close implements Store.Close.
func (s *MemStore) Close() error {
	return nil
}

// Readings returns all the readings appended so far, in order.
func (s *MemStore) Readings() []Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reading(nil), s.readings...)
}
