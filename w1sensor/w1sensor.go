// Package w1sensor reads temperature sensors attached to the 1-wire
// (w1) bus, using the interface exposed by the Linux kernel under
// /sys/bus/w1/devices.
package w1sensor

import (
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"

	errgo "gopkg.in/errgo.v1"
)

// DefaultDir is the directory where the kernel exposes 1-wire
// slave devices.
const DefaultDir = "/sys/bus/w1/devices"

// familyPrefixes holds the 1-wire family codes of the supported
// thermal sensors (DS18S20, DS1822, DS18B20, DS1825 and DS28EA00
// respectively).
var familyPrefixes = []string{
	"10-",
	"22-",
	"28-",
	"3b-",
	"42-",
}

// Sensor represents a single 1-wire thermal sensor.
type Sensor struct {
	// ID holds the unique 1-wire id of the sensor,
	// for example "28-000005e2fdc3".
	ID  string
	dir string
}

// Sensors returns the thermal sensors currently available under
// dir, which should be a w1 sysfs bus directory. If dir is empty,
// DefaultDir will be used.
//
// It returns an error if the directory can't be read at all, which
// usually means the kernel w1 modules aren't loaded; a directory
// with no sensors in it is not an error.
func Sensors(dir string) ([]Sensor, error) {
	if dir == "" {
		dir = DefaultDir
	}
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, errgo.Notef(err, "cannot enumerate 1-wire sensors")
	}
	var sensors []Sensor
	for _, entry := range entries {
		name := entry.Name()
		for _, prefix := range familyPrefixes {
			if strings.HasPrefix(name, prefix) {
				sensors = append(sensors, Sensor{
					ID:  name,
					dir: dir,
				})
				break
			}
		}
	}
	return sensors, nil
}

// Temperature reads the current temperature from the sensor in
// degrees Celsius. A reading that fails the bus CRC check returns
// an error; such failures are transient and the read can be retried.
func (s Sensor) Temperature() (float64, error) {
	data, err := ioutil.ReadFile(filepath.Join(s.dir, s.ID, "w1_slave"))
	if err != nil {
		return 0, errgo.Notef(err, "cannot read sensor %s", s.ID)
	}
	// The w1_slave file has two lines, for example:
	//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
	//	72 01 4b 46 7f ff 0e 10 57 t=23125
	// where t= holds the temperature in millidegrees Celsius.
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) < 2 {
		return 0, errgo.Newf("sensor %s: malformed w1_slave contents %q", s.ID, data)
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, errgo.Newf("sensor %s: CRC check failed", s.ID)
	}
	i := strings.LastIndex(lines[1], "t=")
	if i == -1 {
		return 0, errgo.Newf("sensor %s: no temperature in w1_slave contents %q", s.ID, data)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(lines[1][i+2:]))
	if err != nil {
		return 0, errgo.Newf("sensor %s: bad temperature value %q", s.ID, lines[1][i+2:])
	}
	return float64(milli) / 1000, nil
}
