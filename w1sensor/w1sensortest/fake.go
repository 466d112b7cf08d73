// Package w1sensortest provides a fake 1-wire sysfs tree for
// testing code that reads w1 thermal sensors.
package w1sensortest

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
)

// Fake represents a fake w1 sysfs bus directory. Sensors added
// to it are visible to w1sensor.Sensors and serve whatever
// temperature was last set for them.
type Fake struct {
	// Dir holds the root of the fake bus directory, suitable
	// for passing to w1sensor.Sensors.
	Dir string
}

// New returns a Fake rooted at the given directory, which
// must already exist.
func New(dir string) *Fake {
	return &Fake{
		Dir: dir,
	}
}

// SetTemperature creates the sensor with the given id if needed and
// makes it serve the given temperature in degrees Celsius.
func (f *Fake) SetTemperature(id string, tempC float64) error {
	return f.writeSlaveFile(id, fmt.Sprintf(
		"72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=%d\n",
		int(tempC*1000),
	))
}

// SetCRCFailure creates the sensor with the given id if needed and
// makes reads from it fail the CRC check, as happens on a flaky bus.
func (f *Fake) SetCRCFailure(id string) error {
	return f.writeSlaveFile(id, "00 00 00 00 00 00 00 00 00 : crc=57 NO\n00 00 00 00 00 00 00 00 00 t=0\n")
}

// Remove removes the sensor with the given id, as if it had been
// unplugged from the bus.
func (f *Fake) Remove(id string) error {
	return os.RemoveAll(filepath.Join(f.Dir, id))
}

func (f *Fake) writeSlaveFile(id string, contents string) error {
	dir := filepath.Join(f.Dir, id)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	return ioutil.WriteFile(filepath.Join(dir, "w1_slave"), []byte(contents), 0666)
}
