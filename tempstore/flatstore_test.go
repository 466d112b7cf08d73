package tempstore

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestFlatStoreAppend(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.Mkdir(), "temperatures")
	store, err := NewFlatStore(path)
	c.Assert(err, qt.IsNil)
	defer store.Close()

	readings := []Reading{{
		Time:     epoch,
		DeviceID: "pihall",
		SensorID: "28-000005e2fdc3",
		TempC:    21.5,
	}, {
		Time:     epoch.Add(time.Minute),
		DeviceID: "pihall",
		SensorID: "28-000005e2fdc3",
		TempC:    21.75,
	}}
	for _, r := range readings {
		err := store.Append(r)
		c.Assert(err, qt.IsNil)
	}
	data, err := ioutil.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `
946814400000,pihall,28-000005e2fdc3,21.5
946814460000,pihall,28-000005e2fdc3,21.75
`[1:])

	got, err := ReadFlatFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, readings)
}

func TestFlatStoreAppendsAcrossReopen(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.Mkdir(), "temperatures")
	store, err := NewFlatStore(path)
	c.Assert(err, qt.IsNil)
	err = store.Append(Reading{
		Time:     epoch,
		DeviceID: "pihall",
		SensorID: "28-000005e2fdc3",
		TempC:    20,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(store.Close(), qt.IsNil)

	store, err = NewFlatStore(path)
	c.Assert(err, qt.IsNil)
	defer store.Close()
	err = store.Append(Reading{
		Time:     epoch.Add(time.Minute),
		DeviceID: "pihall",
		SensorID: "28-000005e2fdc3",
		TempC:    21,
	})
	c.Assert(err, qt.IsNil)

	got, err := ReadFlatFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 2)
}

func TestFlatStoreAppendAfterClose(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.Mkdir(), "temperatures")
	store, err := NewFlatStore(path)
	c.Assert(err, qt.IsNil)
	c.Assert(store.Close(), qt.IsNil)
	err = store.Append(Reading{
		Time:     epoch,
		DeviceID: "pihall",
		SensorID: "28-000005e2fdc3",
		TempC:    20,
	})
	c.Assert(err, qt.ErrorMatches, `flat store .*: append after close`)
}

func TestFlatStoreUnwritablePath(t *testing.T) {
	c := qt.New(t)
	_, err := NewFlatStore(filepath.Join(c.Mkdir(), "no-such-dir", "temperatures"))
	c.Assert(err, qt.ErrorMatches, `cannot open flat store: .*`)
}
