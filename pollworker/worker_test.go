package pollworker_test

import (
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/rogpeppe/remotetemp/pollworker"
	"github.com/rogpeppe/remotetemp/tempserver"
	"github.com/rogpeppe/remotetemp/tempstore"
	"github.com/rogpeppe/remotetemp/w1sensor/w1sensortest"
)

var epoch = time.Unix(946814400, 0) // 2000-01-02 12:00:00Z

// sortReadings makes reading slice comparisons independent of the
// order the sensors were polled in.
var sortReadings = cmpopts.SortSlices(func(a, b tempstore.Reading) bool {
	return a.SensorID < b.SensorID
})

func newTestServer(c *qt.C) (*httptest.Server, *tempstore.MemStore) {
	store := new(tempstore.MemStore)
	handler, err := tempserver.New(tempserver.Params{
		Store: store,
	})
	c.Assert(err, qt.IsNil)
	srv := httptest.NewServer(handler)
	c.Defer(srv.Close)
	return srv, store
}

// waitForReadings waits until the store holds at least n readings.
func waitForReadings(c *qt.C, store *tempstore.MemStore, n int) []tempstore.Reading {
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); {
		if readings := store.Readings(); len(readings) >= n {
			return readings
		}
		time.Sleep(time.Millisecond)
	}
	c.Fatalf("timed out waiting for %d readings; got %#v", n, store.Readings())
	return nil
}

func TestWorkerReportsReadings(t *testing.T) {
	c := qt.New(t)
	defer c.Done()
	srv, store := newTestServer(c)
	fake := w1sensortest.New(c.Mkdir())
	err := fake.SetTemperature("28-000005e2fdc3", 21.5)
	c.Assert(err, qt.IsNil)
	err = fake.SetTemperature("10-0008019e6b2a", -2.125)
	c.Assert(err, qt.IsNil)

	w, err := pollworker.New(pollworker.Params{
		ServerURL: srv.URL,
		DeviceID:  "pihall",
		SensorDir: fake.Dir,
		// Long enough that only the initial poll happens.
		Interval: time.Hour,
		Now: func() time.Time {
			return epoch
		},
	})
	c.Assert(err, qt.IsNil)
	defer w.Close()

	readings := waitForReadings(c, store, 2)
	c.Assert(readings, qt.CmpEquals(sortReadings), []tempstore.Reading{{
		Time:     epoch,
		DeviceID: "pihall",
		SensorID: "10-0008019e6b2a",
		TempC:    -2.125,
	}, {
		Time:     epoch,
		DeviceID: "pihall",
		SensorID: "28-000005e2fdc3",
		TempC:    21.5,
	}})
}

func TestWorkerPollsEveryInterval(t *testing.T) {
	c := qt.New(t)
	defer c.Done()
	srv, store := newTestServer(c)
	fake := w1sensortest.New(c.Mkdir())
	err := fake.SetTemperature("28-000005e2fdc3", 21.5)
	c.Assert(err, qt.IsNil)

	w, err := pollworker.New(pollworker.Params{
		ServerURL: srv.URL,
		DeviceID:  "pihall",
		SensorDir: fake.Dir,
		Interval:  time.Millisecond,
	})
	c.Assert(err, qt.IsNil)
	defer w.Close()

	readings := waitForReadings(c, store, 3)
	c.Assert(len(readings) >= 3, qt.Equals, true)
}

func TestWorkerDropsInsaneReadings(t *testing.T) {
	c := qt.New(t)
	defer c.Done()
	srv, store := newTestServer(c)
	fake := w1sensortest.New(c.Mkdir())
	// 85C is the DS18B20 power-on reset value; a fridge sensor
	// reporting it is lying.
	err := fake.SetTemperature("28-000005e2fdc3", 85)
	c.Assert(err, qt.IsNil)
	err = fake.SetTemperature("10-0008019e6b2a", 3.5)
	c.Assert(err, qt.IsNil)

	w, err := pollworker.New(pollworker.Params{
		ServerURL:       srv.URL,
		DeviceID:        "pifridge",
		SensorDir:       fake.Dir,
		Interval:        time.Hour,
		SanityCheckLow:  -30,
		SanityCheckHigh: 10,
		Now: func() time.Time {
			return epoch
		},
	})
	c.Assert(err, qt.IsNil)
	defer w.Close()

	readings := waitForReadings(c, store, 1)
	c.Assert(readings, qt.DeepEquals, []tempstore.Reading{{
		Time:     epoch,
		DeviceID: "pifridge",
		SensorID: "10-0008019e6b2a",
		TempC:    3.5,
	}})
}

func TestWorkerSkipsUnreadableSensor(t *testing.T) {
	c := qt.New(t)
	defer c.Done()
	srv, store := newTestServer(c)
	fake := w1sensortest.New(c.Mkdir())
	err := fake.SetCRCFailure("28-000005e2fdc3")
	c.Assert(err, qt.IsNil)
	err = fake.SetTemperature("10-0008019e6b2a", 18)
	c.Assert(err, qt.IsNil)

	w, err := pollworker.New(pollworker.Params{
		ServerURL: srv.URL,
		DeviceID:  "pihall",
		SensorDir: fake.Dir,
		Interval:  time.Hour,
		Now: func() time.Time {
			return epoch
		},
	})
	c.Assert(err, qt.IsNil)

	readings := waitForReadings(c, store, 1)
	w.Close()
	c.Assert(readings, qt.DeepEquals, []tempstore.Reading{{
		Time:     epoch,
		DeviceID: "pihall",
		SensorID: "10-0008019e6b2a",
		TempC:    18,
	}})
	// The failing sensor never produces a reading.
	c.Assert(store.Readings(), qt.HasLen, 1)
}

func TestWorkerWithoutServerURL(t *testing.T) {
	c := qt.New(t)
	_, err := pollworker.New(pollworker.Params{})
	c.Assert(err, qt.ErrorMatches, `no server URL set`)
}
