package tempserver_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	errgo "gopkg.in/errgo.v1"
	httprequest "gopkg.in/httprequest.v1"

	"github.com/rogpeppe/remotetemp/tempapi"
	"github.com/rogpeppe/remotetemp/tempclient"
	"github.com/rogpeppe/remotetemp/tempserver"
	"github.com/rogpeppe/remotetemp/tempstore"
)

var epoch = time.Unix(946814400, 0) // 2000-01-02 12:00:00Z

func newTestServer(c *qt.C, p tempserver.Params) (*tempclient.Client, *tempstore.MemStore) {
	store := new(tempstore.MemStore)
	p.Store = store
	handler, err := tempserver.New(p)
	c.Assert(err, qt.IsNil)
	srv := httptest.NewServer(handler)
	c.Defer(srv.Close)
	return tempclient.New(srv.URL), store
}

func TestRecordReading(t *testing.T) {
	c := qt.New(t)
	defer c.Done()
	client, store := newTestServer(c, tempserver.Params{})
	err := client.RecordTemperature(context.Background(), tempapi.ReadingParams{
		DeviceID: "pihall",
		SensorID: "28-000005e2fdc3",
		Time:     epoch.UnixNano() / 1e6,
		TempC:    21.5,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(store.Readings(), qt.DeepEquals, []tempstore.Reading{{
		Time:     epoch,
		DeviceID: "pihall",
		SensorID: "28-000005e2fdc3",
		TempC:    21.5,
	}})
}

func TestRecordReadingStampsTimeAtReceipt(t *testing.T) {
	c := qt.New(t)
	defer c.Done()
	client, store := newTestServer(c, tempserver.Params{
		Now: func() time.Time {
			return epoch.Add(42 * time.Second)
		},
	})
	err := client.RecordTemperature(context.Background(), tempapi.ReadingParams{
		DeviceID: "pihall",
		SensorID: "28-000005e2fdc3",
		TempC:    21.5,
	})
	c.Assert(err, qt.IsNil)
	readings := store.Readings()
	c.Assert(readings, qt.HasLen, 1)
	c.Assert(readings[0].Time.Equal(epoch.Add(42*time.Second)), qt.Equals, true)
}

func TestRecordReadingOutsideSaneRange(t *testing.T) {
	c := qt.New(t)
	defer c.Done()
	client, store := newTestServer(c, tempserver.Params{
		SanityCheckLow:  -15,
		SanityCheckHigh: 100,
	})
	err := client.RecordTemperature(context.Background(), tempapi.ReadingParams{
		DeviceID: "pihall",
		SensorID: "28-000005e2fdc3",
		Time:     epoch.UnixNano() / 1e6,
		TempC:    180,
	})
	c.Assert(err, qt.ErrorMatches, `cannot record temperature: .*temperature 180C outside sane range \[-15, 100\]`)
	rerr, ok := errgo.Cause(err).(*httprequest.RemoteError)
	c.Assert(ok, qt.Equals, true)
	c.Assert(rerr.Code, qt.Equals, tempapi.CodeBadReading)
	c.Assert(store.Readings(), qt.HasLen, 0)
}

func TestRecordReadingMissingIDs(t *testing.T) {
	c := qt.New(t)
	defer c.Done()
	client, store := newTestServer(c, tempserver.Params{})
	ctx := context.Background()

	err := client.RecordTemperature(ctx, tempapi.ReadingParams{
		SensorID: "28-000005e2fdc3",
		TempC:    21.5,
	})
	c.Assert(err, qt.ErrorMatches, `cannot record temperature: .*no device id`)

	err = client.RecordTemperature(ctx, tempapi.ReadingParams{
		DeviceID: "pihall",
		TempC:    21.5,
	})
	c.Assert(err, qt.ErrorMatches, `cannot record temperature: .*no sensor id`)
	c.Assert(store.Readings(), qt.HasLen, 0)
}

func TestRecordReadingUnstorableID(t *testing.T) {
	c := qt.New(t)
	defer c.Done()
	client, store := newTestServer(c, tempserver.Params{})
	err := client.RecordTemperature(context.Background(), tempapi.ReadingParams{
		DeviceID: "pi,hall",
		SensorID: "28-000005e2fdc3",
		TempC:    21.5,
	})
	c.Assert(err, qt.ErrorMatches, `cannot record temperature: .*invalid device id .*`)
	rerr, ok := errgo.Cause(err).(*httprequest.RemoteError)
	c.Assert(ok, qt.Equals, true)
	c.Assert(rerr.Code, qt.Equals, tempapi.CodeBadReading)
	c.Assert(store.Readings(), qt.HasLen, 0)
}

func TestNewWithoutStore(t *testing.T) {
	c := qt.New(t)
	_, err := tempserver.New(tempserver.Params{})
	c.Assert(err, qt.ErrorMatches, `no store set`)
}

func TestNewWithInvertedBounds(t *testing.T) {
	c := qt.New(t)
	_, err := tempserver.New(tempserver.Params{
		Store:           new(tempstore.MemStore),
		SanityCheckLow:  100,
		SanityCheckHigh: -15,
	})
	c.Assert(err, qt.ErrorMatches, `sanity check bounds \[100, -15\] are inverted`)
}
