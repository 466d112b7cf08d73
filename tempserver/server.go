// Package tempserver implements the HTTP server that receives
// temperature readings from remote devices and appends them to
// a store.
package tempserver

import (
	"context"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/juju/loggo"
	"github.com/julienschmidt/httprouter"
	errgo "gopkg.in/errgo.v1"
	httprequest "gopkg.in/httprequest.v1"

	"github.com/rogpeppe/remotetemp/tempapi"
	"github.com/rogpeppe/remotetemp/tempstore"
)

var logger = loggo.GetLogger("remotetemp.tempserver")

// Params holds the parameters for a call to New.
type Params struct {
	// Store holds the store that received readings are appended to.
	Store tempstore.Store
	// SanityCheckLow and SanityCheckHigh hold the bounds, in degrees
	// Celsius, outside which a submitted reading is rejected. They
	// mirror the client-side sanity check so that a misconfigured
	// client can't fill the store with junk. If both are zero, the
	// tempapi defaults will be used.
	SanityCheckLow  float64
	SanityCheckHigh float64
	// Now is used to query the current time, for stamping readings
	// that arrive without one. If it's nil, time.Now will be used.
	Now func() time.Time
}

// errBadReading is the cause of all errors produced by rejected readings.
var errBadReading = errgo.New(tempapi.CodeBadReading)

var reqServer = httprequest.Server{
	ErrorMapper: errorMapper,
}

func errorMapper(ctx context.Context, err error) (int, interface{}) {
	status := http.StatusInternalServerError
	code := ""
	if errgo.Cause(err) == errBadReading {
		status = http.StatusBadRequest
		code = tempapi.CodeBadReading
	}
	return status, &httprequest.RemoteError{
		Message: err.Error(),
		Code:    code,
	}
}

// New returns a handler that serves the temperature recording API,
// appending received readings to p.Store.
func New(p Params) (http.Handler, error) {
	if p.Store == nil {
		return nil, errgo.New("no store set")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.SanityCheckLow == 0 && p.SanityCheckHigh == 0 {
		p.SanityCheckLow = tempapi.DefaultSanityCheckLow
		p.SanityCheckHigh = tempapi.DefaultSanityCheckHigh
	}
	if p.SanityCheckLow > p.SanityCheckHigh {
		return nil, errgo.Newf("sanity check bounds [%g, %g] are inverted", p.SanityCheckLow, p.SanityCheckHigh)
	}
	srv := &server{
		p: p,
	}
	router := httprouter.New()
	for _, h := range reqServer.Handlers(srv.newHandler) {
		router.Handle(h.Method, h.Path, h.Handle)
	}
	return gziphandler.GzipHandler(router), nil
}

type server struct {
	p Params
}

func (srv *server) newHandler(p httprequest.Params) (handler, context.Context, error) {
	return handler{srv}, p.Context, nil
}

type handler struct {
	srv *server
}

// RecordReading records one temperature reading.
func (h handler) RecordReading(req *tempapi.RecordReadingRequest) error {
	r, err := h.srv.reading(req.Reading)
	if err != nil {
		logger.Debugf("rejected reading from sensor %s on device %s: %v", req.Reading.SensorID, req.Reading.DeviceID, err)
		return errgo.Mask(err, errgo.Is(errBadReading))
	}
	if err := h.srv.p.Store.Append(r); err != nil {
		logger.Errorf("cannot store reading: %v", err)
		return errgo.Notef(err, "cannot store reading")
	}
	logger.Debugf("recorded %gC from sensor %s on device %s at %v", r.TempC, r.SensorID, r.DeviceID, r.Time)
	return nil
}

// reading validates the submitted parameters and converts them
// to a store record.
func (srv *server) reading(p tempapi.ReadingParams) (tempstore.Reading, error) {
	if p.DeviceID == "" {
		return tempstore.Reading{}, errgo.WithCausef(nil, errBadReading, "no device id")
	}
	if p.SensorID == "" {
		return tempstore.Reading{}, errgo.WithCausef(nil, errBadReading, "no sensor id")
	}
	if p.TempC < srv.p.SanityCheckLow || p.TempC > srv.p.SanityCheckHigh {
		return tempstore.Reading{}, errgo.WithCausef(nil, errBadReading,
			"temperature %gC outside sane range [%g, %g]",
			p.TempC, srv.p.SanityCheckLow, srv.p.SanityCheckHigh,
		)
	}
	t := time.Unix(p.Time/1000, (p.Time%1000)*1e6)
	if p.Time == 0 {
		t = srv.p.Now()
	}
	r := tempstore.Reading{
		Time:     t,
		DeviceID: p.DeviceID,
		SensorID: p.SensorID,
		TempC:    p.TempC,
	}
	if _, err := r.MarshalText(); err != nil {
		// Ids that can't be stored (embedded separators) are the
		// client's fault, not the store's.
		return tempstore.Reading{}, errgo.WithCausef(nil, errBadReading, "%v", err)
	}
	return r, nil
}
