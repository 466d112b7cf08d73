// Package pollworker provides a worker that periodically reads the
// local 1-wire temperature sensors and reports their readings to a
// remote collection server.
package pollworker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/loggo"
	retry "gopkg.in/retry.v1"

	"github.com/rogpeppe/remotetemp/tempapi"
	"github.com/rogpeppe/remotetemp/tempclient"
	"github.com/rogpeppe/remotetemp/w1sensor"
)

var logger = loggo.GetLogger("remotetemp.pollworker")

// Params holds the parameters for a call to New.
type Params struct {
	// ServerURL holds the base URL of the collection server.
	ServerURL string
	// DeviceID is sent to the server to identify this device.
	// If it's empty, "unknown" will be used.
	DeviceID string
	// SensorDir holds the sysfs directory to look for sensors in.
	// If it's empty, w1sensor.DefaultDir will be used.
	SensorDir string
	// Interval holds the time between sensor polls.
	// If it's zero, DefaultInterval will be used.
	Interval time.Duration
	// SanityCheckLow and SanityCheckHigh hold the bounds, in degrees
	// Celsius, outside which a reading is considered bogus and
	// dropped without being sent. If both are zero, the tempapi
	// defaults will be used.
	SanityCheckLow  float64
	SanityCheckHigh float64
	// Now is used to query the current time. If it's nil, time.Now
	// will be used.
	Now func() time.Time
}

const DefaultInterval = 60 * time.Second

// New returns a new Worker that polls the sensors under
// p.SensorDir every p.Interval and reports their readings to the
// server at p.ServerURL until it's closed.
func New(p Params) (*Worker, error) {
	if p.ServerURL == "" {
		return nil, fmt.Errorf("no server URL set")
	}
	if p.DeviceID == "" {
		p.DeviceID = "unknown"
	}
	if p.Interval == 0 {
		p.Interval = DefaultInterval
	}
	if p.SanityCheckLow == 0 && p.SanityCheckHigh == 0 {
		p.SanityCheckLow = tempapi.DefaultSanityCheckLow
		p.SanityCheckHigh = tempapi.DefaultSanityCheckHigh
	}
	if p.SanityCheckLow > p.SanityCheckHigh {
		return nil, fmt.Errorf("sanity check bounds [%g, %g] are inverted", p.SanityCheckLow, p.SanityCheckHigh)
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		p:      p,
		client: tempclient.New(p.ServerURL),
		ctx:    ctx,
		close:  cancel,
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

type Worker struct {
	p      Params
	client *tempclient.Client
	ctx    context.Context
	close  func()
	wg     sync.WaitGroup
}

// Close shuts the worker down and waits for the polling
// loop to finish.
func (w *Worker) Close() {
	w.close()
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		w.poll()
		select {
		case <-time.After(w.p.Interval):
		case <-w.ctx.Done():
			return
		}
	}
}

// poll reads every available sensor once and reports the
// readings that pass the sanity check.
func (w *Worker) poll() {
	sensors, err := w1sensor.Sensors(w.p.SensorDir)
	if err != nil {
		logger.Errorf("cannot enumerate sensors: %v", err)
		return
	}
	if len(sensors) == 0 {
		logger.Debugf("no sensors found")
		return
	}
	for _, sensor := range sensors {
		w.readAndRecord(sensor)
	}
}

func (w *Worker) readAndRecord(sensor w1sensor.Sensor) {
	tempC, ok := w.readSensor(sensor)
	if !ok {
		return
	}
	if tempC < w.p.SanityCheckLow || tempC > w.p.SanityCheckHigh {
		logger.Errorf("dropping reading %gC from sensor %s: outside sane range [%g, %g]",
			tempC, sensor.ID, w.p.SanityCheckLow, w.p.SanityCheckHigh)
		return
	}
	logger.Debugf("read %gC from sensor %s", tempC, sensor.ID)
	err := w.client.RecordTemperature(w.ctx, tempapi.ReadingParams{
		DeviceID: w.p.DeviceID,
		SensorID: sensor.ID,
		Time:     w.p.Now().UnixNano() / 1e6,
		TempC:    tempC,
	})
	if err != nil {
		logger.Errorf("cannot record temperature for sensor %s: %v", sensor.ID, err)
	}
}

// readRetryStrategy bounds the retries of a failed sensor read.
// CRC failures are routine on the 1-wire bus, so one failed read
// isn't worth skipping a whole period for.
var readRetryStrategy = retry.LimitCount(5, retry.Exponential{
	Initial:  10 * time.Millisecond,
	Factor:   2,
	MaxDelay: 500 * time.Millisecond,
})

func (w *Worker) readSensor(sensor w1sensor.Sensor) (float64, bool) {
	var lastErr error
	for a := retry.StartWithCancel(readRetryStrategy, nil, w.ctx.Done()); a.Next(); {
		tempC, err := sensor.Temperature()
		if err == nil {
			return tempC, true
		}
		lastErr = err
	}
	if lastErr != nil {
		logger.Errorf("cannot read sensor %s: %v", sensor.ID, lastErr)
	}
	return 0, false
}
