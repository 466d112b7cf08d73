// Package tempapi holds the request and response types of the
// temperature recording API, shared by the client and the server.
package tempapi

import (
	httprequest "gopkg.in/httprequest.v1"
)

// Default sanity check bounds, in degrees Celsius. Readings outside
// these bounds are assumed to be sensor glitches and discarded
// unless the bounds are configured otherwise.
const (
	DefaultSanityCheckLow  = -15
	DefaultSanityCheckHigh = 100
)

// ReadingParams holds a single temperature reading as sent on the wire.
type ReadingParams struct {
	// DeviceID identifies the reporting device.
	DeviceID string `json:"device_id"`
	// SensorID identifies the sensor on the device that the
	// reading was taken from.
	SensorID string `json:"sensor_id"`
	// Time holds the time the reading was taken, in milliseconds
	// since the unix epoch. If it's zero, the server will use the
	// time it received the reading.
	Time int64 `json:"time,omitempty"`
	// TempC holds the temperature in degrees Celsius.
	TempC float64 `json:"temperature"`
}

// RecordReadingRequest holds a request to record one temperature reading.
type RecordReadingRequest struct {
	httprequest.Route `httprequest:"POST /v1/readings"`
	Reading           ReadingParams `httprequest:",body"`
}

// Error codes returned by the server in the Code field of
// httprequest.RemoteError.
const (
	// CodeBadReading reports that a submitted reading was rejected
	// because it was malformed or failed the server's sanity check.
	CodeBadReading = "bad reading"
)
