// Package tempclient provides a client for the temperature
// recording API served by tempserver.
package tempclient

import (
	"context"
	"strings"

	errgo "gopkg.in/errgo.v1"
	httprequest "gopkg.in/httprequest.v1"

	"github.com/rogpeppe/remotetemp/tempapi"
)

// Client represents a connection to a temperature recording server.
type Client struct {
	client httprequest.Client
}

// New returns a client that records temperatures with the
// server at the given base URL.
func New(serverURL string) *Client {
	return &Client{
		client: httprequest.Client{
			BaseURL:        strings.TrimSuffix(serverURL, "/"),
			UnmarshalError: httprequest.ErrorUnmarshaler(&httprequest.RemoteError{}),
		},
	}
}

// RecordTemperature sends one temperature reading to the server.
// Errors returned by the server are of type *httprequest.RemoteError.
func (c *Client) RecordTemperature(ctx context.Context, r tempapi.ReadingParams) error {
	if err := c.client.Call(ctx, &tempapi.RecordReadingRequest{
		Reading: r,
	}, nil); err != nil {
		return errgo.NoteMask(err, "cannot record temperature", errgo.Any)
	}
	return nil
}
