package rpc

import (
	"context"
	"net/http"
)

// VitalsClient fetches live snapshots from the web monitor.
type VitalsClient struct {
	http *HTTPClient
}

// NewVitalsClient returns a vitals client over the given endpoints.
func NewVitalsClient(opts Opts) *VitalsClient {
	return &VitalsClient{http: NewHTTPWithOpts(opts)}
}

func (c *VitalsClient) Endpoints() []string {
	return c.http.Endpoints()
}

// Vitals returns the current snapshot.
func (c *VitalsClient) Vitals(ctx context.Context) (*Vitals, error) {
	var out Vitals
	if err := c.http.doJSON(ctx, http.MethodGet, vitalsPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
