package e2e

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient wraps the official InfluxDB v2 client for the E2E
// suite: it runs Flux queries against the bucket the telemetry sink
// wrote to and hides the token/org plumbing.
type InfluxClient struct {
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

// NewInfluxClient assumes the server at url is already provisioned
// with the given org, bucket and token.
func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{
		bucket: bucket,
		client: c,
		query:  c.QueryAPI(org),
	}
}

// Query runs a Flux query and returns the result iterator. The caller
// iterates and closes it.
func (c *InfluxClient) Query(ctx context.Context, flux string) (*api.QueryTableResult, error) {
	return c.query.Query(ctx, flux)
}

// CountMeasurement returns the number of points recorded for the
// measurement over the last hour.
func (c *InfluxClient) CountMeasurement(ctx context.Context, measurement string) (int, error) {
	res, err := c.Query(ctx, fmt.Sprintf(
		`from(bucket:"%s") |> range(start:-1h) |> filter(fn: (r) => r._measurement == "%s")`,
		c.bucket, measurement))
	if err != nil {
		return 0, err
	}
	defer res.Close()
	count := 0
	for res.Next() {
		count++
	}
	return count, res.Err()
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }
