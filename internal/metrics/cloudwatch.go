package metrics

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace      = "Text2MIDI/Studio"
	putTimeout     = 5 * time.Second
	environmentTag = "Environment"
)

// metricPutter is the subset of the CloudWatch client used here
type metricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput,
		optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Client publishes custom metrics to CloudWatch. Outside production it is a no-op.
type Client struct {
	client      metricPutter
	enabled     bool
	environment string
	// async publishes from a goroutine so requests never wait on CloudWatch
	async bool
}

// NewClient creates a CloudWatch metrics client from the default AWS config
func NewClient(ctx context.Context, environment string) (*Client, error) {
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{environment: environment}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{environment: environment}, nil
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)
	return &Client{
		client:      cloudwatch.NewFromConfig(cfg),
		enabled:     true,
		environment: environment,
		async:       true,
	}, nil
}

// Enabled reports whether metrics are sent
func (m *Client) Enabled() bool {
	return m.enabled
}

// RecordAPIRequest publishes a request count (APIErrors for 5xx) and its latency
func (m *Client) RecordAPIRequest(_ context.Context, endpoint string, statusCode int, duration time.Duration) {
	name := "APIRequests"
	if statusCode >= http.StatusInternalServerError {
		name = "APIErrors"
	}
	dims := m.dimensions("Endpoint", endpoint)
	m.publish(
		datum(name, 1, types.StandardUnitCount, dims),
		datum("APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
	)
}

// RecordGeneration publishes the duration of one model call
func (m *Client) RecordGeneration(_ context.Context, duration time.Duration, success bool) {
	m.publish(datum("GenerationDuration", float64(duration.Milliseconds()), types.StandardUnitMilliseconds,
		m.dimensions("Success", strconv.FormatBool(success))))
}

// RecordExampleRun publishes an example cache hit or miss
func (m *Client) RecordExampleRun(_ context.Context, _ int, cached bool) {
	name := "ExampleCacheMisses"
	if cached {
		name = "ExampleCacheHits"
	}
	m.publish(datum(name, 1, types.StandardUnitCount, m.dimensions()))
}

// dimensions returns the environment dimension plus optional name/value pairs
func (m *Client) dimensions(pairs ...string) []types.Dimension {
	dims := []types.Dimension{{Name: aws.String(environmentTag), Value: aws.String(m.environment)}}
	for i := 0; i+1 < len(pairs); i += 2 {
		dims = append(dims, types.Dimension{Name: aws.String(pairs[i]), Value: aws.String(pairs[i+1])})
	}
	return dims
}

func datum(name string, value float64, unit types.StandardUnit, dims []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dims,
	}
}

// publish sends all datums in one PutMetricData call
func (m *Client) publish(data ...types.MetricDatum) {
	if !m.enabled || m.client == nil {
		return
	}

	put := func() {
		ctx, cancel := context.WithTimeout(context.Background(), putTimeout)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(namespace),
			MetricData: data,
		})
		if err != nil {
			log.Printf("Failed to publish %d CloudWatch metric(s) (first: %s): %v",
				len(data), aws.ToString(data[0].MetricName), err)
		}
	}

	if m.async {
		go put()
		return
	}
	put()
}
