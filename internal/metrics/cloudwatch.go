package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/quickcart/internal/aws"
)

// CloudWatch metric names emitted by the worker.
const (
	MetricOrdersPersisted   = "OrdersPersisted"
	MetricDuplicateDelivery = "DuplicateDeliveries"
	MetricEventsSkipped     = "EventsSkipped"
)

// CloudWatch publishes single-value count metrics under a namespace.
type CloudWatch struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

func NewCloudWatch(client aws.CloudWatchAPI, namespace string) *CloudWatch {
	return &CloudWatch{client: client, namespace: namespace, nowFunc: time.Now}
}

// Count emits value for the named metric, tagged with the optional
// dimension pairs (name, value, name, value...).
func (c *CloudWatch) Count(ctx context.Context, name string, value float64, dims ...string) error {
	datum := cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Unit:       cwtypes.StandardUnitCount,
		Value:      &value,
		Timestamp:  timePtr(c.nowFunc()),
	}
	for i := 0; i+1 < len(dims); i += 2 {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
			Name:  aws.String(dims[i]),
			Value: aws.String(dims[i+1]),
		})
	}
	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &c.namespace,
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("put metric %s: %w", name, err)
	}
	return nil
}

func timePtr(t time.Time) *time.Time { return &t }
