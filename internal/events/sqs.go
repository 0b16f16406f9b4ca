package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	TypeOrderCreated    = "order.created"
	TypeOrderSent       = "order.sent"
	TypeOrderSendFailed = "order.send_failed"
)

// SQSAPI is the subset of the SQS client used for publishing.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Event is the JSON body of every published message.
type Event struct {
	Type               string    `json:"type"`
	OrderID            int64     `json:"orderId"`
	WooCommerceOrderID *int64    `json:"woocommerceOrderId,omitempty"`
	Reason             string    `json:"reason,omitempty"`
	OccurredAt         time.Time `json:"occurredAt"`
}

// SQSEventBus publishes order lifecycle events to an SQS queue.
type SQSEventBus struct {
	client   SQSAPI
	queueURL string
	now      func() time.Time
}

func NewSQSEventBus(client SQSAPI, queueURL string) *SQSEventBus {
	return &SQSEventBus{
		client:   client,
		queueURL: queueURL,
		now:      time.Now,
	}
}

// NewSQSClient builds an SQS client from the default AWS credential chain.
func NewSQSClient(ctx context.Context, region string) (*sqs.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}

func (b *SQSEventBus) PublishOrderCreated(ctx context.Context, orderID int64) error {
	return b.publish(ctx, Event{Type: TypeOrderCreated, OrderID: orderID})
}

func (b *SQSEventBus) PublishOrderSent(ctx context.Context, orderID int64, externalID int64) error {
	return b.publish(ctx, Event{Type: TypeOrderSent, OrderID: orderID, WooCommerceOrderID: &externalID})
}

func (b *SQSEventBus) PublishOrderSendFailed(ctx context.Context, orderID int64, reason string) error {
	return b.publish(ctx, Event{Type: TypeOrderSendFailed, OrderID: orderID, Reason: reason})
}

func (b *SQSEventBus) publish(ctx context.Context, event Event) error {
	event.OccurredAt = b.now().UTC()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	_, err = b.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(b.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(event.Type)},
			"order_id":   {DataType: aws.String("Number"), StringValue: aws.String(strconv.FormatInt(event.OrderID, 10))},
		},
	})
	if err != nil {
		return fmt.Errorf("send %s event: %w", event.Type, err)
	}

	return nil
}
