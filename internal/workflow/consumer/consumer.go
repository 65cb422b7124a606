package consumer

import (
	"context"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/speak2see-backend/internal/workflow"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
)

type executor interface {
	Execute(ctx context.Context, req workflow.StartRequest) error
}

// Consumer runs workflow executions for start messages from Pub/Sub.
type Consumer struct {
	runner       executor
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(runner executor, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if runner == nil {
		return nil, errors.New("workflow runner is required")
	}
	if subscription == nil {
		return nil, errors.New("workflow subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{runner: runner, subscription: subscription, logg: logg}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id":    msg.ID,
		"execution_ref": msg.Attributes["execution_ref"],
	})

	req, err := workflow.DecodeStartRequest(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "dropping malformed workflow start message", err)
		return processResult{ack: true}
	}

	err = c.runner.Execute(ctx, req)
	if workflow.IsTerminalOutcome(err) {
		return processResult{ack: true}
	}
	c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "workflow start will be redelivered")
	return processResult{nack: true}
}
