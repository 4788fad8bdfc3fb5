package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cutekitek/rankode-grader/internal/repository/dto"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Client submits grading tasks to the workers. Responses come back on a
// private reply queue that lives as long as the client.
type Client struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	replyQueue string
	replies    <-chan amqp.Delivery
}

func NewClient(cfg RabbitMqHandlerConfig) (*Client, error) {
	conn, err := amqp.Dial(cfg.url())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to open channel")
	}
	if _, err := ch.QueueDeclare(reqQueue, false, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "failed to declare %s", reqQueue)
	}
	// server named, deleted with the connection
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to declare reply queue")
	}
	replies, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to consume replies")
	}
	return &Client{conn: conn, ch: ch, replyQueue: queue.Name, replies: replies}, nil
}

func (c *Client) Publish(ctx context.Context, task *dto.GradeTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "failed to encode task")
	}
	err = c.ch.PublishWithContext(ctx, "", reqQueue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: task.Id,
		ReplyTo:       c.replyQueue,
		Body:          body,
	})
	return errors.Wrap(err, "failed to publish task")
}

// Await blocks until the response for task id arrives. Replies for tasks this
// client is no longer waiting for are dropped.
func (c *Client) Await(ctx context.Context, id string) (*dto.GradeResponse, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case d, ok := <-c.replies:
			if !ok {
				return nil, errors.New("reply queue closed")
			}
			resp, err := responseFor(d, id)
			if err != nil {
				slog.Debug("dropping reply", "correlationId", d.CorrelationId, "error", err)
				continue
			}
			return resp, nil
		}
	}
}

func responseFor(d amqp.Delivery, id string) (*dto.GradeResponse, error) {
	if d.CorrelationId != id {
		return nil, errors.Errorf("reply is for task %q", d.CorrelationId)
	}
	var resp dto.GradeResponse
	if err := json.Unmarshal(d.Body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode reply")
	}
	return &resp, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
