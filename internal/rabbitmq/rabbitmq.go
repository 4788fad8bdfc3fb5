package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/files"
	"github.com/cutekitek/rankode-grader/internal/loader"
	"github.com/cutekitek/rankode-grader/internal/mappers"
	"github.com/cutekitek/rankode-grader/internal/repository/dto"
	"github.com/cutekitek/rankode-grader/internal/repository/models"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	reqQueue  = "grade-req"
	respQueue = "grade-resp"

	reconnectDelay = 15 * time.Second
	// file name given to inline code
	scriptName = "main.py"
)

type RabbitMqHandlerConfig struct {
	Login        string
	Password     string
	Host         string
	Port         int
	WorkersCount int
	// Used for tasks that do not set a timeout
	DefaultTimeout time.Duration
}

func (c RabbitMqHandlerConfig) url() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d", c.Login, c.Password, c.Host, c.Port)
}

type Grader interface {
	Grade(ctx context.Context, req *dto.GradeRequest) (*models.Report, error)
}

type RabbitMQHandler struct {
	cfg     RabbitMqHandlerConfig
	grader  Grader
	sources *loader.Loader

	mu           sync.Mutex
	conn         *amqp.Connection
	consumerChan *amqp.Channel
	producerChan *amqp.Channel
	closed       bool

	tasksChan chan job
	listeners sync.WaitGroup
	wg        sync.WaitGroup
}

func NewRabbitMQHandler(cfg RabbitMqHandlerConfig, grader Grader, sources *loader.Loader) (*RabbitMQHandler, error) {
	if cfg.WorkersCount <= 0 {
		return nil, config.Errorf("workers count", "must be positive, got %d", cfg.WorkersCount)
	}
	if cfg.DefaultTimeout <= 0 {
		return nil, config.Errorf("timeout", "must be positive, got %s", cfg.DefaultTimeout)
	}
	return &RabbitMQHandler{
		cfg:       cfg,
		grader:    grader,
		sources:   sources,
		tasksChan: make(chan job),
	}, nil
}

func (r *RabbitMQHandler) Start() error {
	if err := r.open(); err != nil {
		return err
	}
	for i := 0; i < r.cfg.WorkersCount; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return nil
}

// Close stops consuming, lets running tasks finish and publish, then drops
// the connection.
func (r *RabbitMQHandler) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	if r.consumerChan != nil {
		r.consumerChan.Close()
	}
	r.mu.Unlock()

	r.listeners.Wait()
	close(r.tasksChan)
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQHandler) open() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("handler is closed")
	}
	if err := r.connect(); err != nil {
		return errors.Wrap(err, "failed to connect to rabbitmq")
	}
	if err := r.startConsumer(); err != nil {
		r.conn.Close()
		return errors.Wrap(err, "failed to start consumer")
	}
	if err := r.startProducer(); err != nil {
		r.conn.Close()
		return errors.Wrap(err, "failed to start producer")
	}
	return nil
}

func (r *RabbitMQHandler) connect() error {
	conn, err := amqp.Dial(r.cfg.url())
	if err != nil {
		return err
	}
	r.conn = conn
	errChan := conn.NotifyClose(make(chan *amqp.Error, 1))
	go r.reconnect(errChan)
	return nil
}

func (r *RabbitMQHandler) reconnect(errChan <-chan *amqp.Error) {
	// a graceful close only closes the channel
	amqpErr, ok := <-errChan
	if !ok || r.isClosed() {
		return
	}
	slog.Error("rabbitmq connection lost", "error", amqpErr)

	for {
		time.Sleep(reconnectDelay)
		if r.isClosed() {
			return
		}
		if err := r.open(); err != nil {
			slog.Error("failed to reconnect to rabbitmq", "error", err)
			continue
		}
		slog.Info("reconnected to rabbitmq")
		return
	}
}

func (r *RabbitMQHandler) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *RabbitMQHandler) startConsumer() error {
	channel, err := r.conn.Channel()
	if err != nil {
		return err
	}
	queue, err := channel.QueueDeclare(reqQueue, false, false, false, false, nil)
	if err != nil {
		return err
	}
	del, err := channel.Consume(queue.Name, "", true, false, false, false, nil)
	if err != nil {
		return err
	}

	r.consumerChan = channel
	r.listeners.Add(1)
	go r.listener(del)
	return nil
}

func (r *RabbitMQHandler) startProducer() error {
	channel, err := r.conn.Channel()
	if err != nil {
		return err
	}
	if _, err := channel.QueueDeclare(respQueue, false, false, false, false, nil); err != nil {
		return err
	}
	r.producerChan = channel
	return nil
}

func (r *RabbitMQHandler) listener(deliveries <-chan amqp.Delivery) {
	defer r.listeners.Done()

	for data := range deliveries {
		j, err := decodeDelivery(data)
		if err != nil {
			slog.Error("invalid task message", "error", err, "message", string(data.Body))
			continue
		}
		r.tasksChan <- j
	}
}

// job is a task plus the queue its response goes to.
type job struct {
	task    dto.GradeTask
	replyTo string
}

// Tasks without a reply queue are answered on the shared response queue.
func decodeDelivery(d amqp.Delivery) (job, error) {
	task, err := decodeTask(d.Body)
	if err != nil {
		return job{}, err
	}
	replyTo := d.ReplyTo
	if replyTo == "" {
		replyTo = respQueue
	}
	return job{task: task, replyTo: replyTo}, nil
}

func decodeTask(body []byte) (dto.GradeTask, error) {
	var task dto.GradeTask
	if err := json.Unmarshal(body, &task); err != nil {
		return task, errors.Wrap(err, "failed to decode task")
	}
	if task.Id == "" {
		return task, errors.New("task has no id")
	}
	return task, nil
}

func (r *RabbitMQHandler) worker() {
	defer r.wg.Done()

	for j := range r.tasksChan {
		ctx := context.Background()
		r.send(ctx, j.replyTo, r.handle(ctx, &j.task))
	}
}

func (r *RabbitMQHandler) handle(ctx context.Context, task *dto.GradeTask) *dto.GradeResponse {
	src, err := r.stage(ctx, task)
	if err != nil {
		slog.Error("failed to stage task source", "id", task.Id, "error", err)
		return mappers.ErrorToGradeResponse(task, err)
	}
	defer src.Close()

	report, err := r.grader.Grade(ctx, mappers.GradeTaskToRequest(task, src.Path, src.Text, r.cfg.DefaultTimeout))
	if err != nil {
		slog.Error("failed to grade task", "id", task.Id, "error", err)
		return mappers.ErrorToGradeResponse(task, err)
	}
	return mappers.ReportToGradeResponse(task, report)
}

func (r *RabbitMQHandler) stage(ctx context.Context, task *dto.GradeTask) (*loader.Source, error) {
	switch {
	case task.SourceObject != "":
		if !files.IsObjectRef(task.SourceObject) {
			return nil, config.Errorf("source object", "%q is not an %s reference", task.SourceObject, files.Scheme)
		}
		return r.sources.LoadSource(ctx, task.SourceObject)
	case task.Code != "":
		return loader.StageSource(scriptName, task.Code)
	default:
		return nil, config.Errorf("code", "task has neither code nor source object")
	}
}

func (r *RabbitMQHandler) send(ctx context.Context, queue string, resp *dto.GradeResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to encode response", "id", resp.Id, "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.producerChan == nil {
		return
	}
	err = r.producerChan.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: resp.Id,
		Body:          body,
	})
	if err != nil {
		slog.Error("failed to send response to queue", "id", resp.Id, "error", err)
	}
}
