package rabbitmq

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/files"
	"github.com/cutekitek/rankode-grader/internal/loader"
	"github.com/cutekitek/rankode-grader/internal/repository/dto"
	"github.com/cutekitek/rankode-grader/internal/repository/models"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore map[string]string

func (f fakeStore) GetFile(_ context.Context, obj files.Object) (io.ReadCloser, error) {
	data, ok := f[obj.Bucket+"/"+obj.Key]
	if !ok {
		return nil, errors.Errorf("no such object %s", obj.Key)
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

type recordingGrader struct {
	req    *dto.GradeRequest
	staged string
	err    error
}

func (g *recordingGrader) Grade(_ context.Context, req *dto.GradeRequest) (*models.Report, error) {
	g.req = req
	data, _ := os.ReadFile(req.ScriptPath)
	g.staged = string(data)
	if g.err != nil {
		return nil, g.err
	}
	return &models.Report{ID: "report", Script: "main.py"}, nil
}

func newHandler(t *testing.T, g Grader) *RabbitMQHandler {
	t.Helper()
	h, err := NewRabbitMQHandler(RabbitMqHandlerConfig{WorkersCount: 1, DefaultTimeout: 3 * time.Second}, g,
		loader.NewLoader(fakeStore{"labs/week1.py": "print('remote')\n"}))
	require.NoError(t, err)
	return h
}

func TestNewRabbitMQHandler_Validation(t *testing.T) {
	_, err := NewRabbitMQHandler(RabbitMqHandlerConfig{DefaultTimeout: time.Second}, nil, nil)
	assert.True(t, config.IsConfigurationError(err))

	_, err = NewRabbitMQHandler(RabbitMqHandlerConfig{WorkersCount: 2}, nil, nil)
	assert.True(t, config.IsConfigurationError(err))
}

func TestHandle_InlineCode(t *testing.T) {
	g := &recordingGrader{}
	h := newHandler(t, g)

	resp := h.handle(context.Background(), &dto.GradeTask{
		Id:       "task-1",
		Code:     "print(input())\n",
		Input:    []string{"hi"},
		Patterns: []string{"hi"},
	})

	assert.Equal(t, dto.GradeStatusComplete, resp.Status)
	assert.Equal(t, "task-1", resp.Id)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "print(input())\n", g.staged)
	assert.Equal(t, "print(input())\n", g.req.Source)
	assert.Equal(t, 3*time.Second, g.req.Timeout)
	assert.Equal(t, []models.Pattern{"hi"}, g.req.Patterns)

	// staged copy is removed once graded
	_, err := os.Stat(g.req.ScriptPath)
	assert.True(t, os.IsNotExist(err))
}

func TestHandle_SourceObject(t *testing.T) {
	g := &recordingGrader{}
	h := newHandler(t, g)

	resp := h.handle(context.Background(), &dto.GradeTask{
		Id:           "task-2",
		SourceObject: "s3://labs/week1.py",
		Patterns:     []string{"remote"},
		Timeout:      250,
	})

	assert.Equal(t, dto.GradeStatusComplete, resp.Status)
	assert.Equal(t, "print('remote')\n", g.staged)
	assert.Equal(t, 250*time.Millisecond, g.req.Timeout)
}

func TestHandle_Failures(t *testing.T) {
	tests := []struct {
		name     string
		task     dto.GradeTask
		gradeErr error
		status   dto.GradeStatus
	}{
		{name: "no code", task: dto.GradeTask{Id: "a"}, status: dto.GradeStatusInvalidTask},
		{name: "local source path", task: dto.GradeTask{Id: "b", SourceObject: "/etc/passwd"}, status: dto.GradeStatusInvalidTask},
		{name: "missing object", task: dto.GradeTask{Id: "c", SourceObject: "s3://labs/none.py"}, status: dto.GradeStatusInvalidTask},
		{
			name:     "invalid request",
			task:     dto.GradeTask{Id: "d", Code: "print(1)"},
			gradeErr: config.Errorf("patterns", "at least one expected pattern is required"),
			status:   dto.GradeStatusInvalidTask,
		},
		{
			name:     "grader failure",
			task:     dto.GradeTask{Id: "e", Code: "print(1)", Patterns: []string{"1"}},
			gradeErr: errors.New("runner broke"),
			status:   dto.GradeStatusInternalError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(t, &recordingGrader{err: tt.gradeErr})

			resp := h.handle(context.Background(), &tt.task)

			assert.Equal(t, tt.task.Id, resp.Id)
			assert.Equal(t, tt.status, resp.Status)
			assert.NotEmpty(t, resp.Error)
			assert.Nil(t, resp.Report)
		})
	}
}

func TestDecodeTask(t *testing.T) {
	task, err := decodeTask([]byte(`{"id":"x","code":"print(1)","input":["a"],"patterns":["1"],"timeout":100}`))
	require.NoError(t, err)
	assert.Equal(t, dto.GradeTask{Id: "x", Code: "print(1)", Input: []string{"a"}, Patterns: []string{"1"}, Timeout: 100}, task)

	_, err = decodeTask([]byte(`{"code":"print(1)"}`))
	assert.Error(t, err)

	_, err = decodeTask([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeDelivery(t *testing.T) {
	body := []byte(`{"id":"x","code":"print(1)","patterns":["1"]}`)

	j, err := decodeDelivery(amqp.Delivery{Body: body, ReplyTo: "amq.gen-client", CorrelationId: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", j.task.Id)
	assert.Equal(t, "amq.gen-client", j.replyTo)

	j, err = decodeDelivery(amqp.Delivery{Body: body})
	require.NoError(t, err)
	assert.Equal(t, respQueue, j.replyTo)

	_, err = decodeDelivery(amqp.Delivery{Body: []byte(`{}`)})
	assert.Error(t, err)
}

func TestResponseFor(t *testing.T) {
	body := []byte(`{"id":"task-1","status":1,"error":"bad task"}`)

	resp, err := responseFor(amqp.Delivery{CorrelationId: "task-1", Body: body}, "task-1")
	require.NoError(t, err)
	assert.Equal(t, dto.GradeStatusInvalidTask, resp.Status)
	assert.Equal(t, "bad task", resp.Error)

	_, err = responseFor(amqp.Delivery{CorrelationId: "task-0", Body: body}, "task-1")
	assert.Error(t, err)

	_, err = responseFor(amqp.Delivery{CorrelationId: "task-1", Body: []byte("nope")}, "task-1")
	assert.Error(t, err)
}
