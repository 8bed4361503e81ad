package events

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventValues(t *testing.T) {
	at := time.Unix(1700000000, 0)
	v := Event{Type: TaskCompleted, AgentID: "a", TaskID: "t", Status: "completed", At: at}.Values()
	assert.Equal(t, map[string]any{
		"type":     "task.completed",
		"agent_id": "a",
		"task_id":  "t",
		"status":   "completed",
		"time":     int64(1700000000),
	}, v)

	v = Event{Type: RunStarted, AgentID: "a", At: at}.Values()
	assert.NotContains(t, v, "task_id")
	assert.NotContains(t, v, "message")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), Event{Type: RunStarted}))
	require.NoError(t, r.Publish(context.Background(), Event{Type: RunCompleted}))
	assert.Equal(t, []Type{RunStarted, RunCompleted}, r.Types())
	assert.Len(t, r.Events(), 2)
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}

func TestRedisPublisherReportsUnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	p := NewRedisPublisher(rdb, "")
	assert.Equal(t, DefaultStream, p.Stream())

	err := p.Publish(context.Background(), Event{Type: RunStarted, AgentID: "a", At: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xadd agentgpt.events")
}
