package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/pkg/logger"
)

type post struct {
	Channel string `json:"channel"`
	Body    string `json:"body"`
}

func TestDecode(t *testing.T) {
	raw, err := json.Marshal(post{Channel: "entries", Body: "{}"})
	require.NoError(t, err)

	got, err := Decode[post](raw)
	require.NoError(t, err)
	assert.Equal(t, "entries", got.Channel)

	_, err = Decode[post](json.RawMessage(`[1,`))
	assert.Error(t, err)
}

func TestRetryDelayGrows(t *testing.T) {
	q := NewRedisQueue(logger.Nop(), &QueueConfig{RetryMin: time.Second, RetryMax: 10 * time.Second}, nil, ModeConsumerOnly)
	assert.Equal(t, time.Second, q.retryDelay(1))
	assert.Equal(t, 2*time.Second, q.retryDelay(2))
	assert.Equal(t, 4*time.Second, q.retryDelay(3))
	assert.Equal(t, 10*time.Second, q.retryDelay(10))
	assert.Equal(t, "ictwatch:queue:dlq", q.getDeadLetterKey())
}
