package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatMessage_MarshalJSON(t *testing.T) {
	msg := ChatMessage{
		ID:         3,
		Message:    "hello",
		CreateTime: time.Date(2024, 5, 1, 8, 30, 0, 0, time.FixedZone("CST", 8*3600)),
	}

	b, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"message":"hello","create_time":"2024-05-01 00:30:00"}`, string(b))
}

func TestParseOrder(t *testing.T) {
	assert.Equal(t, OrderAsc, ParseOrder("asc"))
	assert.Equal(t, OrderDesc, ParseOrder("desc"))
	assert.Equal(t, OrderDesc, ParseOrder(""))
	assert.Equal(t, OrderDesc, ParseOrder("sideways"))
}

func TestNotifyResult(t *testing.T) {
	ok := NotifySuccess()
	assert.True(t, ok.OK())
	assert.Equal(t, "发送成功", ok.Message)

	failed := NotifyFailure("dial tcp: connection refused")
	assert.False(t, failed.OK())

	b, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","message":"dial tcp: connection refused"}`, string(b))
}
