package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/pkg/logger"
)

func TestStreamTrades(t *testing.T) {
	subs := make(chan string, 4)
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		conn, err := up.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var m map[string]string
		require.NoError(t, conn.ReadJSON(&m))
		subs <- m["symbol"]

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"trade","data":[{"s":"SPY","p":512.5,"v":10,"t":1741010400123}]}`))
		// hold the connection until the client goes away
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	c := New("tok", "ws"+strings.TrimPrefix(srv.URL, "http"), 10*time.Millisecond, time.Second, logger.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Subscribe(ctx, []string{"SPY"}))
	assert.Equal(t, "SPY", <-subs)

	ticks, _ := c.Read(ctx)
	tick := <-ticks
	require.NotNil(t, tick)
	assert.Equal(t, "SPY", tick.Symbol)
	assert.Equal(t, 512.5, tick.Price)
	assert.Equal(t, int64(1741010400), tick.Timestamp)

	cancel()
	for range ticks {
	}
	assert.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestConnectRequiresKey(t *testing.T) {
	c := New("", "ws://localhost:1", 0, 0, logger.Nop())
	assert.Error(t, c.Connect(context.Background()))
}
