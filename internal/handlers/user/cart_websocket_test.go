package user

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/session"
	"shopblog_back_end/internal/testutil"
)

func TestCartWebSocketStreamsSnapshots(t *testing.T) {
	env := testutil.NewEnv(t)
	reg := session.NewRegistry(env.Provider, env.Premium, env.Remote, env.Guest, time.Minute)
	defer reg.Close()
	s := reg.Get(context.Background(), "sid-ws", "", models.DefaultPreferences())

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { session.Attach(c, s) }, NewCartHandler(nil).CartWebSocket(NewUpgrader(nil)))
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil || msg["type"] != "connected" {
		t.Fatalf("first message = %+v (%v)", msg, err)
	}

	s.Cart.Add(context.Background(), models.CartItem{ID: "p1", Name: "Lampe", Price: 2, Quantity: 3})

	msg = nil
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if msg["type"] != "cart_updated" || msg["count"] != 3.0 || msg["total"] != 6.0 {
		t.Fatalf("update = %+v", msg)
	}
}

func TestCartWebSocketClosesWhenSessionSwept(t *testing.T) {
	env := testutil.NewEnv(t)
	reg := session.NewRegistry(env.Provider, env.Premium, env.Remote, env.Guest, 20*time.Millisecond)
	defer reg.Close()
	s := reg.Get(context.Background(), "sid-sweep", "", models.DefaultPreferences())

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { session.Attach(c, s) }, NewCartHandler(nil).CartWebSocket(NewUpgrader(nil)))
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil || msg["type"] != "connected" {
		t.Fatalf("first message = %+v (%v)", msg, err)
	}

	time.Sleep(60 * time.Millisecond)
	if n := reg.Sweep(); n != 1 {
		t.Fatalf("swept %d sessions, want 1", n)
	}

	msg = nil
	if err := conn.ReadJSON(&msg); err != nil || msg["type"] != "session_closed" {
		t.Fatalf("expected session_closed, got %+v (%v)", msg, err)
	}
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}
}

func TestUpgraderOrigins(t *testing.T) {
	up := NewUpgrader([]string{"https://shop.test"})
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "https://evil.test")
	if up.CheckOrigin(req) {
		t.Fatalf("foreign origin accepted")
	}
	req.Header.Set("Origin", "https://shop.test")
	if !up.CheckOrigin(req) {
		t.Fatalf("allowed origin rejected")
	}
}
