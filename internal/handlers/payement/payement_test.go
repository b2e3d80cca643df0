package pa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83/webhook"

	"shopblog_back_end/internal/checkout"
	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/repository"
	"shopblog_back_end/internal/session"
	"shopblog_back_end/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGateway struct {
	mu       sync.Mutex
	payments []checkout.PaymentRequest
	subs     []checkout.SubscriptionRequest
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req checkout.PaymentRequest) (*checkout.GatewaySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.payments = append(g.payments, req)
	return &checkout.GatewaySession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (g *fakeGateway) CreateSubscriptionSession(_ context.Context, req checkout.SubscriptionRequest) (*checkout.GatewaySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.subs = append(g.subs, req)
	return &checkout.GatewaySession{ID: "cs_sub_1", URL: "https://checkout.stripe.test/cs_sub_1"}, nil
}

type memOrders struct {
	mu   sync.Mutex
	rows map[string]models.Order
}

func (o *memOrders) Create(_ context.Context, order models.Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rows[order.StripeSessionID] = order
	return nil
}

func (o *memOrders) GetBySession(_ context.Context, id string) (*models.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	order, ok := o.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &order, nil
}

func (o *memOrders) UpdateStatus(_ context.Context, order models.Order, status string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	order.Status = status
	o.rows[order.StripeSessionID] = order
	return nil
}

type memPremium struct {
	mu    sync.Mutex
	users map[string]bool
}

func (p *memPremium) Upsert(_ context.Context, sub models.PremiumSubscription) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[sub.UserID] = true
	return nil
}

func (p *memPremium) Delete(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, userID)
	return nil
}

type fixture struct {
	env     *testutil.Env
	reg     *session.Registry
	gateway *fakeGateway
	orders  *memOrders
	handler *CheckoutHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	reg := session.NewRegistry(env.Provider, env.Premium, env.Remote, env.Guest, time.Minute)
	t.Cleanup(reg.Close)

	f := &fixture{
		env:     env,
		reg:     reg,
		gateway: &fakeGateway{},
		orders:  &memOrders{rows: map[string]models.Order{}},
	}
	f.handler = NewCheckoutHandler(checkout.NewInitiator(f.gateway, f.orders, checkout.Config{AppURL: "https://shop.test"}))
	return f
}

// call exécute handler sur la session s avec body
func call(s *session.Session, handler gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/", func(c *gin.Context) { session.Attach(c, s) }, handler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return w
}

func (f *fixture) signedIn(t *testing.T, sid, email string) *session.Session {
	t.Helper()
	account := f.env.SignUp(t, email, "motdepasse")
	return f.reg.Get(context.Background(), sid, account.AccessToken, models.DefaultPreferences())
}

func TestCheckoutUsesSessionCart(t *testing.T) {
	f := newFixture(t)
	s := f.signedIn(t, "sid-1", "ana@example.com")
	s.Cart.Add(context.Background(),
		models.CartItem{ID: "p1", Name: "Lampe", Price: 19.99, Quantity: 2},
		models.CartItem{ID: "p2", Name: "Ampoule", Price: 5.50, Quantity: 1},
	)

	w := call(s, f.handler.CreateCheckoutSession, `{"totalPrice":45.48}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["url"] != "https://checkout.stripe.test/cs_test_1" || resp["message"] == "" {
		t.Fatalf("resp = %+v", resp)
	}

	if len(f.gateway.payments) != 1 || len(f.gateway.payments[0].Items) != 2 {
		t.Fatalf("gateway calls = %+v", f.gateway.payments)
	}
	order, ok := f.orders.rows["cs_test_1"]
	if !ok || order.Status != models.OrderStatusPending || order.TotalPrice != 45.48 {
		t.Fatalf("pending order = %+v", order)
	}
	if len(s.Cart.Items()) != 2 {
		t.Fatalf("cart modified by checkout")
	}
}

func TestCheckoutRejections(t *testing.T) {
	f := newFixture(t)
	anon := f.reg.Get(context.Background(), "sid-anon", "", models.DefaultPreferences())
	anon.Cart.Add(context.Background(), models.CartItem{ID: "p1", Price: 10, Quantity: 1})
	empty := f.signedIn(t, "sid-empty", "ben@example.com")
	full := f.signedIn(t, "sid-full", "cleo@example.com")
	full.Cart.Add(context.Background(), models.CartItem{ID: "p1", Price: 10, Quantity: 1})

	cases := []struct {
		name string
		s    *session.Session
		body string
		want int
	}{
		{"anonymous", anon, ``, http.StatusUnauthorized},
		{"empty cart", empty, ``, http.StatusBadRequest},
		{"total mismatch", full, `{"totalPrice":9.99}`, http.StatusBadRequest},
		{"other user id", full, `{"userId":"someone-else"}`, http.StatusForbidden},
		{"garbage body", full, `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := call(tc.s, f.handler.CreateCheckoutSession, tc.body); w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
	if len(f.gateway.payments) != 0 {
		t.Fatalf("gateway called on rejected checkout: %+v", f.gateway.payments)
	}
}

func TestCheckoutGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("stripe indisponible")
	s := f.signedIn(t, "sid-1", "dora@example.com")
	s.Cart.Add(context.Background(), models.CartItem{ID: "p1", Price: 10, Quantity: 1})

	w := call(s, f.handler.CreateCheckoutSession, ``)
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "stripe indisponible") {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	if len(f.orders.rows) != 0 {
		t.Fatalf("order recorded after gateway failure")
	}
}

func TestPremiumSession(t *testing.T) {
	f := newFixture(t)
	anon := f.reg.Get(context.Background(), "sid-anon", "", models.DefaultPreferences())
	if w := call(anon, f.handler.CreatePremiumSession, ``); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", w.Code)
	}

	s := f.signedIn(t, "sid-1", "emil@example.com")
	w := call(s, f.handler.CreatePremiumSession, ``)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "cs_sub_1") {
		t.Fatalf("premium: %d %s", w.Code, w.Body.String())
	}
	req := f.gateway.subs[0]
	if req.PriceCents != 10000 || req.SuccessURL != "https://shop.test/premium-success" {
		t.Fatalf("subscription request = %+v", req)
	}

	f.env.Premium.Set(s.Bridge.Identity().ID, true)
	s.Bridge.RefreshPremium(context.Background())
	if w := call(s, f.handler.CreatePremiumSession, ``); w.Code != http.StatusBadRequest {
		t.Fatalf("already premium: %d", w.Code)
	}
}

const testWebhookSecret = "whsec_test"

func webhookRouter(premium *memPremium, orders *memOrders) *gin.Engine {
	h := NewWebhookHandler(checkout.NewWebhookProcessor(testWebhookSecret, premium, orders, nil))
	r := gin.New()
	r.POST("/api/stripe/webhook", h.StripeWebhook)
	return r
}

func TestStripeWebhook(t *testing.T) {
	premium := &memPremium{users: map[string]bool{}}
	orders := &memOrders{rows: map[string]models.Order{}}
	r := webhookRouter(premium, orders)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed",
			"data":{"object":{"id":"cs_sub_1","object":"checkout.session",
			"metadata":{"user_id":"u1","type":"subscription"}}}}`),
		Secret: testWebhookSecret,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(string(signed.Payload)))
	req.Header.Set("Stripe-Signature", signed.Header)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	if !premium.users["u1"] {
		t.Fatalf("premium row not written")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(string(signed.Payload)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad signature: %d", w.Code)
	}
}

func TestStripeWebhookRejectsOversizedBody(t *testing.T) {
	r := webhookRouter(&memPremium{users: map[string]bool{}}, &memOrders{rows: map[string]models.Order{}})

	body := strings.Repeat("x", int(maxWebhookBodyBytes)+1)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(body)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
