package checkout

import (
	"context"
	"errors"
	"sync"

	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/repository"
)

type fakeGateway struct {
	payments      []PaymentRequest
	subscriptions []SubscriptionRequest
	err           error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req PaymentRequest) (*GatewaySession, error) {
	g.payments = append(g.payments, req)
	if g.err != nil {
		return nil, g.err
	}
	return &GatewaySession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (g *fakeGateway) CreateSubscriptionSession(_ context.Context, req SubscriptionRequest) (*GatewaySession, error) {
	g.subscriptions = append(g.subscriptions, req)
	if g.err != nil {
		return nil, g.err
	}
	return &GatewaySession{ID: "cs_sub_1", URL: "https://checkout.stripe.test/cs_sub_1"}, nil
}

// memOrders simule orders / orders_by_session
type memOrders struct {
	mu        sync.Mutex
	bySession map[string]models.Order
	createErr error
}

func newMemOrders() *memOrders {
	return &memOrders{bySession: map[string]models.Order{}}
}

func (o *memOrders) Create(_ context.Context, order models.Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.createErr != nil {
		return o.createErr
	}
	o.bySession[order.StripeSessionID] = order
	return nil
}

func (o *memOrders) GetBySession(_ context.Context, id string) (*models.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	order, ok := o.bySession[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &order, nil
}

func (o *memOrders) UpdateStatus(_ context.Context, order models.Order, status string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	order.Status = status
	o.bySession[order.StripeSessionID] = order
	return nil
}

type memPremium struct {
	users map[string]models.PremiumSubscription
}

func (p *memPremium) Upsert(_ context.Context, sub models.PremiumSubscription) error {
	p.users[sub.UserID] = sub
	return nil
}

func (p *memPremium) Delete(_ context.Context, userID string) error {
	delete(p.users, userID)
	return nil
}

type sentMail struct {
	to    string
	order models.Order
}

type fakeMailer struct {
	sent []sentMail
}

func (m *fakeMailer) SendOrderConfirmation(_ context.Context, to string, order models.Order) error {
	m.sent = append(m.sent, sentMail{to: to, order: order})
	return nil
}

var errStripeDown = errors.New("stripe: service unavailable")
