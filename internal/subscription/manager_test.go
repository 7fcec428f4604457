package subscription

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/gateway/gatewaytest"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/store/storetest"
)

var t0 = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func newManager(t *testing.T) (*Manager, *storetest.Memory, *gatewaytest.Fake) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	repo := storetest.New()
	gw := &gatewaytest.Fake{}
	m := NewManager(repo, gw, "INR", log)
	m.now = func() time.Time { return t0 }
	return m, repo, gw
}

func ptr[T any](v T) *T { return &v }

func TestIsEligible(t *testing.T) {
	cases := []struct {
		name string
		sub  model.Subscription
		want bool
	}{
		{"not subscribed", model.Subscription{}, false},
		{"not subscribed with future expiry", model.Subscription{Expiry: ptr(t0.Add(time.Hour))}, false},
		{"future expiry", model.Subscription{IsSubscribed: true, Expiry: ptr(t0.Add(time.Hour))}, true},
		{"expired", model.Subscription{IsSubscribed: true, Expiry: ptr(t0.Add(-time.Hour))}, false},
		{"expires exactly now", model.Subscription{IsSubscribed: true, Expiry: ptr(t0)}, false},
		{"no expiry", model.Subscription{IsSubscribed: true}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsEligible(c.sub, t0))
		})
	}
}

func TestNextExpiry(t *testing.T) {
	future := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), NextExpiry(&future, t0, 6))
	assert.Equal(t, t0.AddDate(0, 1, 0), NextExpiry(&past, t0, 1))
	assert.Equal(t, t0.AddDate(0, 12, 0), NextExpiry(nil, t0, 12))
	assert.Equal(t, t0.AddDate(0, 1, 0), NextExpiry(&t0, t0, 1), "expiry equal to now counts as lapsed")
}

func TestPlans(t *testing.T) {
	plans := Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, []string{"1_month", "6_months", "12_months"}, []string{plans[0].ID, plans[1].ID, plans[2].ID})
	assert.True(t, plans[1].Price.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, "Save ₹1500", plans[2].Savings)

	plans[0].Price = decimal.Zero
	p, err := LookupPlan("1_month")
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(500)), "catalog must not be mutable through Plans")

	_, err = LookupPlan("2_years")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestCreateOrder(t *testing.T) {
	m, repo, gw := newManager(t)
	u := repo.AddUser(model.User{Email: "dev@example.com"})

	res, err := m.CreateOrder(context.Background(), u.ID, "6_months")
	require.NoError(t, err)
	assert.Equal(t, "order_test_1", res.OrderID)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, 6, res.Duration)

	require.Len(t, gw.Calls, 1)
	assert.Equal(t, "subscription_1_1736935200000", gw.Calls[0].Receipt)

	order, err := repo.GetPaymentOrder(context.Background(), res.OrderID, false)
	require.NoError(t, err)
	assert.Equal(t, model.PurposeSubscription, order.Purpose)
	assert.Equal(t, "6_months", *order.PlanID)
}

func TestCreateOrderInvalidPlanSkipsGateway(t *testing.T) {
	m, repo, gw := newManager(t)
	u := repo.AddUser(model.User{Email: "dev@example.com"})

	_, err := m.CreateOrder(context.Background(), u.ID, "lifetime")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Zero(t, gw.CallCount())
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	m, repo, gw := newManager(t)
	u := repo.AddUser(model.User{Email: "dev@example.com"})
	gw.Err = apperr.GatewayUnavailable("razorpay order creation failed", nil)

	_, err := m.CreateOrder(context.Background(), u.ID, "1_month")
	assert.Equal(t, apperr.KindGatewayUnavailable, apperr.KindOf(err))
}

func openOrder(t *testing.T, m *Manager, userID int64, plan string) string {
	t.Helper()
	res, err := m.CreateOrder(context.Background(), userID, plan)
	require.NoError(t, err)
	return res.OrderID
}

func verifyReq(orderID, paymentID, plan string) VerifyRequest {
	return VerifyRequest{
		PaymentProof: model.PaymentProof{OrderID: orderID, PaymentID: paymentID, Signature: gatewaytest.Sign(orderID, paymentID)},
		PlanID:       plan,
	}
}

func TestVerifyActivatesFreshUser(t *testing.T) {
	m, repo, _ := newManager(t)
	u := repo.AddUser(model.User{Email: "dev@example.com"})
	orderID := openOrder(t, m, u.ID, "1_month")

	st, err := m.Verify(context.Background(), u.ID, verifyReq(orderID, "pay_1", "1_month"))
	require.NoError(t, err)
	assert.True(t, st.IsSubscribed)
	assert.Equal(t, t0.AddDate(0, 1, 0), *st.Expiry)
	assert.Equal(t, "1_month", *st.Plan)
	assert.Equal(t, t0, *st.SubscribedAt)

	notes := repo.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "dev@example.com", notes[0].Recipient)
	assert.Equal(t, "Subscription Confirmed", notes[0].Subject)
}

func TestVerifyExtendsUnexpiredWindow(t *testing.T) {
	m, repo, _ := newManager(t)
	current := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	first := t0.AddDate(0, -2, 0)
	u := repo.AddUser(model.User{Email: "dev@example.com", Subscription: model.Subscription{
		IsSubscribed: true, Expiry: &current, Plan: ptr("1_month"), SubscribedAt: &first,
	}})
	orderID := openOrder(t, m, u.ID, "6_months")

	st, err := m.Verify(context.Background(), u.ID, verifyReq(orderID, "pay_1", "6_months"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), *st.Expiry)
	assert.Equal(t, first, *st.SubscribedAt, "subscribed_at is set once")
	assert.True(t, st.Price.Decimal.Equal(decimal.NewFromInt(2500)))
}

func TestVerifyRestartsLapsedWindow(t *testing.T) {
	m, repo, _ := newManager(t)
	lapsed := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	u := repo.AddUser(model.User{Email: "dev@example.com", Subscription: model.Subscription{IsSubscribed: true, Expiry: &lapsed}})
	orderID := openOrder(t, m, u.ID, "1_month")

	st, err := m.Verify(context.Background(), u.ID, verifyReq(orderID, "pay_1", "1_month"))
	require.NoError(t, err)
	assert.Equal(t, t0.AddDate(0, 1, 0), *st.Expiry)
}

func TestVerifyBadSignatureTouchesNothing(t *testing.T) {
	m, repo, _ := newManager(t)
	u := repo.AddUser(model.User{Email: "dev@example.com"})
	orderID := openOrder(t, m, u.ID, "1_month")

	req := verifyReq(orderID, "pay_1", "1_month")
	req.Signature = "deadbeef"
	_, err := m.Verify(context.Background(), u.ID, req)
	assert.True(t, errors.Is(err, apperr.ErrPaymentVerificationFailed))

	got, _ := repo.GetUser(context.Background(), u.ID, false)
	assert.False(t, got.IsSubscribed)
	assert.Empty(t, repo.Notifications())
}

func TestVerifyReplayIsNoop(t *testing.T) {
	m, repo, _ := newManager(t)
	u := repo.AddUser(model.User{Email: "dev@example.com"})
	orderID := openOrder(t, m, u.ID, "1_month")

	first, err := m.Verify(context.Background(), u.ID, verifyReq(orderID, "pay_1", "1_month"))
	require.NoError(t, err)
	second, err := m.Verify(context.Background(), u.ID, verifyReq(orderID, "pay_1", "1_month"))
	require.NoError(t, err)

	assert.Equal(t, *first.Expiry, *second.Expiry, "replay must not extend again")
	assert.Len(t, repo.Notifications(), 1)

	_, err = m.Verify(context.Background(), u.ID, verifyReq(orderID, "pay_2", "1_month"))
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestVerifyRejectsMismatchedOrder(t *testing.T) {
	m, repo, _ := newManager(t)
	owner := repo.AddUser(model.User{Email: "owner@example.com"})
	other := repo.AddUser(model.User{Email: "other@example.com"})
	orderID := openOrder(t, m, owner.ID, "1_month")

	_, err := m.Verify(context.Background(), other.ID, verifyReq(orderID, "pay_1", "1_month"))
	assert.True(t, errors.Is(err, apperr.ErrValidation), "foreign order")

	_, err = m.Verify(context.Background(), owner.ID, verifyReq(orderID, "pay_1", "12_months"))
	assert.True(t, errors.Is(err, apperr.ErrValidation), "plan upgrade on a cheaper order")

	_, err = m.Verify(context.Background(), owner.ID, verifyReq("order_unknown", "pay_1", "1_month"))
	assert.True(t, errors.Is(err, apperr.ErrValidation), "unknown order")

	got, _ := repo.GetUser(context.Background(), owner.ID, false)
	assert.False(t, got.IsSubscribed)
}

func TestConcurrentRenewalsAccumulate(t *testing.T) {
	m, repo, _ := newManager(t)
	u := repo.AddUser(model.User{Email: "dev@example.com"})
	a := openOrder(t, m, u.ID, "1_month")
	b := openOrder(t, m, u.ID, "1_month")

	var wg sync.WaitGroup
	for i, orderID := range []string{a, b} {
		wg.Add(1)
		go func(orderID, payID string) {
			defer wg.Done()
			_, err := m.Verify(context.Background(), u.ID, verifyReq(orderID, payID, "1_month"))
			assert.NoError(t, err)
		}(orderID, []string{"pay_a", "pay_b"}[i])
	}
	wg.Wait()

	st, err := m.Status(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.AddDate(0, 2, 0), *st.Expiry)
}

func TestStatus(t *testing.T) {
	m, repo, _ := newManager(t)
	lapsed := t0.Add(-time.Minute)
	u := repo.AddUser(model.User{Email: "dev@example.com", Subscription: model.Subscription{IsSubscribed: true, Expiry: &lapsed}})

	st, err := m.Status(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, st.IsSubscribed, "lapsed window reports not subscribed")
	assert.Equal(t, lapsed, *st.Expiry)

	_, err = m.Status(context.Background(), 999)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
