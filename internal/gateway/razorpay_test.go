package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badabuilder/marketplace/internal/apperr"
)

func newTestClient(t *testing.T, baseURL string) *Razorpay {
	t.Helper()
	c, err := NewRazorpay(Config{KeyID: "rzp_test_key", KeySecret: "top-secret", BaseURL: baseURL, Timeout: time.Second})
	require.NoError(t, err)
	c.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return c
}

func TestNewRazorpayRequiresCredentials(t *testing.T) {
	_, err := NewRazorpay(Config{KeyID: "id"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConfig))
}

func TestCreateOrderSendsMinorUnits(t *testing.T) {
	var got orderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "top-secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(orderResponse{ID: "order_123", Amount: got.Amount, Currency: got.Currency, Receipt: got.Receipt, Status: "created"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	order, err := c.CreateOrder(context.Background(), decimal.NewFromInt(2500), "INR", "")
	require.NoError(t, err)

	assert.Equal(t, int64(250000), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "receipt_1700000000123", got.Receipt)
	assert.Equal(t, "order_123", order.ID)
	assert.True(t, order.Amount.Equal(decimal.NewFromInt(2500)))
}

func TestCreateOrderRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.CreateOrder(context.Background(), decimal.NewFromInt(300), "INR", "booking_1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrGatewayUnavailable))
}

func TestCreateOrderHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.CreateOrder(ctx, decimal.NewFromInt(300), "INR", "booking_1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindGatewayUnavailable, apperr.KindOf(err))
}

func TestCreateOrderUnconfigured(t *testing.T) {
	var c *Razorpay
	_, err := c.CreateOrder(context.Background(), decimal.NewFromInt(300), "INR", "")
	assert.True(t, errors.Is(err, apperr.ErrGatewayUnavailable))
}

func TestVerifyPayment(t *testing.T) {
	c := newTestClient(t, "http://unused")
	sig := Sign("top-secret", "order_abc", "pay_xyz")

	ok, err := c.VerifyPayment("order_abc", "pay_xyz", sig)
	require.NoError(t, err)
	assert.True(t, ok)

	for i := range sig {
		mutated := []byte(sig)
		if mutated[i] == 'a' {
			mutated[i] = 'b'
		} else {
			mutated[i] = 'a'
		}
		ok, err := c.VerifyPayment("order_abc", "pay_xyz", string(mutated))
		require.NoError(t, err)
		assert.False(t, ok, "mutation at %d must fail", i)
	}

	ok, _ = c.VerifyPayment("order_abc", "pay_other", sig)
	assert.False(t, ok)
}

func TestVerifyPaymentMissingSecret(t *testing.T) {
	c := &Razorpay{keyID: "id"}
	_, err := c.VerifyPayment("o", "p", "s")
	assert.True(t, errors.Is(err, apperr.ErrConfig))
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"500", 50000, false},
		{"300.50", 30050, false},
		{"0.01", 1, false},
		{"0", 0, true},
		{"-10", 0, true},
		{"1.005", 0, true},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(c.in))
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}
