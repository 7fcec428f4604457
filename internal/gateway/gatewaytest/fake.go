// Package gatewaytest provides a scripted payment gateway for service tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/badabuilder/marketplace/internal/gateway"
)

const Secret = "test-secret"

type Call struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

// Fake opens orders with sequential ids and verifies signatures made with Secret.
type Fake struct {
	mu    sync.Mutex
	Calls []Call
	// Err, when set, is returned by CreateOrder.
	Err error
	seq int
}

func (f *Fake) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*gateway.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Amount: amount, Currency: currency, Receipt: receipt})
	if f.Err != nil {
		return nil, f.Err
	}
	f.seq++
	return &gateway.Order{
		ID:       fmt.Sprintf("order_test_%d", f.seq),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (f *Fake) VerifyPayment(orderID, paymentID, signature string) (bool, error) {
	return gateway.Sign(Secret, orderID, paymentID) == signature, nil
}

func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// Sign returns a signature Fake accepts.
func Sign(orderID, paymentID string) string {
	return gateway.Sign(Secret, orderID, paymentID)
}
