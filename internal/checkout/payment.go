package checkout

import (
	"context"
	"fmt"
	"time"
)

type ChargeResult struct {
	Approved    bool   `json:"approved"`
	ProviderRef string `json:"providerRef"`
	FailReason  string `json:"failReason,omitempty"`
}

// Gateway charges a placed order. Implementations must be safe to retry;
// the order's payment status is only advanced after a result comes back.
type Gateway interface {
	Charge(ctx context.Context, orderRef string, amount int) (ChargeResult, error)
}

// FakeGateway approves everything unless Decline says otherwise. It stands
// in for a real provider in local runs and tests.
type FakeGateway struct {
	Decline func(amount int) bool
}

func NewFakeGateway() *FakeGateway { return &FakeGateway{} }

func (g *FakeGateway) Charge(ctx context.Context, orderRef string, amount int) (ChargeResult, error) {
	ref := fmt.Sprintf("FAKE-%s-%d", orderRef, time.Now().UnixNano())
	if g.Decline != nil && g.Decline(amount) {
		return ChargeResult{Approved: false, ProviderRef: ref, FailReason: "insufficient_funds"}, nil
	}
	return ChargeResult{Approved: true, ProviderRef: ref}, nil
}
