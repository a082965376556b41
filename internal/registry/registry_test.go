package registry

import (
	"testing"
	"time"

	"github.com/example/payment-aggregator/internal/domain"
	"github.com/example/payment-aggregator/internal/signature"
)

func TestVerify(t *testing.T) {
	r := New(map[domain.ProcessorID]string{
		domain.Stripe:  "whsec_test",
		domain.Bluefin: "bf_secret",
	})
	body := []byte(`{"id":"evt_1"}`)

	tests := []struct {
		name         string
		id           domain.ProcessorID
		header       string
		wantOK       bool
		wantBypassed bool
	}{
		{name: "hex valid", id: domain.Bluefin, header: signature.Sign("bf_secret", body), wantOK: true},
		{name: "hex wrong secret", id: domain.Bluefin, header: signature.Sign("other", body)},
		{name: "hex missing header", id: domain.Bluefin, header: ""},
		{name: "stripe valid", id: domain.Stripe, header: signature.SignTimestamped("whsec_test", body, time.Now()), wantOK: true},
		{name: "stripe hex header rejected", id: domain.Stripe, header: signature.Sign("whsec_test", body)},
		{name: "no secret bypasses", id: domain.Gravity, header: "", wantOK: true, wantBypassed: true},
		{name: "no secret bypasses garbage", id: domain.Covetrus, header: "zzz", wantOK: true, wantBypassed: true},
		{name: "unknown processor", id: "paypal", header: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, bypassed := r.Verify(tt.id, body, tt.header)
			if ok != tt.wantOK || bypassed != tt.wantBypassed {
				t.Errorf("Verify() = %v,%v want %v,%v", ok, bypassed, tt.wantOK, tt.wantBypassed)
			}
		})
	}
}

func TestByRouteAlias(t *testing.T) {
	r := New(nil)
	for _, route := range []string{"worldpay", "worldpay_integrated"} {
		p, ok := r.ByRoute(route)
		if !ok || p.ID != domain.WorldpayIntegrated {
			t.Errorf("ByRoute(%q) = %v,%v", route, p.ID, ok)
		}
	}
	if _, ok := r.ByRoute("paypal"); ok {
		t.Error("ByRoute(paypal) must fail")
	}
}

func TestEveryProcessorRegistered(t *testing.T) {
	r := New(nil)
	got := r.Processors()
	if len(got) != len(domain.Processors) {
		t.Fatalf("len = %d, want %d", len(got), len(domain.Processors))
	}
	for i, p := range got {
		if p.ID != domain.Processors[i] {
			t.Errorf("order[%d] = %s, want %s", i, p.ID, domain.Processors[i])
		}
		if p.Normalize == nil || p.Header == "" || len(p.Routes) == 0 {
			t.Errorf("%s: incomplete entry %+v", p.ID, p)
		}
	}
	if p, _ := r.Lookup(domain.Stripe); p.Scheme != signature.Timestamped {
		t.Errorf("stripe scheme = %s", p.Scheme)
	}
}

func TestTrustModes(t *testing.T) {
	r := New(map[domain.ProcessorID]string{domain.Gravity: "g"})
	modes := r.TrustModes()
	if modes[domain.Gravity] != TrustVerified {
		t.Errorf("gravity = %s, want verified", modes[domain.Gravity])
	}
	if modes[domain.Stripe] != TrustBypassed {
		t.Errorf("stripe = %s, want bypassed", modes[domain.Stripe])
	}
	if n := len(r.Unsigned()); n != 4 {
		t.Errorf("Unsigned() len = %d, want 4", n)
	}
}
