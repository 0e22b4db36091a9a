package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/types"
)

type recorder struct {
	name string
	mu   sync.Mutex
	seen []string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, event)
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func (r *recorder) OnInvoiceFunded(_ context.Context, rec *funding.Record) error {
	r.add("funded:" + rec.Key.String())
	return nil
}

func (r *recorder) OnFeeChanged(_ context.Context, _ types.Identity, _, newPct fee.Percentage) error {
	r.add("fee")
	if newPct > 10 {
		return errors.New("fee too high for this plugin")
	}
	return nil
}

type slowPlugin struct{}

func (slowPlugin) Name() string { return "slow" }

func (slowPlugin) OnShutdown(ctx context.Context) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

func TestRegisterAndDispatch(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{name: "rec"}
	if err := reg.Register(rec); err != nil {
		t.Fatal(err)
	}

	reg.EmitInvoiceFunded(context.Background(), &funding.Record{Key: funding.Key{InvoiceID: "INV-1", Business: "acme"}})
	reg.EmitFeeChanged(context.Background(), "admin", 5, 15)
	// Only hooks the plugin implements receive events.
	reg.EmitInvoiceRepaid(context.Background(), &funding.Record{})

	got := rec.events()
	if len(got) != 2 || got[0] != "funded:INV-1-acme" || got[1] != "fee" {
		t.Errorf("unexpected events %v", got)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&recorder{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&recorder{name: "dup"}); err == nil {
		t.Error("expected duplicate registration error")
	}
	if reg.Count() != 1 {
		t.Errorf("expected 1 plugin, got %d", reg.Count())
	}
	if reg.Get("dup") == nil || reg.Get("missing") != nil {
		t.Error("Get returned the wrong plugin")
	}
}

func TestCallWithTimeout(t *testing.T) {
	reg := NewRegistry().WithTimeout(20 * time.Millisecond)
	if err := reg.Register(slowPlugin{}); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	reg.EmitShutdown(context.Background())
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("dispatch should give up after the timeout, took %s", elapsed)
	}

	err := reg.callWithTimeout(context.Background(), "slow", func() error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})
	if err == nil {
		t.Error("expected timeout error")
	}
}

func TestImplementedInterfaces(t *testing.T) {
	names := implementedInterfaces(&recorder{name: "rec"})
	if len(names) != 2 || names[0] != "OnInvoiceFunded" || names[1] != "OnFeeChanged" {
		t.Errorf("unexpected interfaces %v", names)
	}
}
