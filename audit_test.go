package credo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// collectingSink records every event synchronously so tests can assert on
// exactly what the dispatcher delivered.
type collectingSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *collectingSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *collectingSink) all() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

// blockingSink parks on a gate so the dispatcher buffer can be filled
// deterministically. When entered is non-nil it signals each delivery
// before parking.
type blockingSink struct {
	gate    chan struct{}
	entered chan struct{}
}

func (s *blockingSink) Emit(_ context.Context, _ AuditEvent) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	<-s.gate
}

func TestAuditDispatcherDeliversAndFlushesOnClose(t *testing.T) {
	sink := &collectingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d.Emit(ctx, AuditEvent{EventType: auditEventSignInSuccess, Success: true})
	}

	// Close drains whatever is still buffered before returning.
	d.Close()

	got := sink.all()
	if len(got) != 5 {
		t.Fatalf("expected 5 events delivered, got %d", len(got))
	}
	for _, event := range got {
		if event.EventType != auditEventSignInSuccess {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.Timestamp.IsZero() {
			t.Fatalf("expected dispatcher to stamp the timestamp: %+v", event)
		}
	}

	// Emitting after Close is a silent no-op.
	d.Emit(ctx, AuditEvent{EventType: auditEventSignOut})
	if len(sink.all()) != 5 {
		t.Fatal("emit after close must not deliver")
	}
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()

	// One event is picked up by the run loop and blocks in the sink; the
	// next fills the buffer; everything after that is dropped.
	for i := 0; i < 6; i++ {
		d.Emit(ctx, AuditEvent{EventType: auditEventSignInFailure})
	}

	deadline := time.After(2 * time.Second)
	for d.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected dropped events with a full buffer")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	close(sink.gate)
	d.Close()

	byType := d.DroppedByType()
	if byType[auditEventSignInFailure] != d.Dropped() {
		t.Fatalf("expected every drop accounted to %s, got %v (total %d)",
			auditEventSignInFailure, byType, d.Dropped())
	}
}

func TestAuditDroppedByTypeSplitsCounters(t *testing.T) {
	sink := &blockingSink{gate: make(chan struct{}), entered: make(chan struct{}, 8)}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()

	// First event parks in the sink, second fills the buffer. Everything
	// after that is deterministically dropped.
	d.Emit(ctx, AuditEvent{EventType: auditEventSignInFailure})
	<-sink.entered
	d.Emit(ctx, AuditEvent{EventType: auditEventSignInFailure})

	d.Emit(ctx, AuditEvent{EventType: auditEventSignInFailure})
	for i := 0; i < 3; i++ {
		d.Emit(ctx, AuditEvent{EventType: auditEventRateLimitTriggered})
	}

	byType := d.DroppedByType()
	if byType[auditEventSignInFailure] != 1 {
		t.Fatalf("expected 1 %s drop, got %v", auditEventSignInFailure, byType)
	}
	if byType[auditEventRateLimitTriggered] != 3 {
		t.Fatalf("expected 3 %s drops, got %v", auditEventRateLimitTriggered, byType)
	}

	var total uint64
	for _, n := range byType {
		total += n
	}
	if total != d.Dropped() {
		t.Fatalf("per-type drops %d do not sum to total %d", total, d.Dropped())
	}

	close(sink.gate)
	d.Close()

	// nil receivers are safe here too.
	var nilDispatcher *auditDispatcher
	if nilDispatcher.DroppedByType() != nil {
		t.Fatal("nil dispatcher reports no per-type drops")
	}
}

func TestAuditDisabledDispatcherIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, &collectingSink{})
	if d != nil {
		t.Fatal("disabled audit must not start a dispatcher")
	}

	// nil receivers are safe.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports zero drops")
	}
}

func TestEngineEmitsAuditTrail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sink := &collectingSink{}
	cfg := newTestConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 64}

	engine, err := New().WithConfig(cfg).WithRedis(rdb).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ctx := context.Background()
	mustRegister(t, engine, RegisterRequest{Email: "ana@iglesia.app", Password: "pw123456"})
	if _, err := engine.SignIn(ctx, "ana@iglesia.app", "wrong"); !errors.Is(err, ErrWrongCredential) {
		t.Fatalf("expected ErrWrongCredential, got %v", err)
	}
	if _, err := engine.SignIn(ctx, "ana@iglesia.app", "pw123456"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	engine.Close()

	seen := map[string]int{}
	for _, event := range sink.all() {
		seen[event.EventType]++
		if event.Mode != ModeLocal.String() {
			t.Fatalf("expected local mode on event, got %q", event.Mode)
		}
	}

	if seen[auditEventRegisterSuccess] != 1 {
		t.Fatalf("expected one register event, got %d", seen[auditEventRegisterSuccess])
	}
	if seen[auditEventSignInFailure] != 1 {
		t.Fatalf("expected one failure event, got %d", seen[auditEventSignInFailure])
	}
	if seen[auditEventSignInSuccess] != 1 {
		t.Fatalf("expected one success event, got %d", seen[auditEventSignInSuccess])
	}
}

func TestAuditCarriesClientIP(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sink := &collectingSink{}
	cfg := newTestConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 16}

	engine, err := New().WithConfig(cfg).WithRedis(rdb).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ctx := WithClientIP(context.Background(), "203.0.113.9")
	mustRegister(t, engine, RegisterRequest{Email: "ana@iglesia.app", Password: "pw123456"})
	if _, err := engine.SignIn(ctx, "ana@iglesia.app", "pw123456"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	engine.Close()

	var found bool
	for _, event := range sink.all() {
		if event.EventType == auditEventSignInSuccess {
			found = true
			if event.IP != "203.0.113.9" {
				t.Fatalf("expected client IP on event, got %q", event.IP)
			}
		}
	}
	if !found {
		t.Fatal("sign-in success event missing")
	}
}

func TestJSONWriterSinkWritesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{EventType: auditEventSignOut, Success: true})
	sink.Emit(context.Background(), AuditEvent{EventType: auditEventSignInSuccess, Success: true})

	scanner := bufio.NewScanner(strings.NewReader(buf.String()))
	var lines int
	for scanner.Scan() {
		lines++
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if event.EventType == "" {
			t.Fatalf("line %d missing event_type: %s", lines, scanner.Text())
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 ndjson lines, got %d", lines)
	}
}

func TestChannelSinkDelivery(t *testing.T) {
	sink := NewChannelSink(4)

	sink.Emit(context.Background(), AuditEvent{EventType: auditEventBootstrapCreated})

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventBootstrapCreated {
			t.Fatalf("unexpected event: %+v", event)
		}
	default:
		t.Fatal("expected buffered event")
	}

	// A full buffer plus a cancelled context must not block.
	full := NewChannelSink(1)
	full.Emit(context.Background(), AuditEvent{})
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	full.Emit(cancelled, AuditEvent{})
}
