package coord

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmallek/conclave/pkg/models"
)

func newTestBus(agents ...string) *MessageBus {
	registry := NewAgentRegistry()
	for _, a := range agents {
		registry.Register(a)
	}
	return NewMessageBus(registry, zerolog.Nop())
}

func TestMessageBus_SendAndReceive(t *testing.T) {
	bus := newTestBus(models.RoleTeamLead, models.RoleQA)

	id, err := bus.Send(SendRequest{
		Source:   models.RoleTeamLead,
		Target:   models.RoleQA,
		Payload:  map[string]any{"task": "review login flow"},
		Kind:     models.KindInstruction,
		Priority: models.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty message id")
	}

	msgs := bus.Receive(models.RoleQA, ReceiveOptions{})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Priority != models.PriorityHigh {
		t.Errorf("expected priority high, got %q", msgs[0].Priority)
	}
	if msgs[0].Status != models.StatusQueued {
		t.Errorf("expected status queued, got %q", msgs[0].Status)
	}
}

func TestMessageBus_UnknownAgent(t *testing.T) {
	bus := newTestBus(models.RoleDeveloper)

	tests := []struct {
		name   string
		source string
		target string
	}{
		{name: "unknown source", source: "ghost", target: models.RoleDeveloper},
		{name: "unknown target", source: models.RoleDeveloper, target: "ghost"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bus.Send(SendRequest{
				Source: tc.source,
				Target: tc.target,
				Kind:   models.KindRequest,
			})
			if !errors.Is(err, ErrUnknownAgent) {
				t.Errorf("expected ErrUnknownAgent, got %v", err)
			}
		})
	}

	// Validation failures must not mutate any inbox.
	if n := bus.InboxLen(models.RoleDeveloper); n != 0 {
		t.Errorf("expected empty inbox after failed sends, got %d", n)
	}
}

func TestMessageBus_InvalidEnum(t *testing.T) {
	bus := newTestBus(models.RoleDeveloper, models.RoleQA)

	_, err := bus.Send(SendRequest{
		Source: models.RoleDeveloper,
		Target: models.RoleQA,
		Kind:   "carrier_pigeon",
	})
	if !errors.Is(err, ErrInvalidEnum) {
		t.Errorf("expected ErrInvalidEnum for bad kind, got %v", err)
	}

	_, err = bus.Send(SendRequest{
		Source:   models.RoleDeveloper,
		Target:   models.RoleQA,
		Kind:     models.KindRequest,
		Priority: "extreme",
	})
	if !errors.Is(err, ErrInvalidEnum) {
		t.Errorf("expected ErrInvalidEnum for bad priority, got %v", err)
	}
}

func TestMessageBus_PriorityOrdering(t *testing.T) {
	bus := newTestBus(models.RoleDeveloper, models.RoleQA, models.RoleScrumMaster)

	// Enqueue low first, then progressively higher priorities. Read order
	// must be rank order regardless of arrival order.
	priorities := []models.Priority{
		models.PriorityLow,
		models.PriorityMedium,
		models.PriorityHigh,
		models.PriorityCritical,
	}
	for _, p := range priorities {
		if _, err := bus.Send(SendRequest{
			Source:   models.RoleDeveloper,
			Target:   models.RoleQA,
			Kind:     models.KindNotification,
			Priority: p,
		}); err != nil {
			t.Fatalf("Send(%s) returned error: %v", p, err)
		}
		time.Sleep(time.Millisecond)
	}

	// A user-initiated message arriving last must sort first.
	if _, err := bus.Send(SendRequest{
		Source:   models.RoleScrumMaster,
		Target:   models.RoleQA,
		Kind:     models.KindUserFeedback,
		Priority: models.PriorityLow,
		UserID:   "u1",
	}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	msgs := bus.Receive(models.RoleQA, ReceiveOptions{})
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}

	want := []models.Priority{
		models.PriorityUserInitiated,
		models.PriorityCritical,
		models.PriorityHigh,
		models.PriorityMedium,
		models.PriorityLow,
	}
	for i, p := range want {
		if msgs[i].Priority != p {
			t.Errorf("position %d: expected %q, got %q", i, p, msgs[i].Priority)
		}
	}
}

func TestMessageBus_ScrumMasterUserEscalation(t *testing.T) {
	bus := newTestBus(models.RoleScrumMaster, models.RoleDeveloper)

	id, err := bus.Send(SendRequest{
		Source:   models.RoleScrumMaster,
		Target:   models.RoleDeveloper,
		Kind:     models.KindInstruction,
		Priority: models.PriorityLow,
		UserID:   "u1",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	msgs := bus.Receive(models.RoleDeveloper, ReceiveOptions{})
	if len(msgs) != 1 || msgs[0].ID != id {
		t.Fatalf("expected the sent message in inbox")
	}
	if msgs[0].Priority != models.PriorityUserInitiated {
		t.Errorf("expected forced user_initiated priority, got %q", msgs[0].Priority)
	}

	// Without a user id there is no escalation.
	bus.Send(SendRequest{
		Source:   models.RoleScrumMaster,
		Target:   models.RoleDeveloper,
		Kind:     models.KindInstruction,
		Priority: models.PriorityLow,
	})
	msgs = bus.Receive(models.RoleDeveloper, ReceiveOptions{})
	if msgs[len(msgs)-1].Priority != models.PriorityLow {
		t.Errorf("expected low priority without user id, got %q", msgs[len(msgs)-1].Priority)
	}
}

func TestMessageBus_BroadcastCompleteness(t *testing.T) {
	agents := []string{
		models.RoleProjectManager,
		models.RoleArchitect,
		models.RoleDeveloper,
		models.RoleQA,
	}
	bus := newTestBus(agents...)

	if _, err := bus.Send(SendRequest{
		Source: models.RoleProjectManager,
		Target: models.TargetBroadcast,
		Kind:   models.KindNotification,
	}); err != nil {
		t.Fatalf("broadcast Send returned error: %v", err)
	}

	// Every other agent gets exactly one clone; the sender gets none.
	if n := bus.InboxLen(models.RoleProjectManager); n != 0 {
		t.Errorf("sender inbox should be empty, got %d", n)
	}
	delivered := 0
	for _, a := range agents[1:] {
		msgs := bus.Receive(a, ReceiveOptions{})
		if len(msgs) != 1 {
			t.Errorf("agent %s: expected 1 clone, got %d", a, len(msgs))
			continue
		}
		delivered++
		if msgs[0].Target != a {
			t.Errorf("agent %s: clone targets %q", a, msgs[0].Target)
		}
	}
	if delivered != len(agents)-1 {
		t.Errorf("expected %d deliveries, got %d", len(agents)-1, delivered)
	}
}

func TestMessageBus_ReceiveFilters(t *testing.T) {
	bus := newTestBus(models.RoleDeveloper, models.RoleQA)

	bus.Send(SendRequest{Source: models.RoleDeveloper, Target: models.RoleQA, Kind: models.KindInstruction})
	bus.Send(SendRequest{Source: models.RoleDeveloper, Target: models.RoleQA, Kind: models.KindNotification})
	bus.Send(SendRequest{Source: models.RoleDeveloper, Target: models.RoleQA, Kind: models.KindNotification, UserID: "u1"})

	byKind := bus.Receive(models.RoleQA, ReceiveOptions{Kinds: []models.MessageKind{models.KindNotification}})
	if len(byKind) != 2 {
		t.Errorf("kind filter: expected 2, got %d", len(byKind))
	}

	userOnly := bus.Receive(models.RoleQA, ReceiveOptions{UserOnly: true})
	if len(userOnly) != 1 {
		t.Errorf("user filter: expected 1, got %d", len(userOnly))
	}

	limited := bus.Receive(models.RoleQA, ReceiveOptions{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("limit: expected 2, got %d", len(limited))
	}
}

func TestMessageBus_ReceiveIsNotADequeue(t *testing.T) {
	bus := newTestBus(models.RoleDeveloper, models.RoleQA)

	bus.Send(SendRequest{Source: models.RoleDeveloper, Target: models.RoleQA, Kind: models.KindRequest})

	first := bus.Receive(models.RoleQA, ReceiveOptions{})
	second := bus.Receive(models.RoleQA, ReceiveOptions{})
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected repeated reads to return the message, got %d then %d", len(first), len(second))
	}
	if second[0].Status != models.StatusQueued {
		t.Errorf("read must not change status, got %q", second[0].Status)
	}
}

func TestMessageBus_AcknowledgeIdempotence(t *testing.T) {
	bus := newTestBus(models.RoleDeveloper, models.RoleQA)

	id, _ := bus.Send(SendRequest{Source: models.RoleDeveloper, Target: models.RoleQA, Kind: models.KindRequest})

	if !bus.Acknowledge(models.RoleQA, id) {
		t.Fatal("first acknowledge should return true")
	}
	if !bus.Acknowledge(models.RoleQA, id) {
		t.Fatal("second acknowledge should also return true")
	}

	msgs := bus.Receive(models.RoleQA, ReceiveOptions{})
	if msgs[0].Status != models.StatusAcknowledged {
		t.Errorf("expected acknowledged, got %q", msgs[0].Status)
	}

	if bus.Acknowledge(models.RoleQA, "no-such-message") {
		t.Error("acknowledging an unknown message should return false")
	}
	if bus.Acknowledge(models.RoleDeveloper, id) {
		t.Error("acknowledging from the wrong inbox should return false")
	}
}

func TestMessageBus_StatusOnlyAdvances(t *testing.T) {
	bus := newTestBus(models.RoleDeveloper, models.RoleQA)

	id, _ := bus.Send(SendRequest{Source: models.RoleDeveloper, Target: models.RoleQA, Kind: models.KindRequest})

	if !bus.MarkProcessing(models.RoleQA, id) {
		t.Fatal("queued -> processing should succeed")
	}
	if !bus.MarkDelivered(models.RoleQA, id) {
		t.Fatal("processing -> delivered should succeed")
	}
	if bus.MarkProcessing(models.RoleQA, id) {
		t.Error("delivered -> processing must be rejected")
	}

	// A delivered message leaves the channel queue and is never re-queued.
	ch := bus.Channel(models.RoleDeveloper, models.RoleQA)
	if ch.QueueLen() != 0 {
		t.Errorf("expected empty queue after delivery, got %d", ch.QueueLen())
	}
	if len(ch.History()) != 1 {
		t.Errorf("expected 1 message in history, got %d", len(ch.History()))
	}

	status, ok := bus.Status(id)
	if !ok || status != models.StatusDelivered {
		t.Errorf("expected delivered status record, got %q (%v)", status, ok)
	}
}

func TestMessageBus_UnregisteredAgentKeepsHistory(t *testing.T) {
	registry := NewAgentRegistry()
	registry.Register(models.RoleDeveloper)
	registry.Register(models.RoleQA)
	bus := NewMessageBus(registry, zerolog.Nop())

	bus.Send(SendRequest{Source: models.RoleDeveloper, Target: models.RoleQA, Kind: models.KindRequest})
	registry.Unregister(models.RoleQA)

	// The inbox survives unregistration for audit.
	if n := bus.InboxLen(models.RoleQA); n != 1 {
		t.Errorf("expected retained inbox, got %d messages", n)
	}

	// But new sends to the unregistered agent fail.
	if _, err := bus.Send(SendRequest{Source: models.RoleDeveloper, Target: models.RoleQA, Kind: models.KindRequest}); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("expected ErrUnknownAgent after unregister, got %v", err)
	}
}

func TestMessageBus_ChannelSnapshotsAreCopies(t *testing.T) {
	bus := newTestBus(models.RoleDeveloper, models.RoleQA)

	id, err := bus.Send(SendRequest{
		Source:   models.RoleDeveloper,
		Target:   models.RoleQA,
		Kind:     models.KindRequest,
		Priority: models.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	ch := bus.Channel(models.RoleDeveloper, models.RoleQA)

	pending := ch.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending message, got %d", len(pending))
	}
	pending[0].Status = models.StatusAcknowledged
	if status, _ := bus.Status(id); status != models.StatusQueued {
		t.Errorf("mutating a Pending snapshot must not change the stored message, got %q", status)
	}

	bus.Acknowledge(models.RoleQA, id)
	history := ch.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 history message, got %d", len(history))
	}
	history[0].Priority = models.PriorityLow
	if got := ch.History()[0].Priority; got != models.PriorityHigh {
		t.Errorf("mutating a History snapshot must not change the stored message, got %q", got)
	}
}
