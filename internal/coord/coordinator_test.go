package coord

import (
	"errors"
	"testing"

	"github.com/jmallek/conclave/pkg/models"
)

func TestCoordinator_DefaultFleet(t *testing.T) {
	c := New(Options{})
	defer c.Close()

	for _, role := range models.DefaultRoles() {
		if !c.Registry().IsRegistered(role) {
			t.Errorf("role %q should be registered by default", role)
		}
	}
	if !c.Registry().IsRegistered(models.SourceUser) {
		t.Error("the reserved user agent should be registered")
	}
}

func TestCoordinator_SendEmitsEvent(t *testing.T) {
	c := New(Options{EventBuffer: 8})
	defer c.Close()

	id, err := c.Send(SendRequest{
		Source: models.RoleDeveloper,
		Target: models.RoleQA,
		Kind:   models.KindRequest,
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	ev := <-c.Events()
	if ev.Type != EventMessageSent || ev.EntityID != id {
		t.Errorf("unexpected event %+v", ev)
	}

	if _, err := c.Send(SendRequest{
		Source: models.RoleDeveloper,
		Target: models.TargetBroadcast,
		Kind:   models.KindNotification,
	}); err != nil {
		t.Fatalf("broadcast Send returned error: %v", err)
	}
	ev = <-c.Events()
	if ev.Type != EventBroadcastSent {
		t.Errorf("expected broadcast_sent event, got %q", ev.Type)
	}
}

func TestCoordinator_TransferDeliverable(t *testing.T) {
	c := New(Options{})
	defer c.Close()

	id, err := c.TransferDeliverable(TransferRequest{
		Source:  models.RoleDeveloper,
		Target:  models.RoleQA,
		Content: "diff of the login fix",
		Type:    models.DeliverableCode,
		TaskID:  "t7",
	})
	if err != nil {
		t.Fatalf("TransferDeliverable returned error: %v", err)
	}

	// The target learns about the deliverable by reference only.
	msgs := c.Receive(models.RoleQA, ReceiveOptions{})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 announcement, got %d", len(msgs))
	}
	if msgs[0].Kind != models.KindDeliverable {
		t.Errorf("expected deliverable kind, got %q", msgs[0].Kind)
	}
	payload := msgs[0].Payload.(map[string]any)
	if payload["deliverable_id"] != id {
		t.Errorf("payload id = %v, want %v", payload["deliverable_id"], id)
	}
	if _, carriesContent := payload["content"]; carriesContent {
		t.Error("announcement must not carry the content by value")
	}

	// The content is fetched from the store by id.
	d, err := c.Deliverables().Get(id)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if d.Content != "diff of the login fix" {
		t.Errorf("stored content = %v", d.Content)
	}
}

func TestCoordinator_TransferMilestonePresentation(t *testing.T) {
	c := New(Options{})
	defer c.Close()

	_, err := c.TransferDeliverable(TransferRequest{
		Source:              models.RoleProjectManager,
		Target:              models.RoleScrumMaster,
		Content:             "sprint summary",
		Type:                models.DeliverableUserPresentation,
		ForUserPresentation: true,
	})
	if err != nil {
		t.Fatalf("TransferDeliverable returned error: %v", err)
	}

	msgs := c.Receive(models.RoleScrumMaster, ReceiveOptions{})
	if len(msgs) != 1 || msgs[0].Kind != models.KindMilestonePresentation {
		t.Fatalf("expected milestone_presentation to scrum master, got %v", msgs)
	}
}

func TestCoordinator_TransferRollbackOnFailedSend(t *testing.T) {
	c := New(Options{})
	defer c.Close()

	before := c.Deliverables().Count()
	_, err := c.TransferDeliverable(TransferRequest{
		Source:  models.RoleDeveloper,
		Target:  "nobody",
		Content: "orphan",
		Type:    models.DeliverableCode,
	})
	if !errors.Is(err, ErrDeliveryFailure) {
		t.Fatalf("expected ErrDeliveryFailure, got %v", err)
	}
	if got := c.Deliverables().Count(); got != before {
		t.Errorf("failed transfer must roll the deliverable back, count %d -> %d", before, got)
	}
}

func TestCoordinator_ApproveCheckpointNotifiesTeamLead(t *testing.T) {
	c := New(Options{})
	defer c.Close()

	id, err := c.CreateCheckpoint(CheckpointRequest{
		Type:  models.CheckpointMilestone,
		Title: "beta cut",
	})
	if err != nil {
		t.Fatalf("CreateCheckpoint returned error: %v", err)
	}

	if err := c.ApproveCheckpoint(id, "u1", "ship it"); err != nil {
		t.Fatalf("ApproveCheckpoint returned error: %v", err)
	}

	msgs := c.Receive(models.RoleTeamLead, ReceiveOptions{})
	if len(msgs) != 1 {
		t.Fatalf("expected team-lead notification, got %d messages", len(msgs))
	}
	payload := msgs[0].Payload.(map[string]any)
	if payload["notification"] != string(NotifyApproval) {
		t.Errorf("notification = %v", payload["notification"])
	}
	if payload["status"] != string(models.CheckpointApproved) {
		t.Errorf("status = %v", payload["status"])
	}
}

func TestCoordinator_RouteFeedback(t *testing.T) {
	c := New(Options{})
	defer c.Close()

	item := models.FeedbackItem{
		ID:       "fb1",
		UserID:   "u1",
		Content:  "the dashboard crashes on load",
		Category: models.CategoryBugReport,
		Priority: models.PriorityCritical,
		RoutedTo: models.RoleQA,
	}
	if _, err := c.RouteFeedback(item); err != nil {
		t.Fatalf("RouteFeedback returned error: %v", err)
	}

	msgs := c.Receive(models.RoleQA, ReceiveOptions{UserOnly: true})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 routed message, got %d", len(msgs))
	}
	if msgs[0].Kind != models.KindUserFeedback || msgs[0].Source != models.SourceUser {
		t.Errorf("routed message kind=%q source=%q", msgs[0].Kind, msgs[0].Source)
	}
	if msgs[0].Priority != models.PriorityCritical {
		t.Errorf("routed priority = %q", msgs[0].Priority)
	}
}

func TestCoordinator_RouteFeedbackMultipleBroadcasts(t *testing.T) {
	c := New(Options{})
	defer c.Close()

	item := models.FeedbackItem{
		ID:       "fb2",
		UserID:   "u1",
		Content:  "auth is slow and the layout is confusing",
		Category: models.CategoryUsability,
		Priority: models.PriorityHigh,
		RoutedTo: models.RouteMultiple,
	}
	if _, err := c.RouteFeedback(item); err != nil {
		t.Fatalf("RouteFeedback returned error: %v", err)
	}

	// Every registered agent except the user source receives a clone.
	for _, role := range models.DefaultRoles() {
		if n := len(c.Receive(role, ReceiveOptions{})); n != 1 {
			t.Errorf("role %s: expected 1 clone, got %d", role, n)
		}
	}
	if n := len(c.Receive(models.SourceUser, ReceiveOptions{})); n != 0 {
		t.Errorf("user source should not receive its own broadcast, got %d", n)
	}
}
