package relay

import (
	"context"
	"testing"
	"time"
)

func TestHubAnnounceAndSend(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	alice := NewClient("conn-a")
	bob := NewClient("conn-b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandAnnounce, UserID: "alice"}
	bob.Commands <- &Command{Kind: CommandAnnounce, UserID: "bob"}
	time.Sleep(50 * time.Millisecond)

	alice.Commands <- &Command{Kind: CommandSend, To: "bob", From: "alice", Text: "hi"}

	ev := mustEvent(t, bob.Events, EventReceive)
	if ev.Text != "hi" {
		t.Fatalf("unexpected payload: %q", ev.Text)
	}

	// The payload is bare text; the sender path gets no echo.
	mustNoEvent(t, alice.Events, 100*time.Millisecond)
}

func TestHubSendToAbsentUserIsSilentDrop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	alice := NewClient("conn-a")
	hub.RegisterClient(alice)
	alice.Commands <- &Command{Kind: CommandAnnounce, UserID: "alice"}

	alice.Commands <- &Command{Kind: CommandSend, To: "ghost", From: "alice", Text: "anyone?"}

	// No error surfaces to the sender and nothing is queued.
	mustNoEvent(t, alice.Events, 150*time.Millisecond)
}

func TestHubDeliversToExactlyOneConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	alice := NewClient("conn-a")
	bob := NewClient("conn-b")
	carol := NewClient("conn-c")
	for _, c := range []*Client{alice, bob, carol} {
		hub.RegisterClient(c)
	}
	alice.Commands <- &Command{Kind: CommandAnnounce, UserID: "alice"}
	bob.Commands <- &Command{Kind: CommandAnnounce, UserID: "bob"}
	carol.Commands <- &Command{Kind: CommandAnnounce, UserID: "carol"}
	time.Sleep(50 * time.Millisecond)

	alice.Commands <- &Command{Kind: CommandSend, To: "bob", Text: "secret"}

	ev := mustEvent(t, bob.Events, EventReceive)
	if ev.Text != "secret" {
		t.Fatalf("unexpected payload: %q", ev.Text)
	}
	mustNoEvent(t, carol.Events, 100*time.Millisecond)
	mustNoEvent(t, alice.Events, 50*time.Millisecond)
}

func TestHubReconnectLastWriteWins(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	old := NewClient("conn-old")
	fresh := NewClient("conn-new")
	hub.RegisterClient(old)
	hub.RegisterClient(fresh)

	old.Commands <- &Command{Kind: CommandAnnounce, UserID: "bob"}
	fresh.Commands <- &Command{Kind: CommandAnnounce, UserID: "bob"}

	// Give the hub time to process both announces in order.
	time.Sleep(50 * time.Millisecond)

	hub.Forward("bob", "after reconnect")

	ev := mustEvent(t, fresh.Events, EventReceive)
	if ev.Text != "after reconnect" {
		t.Fatalf("unexpected payload: %q", ev.Text)
	}
	mustNoEvent(t, old.Events, 100*time.Millisecond)
}

func TestHubDisconnectCleansPresence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	alice := NewClient("conn-a")
	bob := NewClient("conn-b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandAnnounce, UserID: "alice"}
	bob.Commands <- &Command{Kind: CommandAnnounce, UserID: "bob"}
	time.Sleep(50 * time.Millisecond)

	hub.UnregisterClient(bob)
	time.Sleep(50 * time.Millisecond)

	alice.Commands <- &Command{Kind: CommandSend, To: "bob", Text: "you there?"}

	mustNoEvent(t, bob.Events, 150*time.Millisecond)
}

func TestHubLogoutClearsPresence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	bob := NewClient("conn-b")
	hub.RegisterClient(bob)
	bob.Commands <- &Command{Kind: CommandAnnounce, UserID: "bob"}
	time.Sleep(50 * time.Millisecond)

	hub.Disconnect("bob")
	time.Sleep(50 * time.Millisecond)

	hub.Forward("bob", "gone")
	mustNoEvent(t, bob.Events, 150*time.Millisecond)
}

func TestHubAnnounceRequiresValidToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	validator := &stubValidator{users: map[string]string{"tok-alice": "alice"}}
	hub := NewHub(validator, nil)
	go hub.Run(ctx)

	intruder := NewClient("conn-x")
	hub.RegisterClient(intruder)

	// Claiming alice with no token is rejected.
	intruder.Commands <- &Command{Kind: CommandAnnounce, UserID: "alice", Token: "forged"}
	ev := mustEvent(t, intruder.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", ev)
	}

	// Claiming a user other than the token's subject is rejected too.
	intruder.Commands <- &Command{Kind: CommandAnnounce, UserID: "bob", Token: "tok-alice"}
	ev = mustEvent(t, intruder.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", ev)
	}

	hub.Forward("alice", "should be dropped")
	mustNoEvent(t, intruder.Events, 100*time.Millisecond)

	// The real alice gets through.
	alice := NewClient("conn-a")
	hub.RegisterClient(alice)
	alice.Commands <- &Command{Kind: CommandAnnounce, UserID: "alice", Token: "tok-alice"}
	time.Sleep(50 * time.Millisecond)

	hub.Forward("alice", "welcome")
	got := mustEvent(t, alice.Events, EventReceive)
	if got.Text != "welcome" {
		t.Fatalf("unexpected payload: %q", got.Text)
	}
}

func TestHubShortLivedConnectionIsFullyCleaned(t *testing.T) {
	// A connection can announce and disappear before the hub goroutine
	// gets a turn. The queued announce, register and unregister must
	// resolve in order: the pump stops, the done channel closes, and no
	// presence entry survives for the dead connection.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil, nil)

	ghost := NewClient("conn-ghost")
	ghost.Commands <- &Command{Kind: CommandAnnounce, UserID: "ghost"}
	hub.RegisterClient(ghost)
	hub.UnregisterClient(ghost)

	go hub.Run(ctx)

	select {
	case <-ghost.done:
	case <-time.After(2 * time.Second):
		t.Fatal("done never closed for short-lived connection")
	}

	hub.Forward("ghost", "anyone?")
	mustNoEvent(t, ghost.Events, 150*time.Millisecond)

	// Settle the hub goroutine before inspecting its state directly.
	cancel()
	time.Sleep(50 * time.Millisecond)
	if n := hub.presence.Len(); n != 0 {
		t.Fatalf("expected empty presence after disconnect, got %d entries", n)
	}
}

func TestHubForwardFromRESTPath(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	bob := NewClient("conn-b")
	hub.RegisterClient(bob)
	bob.Commands <- &Command{Kind: CommandAnnounce, UserID: "bob"}
	time.Sleep(50 * time.Millisecond)

	hub.Forward("bob", "persisted and relayed")

	ev := mustEvent(t, bob.Events, EventReceive)
	if ev.Text != "persisted and relayed" {
		t.Fatalf("unexpected payload: %q", ev.Text)
	}
}
