package core

import (
	"strconv"
	"sync"
	"testing"

	"github.com/dvolkov/lanroom/internal/domain"
)

func desktop() domain.DeviceClass {
	return domain.DeviceClass{FormFactor: domain.Desktop, OS: "Linux"}
}

// recordSignal captures fanned-out frames for assertions.
type recordSignal struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recordSignal) TrySend(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(Frame, len(f))
	copy(cp, f)
	r.frames = append(r.frames, cp)
	return nil
}

func (r *recordSignal) Close() {}

func (r *recordSignal) received() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

func rawContent(m domain.Message) (Frame, error) {
	return Frame(m.Content), nil
}

func TestSessionAddDeviceOrder(t *testing.T) {
	s := NewSession(domain.NewRoom("Team", "123456", "c1"))

	s.AddDevice(domain.NewDevice("c1", "Alice", desktop(), true), nil)
	s.AddDevice(domain.NewDevice("c2", "Bob", desktop(), false), nil)
	s.AddDevice(domain.NewDevice("c3", "Carol", desktop(), false), nil)

	devs := s.Devices()
	if len(devs) != 3 {
		t.Fatalf("Devices() len = %d, want 3", len(devs))
	}
	want := []string{"Alice", "Bob", "Carol"}
	for i, name := range want {
		if devs[i].Name != name {
			t.Errorf("Devices()[%d].Name = %q, want %q", i, devs[i].Name, name)
		}
	}
	if !devs[0].IsCreator {
		t.Error("first device should be marked creator")
	}
}

func TestSessionNameDisambiguation(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		incoming string
		want     string
	}{
		{
			name:     "no collision",
			existing: []string{"Alice"},
			incoming: "Bob",
			want:     "Bob",
		},
		{
			name:     "collision with one member",
			existing: []string{"Alice"},
			incoming: "Alice",
			want:     "Alice (2)",
		},
		{
			name:     "collision with two members",
			existing: []string{"Alice", "Bob"},
			incoming: "Bob",
			want:     "Bob (3)",
		},
		{
			// The suffix uses member count + 1 at insertion time, not a
			// next-free-integer scan. "Alice (2)" already present does not
			// shift the rule.
			name:     "collision after earlier disambiguation",
			existing: []string{"Alice", "Alice (2)"},
			incoming: "Alice",
			want:     "Alice (3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(domain.NewRoom("Team", "123456", "c0"))
			for i, name := range tt.existing {
				conn := domain.ConnID(string(rune('a' + i)))
				s.AddDevice(domain.NewDevice(conn, name, desktop(), false), nil)
			}
			got := s.AddDevice(domain.NewDevice("zz", tt.incoming, desktop(), false), nil)
			if got != tt.want {
				t.Errorf("AddDevice() effective name = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionRemoveDevice(t *testing.T) {
	s := NewSession(domain.NewRoom("Team", "123456", "c1"))
	s.AddDevice(domain.NewDevice("c1", "Alice", desktop(), true), nil)
	s.AddDevice(domain.NewDevice("c2", "Bob", desktop(), false), nil)

	s.RemoveDevice("c1")
	if n := s.DeviceCount(); n != 1 {
		t.Fatalf("DeviceCount() = %d, want 1", n)
	}
	if s.Devices()[0].Name != "Bob" {
		t.Errorf("remaining device = %q, want Bob", s.Devices()[0].Name)
	}

	// Removing an absent member is a no-op.
	s.RemoveDevice("c1")
	s.RemoveDevice("nope")
	if n := s.DeviceCount(); n != 1 {
		t.Errorf("DeviceCount() after no-op removals = %d, want 1", n)
	}
}

func TestSessionPublishAssignsIdentity(t *testing.T) {
	s := NewSession(domain.NewRoom("Team", "123456", "c1"))

	first := s.Publish(domain.Message{Kind: domain.KindText, Content: "hello", Sender: "Alice"}, rawContent)
	second := s.Publish(domain.Message{Kind: domain.KindClipboard, Content: "copied"}, rawContent)

	if first.ID == "" || second.ID == "" {
		t.Fatal("Publish() must assign message ids")
	}
	if first.ID == second.ID {
		t.Error("Publish() assigned duplicate ids")
	}
	if first.CreatedAt.IsZero() {
		t.Error("Publish() must assign a timestamp")
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Messages() len = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "hello" || msgs[1].Content != "copied" {
		t.Error("Messages() lost append order")
	}
}

func TestSessionPublishFansOutToMembers(t *testing.T) {
	s := NewSession(domain.NewRoom("Team", "123456", "c1"))
	sigA := &recordSignal{}
	sigB := &recordSignal{}
	s.AddDevice(domain.NewDevice("c1", "Alice", desktop(), true), sigA)
	s.AddDevice(domain.NewDevice("c2", "Bob", desktop(), false), sigB)

	s.Publish(domain.Message{Kind: domain.KindText, Content: "hello"}, rawContent)

	for name, sig := range map[string]*recordSignal{"Alice": sigA, "Bob": sigB} {
		frames := sig.received()
		if len(frames) != 1 || string(frames[0]) != "hello" {
			t.Errorf("%s received %q, want one %q frame", name, frames, "hello")
		}
	}
}

// Append and fan-out share one critical section: what a member receives is
// exactly the log, in log order, even under concurrent publishers.
func TestSessionPublishOrderMatchesLog(t *testing.T) {
	s := NewSession(domain.NewRoom("Team", "123456", "c1"))
	obs := &recordSignal{}
	s.AddDevice(domain.NewDevice("obs", "Observer", desktop(), true), obs)

	const senders = 6
	const perSender = 40
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(sender int) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				content := strconv.Itoa(sender) + "-" + strconv.Itoa(j)
				s.Publish(domain.Message{Kind: domain.KindText, Content: content}, rawContent)
			}
		}(i)
	}
	wg.Wait()

	logged := s.Messages()
	seen := obs.received()
	if len(seen) != len(logged) {
		t.Fatalf("observer saw %d frames, log has %d messages", len(seen), len(logged))
	}
	for i := range logged {
		if string(seen[i]) != logged[i].Content {
			t.Fatalf("reordering at index %d: member saw %q, log has %q", i, seen[i], logged[i].Content)
		}
	}
}

func TestSessionSnapshotIsCopy(t *testing.T) {
	s := NewSession(domain.NewRoom("Team", "123456", "c1"))
	s.Publish(domain.Message{Kind: domain.KindText, Content: "one"}, rawContent)

	snap := s.Messages()
	snap[0].Content = "mutated"

	if s.Messages()[0].Content != "one" {
		t.Error("Messages() snapshot must not alias the internal log")
	}
}
