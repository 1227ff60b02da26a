package status

import (
	"testing"

	"github.com/matheus3301/dmchat/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Idle {
		t.Errorf("initial state = %s, want IDLE", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		path []State
	}{
		{[]State{Loading, Loaded}},
		{[]State{Loading, Error}},
		{[]State{DeletedPeer}},
		{[]State{Loading, DeletedPeer}},
		{[]State{Loading, Loaded, Loading, Loaded}},
		{[]State{Loading, Error, Loading, Loaded, Idle}},
		{[]State{Loading, Loading, Loaded}},
	}
	for _, tt := range tests {
		name := ""
		for _, s := range tt.path {
			name += "->" + string(s)
		}
		t.Run(name, func(t *testing.T) {
			m := NewMachine(nil)
			for _, s := range tt.path {
				if err := m.Transition("2", s); err != nil {
					t.Fatalf("Transition(%s) error = %v", s, err)
				}
			}
			if got := m.Current(); got != tt.path[len(tt.path)-1] {
				t.Errorf("state = %s, want %s", got, tt.path[len(tt.path)-1])
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	tests := []struct {
		from []State
		to   State
	}{
		{nil, Loaded},
		{nil, Error},
		{[]State{Loading, Loaded}, Error},
		{[]State{DeletedPeer}, Loaded},
	}
	for _, tt := range tests {
		m := NewMachine(nil)
		for _, s := range tt.from {
			if err := m.Transition("2", s); err != nil {
				t.Fatal(err)
			}
		}
		if err := m.Transition("2", tt.to); err == nil {
			t.Errorf("Transition(%s -> %s) should fail", m.Current(), tt.to)
		}
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("selector.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition("7", Loading); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindLoadState {
			t.Errorf("kind = %s, want %s", evt.Kind, bus.KindLoadState)
		}
		sc, ok := evt.Payload.(StatusChange)
		if !ok {
			t.Fatalf("payload type = %T", evt.Payload)
		}
		if sc.From != Idle || sc.To != Loading || sc.ConversationID != "7" {
			t.Errorf("change = %+v", sc)
		}
	default:
		t.Error("expected event")
	}
}

func TestReset(t *testing.T) {
	m := NewMachine(nil)
	_ = m.Transition("2", Loading)
	m.Reset()
	if m.Current() != Idle || m.Conversation() != "" {
		t.Errorf("after reset: %s %q", m.Current(), m.Conversation())
	}
}
