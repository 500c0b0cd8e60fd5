package models

import "testing"

func TestEventStatusTransitions(t *testing.T) {
	t.Parallel()
	cases := []struct {
		from, to EventStatus
		want     bool
	}{
		{EventStatusDraft, EventStatusPublished, true},
		{EventStatusDraft, EventStatusCancelled, true},
		{EventStatusPublished, EventStatusCancelled, true},
		{EventStatusPublished, EventStatusDraft, false},
		{EventStatusCancelled, EventStatusPublished, false},
		{EventStatusCancelled, EventStatusDraft, false},
		{EventStatusDraft, EventStatusDraft, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestEffectivelyPaid(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		event Event
		want  bool
	}{
		{"paid with price", Event{Paid: true, PriceCents: 2500}, true},
		{"paid flag but zero price", Event{Paid: true, PriceCents: 0}, false},
		{"price without paid flag", Event{Paid: false, PriceCents: 2500}, false},
		{"free", Event{}, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.event.EffectivelyPaid(); got != tc.want {
				t.Errorf("EffectivelyPaid() = %v, want %v", got, tc.want)
			}
		})
	}
}
