package subscriptions

import "testing"

func TestLookupPlan(t *testing.T) {
	p, ok := LookupPlan("season")
	if !ok {
		t.Fatal("season plan missing")
	}
	if p.PriceCents != 1000 || p.Months != 6 {
		t.Errorf("season plan: got %+v", p)
	}

	p, ok = LookupPlan("annual")
	if !ok {
		t.Fatal("annual plan missing")
	}
	if p.PriceCents != 2500 || p.Months != 12 {
		t.Errorf("annual plan: got %+v", p)
	}

	if _, ok := LookupPlan("lifetime"); ok {
		t.Error("unknown plan name resolved")
	}
}

func TestPlansAreComplete(t *testing.T) {
	list := Plans()
	if len(list) != 2 {
		t.Fatalf("got %d plans, want 2", len(list))
	}
	for _, p := range list {
		if p.PriceCents <= 0 || p.Months <= 0 {
			t.Errorf("plan %q has non-positive terms: %+v", p.Name, p)
		}
	}
}
