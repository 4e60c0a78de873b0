package broker

import "testing"

func TestSdkStatusUsable(t *testing.T) {
	if StatusNotInstalled.Usable() || StatusUpdateRequired.Usable() {
		t.Error("below-threshold statuses report usable")
	}
	if !StatusUsable.Usable() {
		t.Error("usable status reports unusable")
	}
}

func TestNewRequestDropsDuplicates(t *testing.T) {
	req := NewRequest(Read(SleepSession), Read(Steps), Read(SleepSession))
	if req.Len() != 2 {
		t.Errorf("Len() = %d, want 2", req.Len())
	}
	pairs := req.Pairs()
	if pairs[0] != Read(SleepSession) || pairs[1] != Read(Steps) {
		t.Errorf("Pairs() = %v, order not preserved", pairs)
	}
}

func TestGrantIncludes(t *testing.T) {
	g := Grant{Pairs: []Pair{Read(SleepSession)}}
	if !g.Includes(Read(SleepSession)) {
		t.Error("grant misses an included pair")
	}
	if g.Includes(Read(Steps)) {
		t.Error("grant reports a pair it does not hold")
	}
	if (Grant{}).Includes(Read(SleepSession)) {
		t.Error("empty grant includes a pair")
	}
}
