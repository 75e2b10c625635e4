package limits

import "testing"

func TestTakeGiveRoundTrip(t *testing.T) {
	var s Sysatomic_t = 2
	if !s.Take() {
		t.Fatal("first Take on limit 2 should succeed")
	}
	if !s.Take() {
		t.Fatal("second Take on limit 2 should succeed")
	}
	if s.Take() {
		t.Fatal("third Take on exhausted limit should fail")
	}
	s.Give()
	if !s.Take() {
		t.Fatal("Take should succeed again after a Give")
	}
}

func TestTakenGivenWithCounts(t *testing.T) {
	var s Sysatomic_t = 10
	if !s.Taken(4) {
		t.Fatal("Taken(4) on limit 10 should succeed")
	}
	if s.Taken(7) {
		t.Fatal("Taken(7) should fail: only 6 left")
	}
	// a failed Taken must not have changed the limit
	if !s.Taken(6) {
		t.Fatal("Taken(6) should succeed: failed Taken must roll back")
	}
	s.Given(3)
	if !s.Taken(3) {
		t.Fatal("Taken(3) should succeed after Given(3)")
	}
}

func TestLhitsCountsFailedTakes(t *testing.T) {
	before := Lhits
	var s Sysatomic_t = 0
	s.Take()
	if Lhits != before+1 {
		t.Fatalf("Lhits = %d, want %d after one failed Take", Lhits, before+1)
	}
}

func TestSyslimitDefaults(t *testing.T) {
	fresh := MkSysLimit()
	if fresh.Sysprocs != 10000 {
		t.Errorf("default Sysprocs = %d, want 10000", fresh.Sysprocs)
	}
	if fresh.Userpages != 8192 {
		t.Errorf("default Userpages = %d, want 8192", fresh.Userpages)
	}
	if fresh.Swappages != 8192 {
		t.Errorf("default Swappages = %d, want 8192", fresh.Swappages)
	}
}
