package access

import "testing"

func TestLevelOrdering(t *testing.T) {
	if !(ReadOnly < ReadUpdate && ReadUpdate < ReadCreate && ReadCreate < EverythingUser && EverythingUser < EverythingAdmin) {
		t.Fatal("capability tiers are not strictly ordered")
	}
}

func TestLevelByIDRoundTrip(t *testing.T) {
	for id := 0; id <= 4; id++ {
		if got := LevelByID(id); int(got) != id {
			t.Errorf("LevelByID(%d) = %v, want tier %d", id, got, id)
		}
	}
}

func TestLevelByIDOutOfRange(t *testing.T) {
	for _, id := range []int{-1, 5, 42, 128, -128} {
		if got := LevelByID(id); got != ReadOnly {
			t.Errorf("LevelByID(%d) = %v, want READONLY", id, got)
		}
	}
}

func TestShareByIDKnownValues(t *testing.T) {
	cases := map[int]ShareLevel{
		0:    ParentSelect,
		128:  Private,
		1:    ROnly1Levels,
		2:    ROnly2Levels,
		127:  RAll,
		-1:   RWOnly1Levels,
		-2:   RWOnly2Levels,
		-127: RWAll,
	}
	for id, want := range cases {
		if got := ShareByID(id); got != want {
			t.Errorf("ShareByID(%d) = %v, want %v", id, got, want)
		}
	}
}

func TestShareByIDUnknownDecodesToParentSelect(t *testing.T) {
	for _, id := range []int{3, -3, 126, -126, 129, 1000} {
		if got := ShareByID(id); got != ParentSelect {
			t.Errorf("ShareByID(%d) = %v, want PARENT_SELECT", id, got)
		}
	}
}

func TestShareNameRoundTrip(t *testing.T) {
	for _, lvl := range []ShareLevel{ParentSelect, Private, ROnly1Levels, ROnly2Levels, RAll, RWOnly1Levels, RWOnly2Levels, RWAll} {
		got, ok := ShareByName(lvl.String())
		if !ok || got != lvl {
			t.Errorf("ShareByName(%q) = %v, %v; want %v, true", lvl.String(), got, ok, lvl)
		}
	}
	if _, ok := ShareByName("EVERYTHING"); ok {
		t.Error("ShareByName accepted an unknown symbol")
	}
}

func TestWritableIsSubsetOfReadable(t *testing.T) {
	for _, lvl := range WritableLevels() {
		if !lvl.Readable() {
			t.Errorf("%v is writable but not readable", lvl)
		}
	}
}

func TestPrivateAndParentSelectGrantNothing(t *testing.T) {
	for _, lvl := range []ShareLevel{Private, ParentSelect} {
		if lvl.Readable() || lvl.Writable() {
			t.Errorf("%v should grant neither read nor write", lvl)
		}
	}
}

func TestMembershipNotMagnitude(t *testing.T) {
	// RW_ALL encodes as -127 yet grants more than R_ALL at 127.
	if !RWAll.Writable() || RAll.Writable() {
		t.Fatal("writable set must be decided by membership, not sign or magnitude")
	}
}
