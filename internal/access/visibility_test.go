package access

import "testing"

func TestResolve(t *testing.T) {
	const ownerID = 7

	owner := Subject{UserID: ownerID, Level: ReadOnly}
	admin := Subject{UserID: 99, Level: EverythingAdmin}
	other := Subject{UserID: 42, Level: EverythingUser}
	anon := Subject{Anonymous: true}

	cases := []struct {
		name   string
		sub    Subject
		policy ShareLevel
		want   Visibility
	}{
		{"owner sees private task fully", owner, Private, Visibility{true, true}},
		{"owner trumps parent_select", owner, ParentSelect, Visibility{true, true}},
		{"admin sees private task fully", admin, Private, Visibility{true, true}},
		{"anonymous reads shared task", anon, RAll, Visibility{CanRead: true}},
		{"anonymous never writes", anon, RWAll, Visibility{CanRead: true, CanWrite: false}},
		{"anonymous denied on private", anon, Private, Visibility{}},
		{"other user reads r_only", other, ROnly1Levels, Visibility{CanRead: true}},
		{"other user writes rw", other, RWOnly2Levels, Visibility{true, true}},
		{"other user denied on private", other, Private, Visibility{}},
		{"parent_select denies non-owner", other, ParentSelect, Visibility{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.sub, ownerID, tc.policy); got != tc.want {
				t.Errorf("Resolve(%+v, %d, %v) = %+v, want %+v", tc.sub, uint64(ownerID), tc.policy, got, tc.want)
			}
		})
	}
}

func TestAnonymousSameIDIsNotOwner(t *testing.T) {
	// An anonymous subject's zero UserID must never match an owner id.
	got := Resolve(Subject{UserID: 0, Anonymous: true}, 0, Private)
	if got.CanRead || got.CanWrite {
		t.Fatalf("anonymous subject treated as owner: %+v", got)
	}
}

func TestAdminRequiresAuthentication(t *testing.T) {
	sub := Subject{UserID: 1, Level: EverythingAdmin, Anonymous: true}
	if sub.Admin() {
		t.Fatal("anonymous subject must not qualify as admin")
	}
}
