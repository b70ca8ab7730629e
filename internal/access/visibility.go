package access

// Subject is the authenticated identity attached to a request by the
// token middleware. The zero value with Anonymous=true represents an
// unauthenticated caller.
type Subject struct {
	UserID    uint64
	Level     Level
	Anonymous bool
}

// Admin reports whether the subject holds the EVERYTHING_ADMIN tier.
func (s Subject) Admin() bool {
	return !s.Anonymous && s.Level == EverythingAdmin
}

// Visibility is the read/write decision for one subject/task pair.
type Visibility struct {
	CanRead  bool
	CanWrite bool
}

// Resolve computes the visibility of a task for a subject. Precedence,
// first match wins: owner gets everything; EVERYTHING_ADMIN gets
// everything; anonymous callers read shared tasks and write nothing;
// everyone else is decided by the task's share level alone.
//
// ParentSelect deliberately grants nothing here: no ancestor walk is
// performed at decision time, so an unresolved policy behaves like
// Private for non-owners.
func Resolve(sub Subject, ownerID uint64, policy ShareLevel) Visibility {
	if !sub.Anonymous && sub.UserID == ownerID {
		return Visibility{CanRead: true, CanWrite: true}
	}
	if sub.Admin() {
		return Visibility{CanRead: true, CanWrite: true}
	}
	if sub.Anonymous {
		return Visibility{CanRead: policy.Readable()}
	}
	return Visibility{CanRead: policy.Readable(), CanWrite: policy.Writable()}
}
