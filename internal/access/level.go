// Package access defines the two permission vocabularies of the service:
// the ordered access level carried by API tokens and the per-task share
// level controlling what non-owners may do. Both are closed enums with
// explicit decode tables; raw database integers never leak past this
// package.
package access

// Level is the capability tier of an API token. Levels form a total
// order and may be compared with < and > directly.
type Level int

const (
	ReadOnly        Level = 0
	ReadUpdate      Level = 1
	ReadCreate      Level = 2
	EverythingUser  Level = 3
	EverythingAdmin Level = 4
)

// LevelByID decodes a stored or client-supplied integer into a Level.
// Anything outside the known range falls back to ReadOnly: an
// unrecognized tier must never decode to something more privileged.
func LevelByID(id int) Level {
	switch id {
	case 0:
		return ReadOnly
	case 1:
		return ReadUpdate
	case 2:
		return ReadCreate
	case 3:
		return EverythingUser
	case 4:
		return EverythingAdmin
	default:
		return ReadOnly
	}
}

func (l Level) String() string {
	switch l {
	case ReadOnly:
		return "READONLY"
	case ReadUpdate:
		return "READ_UPDATE"
	case ReadCreate:
		return "READ_CREATE"
	case EverythingUser:
		return "EVERYTHING_USER"
	case EverythingAdmin:
		return "EVERYTHING_ADMIN"
	}
	return "READONLY"
}

// ShareLevel is a task's sharing policy. The integer encoding is signed
// and NOT monotonic with privilege (RAll=127 but RWAll=-127), so callers
// must use Readable/Writable membership, never magnitude comparison.
type ShareLevel int

const (
	ParentSelect ShareLevel = 0
	Private      ShareLevel = 128

	ROnly1Levels ShareLevel = 1
	ROnly2Levels ShareLevel = 2
	RAll         ShareLevel = 127

	RWOnly1Levels ShareLevel = -1
	RWOnly2Levels ShareLevel = -2
	RWAll         ShareLevel = -127
)

// ShareByID decodes a stored integer into a ShareLevel. Unknown values
// decode to ParentSelect, which grants nothing to non-owners.
func ShareByID(id int) ShareLevel {
	switch ShareLevel(id) {
	case ParentSelect, Private, ROnly1Levels, ROnly2Levels, RAll,
		RWOnly1Levels, RWOnly2Levels, RWAll:
		return ShareLevel(id)
	default:
		return ParentSelect
	}
}

var shareNames = map[ShareLevel]string{
	ParentSelect:  "PARENT_SELECT",
	Private:       "PRIVATE",
	ROnly1Levels:  "R_ONLY_1_LEVELS",
	ROnly2Levels:  "R_ONLY_2_LEVELS",
	RAll:          "R_ALL",
	RWOnly1Levels: "RW_ONLY_1_LEVELS",
	RWOnly2Levels: "RW_ONLY_2_LEVELS",
	RWAll:         "RW_ALL",
}

// ShareByName decodes the wire symbol ("RW_ALL", ...). The sharing
// policy travels by name, never by raw integer. The second return is
// false for unrecognized symbols.
func ShareByName(name string) (ShareLevel, bool) {
	for lvl, n := range shareNames {
		if n == name {
			return lvl, true
		}
	}
	return ParentSelect, false
}

func (s ShareLevel) String() string {
	if n, ok := shareNames[s]; ok {
		return n
	}
	return "PARENT_SELECT"
}

// Writable reports whether the policy grants write access to non-owners.
func (s ShareLevel) Writable() bool {
	switch s {
	case RWOnly1Levels, RWOnly2Levels, RWAll:
		return true
	}
	return false
}

// Readable reports whether the policy grants read access to non-owners.
// Every writable policy is readable; Private and ParentSelect are
// neither.
func (s ShareLevel) Readable() bool {
	switch s {
	case ROnly1Levels, ROnly2Levels, RAll:
		return true
	}
	return s.Writable()
}

// WritableLevels returns the writable policy set in encoded form, for
// use in SQL IN clauses.
func WritableLevels() []ShareLevel {
	return []ShareLevel{RWOnly1Levels, RWOnly2Levels, RWAll}
}

// ReadableLevels returns the readable policy set (writable included) in
// encoded form.
func ReadableLevels() []ShareLevel {
	return []ShareLevel{ROnly1Levels, ROnly2Levels, RAll, RWOnly1Levels, RWOnly2Levels, RWAll}
}
