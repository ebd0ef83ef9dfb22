package ast

import "time"

// Unit enumerates the units usable in unit literals.
type Unit int

// Possible values for Unit. Decimal filesize units are powers of 1000, binary
// ones powers of 1024.
const (
	B Unit = iota
	KB
	MB
	GB
	TB
	PB
	KIB
	MIB
	GIB
	TIB
	PIB

	NS
	US
	MS
	Second
	Minute
	Hour
	Day
	Week
)

var units = [...]struct {
	name       string
	multiplier int64
}{
	B:   {"b", 1},
	KB:  {"kb", 1000},
	MB:  {"mb", 1000 * 1000},
	GB:  {"gb", 1000 * 1000 * 1000},
	TB:  {"tb", 1000 * 1000 * 1000 * 1000},
	PB:  {"pb", 1000 * 1000 * 1000 * 1000 * 1000},
	KIB: {"kib", 1024},
	MIB: {"mib", 1024 * 1024},
	GIB: {"gib", 1024 * 1024 * 1024},
	TIB: {"tib", 1024 * 1024 * 1024 * 1024},
	PIB: {"pib", 1024 * 1024 * 1024 * 1024 * 1024},

	NS:     {"ns", 1},
	US:     {"us", int64(time.Microsecond)},
	MS:     {"ms", int64(time.Millisecond)},
	Second: {"sec", int64(time.Second)},
	Minute: {"min", int64(time.Minute)},
	Hour:   {"hr", int64(time.Hour)},
	Day:    {"day", 24 * int64(time.Hour)},
	Week:   {"wk", 7 * 24 * int64(time.Hour)},
}

// String returns the source form of the unit.
func (u Unit) String() string { return units[u].name }

// Multiplier returns the size of the unit, in bytes for filesize units and in
// nanoseconds for duration units.
func (u Unit) Multiplier() int64 { return units[u].multiplier }

// IsDuration reports whether the unit is a duration unit rather than a
// filesize unit.
func (u Unit) IsDuration() bool { return u >= NS }

// UnitByName returns the unit with the given name. The second return value
// indicates whether the name names a unit.
func UnitByName(name string) (Unit, bool) {
	for u, entry := range units {
		if entry.name == name {
			return Unit(u), true
		}
	}
	return 0, false
}
