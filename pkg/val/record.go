package val

import (
	"src.kelp.sh/pkg/persistent/vector"
)

// Record is an ordered map from string keys to values. The zero value is an
// empty record.
//
// Keys keep their insertion order. Lookup is a linear scan; records are
// expected to stay column-count small. Like List, Record is persistent:
// methods return derived records and never modify the receiver.
type Record struct {
	keys []string
	vals vector.Vector
}

// Len returns the number of fields in the record.
func (r Record) Len() int { return len(r.keys) }

// Keys returns a copy of the record's keys, in insertion order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Index returns the value of the given key, if it exists. The second return
// value indicates whether it does.
func (r Record) Index(k string) (Value, bool) {
	for i, key := range r.keys {
		if key == k {
			v, _ := r.vals.Index(i)
			return v.(Value), true
		}
	}
	return Value{}, false
}

// HasKey returns whether the record has the given key.
func (r Record) HasKey(k string) bool {
	_, ok := r.Index(k)
	return ok
}

// Get returns the key and value of the i-th field. It panics if i is out of
// range.
func (r Record) Get(i int) (string, Value) {
	v, ok := r.vals.Index(i)
	if !ok {
		panic("record field index out of range")
	}
	return r.keys[i], v.(Value)
}

// Assoc returns an almost identical record, with the given key mapped to the
// given value. A new key is appended at the end; an existing key keeps its
// position.
func (r Record) Assoc(k string, v Value) Record {
	vals := r.vals
	if vals == nil {
		vals = vector.Empty
	}
	for i, key := range r.keys {
		if key == k {
			return Record{r.keys, vals.Assoc(i, v)}
		}
	}
	// The keys slice may be shared with derived records, so append via a
	// fresh allocation.
	keys := make([]string, len(r.keys)+1)
	copy(keys, r.keys)
	keys[len(r.keys)] = k
	return Record{keys, vals.Conj(v)}
}

// Dissoc returns an almost identical record, with the given key removed. It
// is a no-op if the key does not exist.
func (r Record) Dissoc(k string) Record {
	for i, key := range r.keys {
		if key == k {
			keys := make([]string, 0, len(r.keys)-1)
			keys = append(keys, r.keys[:i]...)
			keys = append(keys, r.keys[i+1:]...)
			vals := vector.Empty
			for j := 0; j < len(r.keys); j++ {
				if j == i {
					continue
				}
				v, _ := r.vals.Index(j)
				vals = vals.Conj(v)
			}
			return Record{keys, vals}
		}
	}
	return r
}

// IterateFields calls f for each field of the record in order, stopping if f
// returns false.
func (r Record) IterateFields(f func(k string, v Value) bool) {
	for i, key := range r.keys {
		v, _ := r.vals.Index(i)
		if !f(key, v.(Value)) {
			break
		}
	}
}
