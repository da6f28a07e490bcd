package savegdl

import "sort"

// kindBucket holds one FlagKind's hash->value mapping, preserving the
// insertion order of its keys.
type kindBucket struct {
	order  []uint32
	values map[uint32]FlagValue
}

func newKindBucket() *kindBucket {
	return &kindBucket{values: make(map[uint32]FlagValue)}
}

func (b *kindBucket) set(hash uint32, v FlagValue) {
	if _, exists := b.values[hash]; !exists {
		b.order = append(b.order, hash)
	}
	b.values[hash] = v
}

func (b *kindBucket) delete(hash uint32) bool {
	if _, ok := b.values[hash]; !ok {
		return false
	}
	delete(b.values, hash)
	for i, h := range b.order {
		if h == hash {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// Store is the two-level `type -> (hash -> FlagValue)` mapping decoded from
// or destined for a SAV file (spec.md §3's SaveStore). Outer order is the
// insertion order of types observed during decode (or, for newly-inserted
// types, the order callers insert them in); inner order is insertion order
// of hashes within a type, preserved from decode.
type Store struct {
	order   []FlagKind
	buckets map[FlagKind]*kindBucket
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{buckets: make(map[FlagKind]*kindBucket)}
}

// Insert records hash->value under kind, establishing the inner mapping on
// first use. It does not validate v's shape; callers that decode untrusted
// input should check FlagValue.ShapeValid first.
func (s *Store) Insert(kind FlagKind, hash uint32, v FlagValue) {
	b, ok := s.buckets[kind]
	if !ok {
		b = newKindBucket()
		s.buckets[kind] = b
		s.order = append(s.order, kind)
	}
	b.set(hash, v)
}

// Delete removes hash from kind, reporting whether it was present.
func (s *Store) Delete(kind FlagKind, hash uint32) bool {
	b, ok := s.buckets[kind]
	if !ok {
		return false
	}
	return b.delete(hash)
}

// Get returns the value stored under (kind, hash), if any.
func (s *Store) Get(kind FlagKind, hash uint32) (FlagValue, bool) {
	b, ok := s.buckets[kind]
	if !ok {
		return FlagValue{}, false
	}
	v, ok := b.values[hash]
	return v, ok
}

// HasKind reports whether any flag of kind is present.
func (s *Store) HasKind(kind FlagKind) bool {
	b, ok := s.buckets[kind]
	return ok && len(b.order) > 0
}

// Kinds returns the types present, in insertion order.
func (s *Store) Kinds() []FlagKind {
	out := make([]FlagKind, 0, len(s.order))
	for _, k := range s.order {
		if len(s.buckets[k].order) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// KindsAscending returns the types present sorted by numeric FlagKind ID,
// the order new producers should insert in to match game expectations
// (spec.md §5).
func (s *Store) KindsAscending() []FlagKind {
	out := s.Kinds()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Hashes returns the hashes present under kind, in insertion order.
func (s *Store) Hashes(kind FlagKind) []uint32 {
	b, ok := s.buckets[kind]
	if !ok {
		return nil
	}
	out := make([]uint32, len(b.order))
	copy(out, b.order)
	return out
}

// Len returns the number of flags stored under kind.
func (s *Store) Len(kind FlagKind) int {
	b, ok := s.buckets[kind]
	if !ok {
		return 0
	}
	return len(b.order)
}

// Clone returns a deep copy, used by callers that need to snapshot a store
// before a non-atomic patch (spec.md §7, §9).
func (s *Store) Clone() *Store {
	out := NewStore()
	for _, k := range s.order {
		b := s.buckets[k]
		for _, h := range b.order {
			v := b.values[h]
			out.Insert(k, h, cloneFlagValue(v))
		}
	}
	return out
}

func cloneFlagValue(v FlagValue) FlagValue {
	out := v
	if v.Array != nil {
		out.Array = append([]any(nil), v.Array...)
	}
	if v.Keys != nil {
		out.Keys = append([]string(nil), v.Keys...)
	}
	if b, ok := v.Scalar.([]byte); ok {
		out.Scalar = append([]byte(nil), b...)
	}
	return out
}
