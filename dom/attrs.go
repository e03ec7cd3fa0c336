package dom

// AttributeSet holds an element's attributes, keyed by QName, independent of the element's
// child list. Insertion order is preserved for deterministic serialization.
type AttributeSet struct {
	order []QName
	byKey map[QName]*Node
}

func newAttributeSet() *AttributeSet {
	return &AttributeSet{byKey: make(map[QName]*Node)}
}

// Len returns the number of attributes in the set.
func (a *AttributeSet) Len() int { return len(a.order) }

// Find returns the attribute node for key, or nil if absent.
func (a *AttributeSet) Find(key QName) *Node { return a.byKey[key] }

// Contains reports whether key is present in the set.
func (a *AttributeSet) Contains(key QName) bool {
	_, ok := a.byKey[key]
	return ok
}

// Get returns the string value for key, or "" if absent.
func (a *AttributeSet) Get(key QName) string {
	if n := a.byKey[key]; n != nil {
		return n.Data
	}
	return ""
}

// Emplace inserts or updates the attribute named key with value, returning the node and
// whether a new entry was inserted. Re-emplacing an existing QName updates its value in
// place and reports inserted=false.
func (a *AttributeSet) Emplace(owner *Node, key QName, value string) (node *Node, inserted bool) {
	if existing, ok := a.byKey[key]; ok {
		existing.Data = value
		return existing, false
	}
	n := newNode(AttributeNode)
	n.Name = key
	n.Data = value
	n.Parent = owner
	n.doc = owner.doc
	a.byKey[key] = n
	a.order = append(a.order, key)
	return n, true
}

// Erase removes the attribute named key, reporting whether it was present.
func (a *AttributeSet) Erase(key QName) bool {
	if _, ok := a.byKey[key]; !ok {
		return false
	}
	delete(a.byKey, key)
	for i, k := range a.order {
		if k == key {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the attribute QNames in insertion order.
func (a *AttributeSet) Keys() []QName {
	out := make([]QName, len(a.order))
	copy(out, a.order)
	return out
}

// ForEach iterates attributes in insertion order, stopping early if fn returns false.
func (a *AttributeSet) ForEach(fn func(*Node) bool) {
	for _, k := range a.order {
		if !fn(a.byKey[k]) {
			return
		}
	}
}

// Equal reports whether two attribute sets have the same QName/value pairs, ignoring
// insertion order.
func (a *AttributeSet) Equal(b *AttributeSet) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, k := range a.order {
		ov, ok := b.byKey[k]
		if !ok || ov.Data != a.byKey[k].Data {
			return false
		}
	}
	return true
}
