package world

// DefaultListBlock is the number of slots an EntityList grows by.
const DefaultListBlock = 10

// EntityList is a sparse, growable array of entity references. Slots below
// Size may be nil; slots in [Size, Cap) are always nil. A slot index stays
// valid until the entity is removed or the list is shrunk.
//
// Not safe for concurrent use; the World guards its lists with its own locks.
type EntityList struct {
	entities []*Entity // len(entities) is the capacity
	size     int
	block    int
	limit    int
}

// NewEntityList creates an empty list that grows by block slots at a time.
func NewEntityList(block int) *EntityList {
	if block <= 0 {
		block = DefaultListBlock
	}
	return &EntityList{block: block}
}

// SetLimit caps the capacity of the list. Zero removes the cap.
func (l *EntityList) SetLimit(n int) {
	l.limit = n
}

func (l *EntityList) Size() int { return l.size }
func (l *EntityList) Cap() int  { return len(l.entities) }

// At returns the entity in slot i, or nil for holes and out-of-range slots.
func (l *EntityList) At(i int) *Entity {
	if i < 0 || i >= l.size {
		return nil
	}
	return l.entities[i]
}

// Add stores e in the first free slot and returns the slot index. When the
// list is full it grows by one block; if that would exceed the limit the
// list is left untouched and ErrAllocation is returned.
func (l *EntityList) Add(e *Entity) (int, error) {
	if e == nil {
		return -1, ErrNullReference
	}
	for i := 0; i < l.size; i++ {
		if l.entities[i] == nil {
			l.entities[i] = e
			return i, nil
		}
	}
	if l.size == len(l.entities) {
		if err := l.grow(); err != nil {
			return -1, err
		}
	}
	slot := l.size
	l.entities[slot] = e
	l.size++
	return slot, nil
}

func (l *EntityList) grow() error {
	n := len(l.entities) + l.block
	if l.limit > 0 && n > l.limit {
		if len(l.entities) >= l.limit {
			return ErrAllocation
		}
		n = l.limit
	}
	grown := make([]*Entity, n)
	copy(grown, l.entities)
	l.entities = grown
	return nil
}

// Pop clears the slot holding e and returns e, or nil if e is not present.
// The list is not compacted.
func (l *EntityList) Pop(e *Entity) *Entity {
	if e == nil {
		return nil
	}
	for i := 0; i < l.size; i++ {
		if l.entities[i] == e {
			l.entities[i] = nil
			return e
		}
	}
	return nil
}

// RemoveAt clears slot i if it still holds e.
func (l *EntityList) RemoveAt(i int, e *Entity) bool {
	if i < 0 || i >= l.size || l.entities[i] != e || e == nil {
		return false
	}
	l.entities[i] = nil
	return true
}

// Shrink moves trailing entries into holes until the live entries are dense,
// then releases all unused capacity. Afterwards Size equals Cap.
// Shrinking renumbers slots, so it must never be used on a list whose slot
// indices are cached elsewhere.
func (l *EntityList) Shrink() {
	last := l.size - 1
	for i := 0; i < l.size && i < last; i++ {
		if l.entities[i] != nil {
			continue
		}
		for last > i && l.entities[last] == nil {
			last--
		}
		if last <= i {
			break
		}
		l.entities[i] = l.entities[last]
		l.entities[last] = nil
		last--
	}

	n := 0
	for n < l.size && l.entities[n] != nil {
		n++
	}
	shrunk := make([]*Entity, n)
	copy(shrunk, l.entities[:n])
	l.entities = shrunk
	l.size = n
}

// Empty clears the list and drops its storage. With destroy set, every
// entity still referenced is released from its world as well.
func (l *EntityList) Empty(destroy bool) {
	if destroy {
		for i := 0; i < l.size; i++ {
			if e := l.entities[i]; e != nil {
				e.release()
			}
		}
	}
	l.entities = nil
	l.size = 0
}

// Contains reports whether e occupies any slot.
func (l *EntityList) Contains(e *Entity) bool {
	for i := 0; i < l.size; i++ {
		if l.entities[i] == e {
			return true
		}
	}
	return false
}
