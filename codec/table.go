package codec

// Handle is the arena index of a loaded object.
type Handle int

// table is the load-side pointer resolution table. Objects live in an arena
// and offsets map to arena handles, so identity never depends on where the
// bytes came from.
type table struct {
	byOffset map[int64]Handle
	arena    []any
}

func newTable() *table {
	return &table{byOffset: make(map[int64]Handle)}
}

func (t *table) lookup(off int64) (any, bool) {
	h, ok := t.byOffset[off]
	if !ok {
		return nil, false
	}
	return t.arena[h], true
}

func (t *table) register(off int64, obj any) Handle {
	h := Handle(len(t.arena))
	t.arena = append(t.arena, obj)
	t.byOffset[off] = h
	return h
}

func (t *table) handle(off int64) (Handle, bool) {
	h, ok := t.byOffset[off]
	return h, ok
}

func (t *table) len() int { return len(t.arena) }
