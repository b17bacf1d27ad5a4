package fragment

// Table maps the group key of a transaction to its complete ordered fragment set.
// A Table is built while encoding and consulted while decoding the same block.
// It is not safe for concurrent use.
type Table struct {
	groups map[string][]Fragment
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{groups: make(map[string][]Fragment)}
}

func (t *Table) add(group []byte, frags []Fragment) {
	t.groups[string(group)] = frags
}

// Lookup returns the fragments recorded for the group key.
func (t *Table) Lookup(group []byte) ([]Fragment, bool) {
	frags, ok := t.groups[string(group)]
	return frags, ok
}

// Len returns the number of transactions in the table.
func (t *Table) Len() int {
	return len(t.groups)
}

// Fragments returns the total number of fragments in the table.
func (t *Table) Fragments() int {
	n := 0
	for _, frags := range t.groups {
		n += len(frags)
	}
	return n
}
