package maglev

import (
	"bytes"
	"fmt"
	"hash"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type digestArgs struct {
	item string
	seed uint64
}

func (d digestArgs) String() string {
	return fmt.Sprintf("%#q@%#x", d.item, d.seed)
}

func offsetCall(s string) digestArgs {
	return digestArgs{item: s, seed: offsetSeed}
}

func skipCall(s string) digestArgs {
	return digestArgs{item: s, seed: skipSeed}
}

// setupDigest makes table t to use given digest values instead of real hash
// function results for matching inputs.
func setupDigest(t testing.TB, tbl *Table, values map[digestArgs]uint64) {
	tbl.Hash = func(seed uint64) hash.Hash64 {
		return &hash64{
			t:      t,
			seed:   seed,
			values: values,
		}
	}
}

type hash64 struct {
	t      testing.TB
	seed   uint64
	values map[digestArgs]uint64
	buf    bytes.Buffer
}

func (h *hash64) Write(p []byte) (int, error) {
	return h.buf.Write(p)
}

func (h *hash64) Sum(b []byte) []byte {
	panic("maglev: hash Sum() must not be called")
}

func (h *hash64) Reset() {
	h.buf.Reset()
}

func (h *hash64) Size() int {
	return 8
}

func (h *hash64) BlockSize() int {
	return 1
}

func (h *hash64) Sum64() uint64 {
	call := digestArgs{
		item: h.buf.String(),
		seed: h.seed,
	}
	v, has := h.values[call]
	if has {
		h.t.Logf("using digest value for call %s: %d", call, v)
		return v
	}
	return sipDigest(h.seed, h.buf.Bytes())
}

func sipDigest(seed uint64, p []byte) uint64 {
	h := SipHash(seed)
	_, err := h.Write(p)
	if err != nil {
		panic(err)
	}
	return h.Sum64()
}

type tableAction interface {
	apply(*Table) error
}

func applyActions(t testing.TB, tbl *Table, actions ...tableAction) {
	for _, a := range actions {
		if err := a.apply(tbl); err != nil {
			t.Fatalf("can't apply action %s: %v", a, err)
		}
	}
}

func permActions(actions ...tableAction) (ret [][]tableAction) {
	var f func(x tableAction, xs []tableAction) [][]tableAction
	f = func(x tableAction, xs []tableAction) (ret [][]tableAction) {
		if len(xs) == 0 {
			return [][]tableAction{{x}}
		}
		for _, ps := range f(xs[0], xs[1:]) {
			// Append current action to the end of received actions.
			// Below we will swap it with every element in the slice.
			ps = append(ps, x)

			last := len(ps) - 1
			for i := 0; i < len(ps); i++ {
				cp := append(([]tableAction)(nil), ps...)
				cp[i], cp[last] = cp[last], cp[i]
				ret = append(ret, cp)
			}
		}
		return ret
	}
	return f(actions[0], actions[1:])
}

type addTableAction struct {
	s string
}

func addBackend(s string) *addTableAction {
	return &addTableAction{s}
}

func (a addTableAction) String() string {
	return fmt.Sprintf("add %s", a.s)
}

func (a addTableAction) apply(t *Table) error {
	return t.AddBackend(a.s)
}

type removeTableAction struct {
	s string
}

func removeBackend(s string) *removeTableAction {
	return &removeTableAction{s}
}

func (r removeTableAction) String() string {
	return fmt.Sprintf("remove %s", r.s)
}

func (r removeTableAction) apply(t *Table) error {
	return t.RemoveBackend(r.s)
}

type setTableAction struct {
	xs []string
}

func setBackends(xs ...string) *setTableAction {
	return &setTableAction{xs}
}

func (s setTableAction) String() string {
	return fmt.Sprintf("set %v", s.xs)
}

func (s setTableAction) apply(t *Table) error {
	return t.SetBackends(s.xs)
}

func makeTable(t testing.TB, size int, actions ...tableAction) *Table {
	var tbl Table
	if err := tbl.Reset(size); err != nil {
		t.Fatal(err)
	}
	applyActions(t, &tbl, actions...)
	return &tbl
}

func assertTablesEqual(t *testing.T, desc string, t0, t1 *Table) {
	t.Helper()
	if diff := cmp.Diff(t0.Backends(), t1.Backends()); diff != "" {
		t.Fatalf("%s: backends are not equal (-t0 +t1):\n%s", desc, diff)
	}
	if diff := cmp.Diff(t0.Lookup(), t1.Lookup()); diff != "" {
		t.Fatalf("%s: lookup tables are not equal (-t0 +t1):\n%s", desc, diff)
	}
}

// assertComplete checks that every slot of the table is owned by some
// backend and every backend owns at least one slot.
func assertComplete(t testing.TB, tbl *Table) {
	lookup := tbl.Lookup()
	backends := tbl.Backends()
	if n, m := len(lookup), tbl.Size(); n != m {
		t.Fatalf("unexpected lookup table size: %d; want %d", n, m)
	}
	owned := make([]int, len(backends))
	for slot, i := range lookup {
		if i < 0 || i >= len(backends) {
			t.Fatalf("slot #%d is not assigned: %d", slot, i)
		}
		owned[i]++
	}
	for i, n := range owned {
		if n == 0 {
			t.Fatalf("backend %q owns no slots", backends[i])
		}
	}
}
