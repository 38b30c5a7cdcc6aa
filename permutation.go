package maglev

// permutation returns preference order of table slots for backend b in a
// table of size m.
//
// Note that m must be prime, otherwise skip may not be coprime with m and
// returned row visits only a subset of slots.
func (t *Table) permutation(b string, m int) []int {
	var (
		offset = int(t.offsetHash.sumString(b) % uint64(m))
		skip   = int(t.skipHash.sumString(b)%uint64(m-1)) + 1
	)
	t.trace.onPermute(b, offset, skip)

	row := make([]int, m)
	for j, c := 0, offset; j < m; j++ {
		row[j] = c
		if c += skip; c >= m {
			c -= m
		}
	}
	return row
}

// permutations returns rows of preferences for each of backends, given in
// canonical order.
func (t *Table) permutations(backends []string, m int) [][]int {
	rows := make([][]int, len(backends))
	for i, b := range backends {
		rows[i] = t.permutation(b, m)
	}
	return rows
}
