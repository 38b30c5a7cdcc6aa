package maglev

// populate fills a table of size m using given permutation rows.
// Backends take turns in rows order, each claiming its most preferred slot
// which is not claimed yet. That is, on equal preference earlier backend
// wins.
//
// It returns filled table holding indexes of rows and the number of claim
// rounds made.
//
// Number of rows must be in [1, m] range.
func populate(rows [][]int, m int) (entry []int, rounds int) {
	n := len(rows)
	if n == 0 || n > m {
		panic("maglev: internal error: malformed number of backends")
	}
	entry = make([]int, m)
	for i := range entry {
		entry[i] = -1
	}
	next := make([]int, n)

	var claimed int
	for {
		rounds++
		for i, row := range rows {
			c := row[next[i]]
			for entry[c] >= 0 {
				next[i]++
				c = row[next[i]]
			}
			entry[c] = i
			next[i]++

			if claimed++; claimed == m {
				return entry, rounds
			}
		}
	}
}
