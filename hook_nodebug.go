//go:build !maglev_debug
// +build !maglev_debug

package maglev

const debug = false

func assertSnapshot(*snapshot) {}
func setupTableTrace(t *Table) {}
