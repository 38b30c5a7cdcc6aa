//go:build maglev_debug
// +build maglev_debug

package maglev

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

const debug = true

func assertSnapshot(s *snapshot) {
	if len(s.lookup) != s.size {
		panic(fmt.Sprintf(
			"maglev: internal error: lookup table size is %d; want %d",
			len(s.lookup), s.size,
		))
	}
	owned := make([]int, len(s.backends))
	for slot, i := range s.lookup {
		if i < 0 || i >= len(s.backends) {
			panic(fmt.Sprintf(
				"maglev: internal error: slot #%d is not assigned (%d)",
				slot, i,
			))
		}
		owned[i]++
	}
	for i, n := range owned {
		if n == 0 {
			panic(fmt.Sprintf(
				"maglev: internal error: backend %q owns no slots",
				s.backends[i],
			))
		}
	}
}

func setupTableTrace(t *Table) {
	t.trace = t.trace.Compose(traceTable{
		OnRebuild: func(size, n int) traceTableRebuild {
			log.WithFields(log.Fields{
				"size":     size,
				"backends": n,
			}).Debug("rebuilding table")
			return traceTableRebuild{
				OnDone: func(rounds int) {
					log.WithField("rounds", rounds).Debug("rebuilt table")
				},
			}
		},
		OnPermute: func(b string, offset, skip int) {
			log.WithFields(log.Fields{
				"backend": b,
				"offset":  offset,
				"skip":    skip,
			}).Debug("permutation")
		},
		OnPublish: func(size int, backends []string) {
			log.WithFields(log.Fields{
				"size":     size,
				"backends": backends,
			}).Debug("published table")
		},
	})
}
