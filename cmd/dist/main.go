package main

import (
	"context"
	"flag"
	"fmt"
	"hash"
	"io/ioutil"
	"math"
	"math/rand"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gobwas/avl"
	"github.com/gobwas/maglev"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// config holds defaults of the command line flags.
type config struct {
	Parallelism int    `env:"MAGLEV_DIST_PARALLELISM"`
	Objects     int    `env:"MAGLEV_DIST_OBJECTS,default=1000000"`
	Servers     int    `env:"MAGLEV_DIST_SERVERS,default=10"`
	Lo          int    `env:"MAGLEV_DIST_LO"`
	Hi          int    `env:"MAGLEV_DIST_HI"`
	Sizes       string `env:"MAGLEV_DIST_SIZES"`
	Hash        string `env:"MAGLEV_DIST_HASH,default=siphash"`
	Topology    string `env:"MAGLEV_DIST_TOPOLOGY"`
}

// topology is a yaml file describing servers and table sizes to check.
type topology struct {
	Servers []string `yaml:"servers"`
	Sizes   []int    `yaml:"sizes"`
}

func main() {
	var cfg config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		log.Fatalf("can't process environment: %v", err)
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.NumCPU()
	}

	var (
		p        int    // Number of goroutines.
		n        int    // Number of objects.
		s        int    // Number of servers in the table.
		lo       int    // Min table size.
		hi       int    // Max table size.
		ss       string // Comma-separated sizes list.
		topo     string // Optional topology file.
		csv      bool
		hashFunc string // Hash function name.

		verbose bool
		silent  bool
	)
	flag.IntVar(&p,
		"parallelism", cfg.Parallelism,
		"number of concurrent processors",
	)
	flag.IntVar(&n,
		"objects", cfg.Objects,
		"number of objects to spread over table",
	)
	flag.IntVar(&s,
		"servers", cfg.Servers,
		"number of servers to place into table",
	)
	flag.IntVar(&lo,
		"lo", cfg.Lo,
		"table size to start from (non-prime sizes are skipped)",
	)
	flag.IntVar(&hi,
		"hi", cfg.Hi,
		"table size to end at",
	)
	flag.StringVar(&ss,
		"sizes", cfg.Sizes,
		"comma-separated list of table sizes",
	)
	flag.StringVar(&topo,
		"topology", cfg.Topology,
		"yaml file with servers and table sizes",
	)
	flag.StringVar(&hashFunc,
		"hash", cfg.Hash,
		"hash function to be used: siphash, xxhash or crc32c",
	)
	flag.BoolVar(&verbose,
		"v", false,
		"be verbose",
	)
	flag.BoolVar(&silent,
		"s", false,
		"be silent",
	)
	flag.BoolVar(&csv,
		"csv", true,
		"print csv to standard output",
	)

	flag.Parse()

	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	printf := func(f string, args ...interface{}) {
		if silent {
			return
		}
		fmt.Fprintf(os.Stderr, f, args...)
	}

	var hashFn func(uint64) hash.Hash64
	switch hashFunc {
	case "", "siphash":
		hashFn = maglev.SipHash
	case "xxhash":
		hashFn = maglev.XXHash
	case "crc32c":
		hashFn = maglev.CRC32C
	default:
		log.Fatalf("unexpected hash function: %q", hashFunc)
	}

	var top topology
	if topo != "" {
		bts, err := ioutil.ReadFile(topo)
		if err != nil {
			log.Fatalf("can't read topology: %v", err)
		}
		if err := yaml.Unmarshal(bts, &top); err != nil {
			log.Fatalf("can't parse topology: %v", err)
		}
		log.WithFields(log.Fields{
			"servers": len(top.Servers),
			"sizes":   len(top.Sizes),
		}).Debugf("loaded topology from %s", topo)
	}

	// Prepare servers to be put into table(s).
	servers := top.Servers
	seenTop := make(map[string]bool, len(servers))
	for _, srv := range servers {
		if seenTop[srv] {
			log.Fatalf("duplicate server %q in topology %s", srv, topo)
		}
		seenTop[srv] = true
	}
	if len(servers) == 0 {
		servers = make([]string, s)
		seenSrv := make(map[string]bool)
		for i := 0; i < s; {
			var b [4]byte
			_, err := rand.Read(b[:])
			if err != nil {
				panic(err)
			}
			ip := net.IPv4(b[0], b[1], b[2], b[3])
			s := ip.String()
			if seenSrv[s] {
				log.Debugf("#%d server duplicated; repeat", i)
				continue
			}
			seenSrv[s] = true
			servers[i] = s
			i++
		}
	}
	s = len(servers)
	log.Debugf("%d servers are ready", s)

	// Prepare objects to be spread across servers.
	objects := make([]string, n)
	seenObj := make(map[string]bool)
	for i := 0; i < n; {
		s := fmt.Sprintf("%016x", rand.Intn(math.MaxInt64))
		if seenObj[s] {
			log.Debugf("#%d object duplicated; repeat", i)
			continue
		}
		seenObj[s] = true
		objects[i] = s
		i++
	}
	log.Debugf("%d objects are ready", len(objects))

	// Prepare list of table sizes. We merge here sizes range (from `lo` to
	// `hi`) with manually specified sizes in `ss` and in topology file.
	// We use tree to autofix duplicates (if any).
	var sizes avl.Tree
	insertSize := func(m int) {
		if !maglev.IsPrime(m) {
			log.Debugf("skipping non-prime size %d", m)
			return
		}
		if m < s {
			log.Warnf("skipping size %d: less than number of servers", m)
			return
		}
		sizes, _ = sizes.Insert(size(m))
	}
	for _, s := range strings.Split(ss, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		m, err := strconv.Atoi(s)
		if err != nil {
			log.Fatalf("malformed size %q: %v", s, err)
		}
		insertSize(m)
	}
	for _, m := range top.Sizes {
		insertSize(m)
	}
	for m := lo; m < hi; m++ {
		insertSize(m)
	}
	if sizes.Size() == 0 {
		insertSize(maglev.SizeFor(s))
	}
	log.Debugf("%d sizes are ready", sizes.Size())

	mean := float64(n) / float64(s)

	var (
		work    = make(chan int)
		stop    = make(chan struct{})
		done    = make(chan struct{}, p)
		results = make(chan result, 1)
	)
	for i := 0; i < p; i++ {
		go func() {
			defer func() {
				done <- struct{}{}
			}()
			var (
				distribution = make(map[string]int, len(servers))
				prev         = make([]string, len(objects))
			)
			for {
				var m int
				select {
				case <-stop:
					return
				case m = <-work:
					// Process below.
				}

				t := maglev.Table{
					Hash: hashFn,
				}
				if err := t.Reset(m); err != nil {
					panic(err)
				}

				start := time.Now()
				if err := t.SetBackends(servers); err != nil {
					log.Fatalf("can't build table of size %d: %v", m, err)
				}
				latency := time.Since(start)

				for i, obj := range objects {
					b, err := t.Get(obj)
					if err != nil {
						panic(err)
					}
					distribution[b]++
					prev[i] = b
				}
				var (
					variance float64
					maxDiff  int
				)
				for key, d := range distribution {
					variance += math.Pow(float64(d)-mean, 2)
					if diff := int(math.Abs(float64(d) - mean)); diff > maxDiff {
						maxDiff = diff
					}
					distribution[key] = 0
				}
				// Divide by number of servers as for mean.
				variance /= float64(s)

				// Remove the first server and count objects which were not
				// mapped to it, but changed their server.
				var moved, kept int
				if len(servers) > 1 {
					del := servers[0]
					if err := t.RemoveBackend(del); err != nil {
						panic(err)
					}
					for i, obj := range objects {
						if prev[i] == del {
							continue
						}
						kept++
						b, err := t.Get(obj)
						if err != nil {
							panic(err)
						}
						if b != prev[i] {
							moved++
						}
					}
				}
				results <- result{
					m:       m,
					latency: latency,
					stddev:  math.Sqrt(variance),
					maxDiff: maxDiff,
					moved:   moved,
					kept:    kept,
				}
			}
		}()
	}

	go func() {
		sizes.InOrder(func(x avl.Item) bool {
			select {
			case <-stop:
				return false
			case work <- int(x.(size)):
				return true
			}
		})
		close(stop)
		for i := 0; i < p; i++ {
			<-done
		}
		close(results)
	}()

	var t avl.Tree
	for r := range results {
		t, _ = t.Insert(r)
		printf(".")
		if n := t.Size(); n%80 == 0 {
			m := sizes.Size()
			printf(
				"%d/%d(%.1f%%)\n",
				n, m,
				float64(n)/float64(m)*100, // Progress percentage.
			)
		}
	}
	printf("\n")

	tw := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	t.InOrder(func(x avl.Item) bool {
		r := x.(result)
		var (
			devPct   = r.stddev / float64(n) * 100
			diffPct  = float64(r.maxDiff) / float64(n) * 100
			movedPct float64
		)
		if r.kept > 0 {
			movedPct = float64(r.moved) / float64(r.kept) * 100
		}
		log.WithFields(log.Fields{
			"stddev":  fmt.Sprintf("%.2f(%.2f%%)", r.stddev, devPct),
			"maxdiff": fmt.Sprintf("%d(%.2f%%)", r.maxDiff, diffPct),
			"moved":   fmt.Sprintf("%d(%.2f%%)", r.moved, movedPct),
			"latency": r.latency,
		}).Debugf("size %d", r.m)
		if csv {
			fmt.Fprintf(tw,
				"%d,\t%.4f,\t%.4f,\t%.4f,\t%.2f\n",
				r.m, devPct, diffPct, movedPct,
				r.latency.Seconds()*1000,
			)
		}
		return true
	})
	tw.Flush()

	printf("OK")
}

type result struct {
	m       int
	latency time.Duration
	stddev  float64
	maxDiff int
	moved   int // Objects moved between remaining servers.
	kept    int // Objects not mapped to the removed server.
}

func (r result) Compare(x avl.Item) int {
	return r.m - x.(result).m
}

type size int

func (s size) Compare(x avl.Item) int {
	return int(s - x.(size))
}
