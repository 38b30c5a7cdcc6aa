package maglev

import (
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
	"github.com/klauspost/crc32"
)

// Seeds of the two independent hash functions. The offset seed is also used
// to hash the keys being looked up.
const (
	offsetSeed = 0xdeadbabe
	skipSeed   = 0xdeadbeef
)

// SipHash returns SipHash-2-4 keyed by the given seed.
// It is the default hash function of the Table.
func SipHash(seed uint64) hash.Hash64 {
	var key [16]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	return siphash.New(key[:])
}

// XXHash returns 64-bit xxHash seeded by the given seed.
func XXHash(seed uint64) hash.Hash64 {
	return &xxDigest{
		Digest: xxhash.NewWithSeed(seed),
		seed:   seed,
	}
}

// xxDigest keeps the seed over Reset() calls; xxhash.Digest resets it to
// zero.
type xxDigest struct {
	*xxhash.Digest
	seed uint64
}

func (d *xxDigest) Reset() {
	d.Digest.ResetWithSeed(d.seed)
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns CRC-32 (Castagnoli) checksum of the input mixed with the
// given seed. CRC is linear, so checksums with different initial values are
// related by a constant; the seed is mixed in by a nonlinear finalizer
// instead. The checksum holds only 32 bits of entropy, which is enough for
// tables up to a few million slots.
func CRC32C(seed uint64) hash.Hash64 {
	return &crcDigest{
		seed: seed,
	}
}

type crcDigest struct {
	seed uint64
	crc  uint32
}

func (d *crcDigest) Write(p []byte) (int, error) {
	d.crc = crc32.Update(d.crc, castagnoli, p)
	return len(p), nil
}

func (d *crcDigest) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, d.Sum64())
}

func (d *crcDigest) Sum64() uint64 {
	return fmix64(uint64(d.crc) ^ d.seed*0x9e3779b97f4a7c15)
}

func (d *crcDigest) Reset()         { d.crc = 0 }
func (d *crcDigest) Size() int      { return 8 }
func (d *crcDigest) BlockSize() int { return 1 }

// fmix64 is the MurmurHash3 64-bit finalizer.
func fmix64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

// hasher is a pool of reusable hash functions sharing the same seed.
type hasher struct {
	seed uint64
	fn   func(uint64) hash.Hash64
	pool sync.Pool
}

func newHasher(fn func(uint64) hash.Hash64, seed uint64) *hasher {
	if fn == nil {
		fn = SipHash
	}
	return &hasher{
		seed: seed,
		fn:   fn,
	}
}

func (h *hasher) get() hash.Hash64 {
	if x, _ := h.pool.Get().(hash.Hash64); x != nil {
		return x
	}
	return h.fn(h.seed)
}

func (h *hasher) put(x hash.Hash64) {
	x.Reset()
	h.pool.Put(x)
}

func (h *hasher) sumString(s string) uint64 {
	x := h.get()
	defer h.put(x)
	if _, err := io.WriteString(x, s); err != nil {
		panic(fmt.Sprintf("maglev: digest error: %v", err))
	}
	return x.Sum64()
}

func (h *hasher) sumBytes(p []byte) uint64 {
	x := h.get()
	defer h.put(x)
	if _, err := x.Write(p); err != nil {
		panic(fmt.Sprintf("maglev: digest error: %v", err))
	}
	return x.Sum64()
}
