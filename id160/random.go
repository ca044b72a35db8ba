package id160

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	ErrReseedNotSupported = errors.New("id160: reseeding after construction is not supported")
	ErrNonPositiveBound   = errors.New("id160: bound must be positive")
	ErrBadRange           = errors.New("id160: least must be smaller than bound")
)

// Random is a cryptographically strong deterministic bit generator: a
// 128-bit counter encrypted under a fixed AES key (CTR construction).
// Both key and counter are drawn from the process entropy source at
// construction and can never be replaced afterwards.
//
// A Random is confined to one worker at a time. The intended call
// pattern is Acquire, use, Release; never store an instance and use it
// from another goroutine.
type Random struct {
	block   cipher.Block
	counter [16]byte
	cache   [16]byte
	// read cursor into cache; values are consumed 4 bytes at a time.
	cursor int

	haveGaussian bool
	nextGaussian float64
}

// NewRandom seeds a generator from crypto/rand. Each worker gets its own
// instance; the entropy source is the only state shared between workers.
func NewRandom() (*Random, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("id160: seeding generator: %w", err)
	}
	block, err := aes.NewCipher(seed[:16])
	if err != nil {
		return nil, fmt.Errorf("id160: seeding generator: %w", err)
	}
	r := &Random{block: block}
	copy(r.counter[:], seed[16:])
	r.refill()
	return r, nil
}

var pool = sync.Pool{
	New: func() any {
		r, err := NewRandom()
		if err != nil {
			// crypto/rand failing is unrecoverable for identifier minting.
			panic(err)
		}
		return r
	},
}

// Acquire returns a generator for exclusive use by the calling worker.
// Pair every Acquire with a Release once the draws are done.
func Acquire() *Random { return pool.Get().(*Random) }

// Release returns the generator to the pool. The caller must not retain
// the reference.
func Release(r *Random) { pool.Put(r) }

// Seed always fails: the generator's security property depends on the
// seed being fixed once per worker lifetime.
func (r *Random) Seed(int64) error { return ErrReseedNotSupported }

// refill advances the counter and re-encrypts it into the cache. The
// increment cascades little-endian through all 16 bytes; wrapping every
// byte back to zero is a valid state and still produces a fresh block.
func (r *Random) refill() {
	r.cursor = 0
	for i := range r.counter {
		r.counter[i]++
		if r.counter[i] != 0 {
			break
		}
	}
	r.block.Encrypt(r.cache[:], r.counter[:])
}

// next returns the requested number of random bits (at most 32),
// consuming 4 bytes of the cached block.
func (r *Random) next(bits uint) uint32 {
	if len(r.cache)-r.cursor < 4 {
		r.refill()
	}
	v := binary.BigEndian.Uint32(r.cache[r.cursor:])
	r.cursor += 4
	return v >> (32 - bits)
}

// Uint32 returns a uniform 32-bit value.
func (r *Random) Uint32() uint32 { return r.next(32) }

// Int63 returns a uniform non-negative 63-bit value.
func (r *Random) Int63() int64 {
	return int64(r.next(31))<<32 | int64(r.next(32))
}

// Intn returns a uniform value in [0, n). The draw is rejection-based and
// free of modulo bias. n must be positive and fit 31 bits.
func (r *Random) Intn(n int) (int, error) {
	if n <= 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d", ErrNonPositiveBound, n)
	}
	if n&(n-1) == 0 { // power of two
		return int(int64(n) * int64(r.next(31)) >> 31), nil
	}
	for {
		bits := int32(r.next(31))
		val := bits % int32(n)
		if bits-val+(int32(n)-1) >= 0 {
			return int(val), nil
		}
	}
}

// Int63n returns a uniform value in [0, n). For n that does not fit 31
// bits the range is repeatedly halved, consuming two random bits per
// iteration (one selects the half, one decides the offset), which keeps
// the result unbiased where a naive modulo would not be.
func (r *Random) Int63n(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrNonPositiveBound, n)
	}
	var offset int64
	for n >= math.MaxInt32 {
		bits := r.next(2)
		half := n >> 1
		next := half
		if bits&2 != 0 {
			next = n - half
		}
		if bits&1 == 0 {
			offset += n - next
		}
		n = next
	}
	v, err := r.Intn(int(n))
	if err != nil {
		return 0, err
	}
	return offset + int64(v), nil
}

// Float64 returns a uniform value in [0, 1) with 53 bits of precision.
func (r *Random) Float64() float64 {
	return float64(int64(r.next(26))<<27|int64(r.next(27))) / (1 << 53)
}

// Float64n returns a uniform value in [0, n). n must be positive.
func (r *Random) Float64n(n float64) (float64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrNonPositiveBound, n)
	}
	return r.Float64() * n, nil
}

// Float64Range returns a uniform value in [least, bound).
func (r *Random) Float64Range(least, bound float64) (float64, error) {
	if least >= bound {
		return 0, fmt.Errorf("%w: [%v, %v)", ErrBadRange, least, bound)
	}
	return r.Float64()*(bound-least) + least, nil
}

// NormFloat64 returns a standard normal deviate using the polar
// Box-Muller transform. One deviate of each pair is cached for the next
// call.
func (r *Random) NormFloat64() float64 {
	if r.haveGaussian {
		r.haveGaussian = false
		return r.nextGaussian
	}
	var v1, v2, s float64
	for {
		v1 = 2*r.Float64() - 1
		v2 = 2*r.Float64() - 1
		s = v1*v1 + v2*v2
		if s < 1 && s != 0 {
			break
		}
	}
	norm := math.Sqrt(-2 * math.Log(s) / s)
	r.nextGaussian = v2 * norm
	r.haveGaussian = true
	return v1 * norm
}

// NextId160 returns a uniform identifier over the full 160-bit space.
func (r *Random) NextId160() Id160 {
	var id Id160
	for i := 0; i < Size; i += 4 {
		binary.BigEndian.PutUint32(id[i:], r.next(32))
	}
	return id
}

// NextId160Bounded returns a uniform identifier in [Zero, bound). The
// bound must be non-zero. Sampling draws only as many bits as the bound
// occupies and rejects overshoots, keeping the distribution uniform.
func (r *Random) NextId160Bounded(bound Id160) (Id160, error) {
	if bound.IsZero() {
		return Id160{}, fmt.Errorf("%w: zero id", ErrNonPositiveBound)
	}
	bits := bound.bitLen()
	topByte := Size - (bits+7)/8
	topMask := byte(0xff)
	if rem := bits % 8; rem != 0 {
		topMask = byte(0xff) >> (8 - rem)
	}
	for {
		id := r.NextId160()
		for i := 0; i < topByte; i++ {
			id[i] = 0
		}
		id[topByte] &= topMask
		if id.Compare(bound) < 0 {
			return id, nil
		}
	}
}

// NextId160Range returns a uniform identifier in [least, bound).
func (r *Random) NextId160Range(least, bound Id160) (Id160, error) {
	if least.Compare(bound) >= 0 {
		return Id160{}, fmt.Errorf("%w: [%s, %s)", ErrBadRange, least, bound)
	}
	v, err := r.NextId160Bounded(bound.sub(least))
	if err != nil {
		return Id160{}, err
	}
	return least.add(v), nil
}

// NewId mints a fresh random identifier using a pooled generator. This is
// the common path for creating target and session identifiers.
func NewId() Id160 {
	r := Acquire()
	defer Release(r)
	return r.NextId160()
}
