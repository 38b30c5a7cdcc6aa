package maglev

// Table sizes recommended for up to ~650 and ~6500 backends respectively.
const (
	SmallM = 65537
	BigM   = 655373
)

// IsPrime reports whether n is a prime number.
func IsPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for i := 3; i*i <= n; i += 2 {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// NextPrime returns the smallest prime number greater or equal to n.
func NextPrime(n int) int {
	if n <= 2 {
		return 2
	}
	if n%2 == 0 {
		n++
	}
	for !IsPrime(n) {
		n += 2
	}
	return n
}

// SizeFor returns table size suitable for n backends, so that each backend
// owns about a hundred slots or more.
func SizeFor(n int) int {
	switch {
	case n*100 < SmallM:
		return SmallM
	case n*100 < BigM:
		return BigM
	default:
		return NextPrime(n * 100)
	}
}
