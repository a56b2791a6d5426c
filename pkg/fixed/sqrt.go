package fixed

// sqrtIterations bounds the Newton-Raphson square root to a fixed number of
// steps so the analytics hot path never has an unbounded loop.
const sqrtIterations = 40

// Sqrt returns an approximation of sqrt(p) using fixed-point Newton-Raphson
// iteration. Negative inputs return Zero — variance is never negative in the
// analytics engine's arithmetic, but a defensive floor avoids panicking on a
// transient negative estimate caused by accumulated rounding.
func (p Point) Sqrt() Point {
	if p.v <= 0 {
		return Zero
	}
	if p.v == scaleFactor {
		return One
	}

	// Initial guess: scale-preserving approximation via integer sqrt of the
	// raw value times the scale, i.e. sqrt(v*scale) in the raw domain.
	guess := Point{isqrt64(p.v) * isqrt64(scaleFactor)}
	if guess.v == 0 {
		guess = Point{1}
	}

	for i := 0; i < sqrtIterations; i++ {
		if guess.v == 0 {
			break
		}
		next := guess.Add(p.Div(guess)).DivInt(2)
		if next.v == guess.v {
			break
		}
		guess = next
	}
	return guess
}

// isqrt64 computes floor(sqrt(n)) for a non-negative int64 using binary
// search; used only to seed Newton-Raphson, not on any latency-sensitive
// path by itself.
func isqrt64(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var lo, hi int64 = 0, n
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if mid != 0 && mid > n/mid {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return lo
}
