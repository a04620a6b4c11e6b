package sequence

import "math/big"

var five = big.NewInt(5)

// Cassini reports whether L(n)² − 5·F(n)² = 4·(−1)ⁿ.
// Negative indices never satisfy the identity.
func (o *Oracle) Cassini(n int) bool {
	return o.CassiniPair(n, n)
}

// CassiniPair checks the generalized identity for an index pair:
//
//	L(m)·L(k) − 5·F(m)·F(k) = 2·(−1)^k · L(m−k),  m ≥ k ≥ 0
//
// With m == k it reduces to Cassini(n). Pairs outside m ≥ k ≥ 0 are rejected.
func (o *Oracle) CassiniPair(m, k int) bool {
	if k < 0 || m < k {
		return false
	}

	fm, err := o.Forward(m)
	if err != nil {
		return false
	}
	fk, err := o.Forward(k)
	if err != nil {
		return false
	}
	lm, err := o.Backward(m)
	if err != nil {
		return false
	}
	lk, err := o.Backward(k)
	if err != nil {
		return false
	}
	ld, err := o.Backward(m - k)
	if err != nil {
		return false
	}

	left := new(big.Int).Mul(lm, lk)
	ff := new(big.Int).Mul(fm, fk)
	left.Sub(left, ff.Mul(ff, five))

	right := new(big.Int).Lsh(ld, 1)
	if k%2 == 1 {
		right.Neg(right)
	}
	return left.Cmp(right) == 0
}
