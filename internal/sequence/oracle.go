// Package sequence provides the memoized Fibonacci ("forward") and Lucas
// ("backward") integer sequences that drive offset magnitudes and the
// Cassini-style acceptance check.
//
// Values are exact (*big.Int). The memo grows monotonically: evaluating index n
// for the first time costs O(n) additions, later lookups are O(1).
//
// Thread-safety: Oracle is safe for concurrent use. The engine itself is
// single-writer, but several engines (parallel tests, scenario runs) share the
// package default oracle.
package sequence

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
)

// ErrNegativeIndex is returned for any negative sequence index.
var ErrNegativeIndex = errors.New("sequence index must be non-negative")

// ErrOverflow is returned by the int64 accessors when the value does not fit.
var ErrOverflow = errors.New("sequence value overflows int64")

// Oracle memoizes both canonical sequences.
type Oracle struct {
	mu       sync.Mutex
	forward  []*big.Int
	backward []*big.Int
}

// NewOracle creates an oracle seeded with F0, F1 and L0, L1.
func NewOracle() *Oracle {
	return &Oracle{
		forward:  []*big.Int{big.NewInt(0), big.NewInt(1)},
		backward: []*big.Int{big.NewInt(2), big.NewInt(1)},
	}
}

var defaultOracle = NewOracle()

// Default returns the process-wide oracle.
func Default() *Oracle {
	return defaultOracle
}

// Forward returns F(n). The returned value must not be mutated.
func (o *Oracle) Forward(n int) (*big.Int, error) {
	if n < 0 {
		return nil, fmt.Errorf("forward(%d): %w", n, ErrNegativeIndex)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.forward = extend(o.forward, n)
	return o.forward[n], nil
}

// Backward returns L(n). The returned value must not be mutated.
func (o *Oracle) Backward(n int) (*big.Int, error) {
	if n < 0 {
		return nil, fmt.Errorf("backward(%d): %w", n, ErrNegativeIndex)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.backward = extend(o.backward, n)
	return o.backward[n], nil
}

// extend grows a two-term recurrence memo until it holds index n.
func extend(memo []*big.Int, n int) []*big.Int {
	for len(memo) <= n {
		k := len(memo)
		next := new(big.Int).Add(memo[k-1], memo[k-2])
		memo = append(memo, next)
	}
	return memo
}

// ForwardInt64 returns F(n) as int64.
func (o *Oracle) ForwardInt64(n int) (int64, error) {
	v, err := o.Forward(n)
	if err != nil {
		return 0, err
	}
	return toInt64(v, "forward", n)
}

// BackwardInt64 returns L(n) as int64.
func (o *Oracle) BackwardInt64(n int) (int64, error) {
	v, err := o.Backward(n)
	if err != nil {
		return 0, err
	}
	return toInt64(v, "backward", n)
}

func toInt64(v *big.Int, name string, n int) (int64, error) {
	if !v.IsInt64() {
		return 0, fmt.Errorf("%s(%d): %w", name, n, ErrOverflow)
	}
	return v.Int64(), nil
}

// ForwardSigned returns F(n) for any integer n using the negafibonacci
// extension F(-n) = (-1)^(n+1) F(n).
func (o *Oracle) ForwardSigned(n int) (int64, error) {
	if n >= 0 {
		return o.ForwardInt64(n)
	}
	v, err := o.ForwardInt64(-n)
	if err != nil {
		return 0, err
	}
	if (-n)%2 == 0 {
		return -v, nil
	}
	return v, nil
}

// BackwardSigned returns L(n) for any integer n using L(-n) = (-1)^n L(n).
func (o *Oracle) BackwardSigned(n int) (int64, error) {
	if n >= 0 {
		return o.BackwardInt64(n)
	}
	v, err := o.BackwardInt64(-n)
	if err != nil {
		return 0, err
	}
	if (-n)%2 == 1 {
		return -v, nil
	}
	return v, nil
}

// Len reports how many indices of each sequence are memoized.
func (o *Oracle) Len() (forward, backward int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.forward), len(o.backward)
}
