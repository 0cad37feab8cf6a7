package market

import "math/big"

// FeeSink accumulates native-currency listing fees. Credited by every
// successful listing, drained only by an owner withdrawal.
type FeeSink struct {
	balance *big.Int
}

// NewFeeSink creates an empty sink.
func NewFeeSink() *FeeSink {
	return &FeeSink{balance: big.NewInt(0)}
}

// Credit adds amount to the sink.
func (s *FeeSink) Credit(amount *big.Int) {
	s.balance.Add(s.balance, amount)
}

// Balance returns a copy of the current balance.
func (s *FeeSink) Balance() *big.Int {
	return new(big.Int).Set(s.balance)
}

// Drain zeroes the sink and returns what it held.
func (s *FeeSink) Drain() *big.Int {
	drained := s.balance
	s.balance = big.NewInt(0)
	return drained
}
