package decimal

// ToFloat64ForBroadcast converts m to float64. The name is deliberately
// loud: this conversion belongs only on the way out to an external
// broadcast payload. Never call this on a value about to be persisted.
func (m Money) ToFloat64ForBroadcast() float64 {
	f, _ := m.val.Float64()
	return f
}
