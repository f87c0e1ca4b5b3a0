package store

const chatKeySeparator = "_"

// ChatKey is the canonical conversation key for a pair of numbers. It does
// not depend on argument order.
func ChatKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + chatKeySeparator + b
}

// Conversations reports how many conversation logs exist.
func (s *Store) Conversations() int {
	return s.messages.conversations()
}
