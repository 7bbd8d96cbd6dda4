package store

// MockStore is an in-memory DocumentLoader for tests.
type MockStore struct {
	Docs  Documents
	Calls int
}

// LoadAll returns the configured documents and counts the call.
func (m *MockStore) LoadAll() Documents {
	m.Calls++
	return m.Docs
}
