//go:build linux

package firewall

import (
	"sync"

	"github.com/google/nftables"
	"github.com/stretchr/testify/mock"
)

// MockNFTablesConn is a mock implementation of NFTablesConn for testing.
type MockNFTablesConn struct {
	mock.Mock
	mu sync.Mutex

	// In-memory state for tracking operations
	tables   map[string]*nftables.Table
	elements map[string][]nftables.SetElement
	pending  map[string][]nftables.SetElement
	flushed  map[string]bool
}

// NewMockNFTablesConn creates a new mock nftables connection.
func NewMockNFTablesConn() *MockNFTablesConn {
	return &MockNFTablesConn{
		tables:   make(map[string]*nftables.Table),
		elements: make(map[string][]nftables.SetElement),
		pending:  make(map[string][]nftables.SetElement),
		flushed:  make(map[string]bool),
	}
}

// AddTestTable registers a table as if it already existed in the kernel.
func (m *MockNFTablesConn) AddTestTable(t *nftables.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.Name] = t
}

func (m *MockNFTablesConn) ListTables() ([]*nftables.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called()
	if args.Get(0) != nil {
		return args.Get(0).([]*nftables.Table), args.Error(1)
	}
	// Return in-memory tables
	tables := make([]*nftables.Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	return tables, args.Error(1)
}

func (m *MockNFTablesConn) AddSet(s *nftables.Set, vals []nftables.SetElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(s, vals)
	m.pending[s.Name] = append(m.pending[s.Name], vals...)
	return args.Error(0)
}

func (m *MockNFTablesConn) FlushSet(s *nftables.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Called(s)
	m.flushed[s.Name] = true
	m.pending[s.Name] = nil
}

// Flush commits queued operations to the in-memory state when the mocked
// call succeeds.
func (m *MockNFTablesConn) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called()
	if err := args.Error(0); err != nil {
		m.pending = make(map[string][]nftables.SetElement)
		m.flushed = make(map[string]bool)
		return err
	}
	for name := range m.flushed {
		m.elements[name] = nil
	}
	for name, vals := range m.pending {
		m.elements[name] = append(m.elements[name], vals...)
	}
	m.pending = make(map[string][]nftables.SetElement)
	m.flushed = make(map[string]bool)
	return nil
}

// Elements returns the committed elements of a set.
func (m *MockNFTablesConn) Elements(name string) []nftables.SetElement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elements[name]
}
