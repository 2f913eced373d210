package store

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity bounds the in-memory ledger when no capacity is given
const DefaultMemoryCapacity = 1000

// MemoryCertificateStore is an in-memory implementation of CertificateStore for development and testing.
// It holds at most capacity records, evicting the oldest registration first.
type MemoryCertificateStore struct {
	mu       sync.RWMutex
	certs    map[string]*CertRecord // indexed by serial number
	order    []string               // serial numbers in registration order
	capacity int
}

// NewMemoryCertificateStore creates a new in-memory certificate store holding up to DefaultMemoryCapacity records
func NewMemoryCertificateStore() *MemoryCertificateStore {
	return NewBoundedMemoryCertificateStore(DefaultMemoryCapacity)
}

// NewBoundedMemoryCertificateStore creates an in-memory certificate store holding up to capacity records,
// a capacity below one uses DefaultMemoryCapacity
func NewBoundedMemoryCertificateStore(capacity int) *MemoryCertificateStore {
	if capacity < 1 {
		capacity = DefaultMemoryCapacity
	}

	return &MemoryCertificateStore{
		certs:    make(map[string]*CertRecord),
		capacity: capacity,
	}
}

// Get retrieves a record by serial number
func (s *MemoryCertificateStore) Get(ctx context.Context, serialNumber string) (*CertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, exists := s.certs[serialNumber]
	if !exists {
		return nil, ErrCertNotFound
	}

	// Return a copy to avoid external modifications
	c := *cert
	return &c, nil
}

// Register stores a record, evicting the oldest once the store is full
func (s *MemoryCertificateStore) Register(ctx context.Context, cert *CertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.certs[cert.SerialNumber]; exists {
		return ErrCertAlreadyExists
	}

	c := *cert
	s.certs[cert.SerialNumber] = &c
	s.order = append(s.order, cert.SerialNumber)

	for len(s.order) > s.capacity {
		delete(s.certs, s.order[0])
		s.order = s.order[1:]
	}

	return nil
}

// Len returns the number of records held
func (s *MemoryCertificateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.certs)
}

// List returns records, newest first
func (s *MemoryCertificateStore) List(ctx context.Context, opts ListCertificatesOptions) ([]*CertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*CertRecord, 0, len(s.certs))
	for _, cert := range s.certs {
		if opts.IssuerMode != "" && cert.IssuerMode != opts.IssuerMode {
			continue
		}

		c := *cert
		result = append(result, &c)
	}

	return sortAndLimit(result, opts.Limit), nil
}
