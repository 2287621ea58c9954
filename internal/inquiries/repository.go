package inquiries

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for inquiry storage.
type Repository interface {
	Create(ctx context.Context, req *CreateInquiryRequest) (*Inquiry, error)
}

// InMemoryRepository keeps inquiries in process memory. Used in tests and
// when no database is configured.
type InMemoryRepository struct {
	mu        sync.RWMutex
	inquiries map[string]*Inquiry
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{inquiries: make(map[string]*Inquiry)}
}

// Create stores a new inquiry in memory.
func (r *InMemoryRepository) Create(_ context.Context, req *CreateInquiryRequest) (*Inquiry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	inquiry := &Inquiry{
		ID:        uuid.New().String(),
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.inquiries[inquiry.ID] = inquiry
	r.mu.Unlock()
	return inquiry, nil
}

// List returns stored inquiries, newest first.
func (r *InMemoryRepository) List() []*Inquiry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Inquiry, 0, len(r.inquiries))
	for _, inq := range r.inquiries {
		out = append(out, inq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
