// Package risk is an in-memory invoice risk assessment registry. Scores run
// from 1 (lowest risk) to 5; 0 means the invoice has not been assessed.
package risk

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xraph/fundflow/admin"
	"github.com/xraph/fundflow/id"
	"github.com/xraph/fundflow/types"
)

const (
	CodeAssessUnauthorized   = 300
	CodeScoreOutOfRange      = 301
	CodeTransferUnauthorized = 302
)

const (
	MinScore = 1
	MaxScore = 5
)

var (
	ErrScoreOutOfRange = errors.New("fundflow: risk score out of range")
	ErrNotAssessed     = errors.New("fundflow: invoice not assessed")
)

// Assessment is the risk score given to one invoice.
type Assessment struct {
	ID         id.RiskID      `json:"id"`
	InvoiceID  string         `json:"invoice_id"`
	Business   types.Identity `json:"business"`
	Score      int            `json:"score"`
	AssessedAt int64          `json:"assessed_at"`
	Assessor   types.Identity `json:"assessor"`
}

type key struct {
	invoiceID string
	business  types.Identity
}

// Registry stores risk assessments. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	admin       *admin.Registry
	clock       func() int64
	assessments map[key]*Assessment
}

type Option func(*Registry)

// WithClock sets the logical clock stamped on assessments.
func WithClock(clock func() int64) Option {
	return func(r *Registry) { r.clock = clock }
}

// New creates a registry administered by adminID.
func New(adminID types.Identity, opts ...Option) *Registry {
	r := &Registry{
		admin:       admin.New(adminID),
		clock:       func() int64 { return time.Now().Unix() },
		assessments: make(map[key]*Assessment),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Assess scores an invoice. Code 300 when caller is not admin, 301 when
// score is outside [MinScore, MaxScore].
func (r *Registry) Assess(caller types.Identity, invoiceID string, business types.Identity, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.admin.Authorize(caller); err != nil {
		return types.WithCode(CodeAssessUnauthorized, err)
	}
	if score < MinScore || score > MaxScore {
		return types.WithCode(CodeScoreOutOfRange, ErrScoreOutOfRange)
	}
	r.assessments[key{invoiceID, business}] = &Assessment{
		ID:         id.NewRiskID(),
		InvoiceID:  invoiceID,
		Business:   business,
		Score:      score,
		AssessedAt: r.clock(),
		Assessor:   caller,
	}
	return nil
}

// TransferAdmin hands over the registry. Code 302 when caller is not admin.
func (r *Registry) TransferAdmin(caller, next types.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.admin.Transfer(caller, next)
	if errors.Is(err, admin.ErrUnauthorized) {
		return types.WithCode(CodeTransferUnauthorized, err)
	}
	return err
}

func (r *Registry) Admin() types.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admin.Current()
}

// RiskScore implements eligibility.RiskAssessor.
func (r *Registry) RiskScore(_ context.Context, invoiceID string, business types.Identity) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.assessments[key{invoiceID, business}]; ok {
		return a.Score, nil
	}
	return 0, nil
}

// Get returns a copy of the assessment or ErrNotAssessed.
func (r *Registry) Get(invoiceID string, business types.Identity) (*Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assessments[key{invoiceID, business}]
	if !ok {
		return nil, ErrNotAssessed
	}
	cp := *a
	return &cp, nil
}
