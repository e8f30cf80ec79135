// Package memory provides an in-process CRM backend implementing actor.Client.
//
// The backend keeps every collection in maps guarded by a single mutex. Each
// caller gets its own view through Backend.As, which binds the principal the
// remote transport would otherwise derive from the bearer token. Business
// rules are intentionally simple: admins are configured up front, updates of
// unknown records fail with a NotFound error, and anonymous callers are
// rejected for caller-scoped operations.
package memory

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/txn2/realty-crm/pkg/actor"
)

// DefaultConfirmationMessage is returned by GetQueryConfirmationMessage
// unless overridden with WithConfirmationMessage.
const DefaultConfirmationMessage = "Your Query has been submitted, Team will contact you shortly."

const recentLimit = 5

// Option configures a Backend.
type Option func(*Backend)

// WithAdmins marks principals as administrators.
func WithAdmins(principals ...actor.Principal) Option {
	return func(b *Backend) {
		for _, p := range principals {
			b.admins[p] = true
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// WithConfirmationMessage sets the portal confirmation message.
func WithConfirmationMessage(msg string) Option {
	return func(b *Backend) {
		b.confirmation = msg
	}
}

// Backend is the shared state behind every per-caller Client.
type Backend struct {
	mu  sync.RWMutex
	now func() time.Time

	nextID       actor.ID
	calls        map[string]int
	admins       map[actor.Principal]bool
	profiles     map[actor.Principal]actor.UserProfile
	roles        map[actor.Principal]actor.UserRole
	approvals    map[actor.Principal]actor.ApprovalStatus
	changes      []actor.AgentInfo
	customers    map[actor.ID]actor.Customer
	leads        map[actor.ID]actor.Lead
	queries      map[actor.ID]actor.CustomerQuery
	followUps    map[actor.ID]actor.FollowUp
	templates    map[actor.ID]actor.MessageTemplate
	whatsApp     *actor.WhatsAppConfig
	waLogs       []actor.WhatsAppMessageLog
	attendance   []actor.AttendanceRecord
	messages     []actor.Message
	portal       map[string]actor.CustomerProfile
	responses    []actor.CustomerQueryResponse
	confirmation string
}

// NewBackend creates an empty backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		now:          time.Now,
		calls:        make(map[string]int),
		admins:       make(map[actor.Principal]bool),
		profiles:     make(map[actor.Principal]actor.UserProfile),
		roles:        make(map[actor.Principal]actor.UserRole),
		approvals:    make(map[actor.Principal]actor.ApprovalStatus),
		customers:    make(map[actor.ID]actor.Customer),
		leads:        make(map[actor.ID]actor.Lead),
		queries:      make(map[actor.ID]actor.CustomerQuery),
		followUps:    make(map[actor.ID]actor.FollowUp),
		templates:    make(map[actor.ID]actor.MessageTemplate),
		portal:       make(map[string]actor.CustomerProfile),
		confirmation: DefaultConfirmationMessage,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// As returns a client bound to principal. An empty principal is anonymous.
func (b *Backend) As(principal actor.Principal) *Client {
	return &Client{backend: b, caller: principal}
}

// Calls returns how many times method has been invoked across all clients.
func (b *Backend) Calls(method string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.calls[method]
}

// ResetCalls zeroes every call counter.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.calls)
}

func (b *Backend) stamp() actor.Time {
	return actor.FromTime(b.now())
}

// allocID returns the next record ID. Callers hold b.mu.
func (b *Backend) allocID() actor.ID {
	b.nextID++
	return b.nextID
}

// paginate slices items by a 1-based page. A nil page returns everything.
func paginate[T any](items []T, page *actor.PageRequest) actor.Page[T] {
	total := uint64(len(items))
	if page == nil || page.Size == 0 {
		return actor.Page[T]{Items: items, Total: total}
	}
	index := max(page.Index, 1)
	start := (index - 1) * page.Size
	if start >= total {
		return actor.Page[T]{Items: []T{}, Total: total}
	}
	end := min(start+page.Size, total)
	return actor.Page[T]{
		Items:       items[start:end],
		Total:       total,
		HasNextPage: end < total,
	}
}

// sortedValues returns map values ordered by ID.
func sortedValues[T any](m map[actor.ID]T) []T {
	ids := make([]actor.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// recent returns up to recentLimit items, newest first.
func recent[T any](items []T, created func(T) actor.Time) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(created(b), created(a))
	})
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}
