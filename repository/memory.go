package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"splitfree/models"
)

// firstID matches the id space handed out by the original in-memory service.
const firstID = 1000

// sequence hands out ids shared by every in-memory store of one Store.
type sequence struct {
	mu   sync.Mutex
	next uint
}

func (s *sequence) id() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == 0 {
		s.next = firstID
	}
	id := s.next
	s.next++
	return id
}

// NewMemoryStore returns a Store whose repositories keep everything in
// process memory. Records are copied on the way in and out, so callers never
// share state with the store.
func NewMemoryStore() *Store {
	seq := &sequence{}
	return &Store{
		Events:   &memoryEvents{seq: seq, rows: map[uint]models.Event{}},
		Users:    &memoryUsers{seq: seq, rows: map[uint]models.User{}},
		Groups:   &memoryGroups{seq: seq, rows: map[uint]models.Group{}},
		Friends:  &memoryFriends{seq: seq, rows: map[uint]models.Friend{}},
		Requests: &memoryRequests{seq: seq, rows: map[uint]models.FriendRequest{}},
		People:   &memoryPeople{seq: seq, rows: map[uint]models.Person{}},
		Expenses: &memoryExpenses{seq: seq, rows: map[uint]models.Expense{}},
	}
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type memoryEvents struct {
	mu   sync.RWMutex
	seq  *sequence
	rows map[uint]models.Event
}

func (r *memoryEvents) Get(_ context.Context, id uint) (*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := e.Clone()
	return &out, nil
}

func (r *memoryEvents) List(_ context.Context) ([]models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Event, 0, len(r.rows))
	for _, id := range sortedKeys(r.rows) {
		out = append(out, r.rows[id].Clone())
	}
	return out, nil
}

func (r *memoryEvents) Save(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if event.ID == 0 {
		event.ID = r.seq.id()
		if event.CreatedAt.IsZero() {
			event.CreatedAt = now
		}
	} else if _, ok := r.rows[event.ID]; !ok {
		return ErrNotFound
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = now
	}
	for i := range event.Participants {
		if event.Participants[i].ID == 0 {
			event.Participants[i].ID = r.seq.id()
		}
		event.Participants[i].EventID = event.ID
	}
	r.rows[event.ID] = event.Clone()
	return nil
}

func (r *memoryEvents) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type memoryUsers struct {
	mu   sync.RWMutex
	seq  *sequence
	rows map[uint]models.User
}

func (r *memoryUsers) Get(_ context.Context, id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryUsers) find(match func(models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range sortedKeys(r.rows) {
		if u := r.rows[id]; match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *memoryUsers) GetByFriendCode(_ context.Context, code string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.FriendCode == code })
}

func (r *memoryUsers) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.seq.id()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.rows[user.ID] = *user
	return nil
}

func (r *memoryUsers) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.rows[user.ID] = *user
	return nil
}

type memoryGroups struct {
	mu   sync.RWMutex
	seq  *sequence
	rows map[uint]models.Group
}

func cloneGroup(g models.Group) models.Group {
	g.Members = slices.Clone(g.Members)
	return g
}

func (r *memoryGroups) Get(_ context.Context, id uint) (*models.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	g = cloneGroup(g)
	return &g, nil
}

func (r *memoryGroups) List(_ context.Context) ([]models.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Group, 0, len(r.rows))
	for _, id := range sortedKeys(r.rows) {
		out = append(out, cloneGroup(r.rows[id]))
	}
	return out, nil
}

func (r *memoryGroups) Create(_ context.Context, group *models.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	group.ID = r.seq.id()
	now := time.Now()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	for i := range group.Members {
		group.Members[i].GroupID = group.ID
		if group.Members[i].JoinedAt.IsZero() {
			group.Members[i].JoinedAt = now
		}
	}
	r.rows[group.ID] = cloneGroup(*group)
	return nil
}

func (r *memoryGroups) Save(_ context.Context, group *models.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[group.ID]; !ok {
		return ErrNotFound
	}
	now := time.Now()
	for i := range group.Members {
		group.Members[i].GroupID = group.ID
		if group.Members[i].JoinedAt.IsZero() {
			group.Members[i].JoinedAt = now
		}
	}
	r.rows[group.ID] = cloneGroup(*group)
	return nil
}

func (r *memoryGroups) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type memoryFriends struct {
	mu   sync.RWMutex
	seq  *sequence
	rows map[uint]models.Friend
}

func (r *memoryFriends) List(_ context.Context) ([]models.Friend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Friend, 0, len(r.rows))
	for _, id := range sortedKeys(r.rows) {
		out = append(out, r.rows[id])
	}
	return out, nil
}

func (r *memoryFriends) Create(_ context.Context, friend *models.Friend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	friend.ID = r.seq.id()
	if friend.AddedAt.IsZero() {
		friend.AddedAt = time.Now()
	}
	r.rows[friend.ID] = *friend
	return nil
}

func (r *memoryFriends) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type memoryRequests struct {
	mu   sync.RWMutex
	seq  *sequence
	rows map[uint]models.FriendRequest
}

func (r *memoryRequests) Get(_ context.Context, id uint) (*models.FriendRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &req, nil
}

func (r *memoryRequests) List(_ context.Context) ([]models.FriendRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.FriendRequest, 0, len(r.rows))
	for _, id := range sortedKeys(r.rows) {
		out = append(out, r.rows[id])
	}
	return out, nil
}

func (r *memoryRequests) Create(_ context.Context, request *models.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request.ID = r.seq.id()
	now := time.Now()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	r.rows[request.ID] = *request
	return nil
}

func (r *memoryRequests) Save(_ context.Context, request *models.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[request.ID]; !ok {
		return ErrNotFound
	}
	request.UpdatedAt = time.Now()
	r.rows[request.ID] = *request
	return nil
}

type memoryPeople struct {
	mu   sync.RWMutex
	seq  *sequence
	rows map[uint]models.Person
}

func (r *memoryPeople) Get(_ context.Context, id uint) (*models.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *memoryPeople) List(_ context.Context) ([]models.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Person, 0, len(r.rows))
	for _, id := range sortedKeys(r.rows) {
		out = append(out, r.rows[id])
	}
	return out, nil
}

func (r *memoryPeople) Create(_ context.Context, person *models.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	person.ID = r.seq.id()
	r.rows[person.ID] = *person
	return nil
}

type memoryExpenses struct {
	mu   sync.RWMutex
	seq  *sequence
	rows map[uint]models.Expense
}

func (r *memoryExpenses) List(_ context.Context) ([]models.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Expense, 0, len(r.rows))
	for _, id := range sortedKeys(r.rows) {
		e := r.rows[id]
		e.Participants = slices.Clone(e.Participants)
		out = append(out, e)
	}
	return out, nil
}

func (r *memoryExpenses) Create(_ context.Context, expense *models.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	expense.ID = r.seq.id()
	stored := *expense
	stored.Participants = slices.Clone(expense.Participants)
	r.rows[expense.ID] = stored
	return nil
}
