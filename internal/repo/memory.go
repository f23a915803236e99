package repo

import (
	"context"
	stdsort "sort"
	"sync"

	"interviewai/internal/model"
)

type MemoryUser struct {
	mu    sync.RWMutex
	users map[string]model.User
	creds map[string]string
}

func NewMemoryUser() *MemoryUser {
	return &MemoryUser{
		users: make(map[string]model.User),
		creds: make(map[string]string),
	}
}

func (m *MemoryUser) Create(_ context.Context, user *model.User, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return ErrAlreadyExists
	}
	m.users[user.Email] = *user
	if passwordHash != "" {
		m.creds[user.Email] = passwordHash
	}
	return nil
}

func (m *MemoryUser) Get(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryUser) UpdateName(_ context.Context, email, firstName, lastName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrNotFound
	}
	u.FirstName, u.LastName = firstName, lastName
	m.users[email] = u
	return nil
}

func (m *MemoryUser) PasswordHash(_ context.Context, email string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.creds[email]
	if !ok {
		return "", ErrNotFound
	}
	return h, nil
}

func (m *MemoryUser) SetPasswordHash(_ context.Context, email, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[email]; !ok {
		return ErrNotFound
	}
	m.creds[email] = hash
	return nil
}

func (m *MemoryUser) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; !ok {
		return ErrNotFound
	}
	delete(m.users, email)
	delete(m.creds, email)
	return nil
}

type MemorySubmission struct {
	mu   sync.RWMutex
	subs map[string]model.Submission
}

func NewMemorySubmission() *MemorySubmission {
	return &MemorySubmission{subs: make(map[string]model.Submission)}
}

func (m *MemorySubmission) Create(_ context.Context, s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[s.ID]; ok {
		return ErrAlreadyExists
	}
	m.subs[s.ID] = *s
	return nil
}

func (m *MemorySubmission) Get(_ context.Context, id string) (*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemorySubmission) List(_ context.Context, email string, q ListQuery) ([]*model.Submission, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Submission
	for _, s := range m.subs {
		if s.Email != email || !q.match(s.CreatedAt) {
			continue
		}
		s := s
		out = append(out, &s)
	}
	stdsort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemorySubmission) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return ErrNotFound
	}
	delete(m.subs, id)
	return nil
}

type MemoryFeedback struct {
	mu  sync.RWMutex
	fbs map[string]model.Feedback
}

func NewMemoryFeedback() *MemoryFeedback {
	return &MemoryFeedback{fbs: make(map[string]model.Feedback)}
}

func (m *MemoryFeedback) Get(_ context.Context, interviewID string) (*model.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fb, ok := m.fbs[interviewID]
	if !ok {
		return nil, ErrNotFound
	}
	return &fb, nil
}

func (m *MemoryFeedback) Create(_ context.Context, fb *model.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fbs[fb.InterviewID]; ok {
		return ErrAlreadyExists
	}
	m.fbs[fb.InterviewID] = *fb
	return nil
}

func (m *MemoryFeedback) ListByInterviewIDs(_ context.Context, ids []string) (map[string]*model.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*model.Feedback, len(ids))
	for _, id := range ids {
		if fb, ok := m.fbs[id]; ok {
			fb := fb
			out[id] = &fb
		}
	}
	return out, nil
}
