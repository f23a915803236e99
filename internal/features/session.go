package features

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"interviewai/internal/model"
	"interviewai/internal/repo"
)

// Store is the per-user application state: who is signed in, the current
// question set and the feedback being displayed. It owns the interview controller.
type Store struct {
	mu         sync.RWMutex
	user       *model.User
	job        model.JobContext
	questions  []model.Question
	feedback   *model.Feedback
	controller *Controller
}

func NewStore(submissions repo.ISubmission, logger *zap.Logger) *Store {
	s := &Store{}
	s.controller = NewController(submissions, s.ownerEmail, logger)
	return s
}
func (s *Store) ownerEmail() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.user.Email == "" {
		return "", false
	}
	return s.user.Email, true
}

// Begin starts a fresh session for user.
func (s *Store) Begin(user *model.User) {
	s.mu.Lock()
	u := *user
	s.user = &u
	s.job = model.JobContext{}
	s.questions = nil
	s.feedback = nil
	s.mu.Unlock()
	s.controller.Reset()
}

func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UpdateUser refreshes the cached profile after an edit.
func (s *Store) UpdateUser(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.user = &u
}

// SetQuestions stores a freshly generated set and moves the controller to its first question.
func (s *Store) SetQuestions(job model.JobContext, questions []model.Question) error {
	if err := s.controller.Load(job, questions); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = job
	s.questions = append([]model.Question(nil), questions...)
	s.feedback = nil
	return nil
}

func (s *Store) Questions() (model.JobContext, []model.Question) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.job, append([]model.Question(nil), s.questions...)
}

func (s *Store) SetFeedback(fb *model.Feedback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = fb
}

func (s *Store) Feedback() *model.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedback
}

func (s *Store) Controller() *Controller {
	return s.controller
}

// Quit abandons the in-progress attempt. Nothing is persisted.
func (s *Store) Quit() error {
	if err := s.controller.Quit(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = model.JobContext{}
	s.questions = nil
	return nil
}

// Reset clears questions and feedback but keeps the user.
func (s *Store) Reset() {
	s.mu.Lock()
	s.job = model.JobContext{}
	s.questions = nil
	s.feedback = nil
	s.mu.Unlock()
	s.controller.Reset()
}

// Teardown clears everything, including the user.
func (s *Store) Teardown() {
	s.Reset()
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

type registryEntry struct {
	store      *Store
	cancelFunc context.CancelFunc
	touched    chan struct{}
	done       chan struct{}
}

// Registry maps signed-in emails to their Store and evicts idle ones.
type Registry struct {
	entries     sync.Map // key: email, value: *registryEntry
	submissions repo.ISubmission
	idleTTL     time.Duration
	logger      *zap.Logger
	onSubmit    func(ctx context.Context, s *model.Submission)
}

// OnSubmit sets the hook given to every controller opened afterwards.
func (r *Registry) OnSubmit(fn func(ctx context.Context, s *model.Submission)) {
	r.onSubmit = fn
}

func NewRegistry(submissions repo.ISubmission, idleTTL time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		submissions: submissions,
		idleTTL:     idleTTL,
		logger:      logger,
	}
}

// Open begins a new session for user, replacing any previous one.
func (r *Registry) Open(user *model.User) *Store {
	store := NewStore(r.submissions, r.logger)
	if r.onSubmit != nil {
		store.controller.OnSubmit(r.onSubmit)
	}
	store.Begin(user)

	ctx, cancel := context.WithCancel(context.Background())
	entry := &registryEntry{
		store:      store,
		cancelFunc: cancel,
		touched:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	if prev, loaded := r.entries.Swap(user.Email, entry); loaded {
		r.stop(prev.(*registryEntry))
	}
	go r.runExpiry(ctx, user.Email, entry)

	r.logger.Debug("Session opened", zap.String("email", user.Email))
	return store
}

// Get returns the live store for email and marks it as used.
func (r *Registry) Get(email string) (*Store, bool) {
	val, ok := r.entries.Load(email)
	if !ok {
		return nil, false
	}
	entry := val.(*registryEntry)
	select {
	case entry.touched <- struct{}{}:
	default:
	}
	return entry.store, true
}

// Close tears the session down.
func (r *Registry) Close(email string) {
	if val, ok := r.entries.LoadAndDelete(email); ok {
		r.stop(val.(*registryEntry))
		r.logger.Debug("Session closed", zap.String("email", email))
	}
}

func (r *Registry) stop(entry *registryEntry) {
	entry.cancelFunc()
	<-entry.done
	entry.store.Teardown()
}

func (r *Registry) runExpiry(ctx context.Context, email string, entry *registryEntry) {
	defer close(entry.done)
	if r.idleTTL <= 0 {
		<-ctx.Done()
		return
	}

	timer := time.NewTimer(r.idleTTL)
	defer timer.Stop()
	for {
		select {
		case <-entry.touched:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(r.idleTTL)
		case <-timer.C:
			if r.entries.CompareAndDelete(email, entry) {
				r.logger.Info("Session expired", zap.String("email", email), zap.Duration("idleTTL", r.idleTTL))
				entry.store.Teardown()
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown stops every expiry goroutine and clears all sessions.
func (r *Registry) Shutdown() {
	r.logger.Info("Shutting down session registry")
	r.entries.Range(func(key, value interface{}) bool {
		r.entries.Delete(key)
		r.stop(value.(*registryEntry))
		return true
	})
}
