// Package store keeps in-memory mirrors of the portal collections. Mirrors
// are replaced wholesale from repository snapshots, never patched in place:
// every refresh swaps the whole slice under the write lock, and every read
// accessor hands out copies so callers can never alias store internals.
package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	"github.com/studyhub-dev/study-portal-api/internal/repository"
)

// MaterialLister loads the full materials collection.
type MaterialLister interface {
	ListAll(ctx context.Context) ([]models.Material, error)
}

// SubjectLister loads the full subjects collection.
type SubjectLister interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

// UserLister loads the full users collection.
type UserLister interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

// RefreshObserver receives instrumentation callbacks for consumed change
// events and snapshot refreshes.
type RefreshObserver interface {
	CountChangeEvent(collection string)
	ObserveStoreRefresh(collection string, duration time.Duration)
}

// Store mirrors the materials, subjects and users collections in memory and
// derives aggregate stats from them. The semesters collection is a fixed
// enumeration injected at construction.
//
// Readiness is tracked per collection: a collection counts as settled once
// its first snapshot load has completed, whether or not that load succeeded.
// A failed first load leaves the mirror empty but never wedges readiness.
type Store struct {
	materials MaterialLister
	subjects  SubjectLister
	users     UserLister
	client    *redis.Client
	logger    *zap.Logger
	observer  RefreshObserver

	mu            sync.RWMutex
	materialsList []models.Material
	subjectsList  []models.Subject
	usersList     []models.User
	semesters     []models.Semester
	stats         models.Stats
	settled       map[string]bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a store over the given snapshot loaders. client may be nil;
// the store then serves the initial snapshots without live refresh.
func New(materials MaterialLister, subjects SubjectLister, users UserLister, client *redis.Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		materials: materials,
		subjects:  subjects,
		users:     users,
		client:    client,
		logger:    logger,
		semesters: models.DefaultSemesters(),
		settled:   map[string]bool{},
	}
}

// Instrument attaches a refresh observer. Call before Start.
func (s *Store) Instrument(observer RefreshObserver) {
	s.observer = observer
}

// Start loads the initial snapshots and, when a Redis client is present,
// subscribes to the change feed so mirrors refresh on every published event.
func (s *Store) Start(ctx context.Context) error {
	for _, collection := range []string{
		repository.CollectionMaterials,
		repository.CollectionSubjects,
		repository.CollectionUsers,
	} {
		s.Refresh(ctx, collection)
	}

	if s.client == nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	sub := s.client.Subscribe(runCtx,
		repository.ChannelFor(repository.CollectionMaterials),
		repository.ChannelFor(repository.CollectionSubjects),
		repository.ChannelFor(repository.CollectionUsers),
	)
	go s.listen(runCtx, sub)
	return nil
}

// Stop tears down the change-feed subscription.
func (s *Store) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Store) listen(ctx context.Context, sub *redis.PubSub) {
	defer close(s.done)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if s.observer != nil {
				s.observer.CountChangeEvent(msg.Payload)
			}
			s.Refresh(ctx, msg.Payload)
		}
	}
}

// Refresh reloads one collection snapshot and recomputes stats. Unknown
// collection names are ignored; the change feed also carries collections
// the store does not mirror.
func (s *Store) Refresh(ctx context.Context, collection string) {
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if s.observer != nil {
		started := time.Now()
		defer func() { s.observer.ObserveStoreRefresh(collection, time.Since(started)) }()
	}

	switch collection {
	case repository.CollectionMaterials:
		list, err := s.materials.ListAll(loadCtx)
		s.apply(collection, err, func() { s.materialsList = list })
	case repository.CollectionSubjects:
		list, err := s.subjects.ListAll(loadCtx)
		s.apply(collection, err, func() { s.subjectsList = list })
	case repository.CollectionUsers:
		list, err := s.users.ListAll(loadCtx)
		s.apply(collection, err, func() { s.usersList = list })
	}
}

func (s *Store) apply(collection string, err error, swap func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Error("snapshot load failed",
			zap.String("collection", collection), zap.Error(err))
	} else {
		swap()
		s.recomputeStats()
	}
	s.settled[collection] = true
}

// recomputeStats must be called with the write lock held.
func (s *Store) recomputeStats() {
	stats := models.Stats{
		TotalMaterials: len(s.materialsList),
		TotalSubjects:  len(s.subjectsList),
		TotalSemesters: len(s.semesters),
	}
	for _, m := range s.materialsList {
		switch m.Status {
		case models.StatusApproved:
			stats.ApprovedMaterials++
			stats.TotalViews += m.Views
			stats.TotalDownloads += m.Downloads
		case models.StatusPending:
			stats.PendingRequests++
		}
	}
	s.stats = stats
}

// Ready reports whether every mirrored collection has settled its first
// snapshot load.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, collection := range []string{
		repository.CollectionMaterials,
		repository.CollectionSubjects,
		repository.CollectionUsers,
	} {
		if !s.settled[collection] {
			return false
		}
	}
	return true
}

// Materials returns a copy of the full materials mirror.
func (s *Store) Materials() []models.Material {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMaterials(s.materialsList)
}

// ApprovedMaterials returns the approved subset of the mirror.
func (s *Store) ApprovedMaterials() []models.Material {
	return s.filterMaterials(func(m models.Material) bool {
		return m.Status == models.StatusApproved
	})
}

// PendingMaterials returns the moderation queue.
func (s *Store) PendingMaterials() []models.Material {
	return s.filterMaterials(func(m models.Material) bool {
		return m.Status == models.StatusPending
	})
}

// MaterialsBySubject returns approved materials for one subject.
func (s *Store) MaterialsBySubject(subjectID string) []models.Material {
	return s.filterMaterials(func(m models.Material) bool {
		return m.Status == models.StatusApproved && m.SubjectID == subjectID
	})
}

// MaterialsBySemester returns approved materials for one semester. Semester
// ids compare numerically so "1" and "01" match the same term.
func (s *Store) MaterialsBySemester(semID string) []models.Material {
	want, wantOK := semesterNumber(semID)
	return s.filterMaterials(func(m models.Material) bool {
		if m.Status != models.StatusApproved {
			return false
		}
		if got, ok := semesterNumber(m.SemID); wantOK && ok {
			return got == want
		}
		return m.SemID == semID
	})
}

// RecentMaterials returns up to limit approved materials, newest first.
func (s *Store) RecentMaterials(limit int) []models.Material {
	approved := s.ApprovedMaterials()
	sort.SliceStable(approved, func(i, j int) bool {
		return approved[i].CreatedAt.Time.After(approved[j].CreatedAt.Time)
	})
	if limit > 0 && len(approved) > limit {
		approved = approved[:limit]
	}
	return approved
}

// MaterialByID looks up one material in the mirror.
func (s *Store) MaterialByID(id string) (models.Material, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.materialsList {
		if m.ID == id {
			return m, true
		}
	}
	return models.Material{}, false
}

func (s *Store) filterMaterials(keep func(models.Material) bool) []models.Material {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Material, 0, len(s.materialsList))
	for _, m := range s.materialsList {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// Subjects returns a copy of the subjects mirror.
func (s *Store) Subjects() []models.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Subject, len(s.subjectsList))
	copy(out, s.subjectsList)
	return out
}

// SubjectByID looks up one subject in the mirror.
func (s *Store) SubjectByID(id string) (models.Subject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, subject := range s.subjectsList {
		if subject.ID == id {
			return subject, true
		}
	}
	return models.Subject{}, false
}

// SubjectsBySemester returns subjects whose semester matches semID
// numerically.
func (s *Store) SubjectsBySemester(semID string) []models.Subject {
	want, ok := semesterNumber(semID)
	if !ok {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Subject
	for _, subject := range s.subjectsList {
		if subject.SemID == want {
			out = append(out, subject)
		}
	}
	return out
}

// SubjectNames returns an id to name index for search over subject names.
func (s *Store) SubjectNames() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make(map[string]string, len(s.subjectsList))
	for _, subject := range s.subjectsList {
		names[subject.ID] = subject.Name
	}
	return names
}

// Semesters returns the fixed semester enumeration.
func (s *Store) Semesters() []models.Semester {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Semester, len(s.semesters))
	copy(out, s.semesters)
	return out
}

// SemesterByID looks up one semester, matching ids numerically.
func (s *Store) SemesterByID(id string) (models.Semester, bool) {
	want, ok := semesterNumber(id)
	if !ok {
		return models.Semester{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sem := range s.semesters {
		if got, ok := semesterNumber(sem.ID); ok && got == want {
			return sem, true
		}
	}
	return models.Semester{}, false
}

// Users returns a copy of the users mirror.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.usersList))
	copy(out, s.usersList)
	return out
}

// UserByID looks up one user in the mirror.
func (s *Store) UserByID(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.usersList {
		if user.ID == id {
			return user, true
		}
	}
	return models.User{}, false
}

// Stats returns the aggregates derived from the current mirrors.
func (s *Store) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func copyMaterials(in []models.Material) []models.Material {
	out := make([]models.Material, len(in))
	copy(out, in)
	return out
}

func semesterNumber(id string) (int, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, false
	}
	return n, true
}
