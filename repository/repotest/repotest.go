// Package repotest provides in-memory stores with the same semantics as the
// Mongo repositories, for handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"citycare-be/models"
	"citycare-be/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Users struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.User
}

func NewUsers(users ...models.User) *Users {
	s := &Users{byID: map[primitive.ObjectID]models.User{}}
	for _, u := range users {
		s.byID[u.ID] = u
	}
	return s
}

func (s *Users) Get(id primitive.ObjectID) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	return u, ok
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := s.Get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Users) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := s.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Users) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.byID[user.ID] = *user
	return nil
}

func (s *Users) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[user.ID]; !ok {
		return repository.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	s.byID[user.ID] = *user
	return nil
}

func (s *Users) CountNonAdmins(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.byID {
		if !u.IsAdmin {
			n++
		}
	}
	return n, nil
}

// Issues keeps issues in memory. Now stamps updates; creation times are
// spaced a millisecond apart so newest-first ordering is deterministic.
type Issues struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Issue
	seq  int
	Now  func() time.Time
}

func NewIssues(issues ...models.Issue) *Issues {
	s := &Issues{byID: map[primitive.ObjectID]models.Issue{}, Now: time.Now}
	for _, i := range issues {
		s.byID[i.ID] = clone(i)
	}
	return s
}

func clone(i models.Issue) models.Issue {
	out := i
	out.AuthorityUpdates = append([]models.AuthorityUpdate{}, i.AuthorityUpdates...)
	if i.Rating != nil {
		r := *i.Rating
		out.Rating = &r
	}
	if i.Volunteer != nil {
		v := *i.Volunteer
		out.Volunteer = &v
	}
	return out
}

func (s *Issues) Get(id primitive.ObjectID) (models.Issue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	return clone(i), ok
}

func (s *Issues) Create(_ context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.Status == "" {
		issue.Status = models.StatusOpen
	}
	if issue.AuthorityUpdates == nil {
		issue.AuthorityUpdates = []models.AuthorityUpdate{}
	}
	s.seq++
	issue.CreatedAt = s.Now().Add(time.Duration(s.seq) * time.Millisecond)
	issue.UpdatedAt = issue.CreatedAt
	s.byID[issue.ID] = clone(*issue)
	return nil
}

func (s *Issues) FindByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	i, ok := s.Get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &i, nil
}

func matches(i models.Issue, f repository.IssueFilter) bool {
	if f.Owner != nil && i.User != *f.Owner {
		return false
	}
	if f.Status != "" && i.Status != f.Status {
		return false
	}
	if f.Category != "" && i.Category != f.Category {
		return false
	}
	if f.VolunteerRequest != models.VolunteerNone && i.VolunteerRequest != f.VolunteerRequest {
		return false
	}
	if f.UpdatedSince != nil && i.UpdatedAt.Before(*f.UpdatedSince) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(i.Title), q) && !strings.Contains(strings.ToLower(i.Description), q) {
			return false
		}
	}
	return true
}

func (s *Issues) Find(_ context.Context, f repository.IssueFilter) ([]models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Issue{}
	for _, i := range s.byID {
		if matches(i, f) {
			out = append(out, clone(i))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (s *Issues) Count(ctx context.Context, f repository.IssueFilter) (int64, error) {
	issues, err := s.Find(ctx, f)
	return int64(len(issues)), err
}

// update applies fn when cond holds, mirroring a conditional FindOneAndUpdate.
func (s *Issues) update(id primitive.ObjectID, cond func(models.Issue) bool, fn func(*models.Issue)) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok || !cond(i) {
		return nil, repository.ErrConditionFailed
	}
	fn(&i)
	i.UpdatedAt = s.Now()
	s.byID[id] = i
	out := clone(i)
	return &out, nil
}

func (s *Issues) SetStatus(_ context.Context, id primitive.ObjectID, from, to models.IssueStatus) (*models.Issue, error) {
	return s.update(id,
		func(i models.Issue) bool { return i.Status == from },
		func(i *models.Issue) { i.Status = to },
	)
}

func (s *Issues) RecordFeedback(_ context.Context, id primitive.ObjectID, rating int, feedback string) (*models.Issue, error) {
	return s.update(id,
		func(i models.Issue) bool { return i.Rating == nil && i.Status == models.StatusResolved },
		func(i *models.Issue) { i.Rating = &rating; i.Feedback = feedback },
	)
}

func (s *Issues) RequestVolunteer(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	return s.update(id,
		func(i models.Issue) bool { return i.VolunteerRequest == models.VolunteerNone },
		func(i *models.Issue) { i.VolunteerRequest = models.VolunteerPending },
	)
}

func (s *Issues) DecideVolunteer(_ context.Context, id primitive.ObjectID, state models.VolunteerState, volunteer *primitive.ObjectID) (*models.Issue, error) {
	return s.update(id,
		func(i models.Issue) bool { return i.VolunteerRequest == models.VolunteerPending },
		func(i *models.Issue) {
			i.VolunteerRequest = state
			if volunteer != nil {
				v := *volunteer
				i.Volunteer = &v
			}
		},
	)
}

func (s *Issues) AppendUpdate(_ context.Context, id primitive.ObjectID, update models.AuthorityUpdate) (*models.Issue, error) {
	issue, err := s.update(id,
		func(models.Issue) bool { return true },
		func(i *models.Issue) { i.AuthorityUpdates = append(i.AuthorityUpdates, update) },
	)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return issue, nil
}

type Comments struct {
	mu    sync.Mutex
	items []models.Comment
	seq   int
}

func NewComments() *Comments { return &Comments{} }

func (s *Comments) Create(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.seq++
	c.CreatedAt = time.Now().Add(time.Duration(s.seq) * time.Millisecond)
	c.UpdatedAt = c.CreatedAt
	s.items = append(s.items, *c)
	return nil
}

func (s *Comments) FindByIssue(_ context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Comment{}
	for _, c := range s.items {
		if c.Issue == issueID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

var (
	_ repository.UserStore    = (*Users)(nil)
	_ repository.IssueStore   = (*Issues)(nil)
	_ repository.CommentStore = (*Comments)(nil)
)
