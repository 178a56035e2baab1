package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prajxal/fakenews-api/pkg/models"
)

// MemStore is an in-memory implementation of the store interfaces with the
// same uniqueness semantics and sentinel errors as PgStore. It backs unit
// tests that would otherwise need a running Postgres.
type MemStore struct {
	mu          sync.Mutex
	users       map[string]*models.User
	articles    []*models.Article
	predictions map[string]*models.Prediction // keyed by article id
	feedback    []*models.Feedback
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:       make(map[string]*models.User),
		predictions: make(map[string]*models.Prediction),
	}
}

func (m *MemStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
		if existing.Username == u.Username {
			return ErrDuplicateUsername
		}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) UpdateUsername(ctx context.Context, id, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	for otherID, other := range m.users {
		if otherID != id && other.Username == username {
			return nil, ErrDuplicateUsername
		}
	}
	u.Username = username
	cp := *u
	return &cp, nil
}

func (m *MemStore) CreateArticle(ctx context.Context, a *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.PublishedDate.IsZero() {
		a.PublishedDate = time.Now().UTC()
	}
	cp := *a
	m.articles = append(m.articles, &cp)
	return nil
}

func (m *MemStore) CreatePrediction(ctx context.Context, p *models.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.predictions[p.ArticleID]; exists {
		return fmt.Errorf("memstore: prediction already exists for article %s", p.ArticleID)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.PredictedAt.IsZero() {
		p.PredictedAt = time.Now().UTC()
	}
	cp := *p
	m.predictions[p.ArticleID] = &cp
	return nil
}

func (m *MemStore) view(a *models.Article) *models.ArticleView {
	v := &models.ArticleView{Article: *a}
	if owner, ok := m.users[a.UserID]; ok {
		v.User = models.Owner{UserID: owner.ID, Username: owner.Username}
	}
	if p, ok := m.predictions[a.ID]; ok {
		cp := *p
		v.Prediction = &cp
	}
	return v
}

func (m *MemStore) ListArticles(ctx context.Context, limit int) ([]*models.ArticleView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	out := []*models.ArticleView{}
	// articles are appended in creation order; walk backwards for newest first
	for i := len(m.articles) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.view(m.articles[i]))
	}
	return out, nil
}

func (m *MemStore) GetArticle(ctx context.Context, id string) (*models.ArticleView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ID == id {
			return m.view(a), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.feedback {
		if existing.ArticleID == f.ArticleID && existing.UserID == f.UserID && existing.FeedbackType == f.FeedbackType {
			return ErrDuplicateFeedback
		}
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	cp := *f
	m.feedback = append(m.feedback, &cp)
	if u, ok := m.users[f.UserID]; ok {
		u.ReputationScore++
	}
	return nil
}

func (m *MemStore) ListFeedbackByArticle(ctx context.Context, articleID string) ([]*models.FeedbackView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.FeedbackView{}
	for i := len(m.feedback) - 1; i >= 0; i-- {
		f := m.feedback[i]
		if f.ArticleID != articleID {
			continue
		}
		v := &models.FeedbackView{Feedback: *f}
		if u, ok := m.users[f.UserID]; ok {
			v.User = models.Owner{UserID: u.ID, Username: u.Username}
		}
		out = append(out, v)
	}
	return out, nil
}
