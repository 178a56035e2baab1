package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/prajxal/fakenews-api/pkg/models"
)

// Sentinel results returned instead of driver error codes, so handlers can
// map them to status codes without knowing about Postgres.
var (
	ErrNotFound          = errors.New("store: not found")
	ErrDuplicateEmail    = errors.New("store: email already exists")
	ErrDuplicateUsername = errors.New("store: username already exists")
	ErrDuplicateFeedback = errors.New("store: feedback already exists")
)

type PgStore struct {
	db *sqlx.DB
}

func NewPgStore(db *sql.DB) *PgStore {
	return &PgStore{db: sqlx.NewDb(db, "postgres")}
}

func RunMigrations(db *sql.DB) error {
	initSQL := `
CREATE TABLE IF NOT EXISTS users(
  id UUID PRIMARY KEY,
  username TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  reputation_score INTEGER NOT NULL DEFAULT 0 CHECK (reputation_score >= 0),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT users_username_key UNIQUE (username),
  CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS articles(
  id UUID PRIMARY KEY,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  user_id UUID NOT NULL REFERENCES users(id),
  published_date TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_articles_user ON articles(user_id);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_date);

CREATE TABLE IF NOT EXISTS predictions(
  id UUID PRIMARY KEY,
  article_id UUID NOT NULL REFERENCES articles(id),
  fake_probability DOUBLE PRECISION NOT NULL CHECK (fake_probability >= 0 AND fake_probability <= 1),
  confidence_score DOUBLE PRECISION NOT NULL CHECK (confidence_score >= 0 AND confidence_score <= 1),
  predicted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT predictions_article_key UNIQUE (article_id)
);

CREATE TABLE IF NOT EXISTS feedback(
  id UUID PRIMARY KEY,
  article_id UUID NOT NULL REFERENCES articles(id),
  user_id UUID NOT NULL REFERENCES users(id),
  feedback_type TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT feedback_vote_key UNIQUE (article_id, user_id, feedback_type)
);

CREATE INDEX IF NOT EXISTS idx_feedback_article ON feedback(article_id);
CREATE INDEX IF NOT EXISTS idx_feedback_user ON feedback(user_id);
`
	_, err := db.Exec(initSQL)
	return err
}

// mapConstraint converts a unique-violation from pq into the matching
// sentinel. Any other error passes through unchanged.
func mapConstraint(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return ErrDuplicateEmail
	case strings.Contains(pqErr.Constraint, "username"):
		return ErrDuplicateUsername
	case strings.Contains(pqErr.Constraint, "feedback"):
		return ErrDuplicateFeedback
	}
	return err
}

// --- users ---

func (p *PgStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, reputation_score, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, u.ID, u.Username, u.Email, u.PasswordHash, u.ReputationScore, u.CreatedAt)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (p *PgStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := p.db.GetContext(ctx, &u, `
SELECT id, username, email, password_hash, reputation_score, created_at
FROM users WHERE email = $1
`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *PgStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := p.db.GetContext(ctx, &u, `
SELECT id, username, email, password_hash, reputation_score, created_at
FROM users WHERE id = $1
`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *PgStore) UpdateUsername(ctx context.Context, id, username string) (*models.User, error) {
	var u models.User
	err := p.db.GetContext(ctx, &u, `
UPDATE users SET username = $1 WHERE id = $2
RETURNING id, username, email, password_hash, reputation_score, created_at
`, username, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapConstraint(err)
	}
	return &u, nil
}

// --- articles & predictions ---

func (p *PgStore) CreateArticle(ctx context.Context, a *models.Article) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.PublishedDate.IsZero() {
		a.PublishedDate = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO articles (id, title, content, user_id, published_date)
VALUES ($1,$2,$3,$4,$5)
`, a.ID, a.Title, a.Content, a.UserID, a.PublishedDate)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func (p *PgStore) CreatePrediction(ctx context.Context, pr *models.Prediction) error {
	if pr.ID == "" {
		pr.ID = uuid.New().String()
	}
	if pr.PredictedAt.IsZero() {
		pr.PredictedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO predictions (id, article_id, fake_probability, confidence_score, predicted_at)
VALUES ($1,$2,$3,$4,$5)
`, pr.ID, pr.ArticleID, pr.FakeProbability, pr.ConfidenceScore, pr.PredictedAt)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// articleRow is the flat shape of the articles/users/predictions join.
// Prediction columns are nullable because of the LEFT JOIN.
type articleRow struct {
	models.Article
	OwnerID         string          `db:"owner_id"`
	OwnerUsername   string          `db:"owner_username"`
	PredictionID    sql.NullString  `db:"prediction_id"`
	FakeProbability sql.NullFloat64 `db:"fake_probability"`
	ConfidenceScore sql.NullFloat64 `db:"confidence_score"`
	PredictedAt     sql.NullTime    `db:"predicted_at"`
}

func (r *articleRow) view() *models.ArticleView {
	v := &models.ArticleView{
		Article: r.Article,
		User:    models.Owner{UserID: r.OwnerID, Username: r.OwnerUsername},
	}
	if r.PredictionID.Valid {
		v.Prediction = &models.Prediction{
			ID:              r.PredictionID.String,
			ArticleID:       r.Article.ID,
			FakeProbability: r.FakeProbability.Float64,
			ConfidenceScore: r.ConfidenceScore.Float64,
			PredictedAt:     r.PredictedAt.Time,
		}
	}
	return v
}

const articleSelect = `
SELECT a.id, a.title, a.content, a.user_id, a.published_date,
       u.id AS owner_id, u.username AS owner_username,
       p.id AS prediction_id, p.fake_probability, p.confidence_score, p.predicted_at
FROM articles a
JOIN users u ON u.id = a.user_id
LEFT JOIN predictions p ON p.article_id = a.id
`

func (p *PgStore) ListArticles(ctx context.Context, limit int) ([]*models.ArticleView, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	rows := []*articleRow{}
	err := p.db.SelectContext(ctx, &rows, articleSelect+`
ORDER BY a.published_date DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ArticleView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.view())
	}
	return out, nil
}

func (p *PgStore) GetArticle(ctx context.Context, id string) (*models.ArticleView, error) {
	var r articleRow
	err := p.db.GetContext(ctx, &r, articleSelect+`
WHERE a.id = $1
`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.view(), nil
}

// --- feedback ---

// CreateFeedback inserts the row and bumps the submitter's reputation in
// one transaction, so a duplicate vote never increments the score.
func (p *PgStore) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO feedback (id, article_id, user_id, feedback_type, created_at)
VALUES ($1,$2,$3,$4,$5)
`, f.ID, f.ArticleID, f.UserID, f.FeedbackType, f.CreatedAt)
	if err != nil {
		return mapConstraint(err)
	}

	_, err = tx.ExecContext(ctx, `
UPDATE users SET reputation_score = reputation_score + 1 WHERE id = $1
`, f.UserID)
	if err != nil {
		return fmt.Errorf("increment reputation: %w", err)
	}

	return tx.Commit()
}

type feedbackRow struct {
	models.Feedback
	OwnerID       string `db:"owner_id"`
	OwnerUsername string `db:"owner_username"`
}

func (p *PgStore) ListFeedbackByArticle(ctx context.Context, articleID string) ([]*models.FeedbackView, error) {
	rows := []*feedbackRow{}
	err := p.db.SelectContext(ctx, &rows, `
SELECT f.id, f.article_id, f.user_id, f.feedback_type, f.created_at,
       u.id AS owner_id, u.username AS owner_username
FROM feedback f
JOIN users u ON u.id = f.user_id
WHERE f.article_id = $1
ORDER BY f.created_at DESC
`, articleID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.FeedbackView, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.FeedbackView{
			Feedback: r.Feedback,
			User:     models.Owner{UserID: r.OwnerID, Username: r.OwnerUsername},
		})
	}
	return out, nil
}
