package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prajxal/fakenews-api/internal/auth"
	"github.com/prajxal/fakenews-api/internal/detector"
	"github.com/prajxal/fakenews-api/internal/store"
	"github.com/prajxal/fakenews-api/pkg/models"
)

// ErrInvalidCredentials covers both unknown email and wrong password, so
// login responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("service: invalid credentials")

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUsername(ctx context.Context, id, username string) (*models.User, error)
}

type ArticleStore interface {
	CreateArticle(ctx context.Context, a *models.Article) error
	CreatePrediction(ctx context.Context, p *models.Prediction) error
	ListArticles(ctx context.Context, limit int) ([]*models.ArticleView, error)
	GetArticle(ctx context.Context, id string) (*models.ArticleView, error)
}

type FeedbackStore interface {
	CreateFeedback(ctx context.Context, f *models.Feedback) error
	ListFeedbackByArticle(ctx context.Context, articleID string) ([]*models.FeedbackView, error)
}

// ListCache is the article-listing cache. Implementations are best-effort;
// a miss just falls through to the store.
type ListCache interface {
	GetList(ctx context.Context) ([]*models.ArticleView, bool)
	SetList(ctx context.Context, articles []*models.ArticleView)
	Invalidate(ctx context.Context)
}

const listLimit = 50

type Service struct {
	users      UserStore
	articles   ArticleStore
	feedback   FeedbackStore
	cache      ListCache
	tokens     *auth.Tokens
	log        *zap.Logger
	bcryptCost int
}

func NewService(users UserStore, articles ArticleStore, feedback FeedbackStore, cache ListCache, tokens *auth.Tokens, log *zap.Logger, bcryptCost int) *Service {
	return &Service{
		users:      users,
		articles:   articles,
		feedback:   feedback,
		cache:      cache,
		tokens:     tokens,
		log:        log,
		bcryptCost: bcryptCost,
	}
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Register creates an account and issues its first token.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	var v ValidationError
	if n := utf8.RuneCountInString(username); n < 3 || n > 30 {
		v.Add("username", "Username must be between 3 and 30 characters")
	}
	if !emailPattern.MatchString(email) {
		v.Add("email", "Please provide a valid email address")
	}
	if len(password) < 6 {
		v.Add("password", "Password must be at least 6 characters")
	}
	if v.Any() {
		return nil, "", &v
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, token, nil
}

// Login verifies credentials and issues a token of the same shape as
// registration.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// SubmitArticle persists the article, scores it synchronously and persists
// the prediction. The caller does not see the article until both rows
// exist; there is no queued scoring path.
func (s *Service) SubmitArticle(ctx context.Context, userID, title, content string) (*models.Article, *models.Prediction, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	var v ValidationError
	if title == "" {
		v.Add("title", "Title is required")
	} else if utf8.RuneCountInString(title) > 500 {
		v.Add("title", "Title cannot exceed 500 characters")
	}
	if utf8.RuneCountInString(content) < 50 {
		v.Add("content", "Content must be at least 50 characters")
	}
	if v.Any() {
		return nil, nil, &v
	}

	article := &models.Article{
		Title:   title,
		Content: content,
		UserID:  userID,
	}
	if err := s.articles.CreateArticle(ctx, article); err != nil {
		return nil, nil, err
	}

	fakeProb, confidence := detector.Score(title, content)
	prediction := &models.Prediction{
		ArticleID:       article.ID,
		FakeProbability: fakeProb,
		ConfidenceScore: confidence,
	}
	if err := s.articles.CreatePrediction(ctx, prediction); err != nil {
		return nil, nil, err
	}

	s.cache.Invalidate(ctx)
	s.log.Info("article analyzed",
		zap.String("article_id", article.ID),
		zap.Float64("fake_probability", fakeProb),
		zap.Float64("confidence_score", confidence))
	return article, prediction, nil
}

// ListArticles returns the most recent articles, newest first, each with
// its prediction. Served from the cache when warm.
func (s *Service) ListArticles(ctx context.Context) ([]*models.ArticleView, error) {
	if cached, ok := s.cache.GetList(ctx); ok {
		return cached, nil
	}
	articles, err := s.articles.ListArticles(ctx, listLimit)
	if err != nil {
		return nil, err
	}
	s.cache.SetList(ctx, articles)
	return articles, nil
}

// GetArticle returns one article with its prediction, or store.ErrNotFound.
func (s *Service) GetArticle(ctx context.Context, id string) (*models.ArticleView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}
	return s.articles.GetArticle(ctx, id)
}

// SubmitFeedback records one vote and credits the submitter's reputation.
// A repeat of the same (article, user, type) triple is rejected by the
// store's unique constraint and changes nothing.
func (s *Service) SubmitFeedback(ctx context.Context, userID, articleID string, feedbackType models.FeedbackType) (*models.Feedback, error) {
	var v ValidationError
	if _, err := uuid.Parse(articleID); err != nil {
		v.Add("article_id", "Invalid article ID")
	}
	if !models.ValidFeedbackType(feedbackType) {
		v.Add("feedback_type", "Invalid feedback type")
	}
	if v.Any() {
		return nil, &v
	}

	if _, err := s.articles.GetArticle(ctx, articleID); err != nil {
		return nil, err
	}

	feedback := &models.Feedback{
		ArticleID:    articleID,
		UserID:       userID,
		FeedbackType: feedbackType,
	}
	if err := s.feedback.CreateFeedback(ctx, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// ListFeedback returns all feedback for an article, newest first.
func (s *Service) ListFeedback(ctx context.Context, articleID string) ([]*models.FeedbackView, error) {
	if _, err := uuid.Parse(articleID); err != nil {
		var v ValidationError
		v.Add("article_id", "Invalid article ID")
		return nil, &v
	}
	return s.feedback.ListFeedbackByArticle(ctx, articleID)
}

// UpdateProfile renames the authenticated user.
func (s *Service) UpdateProfile(ctx context.Context, userID, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 30 {
		var v ValidationError
		v.Add("username", "Username must be between 3 and 30 characters")
		return nil, &v
	}
	return s.users.UpdateUsername(ctx, userID, username)
}
