package models

import "time"

// User is an account record. The password hash never leaves the server:
// it is excluded from JSON and only compared inside the auth package.
type User struct {
	ID              string    `db:"id" json:"user_id"`
	Username        string    `db:"username" json:"username"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	ReputationScore int       `db:"reputation_score" json:"reputation_score"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Article is a submitted piece of text owned by a user.
type Article struct {
	ID            string    `db:"id" json:"article_id"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	UserID        string    `db:"user_id" json:"-"`
	PublishedDate time.Time `db:"published_date" json:"published_date"`
}

// Prediction is the heuristic score for one article. Exactly one row per
// article, written in the same request that created the article.
type Prediction struct {
	ID              string    `db:"id" json:"prediction_id"`
	ArticleID       string    `db:"article_id" json:"-"`
	FakeProbability float64   `db:"fake_probability" json:"fake_probability"`
	ConfidenceScore float64   `db:"confidence_score" json:"confidence_score"`
	PredictedAt     time.Time `db:"predicted_at" json:"predicted_at"`
}

// FeedbackType enumerates the allowed feedback values.
// accurate/inaccurate rate prediction correctness, helpful/not_helpful
// rate its usefulness; all four count equally toward reputation.
type FeedbackType string

const (
	FeedbackAccurate   FeedbackType = "accurate"
	FeedbackInaccurate FeedbackType = "inaccurate"
	FeedbackHelpful    FeedbackType = "helpful"
	FeedbackNotHelpful FeedbackType = "not_helpful"
)

// ValidFeedbackType reports whether t is one of the four enumerated values.
func ValidFeedbackType(t FeedbackType) bool {
	switch t {
	case FeedbackAccurate, FeedbackInaccurate, FeedbackHelpful, FeedbackNotHelpful:
		return true
	}
	return false
}

// Feedback is one user's verdict on one article's prediction.
// At most one row may exist per (article_id, user_id, feedback_type).
type Feedback struct {
	ID           string       `db:"id" json:"feedback_id"`
	ArticleID    string       `db:"article_id" json:"article_id"`
	UserID       string       `db:"user_id" json:"-"`
	FeedbackType FeedbackType `db:"feedback_type" json:"feedback_type"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// Owner is the subset of User embedded in article and feedback listings.
type Owner struct {
	UserID   string `db:"owner_id" json:"user_id"`
	Username string `db:"owner_username" json:"username"`
}

// ArticleView is an article joined with its owner and, when present, its
// prediction, as served by the list and detail endpoints.
type ArticleView struct {
	Article
	User       Owner       `json:"user"`
	Prediction *Prediction `json:"prediction"`
}

// FeedbackView is a feedback row joined with the submitting user.
type FeedbackView struct {
	Feedback
	User Owner `json:"user"`
}
