package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/prajxal/fakenews-api/internal/service"
	"github.com/prajxal/fakenews-api/internal/store"
	"github.com/prajxal/fakenews-api/pkg/models"
)

type Handler struct {
	svc *service.Service
	log *zap.Logger
}

func NewHandler(svc *service.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func RegisterRoutes(r *gin.Engine, h *Handler, authRequired gin.HandlerFunc) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)

		articles := api.Group("/articles", authRequired)
		articles.POST("", h.SubmitArticle)
		articles.GET("", h.ListArticles)
		articles.GET("/:id", h.GetArticle)

		feedback := api.Group("/feedback", authRequired)
		feedback.POST("", h.SubmitFeedback)
		feedback.GET("/article/:articleId", h.ListFeedback)

		users := api.Group("/users", authRequired)
		users.PUT("/me", h.UpdateProfile)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}

// Health: GET /health (unauthenticated liveness probe)
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Fake News Detection API is running"})
}

// validationFailed writes the field-level error array and reports whether
// err was a validation error.
func validationFailed(c *gin.Context, err error) bool {
	var v *service.ValidationError
	if errors.As(err, &v) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": v.Fields})
		return true
	}
	return false
}

func (h *Handler) serverError(c *gin.Context, err error, msg string) {
	h.log.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// Register: POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	user, token, err := h.svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	switch {
	case err == nil:
	case validationFailed(c, err):
		return
	case errors.Is(err, store.ErrDuplicateEmail), errors.Is(err, store.ErrDuplicateUsername):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email or username already exists"})
		return
	default:
		h.serverError(c, err, "Server error during registration")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

// Login: POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	user, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		h.serverError(c, err, "Server error during login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// SubmitArticle: POST /api/articles (protected)
// The response carries the prediction produced in this same request.
func (h *Handler) SubmitArticle(c *gin.Context) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	article, prediction, err := h.svc.SubmitArticle(c.Request.Context(), currentUserID(c), req.Title, req.Content)
	if err != nil {
		if !validationFailed(c, err) {
			h.serverError(c, err, "Server error during article submission")
		}
		return
	}

	articlesAnalyzedTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Article submitted and analyzed",
		"article":    article,
		"prediction": prediction,
	})
}

// ListArticles: GET /api/articles (protected)
func (h *Handler) ListArticles(c *gin.Context) {
	articles, err := h.svc.ListArticles(c.Request.Context())
	if err != nil {
		h.serverError(c, err, "Server error fetching articles")
		return
	}
	if articles == nil {
		articles = []*models.ArticleView{}
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

// GetArticle: GET /api/articles/:id (protected)
func (h *Handler) GetArticle(c *gin.Context) {
	view, err := h.svc.GetArticle(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}
	if err != nil {
		h.serverError(c, err, "Server error fetching article")
		return
	}
	// The detail response carries the prediction at the top level, next to
	// the article, rather than nested inside it as the listing does.
	c.JSON(http.StatusOK, gin.H{
		"article": struct {
			models.Article
			User models.Owner `json:"user"`
		}{view.Article, view.User},
		"prediction": view.Prediction,
	})
}

// SubmitFeedback: POST /api/feedback (protected)
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req struct {
		ArticleID    string              `json:"article_id"`
		FeedbackType models.FeedbackType `json:"feedback_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	feedback, err := h.svc.SubmitFeedback(c.Request.Context(), currentUserID(c), req.ArticleID, req.FeedbackType)
	switch {
	case err == nil:
	case validationFailed(c, err):
		return
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	case errors.Is(err, store.ErrDuplicateFeedback):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You have already submitted this type of feedback for this article"})
		return
	default:
		h.serverError(c, err, "Server error during feedback submission")
		return
	}

	feedbackAcceptedTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Feedback submitted successfully",
		"feedback": feedback,
	})
}

// ListFeedback: GET /api/feedback/article/:articleId (protected)
func (h *Handler) ListFeedback(c *gin.Context) {
	feedbacks, err := h.svc.ListFeedback(c.Request.Context(), c.Param("articleId"))
	if err != nil {
		if !validationFailed(c, err) {
			h.serverError(c, err, "Server error fetching feedback")
		}
		return
	}
	if feedbacks == nil {
		feedbacks = []*models.FeedbackView{}
	}
	c.JSON(http.StatusOK, gin.H{"feedbacks": feedbacks})
}

// UpdateProfile: PUT /api/users/me (protected)
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), currentUserID(c), req.Username)
	switch {
	case err == nil:
	case validationFailed(c, err):
		return
	case errors.Is(err, store.ErrDuplicateUsername):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
		return
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	default:
		h.serverError(c, err, "Server error updating profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
