package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
	"github.com/wuzamanfou/smart-brain-api/internal/logger"
	logicv1 "github.com/wuzamanfou/smart-brain-api/internal/logic/v1"
	"github.com/wuzamanfou/smart-brain-api/internal/vision"
	"github.com/wuzamanfou/smart-brain-api/middleware"
)

// Handler groups the HTTP handlers for the smart-brain API.
// Dependencies are injected via the constructor — no global state.
type Handler struct {
	auth     *logicv1.AuthService
	profiles *logicv1.ProfileService
	store    domain.SessionStore
}

// NewHandler creates a new Handler with the given services.
func NewHandler(auth *logicv1.AuthService, profiles *logicv1.ProfileService, store domain.SessionStore) *Handler {
	return &Handler{
		auth:     auth,
		profiles: profiles,
		store:    store,
	}
}

// RegisterRoutes registers all API routes, guarding the protected group
// with the given auth middleware.
func (h *Handler) RegisterRoutes(r *gin.Engine, auth *middleware.AuthMiddleware) {
	r.GET("/", h.Root)
	r.POST("/register", h.Register)
	r.POST("/signin", h.Signin)
	r.POST("/signout", h.Signout)
	r.GET("/test-redis", h.TestRedis)

	protected := r.Group("/")
	protected.Use(auth.RequireAuth())
	protected.GET("/profile/:id", h.GetProfile)
	protected.POST("/profile/:id", h.UpdateProfile)
	protected.PUT("/image", h.Image)
	protected.POST("/imageurl", h.ImageURL)
}

// Root is the banner route.
func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "it is working!!!")
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register handles HTTP request for user registration.
func (h *Handler) Register(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	log := logger.FromContext(ctx)

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Name == "" || req.Password == "" {
		span.SetAttributes(attribute.Bool("request.valid", false))
		c.JSON(http.StatusBadRequest, gin.H{"error": "incorrect form submission"})
		return
	}

	user, sess, err := h.auth.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("email", req.Email).Msg("Registration failed")

		switch {
		case errors.Is(err, logicv1.ErrUserExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to register."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	log.Info().Str("user_id", sess.UserID).Msg("Registration successful")

	resp := gin.H{
		"user":    user,
		"token":   sess.Token,
		"success": true,
	}
	if !sess.Persisted {
		resp["persisted"] = false
	}
	c.JSON(http.StatusCreated, resp)
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signin handles both sign-in paths: with an authorization header present
// it refreshes the existing session; otherwise it checks credentials and
// opens a new one.
func (h *Handler) Signin(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	log := logger.FromContext(ctx)

	if tok := c.GetHeader("authorization"); tok != "" {
		span.AddEvent("session.refresh")
		userID, err := h.auth.Refresh(ctx, tok)
		if err != nil {
			span.RecordError(err)
			if errors.Is(err, domain.ErrStoreUnavailable) {
				log.Error().Err(err).Msg("Session refresh failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": userID})
		return
	}

	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		c.JSON(http.StatusBadRequest, gin.H{"error": "incorrect form submission"})
		return
	}

	sess, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Msg("Login failed")

		switch {
		case errors.Is(err, logicv1.ErrInvalidCredentials):
			// Unknown email and wrong password answer identically.
			c.JSON(http.StatusBadRequest, gin.H{"error": "Wrong credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	log.Info().Str("user_id", sess.UserID).Msg("Login successful")

	resp := gin.H{
		"success": true,
		"userId":  sess.UserID,
		"token":   sess.Token,
	}
	if !sess.Persisted {
		resp["persisted"] = false
	}
	c.JSON(http.StatusOK, resp)
}

// Signout revokes the presented session token. It answers 200 whether or
// not an entry existed; only a missing header or an unreachable store fail.
func (h *Handler) Signout(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	tok := c.GetHeader("authorization")
	if tok == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No Token sent from browser"})
		return
	}

	deleted, err := h.auth.SignOut(ctx, tok)
	if err != nil {
		span.RecordError(err)
		logger.FromContext(ctx).Error().Err(err).Msg("Signout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Redis error during signout"})
		return
	}

	if deleted {
		c.JSON(http.StatusOK, gin.H{"message": "Token successfully deleted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "No token to be deleted"})
}

// GetProfile returns the user for the path id.
func (h *Handler) GetProfile(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.profiles.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, logicv1.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, user)
}

type profileUpdateRequest struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
	Pet  string `json:"pet"`
}

// UpdateProfile applies the mutable profile fields for the path id.
func (h *Handler) UpdateProfile(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "incorrect form submission"})
		return
	}

	err = h.profiles.Update(ctx, id, domain.ProfileUpdate{
		Name: req.Name,
		Age:  req.Age,
		Pet:  req.Pet,
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, logicv1.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type imageRequest struct {
	ID int `json:"id"`
}

// Image bumps the user's detection counter and returns the new count as a
// bare number; clients render it directly.
func (h *Handler) Image(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "incorrect form submission"})
		return
	}

	entries, err := h.profiles.RecordDetection(ctx, req.ID)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to get entries"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

type imageURLRequest struct {
	Input string `json:"input"`
}

// ImageURL relays the image URL to the vision API.
func (h *Handler) ImageURL(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req imageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Input == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "incorrect form submission"})
		return
	}

	resp, err := h.profiles.DetectFaces(ctx, req.Input)
	if err != nil {
		span.RecordError(err)
		logger.FromContext(ctx).Error().Err(err).Msg("Vision API call failed")
		if errors.Is(err, vision.ErrUpstream) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "there was an error from Clarifai API"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// TestRedis is the store liveness probe.
func (h *Handler) TestRedis(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	if err := h.store.HealthCheck(ctx); err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			c.JSON(http.StatusOK, gin.H{"redis": "error", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"redis": "broken"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"redis": "working"})
}
