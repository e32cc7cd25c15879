package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/mentorhub-backend/internal/models"
	"github.com/ignatzorin/mentorhub-backend/internal/repository"
	"github.com/ignatzorin/mentorhub-backend/internal/validation"
)

// ProfileHandler отдаёт личности собеседников и управляет своим профилем.
type ProfileHandler struct {
	users *repository.UserRepository
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(users *repository.UserRepository) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// GetIdentity обрабатывает GET /api/users/:id.
// Отдаёт то, что нужно чату для рендера собеседника: имя, аватар,
// принадлежность. Ответ не кэшируется дольше одного рендера.
func (h *ProfileHandler) GetIdentity(c *gin.Context) {
	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "пользователь не найден"})
			return
		}
		respondServiceError(c, err)
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "пользователь не найден"})
		return
	}

	identity := models.Identity{ID: user.ID, DisplayName: user.Username}

	profile, err := h.users.GetProfile(c.Request.Context(), userID)
	if err == nil {
		identity.DisplayName = profile.DisplayName
		identity.Affiliation = profile.Affiliation
		if profile.AvatarPath != nil {
			url := "/media/" + *profile.AvatarPath
			identity.AvatarURL = &url
		}
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, identity)
}

// GetMe обрабатывает GET /api/profile.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"profile": profile,
	})
}

// UpdateMe обрабатывает PUT /api/profile.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		DisplayName string  `json:"display_name" binding:"required"`
		Affiliation *string `json:"affiliation"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validation.ValidateDisplayName(req.DisplayName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validation.ValidateAffiliation(req.Affiliation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := &models.Profile{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Affiliation: req.Affiliation,
	}

	// Аватар меняется отдельным эндпоинтом, здесь его сохраняем как есть.
	if current, err := h.users.GetProfile(c.Request.Context(), userID); err == nil {
		profile.AvatarPath = current.AvatarPath
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		respondServiceError(c, err)
		return
	}

	if err := h.users.UpsertProfile(c.Request.Context(), profile); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
