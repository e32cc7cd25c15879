package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/mentorhub-backend/internal/repository"
	"github.com/ignatzorin/mentorhub-backend/internal/storage"
)

// Разрешённые типы файлов для аватара
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Разрешённые расширения файлов
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MediaHandler управляет загрузкой аватаров.
type MediaHandler struct {
	users   *repository.UserRepository
	storage *storage.AvatarStorage
}

// NewMediaHandler создаёт хэндлер.
func NewMediaHandler(users *repository.UserRepository, storage *storage.AvatarStorage) *MediaHandler {
	return &MediaHandler{users: users, storage: storage}
}

// UploadAvatar обрабатывает POST /api/media/avatar.
// Тип файла проверяется по магическим байтам, а не по расширению.
func (h *MediaHandler) UploadAvatar(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле file обязательно"})
		return
	}

	if file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "файл не может быть пустым"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "неподдерживаемый формат файла, разрешены jpg, jpeg, png, gif, webp",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	// Читаем первые 512 байт для проверки магических байтов
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "не удалось прочитать файл"})
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "не удалось определить тип файла, разрешены только изображения",
		})
		return
	}

	contentType := kind.MIME.Value
	if !allowedMimeTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("неподдерживаемый тип файла (%s), разрешены только изображения", contentType),
		})
		return
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось сбросить позицию файла"})
			return
		}
	}

	// Запоминаем старый аватар, чтобы убрать его после замены
	var oldPath *string
	if profile, err := h.users.GetProfile(c.Request.Context(), userID); err == nil {
		oldPath = profile.AvatarPath
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		respondServiceError(c, err)
		return
	}

	relativePath, _, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.UpdateAvatar(c.Request.Context(), userID, relativePath); err != nil {
		_ = h.storage.Delete(c.Request.Context(), relativePath)
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "профиль не найден"})
			return
		}
		respondServiceError(c, err)
		return
	}

	if oldPath != nil && *oldPath != relativePath {
		_ = h.storage.Delete(c.Request.Context(), *oldPath)
	}

	c.JSON(http.StatusCreated, gin.H{
		"avatar_path": relativePath,
		"avatar_url":  "/media/" + relativePath,
	})
}
