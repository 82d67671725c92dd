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

	"github.com/roadassist/roadassist-backend/internal/dto"
	"github.com/roadassist/roadassist-backend/internal/http/handlers/common"
	"github.com/roadassist/roadassist-backend/internal/models"
	"github.com/roadassist/roadassist-backend/internal/repository"
	"github.com/roadassist/roadassist-backend/internal/storage"
)

// Разрешённые типы фото поломки.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/heif": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

// MediaHandler управляет фотографиями поломок: загрузкой и отдачей.
type MediaHandler struct {
	repo    *repository.MediaRepository
	storage *storage.PhotoStorage
}

// NewMediaHandler создаёт хэндлер.
func NewMediaHandler(repo *repository.MediaRepository, storage *storage.PhotoStorage) *MediaHandler {
	return &MediaHandler{repo: repo, storage: storage}
}

// UploadPhoto обрабатывает POST /media/photos. Тип проверяется по
// магическим байтам, а не по расширению из имени файла.
func (h *MediaHandler) UploadPhoto(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}
	if file.Size == 0 {
		common.RespondBadRequest(c, "файл не может быть пустым")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		common.RespondBadRequest(c, "неподдерживаемый формат файла, разрешены фотографии jpg/png/webp/heic")
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		common.RespondBadRequest(c, "не удалось определить тип файла, разрешены только изображения")
		return
	}

	contentType := kind.MIME.Value
	if !allowedMimeTypes[contentType] {
		common.RespondBadRequest(c, fmt.Sprintf("неподдерживаемый тип файла (%s)", contentType))
		return
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		common.RespondAppError(c, err)
		return
	}

	relativePath, written, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	media := &models.MediaFile{
		UserID:   &userID,
		FilePath: relativePath,
		FileType: contentType,
		FileSize: written,
	}
	if err := h.repo.Create(c.Request.Context(), media); err != nil {
		_ = h.storage.Delete(c.Request.Context(), relativePath)
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MediaUploadResponse{
		ID:       media.ID.String(),
		FileName: filepath.Base(relativePath),
		MimeType: contentType,
		SizeByte: written,
	})
}

// GetPhoto обрабатывает GET /media/photos/:id — отдаёт файл как есть.
func (h *MediaHandler) GetPhoto(c *gin.Context) {
	mediaID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	media, err := h.repo.GetByID(c.Request.Context(), mediaID)
	if err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			common.RespondError(c, http.StatusNotFound, "NOT_FOUND", "файл не найден")
			return
		}
		common.RespondAppError(c, err)
		return
	}

	f, err := h.storage.Open(c.Request.Context(), media.FilePath)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", media.FileType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, f)
}
