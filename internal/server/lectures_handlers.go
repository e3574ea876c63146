package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/cjcjon/blog-backend/internal/assets"
	"github.com/cjcjon/blog-backend/internal/lectures"
	"github.com/cjcjon/blog-backend/internal/optional"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const thumbnailFormField = "thumbnail"

// imageFileFromHeader opens a multipart upload and wraps it for the asset
// store. The returned closer must be called after the upload finishes.
func imageFileFromHeader(fileHeader *multipart.FileHeader) (assets.ImageFile, func(), error) {
	file, err := fileHeader.Open()
	if err != nil {
		return assets.ImageFile{}, nil, err
	}
	image := assets.ImageFile{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        file,
	}
	return image, func() { _ = file.Close() }, nil
}

func (h *httpHandler) handleLectureList(requestContext *gin.Context) {
	summaries, err := h.lectures.ListAll(requestContext.Request.Context())
	if err != nil {
		h.logger.Error("lecture listing failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "lecture listing failed"})
		return
	}
	requestContext.JSON(http.StatusOK, summaries)
}

func (h *httpHandler) handleLectureRecommend(requestContext *gin.Context) {
	recommendations, err := h.lectures.ListRecommended(requestContext.Request.Context())
	if err != nil {
		h.logger.Error("lecture recommendation failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "lecture recommendation failed"})
		return
	}
	requestContext.JSON(http.StatusOK, recommendations)
}

func (h *httpHandler) handleLectureGet(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	summary, err := h.lectures.GetByID(requestContext.Request.Context(), id)
	if errors.Is(err, lectures.ErrLectureNotFound) {
		requestContext.JSON(http.StatusNotFound, gin.H{"error": "lecture not found"})
		return
	}
	if err != nil {
		h.logger.Error("lecture lookup failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "lecture lookup failed"})
		return
	}
	requestContext.JSON(http.StatusOK, summary)
}

func (h *httpHandler) handleLecturePosts(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	if _, err := h.lectures.GetByID(requestContext.Request.Context(), id); err != nil {
		if errors.Is(err, lectures.ErrLectureNotFound) {
			requestContext.JSON(http.StatusNotFound, gin.H{"error": "lecture not found"})
			return
		}
		h.logger.Error("lecture lookup failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "lecture lookup failed"})
		return
	}

	summaries, err := h.posts.ListByLecture(requestContext.Request.Context(), id)
	if err != nil {
		h.logger.Error("lecture post listing failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "lecture post listing failed"})
		return
	}
	requestContext.JSON(http.StatusOK, summaries)
}

func (h *httpHandler) handleLectureCreate(requestContext *gin.Context) {
	title := requestContext.PostForm("title")
	if title == "" {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	fileHeader, err := requestContext.FormFile(thumbnailFormField)
	if err != nil {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "thumbnail file is required"})
		return
	}

	thumbnailURL, ok := h.uploadThumbnail(requestContext, fileHeader)
	if !ok {
		return
	}

	id, err := h.lectures.Create(requestContext.Request.Context(), title, thumbnailURL)
	if err != nil {
		if deleteErr := h.assetStore.DeleteThumbnail(requestContext.Request.Context(), thumbnailURL); deleteErr != nil {
			h.logger.Warn("orphaned thumbnail left behind", zap.String("url", thumbnailURL), zap.Error(deleteErr))
		}
		h.logger.Error("lecture creation failed", zap.Error(err))
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "lecture creation failed"})
		return
	}

	link := selfLink(fmt.Sprintf("/lectures/%d/posts", id))
	requestContext.JSON(http.StatusCreated, link)
}

func (h *httpHandler) handleLectureUpdate(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	existing, err := h.lectures.GetByID(requestContext.Request.Context(), id)
	if errors.Is(err, lectures.ErrLectureNotFound) {
		requestContext.JSON(http.StatusNotFound, gin.H{"error": "lecture not found"})
		return
	}
	if err != nil {
		h.logger.Error("lecture lookup failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "lecture lookup failed"})
		return
	}

	request := lectures.UpdateRequest{}
	if title, present := requestContext.GetPostForm("title"); present {
		request.Title = optional.Some(title)
	}

	var uploadedURL string
	if fileHeader, fileErr := requestContext.FormFile(thumbnailFormField); fileErr == nil {
		uploadedURL, ok = h.uploadThumbnail(requestContext, fileHeader)
		if !ok {
			return
		}
		request.Thumbnail = optional.Some(uploadedURL)
	}

	err = h.lectures.Update(requestContext.Request.Context(), id, request)
	if err != nil {
		if uploadedURL != "" {
			if deleteErr := h.assetStore.DeleteThumbnail(requestContext.Request.Context(), uploadedURL); deleteErr != nil {
				h.logger.Warn("orphaned thumbnail left behind", zap.String("url", uploadedURL), zap.Error(deleteErr))
			}
		}
		switch {
		case errors.Is(err, lectures.ErrLectureNotFound):
			requestContext.JSON(http.StatusNotFound, gin.H{"error": "lecture not found"})
		case errors.Is(err, lectures.ErrEmptyUpdate):
			requestContext.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		default:
			h.logger.Error("lecture update failed", zap.Error(err))
			requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "lecture update failed"})
		}
		return
	}

	link := selfLink(fmt.Sprintf("/lectures/%d", id))
	if uploadedURL != "" && existing.Thumbnail != "" {
		if deleteErr := h.assetStore.DeleteThumbnail(requestContext.Request.Context(), existing.Thumbnail); deleteErr != nil {
			h.logger.Warn("stale thumbnail left behind", zap.String("url", existing.Thumbnail), zap.Error(deleteErr))
			link.Warning = fmt.Sprintf("failed to delete %s, remove it manually from the asset store", existing.Thumbnail)
		}
	}
	requestContext.JSON(http.StatusOK, link)
}

func (h *httpHandler) handleLectureDelete(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	existing, err := h.lectures.GetByID(requestContext.Request.Context(), id)
	if errors.Is(err, lectures.ErrLectureNotFound) {
		requestContext.JSON(http.StatusNotFound, gin.H{"error": "lecture not found"})
		return
	}
	if err != nil {
		h.logger.Error("lecture lookup failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "lecture lookup failed"})
		return
	}

	if err := h.lectures.DeleteByID(requestContext.Request.Context(), id); err != nil {
		if errors.Is(err, lectures.ErrLectureNotFound) {
			requestContext.JSON(http.StatusNotFound, gin.H{"error": "lecture not found"})
			return
		}
		h.logger.Error("lecture deletion failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "lecture deletion failed"})
		return
	}

	if existing.Thumbnail != "" {
		if deleteErr := h.assetStore.DeleteThumbnail(requestContext.Request.Context(), existing.Thumbnail); deleteErr != nil {
			h.logger.Warn("stale thumbnail left behind", zap.String("url", existing.Thumbnail), zap.Error(deleteErr))
			requestContext.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("lecture removed but failed to delete %s, remove it manually from the asset store", existing.Thumbnail),
			})
			return
		}
	}

	requestContext.Status(http.StatusNoContent)
}

// uploadThumbnail pushes the multipart file to the asset store and writes the
// error response itself when the upload cannot proceed.
func (h *httpHandler) uploadThumbnail(requestContext *gin.Context, fileHeader *multipart.FileHeader) (string, bool) {
	image, closeFile, err := imageFileFromHeader(fileHeader)
	if err != nil {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "unreadable thumbnail file"})
		return "", false
	}
	defer closeFile()

	url, err := h.assetStore.UploadThumbnail(requestContext.Request.Context(), image)
	if errors.Is(err, assets.ErrUnsupportedImageType) {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return "", false
	}
	if err != nil {
		h.logger.Error("thumbnail upload failed", zap.Error(err))
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "thumbnail upload failed"})
		return "", false
	}
	return url, true
}
