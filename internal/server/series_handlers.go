package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cjcjon/blog-backend/internal/optional"
	"github.com/cjcjon/blog-backend/internal/series"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *httpHandler) handleSeriesList(requestContext *gin.Context) {
	summaries, err := h.series.ListAll(requestContext.Request.Context())
	if err != nil {
		h.logger.Error("series listing failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "series listing failed"})
		return
	}
	requestContext.JSON(http.StatusOK, summaries)
}

func (h *httpHandler) handleSeriesRecommend(requestContext *gin.Context) {
	recommendations, err := h.series.ListRecommended(requestContext.Request.Context())
	if err != nil {
		h.logger.Error("series recommendation failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "series recommendation failed"})
		return
	}
	requestContext.JSON(http.StatusOK, recommendations)
}

func (h *httpHandler) handleSeriesGet(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	summary, err := h.series.GetByID(requestContext.Request.Context(), id)
	if errors.Is(err, series.ErrSeriesNotFound) {
		requestContext.JSON(http.StatusNotFound, gin.H{"error": "series not found"})
		return
	}
	if err != nil {
		h.logger.Error("series lookup failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "series lookup failed"})
		return
	}
	requestContext.JSON(http.StatusOK, summary)
}

func (h *httpHandler) handleSeriesPosts(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	if _, err := h.series.GetByID(requestContext.Request.Context(), id); err != nil {
		if errors.Is(err, series.ErrSeriesNotFound) {
			requestContext.JSON(http.StatusNotFound, gin.H{"error": "series not found"})
			return
		}
		h.logger.Error("series lookup failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "series lookup failed"})
		return
	}

	summaries, err := h.posts.ListBySeries(requestContext.Request.Context(), id)
	if err != nil {
		h.logger.Error("series post listing failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "series post listing failed"})
		return
	}
	requestContext.JSON(http.StatusOK, summaries)
}

func (h *httpHandler) handleSeriesCreate(requestContext *gin.Context) {
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

	id, err := h.series.Create(requestContext.Request.Context(), title, thumbnailURL)
	if err != nil {
		if deleteErr := h.assetStore.DeleteThumbnail(requestContext.Request.Context(), thumbnailURL); deleteErr != nil {
			h.logger.Warn("orphaned thumbnail left behind", zap.String("url", thumbnailURL), zap.Error(deleteErr))
		}
		h.logger.Error("series creation failed", zap.Error(err))
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "series creation failed"})
		return
	}

	link := selfLink(fmt.Sprintf("/series/%d/posts", id))
	requestContext.JSON(http.StatusCreated, link)
}

func (h *httpHandler) handleSeriesUpdate(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	existing, err := h.series.GetByID(requestContext.Request.Context(), id)
	if errors.Is(err, series.ErrSeriesNotFound) {
		requestContext.JSON(http.StatusNotFound, gin.H{"error": "series not found"})
		return
	}
	if err != nil {
		h.logger.Error("series lookup failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "series lookup failed"})
		return
	}

	request := series.UpdateRequest{}
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

	err = h.series.Update(requestContext.Request.Context(), id, request)
	if err != nil {
		if uploadedURL != "" {
			if deleteErr := h.assetStore.DeleteThumbnail(requestContext.Request.Context(), uploadedURL); deleteErr != nil {
				h.logger.Warn("orphaned thumbnail left behind", zap.String("url", uploadedURL), zap.Error(deleteErr))
			}
		}
		switch {
		case errors.Is(err, series.ErrSeriesNotFound):
			requestContext.JSON(http.StatusNotFound, gin.H{"error": "series not found"})
		case errors.Is(err, series.ErrEmptyUpdate):
			requestContext.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		default:
			h.logger.Error("series update failed", zap.Error(err))
			requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "series update failed"})
		}
		return
	}

	link := selfLink(fmt.Sprintf("/series/%d", id))
	if uploadedURL != "" && existing.Thumbnail != "" {
		if deleteErr := h.assetStore.DeleteThumbnail(requestContext.Request.Context(), existing.Thumbnail); deleteErr != nil {
			h.logger.Warn("stale thumbnail left behind", zap.String("url", existing.Thumbnail), zap.Error(deleteErr))
			link.Warning = fmt.Sprintf("failed to delete %s, remove it manually from the asset store", existing.Thumbnail)
		}
	}
	requestContext.JSON(http.StatusOK, link)
}

func (h *httpHandler) handleSeriesDelete(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	existing, err := h.series.GetByID(requestContext.Request.Context(), id)
	if errors.Is(err, series.ErrSeriesNotFound) {
		requestContext.JSON(http.StatusNotFound, gin.H{"error": "series not found"})
		return
	}
	if err != nil {
		h.logger.Error("series lookup failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "series lookup failed"})
		return
	}

	if err := h.series.DeleteByID(requestContext.Request.Context(), id); err != nil {
		if errors.Is(err, series.ErrSeriesNotFound) {
			requestContext.JSON(http.StatusNotFound, gin.H{"error": "series not found"})
			return
		}
		h.logger.Error("series deletion failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "series deletion failed"})
		return
	}

	if existing.Thumbnail != "" {
		if deleteErr := h.assetStore.DeleteThumbnail(requestContext.Request.Context(), existing.Thumbnail); deleteErr != nil {
			h.logger.Warn("stale thumbnail left behind", zap.String("url", existing.Thumbnail), zap.Error(deleteErr))
			requestContext.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("series removed but failed to delete %s, remove it manually from the asset store", existing.Thumbnail),
			})
			return
		}
	}

	requestContext.Status(http.StatusNoContent)
}
