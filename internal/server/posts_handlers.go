package server

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/cjcjon/blog-backend/internal/assets"
	"github.com/cjcjon/blog-backend/internal/optional"
	"github.com/cjcjon/blog-backend/internal/posts"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var imageSourcePattern = regexp.MustCompile(`<img[^>]+src="([^"]+)"`)

// embeddedImageURLs extracts the image addresses referenced by a post body.
func embeddedImageURLs(body string) []string {
	matches := imageSourcePattern.FindAllStringSubmatch(body, -1)
	urls := make([]string, 0, len(matches))
	for _, match := range matches {
		urls = append(urls, match[1])
	}
	return urls
}

func (h *httpHandler) handlePostRecent(requestContext *gin.Context) {
	recent, err := h.posts.ListRecent(requestContext.Request.Context())
	if err != nil {
		h.logger.Error("recent post listing failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "recent post listing failed"})
		return
	}
	requestContext.JSON(http.StatusOK, recent)
}

func (h *httpHandler) handlePostRecommend(requestContext *gin.Context) {
	liked, err := h.posts.ListTopLiked(requestContext.Request.Context())
	if err != nil {
		h.logger.Error("post recommendation failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "post recommendation failed"})
		return
	}
	requestContext.JSON(http.StatusOK, liked)
}

func (h *httpHandler) handlePostMostViewed(requestContext *gin.Context) {
	viewed, err := h.posts.ListMostViewed(requestContext.Request.Context())
	if err != nil {
		h.logger.Error("most viewed listing failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "most viewed listing failed"})
		return
	}
	requestContext.JSON(http.StatusOK, viewed)
}

func (h *httpHandler) handlePostGet(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	detail, err := h.posts.GetByID(requestContext.Request.Context(), id)
	if errors.Is(err, posts.ErrPostNotFound) {
		requestContext.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		h.logger.Error("post lookup failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "post lookup failed"})
		return
	}

	if err := h.posts.CountView(requestContext.Request.Context(), id); err != nil {
		h.logger.Warn("view counting failed", zap.Int64("post_id", id), zap.Error(err))
	} else {
		detail.ViewCount++
	}

	requestContext.JSON(http.StatusOK, detail)
}

type createPostRequest struct {
	Title     string   `json:"title" binding:"required"`
	Body      string   `json:"body" binding:"required"`
	Tags      []string `json:"tags"`
	SeriesID  *int64   `json:"seriesId"`
	LectureID *int64   `json:"lectureId"`
}

func (h *httpHandler) handlePostCreate(requestContext *gin.Context) {
	var request createPostRequest
	if err := requestContext.ShouldBindJSON(&request); err != nil {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "invalid post payload"})
		return
	}

	id, err := h.posts.Create(requestContext.Request.Context(), posts.Draft{
		Title:     request.Title,
		Body:      request.Body,
		Tags:      request.Tags,
		SeriesID:  request.SeriesID,
		LectureID: request.LectureID,
	})
	if err != nil {
		h.logger.Error("post creation failed", zap.Error(err))
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "post creation failed"})
		return
	}

	href := fmt.Sprintf("%s/post/%d", strings.TrimRight(h.frontBaseURL, "/"), id)
	requestContext.JSON(http.StatusCreated, selfLink(href))
}

type updatePostRequest struct {
	Title *string   `json:"title"`
	Body  *string   `json:"body"`
	Tags  *[]string `json:"tags"`
}

func (h *httpHandler) handlePostUpdate(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	var request updatePostRequest
	if err := requestContext.ShouldBindJSON(&request); err != nil {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "invalid post payload"})
		return
	}

	err := h.posts.Update(requestContext.Request.Context(), id, posts.UpdateRequest{
		Title: optional.FromPointer(request.Title),
		Body:  optional.FromPointer(request.Body),
		Tags:  optional.FromPointer(request.Tags),
	})
	switch {
	case errors.Is(err, posts.ErrPostNotFound):
		requestContext.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, posts.ErrEmptyUpdate):
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
	case err != nil:
		h.logger.Error("post update failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "post update failed"})
	default:
		href := fmt.Sprintf("%s/post/%d", strings.TrimRight(h.frontBaseURL, "/"), id)
		requestContext.JSON(http.StatusOK, selfLink(href))
	}
}

func (h *httpHandler) handlePostDelete(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	detail, err := h.posts.GetByID(requestContext.Request.Context(), id)
	if errors.Is(err, posts.ErrPostNotFound) {
		requestContext.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		h.logger.Error("post lookup failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "post lookup failed"})
		return
	}

	if err := h.posts.Delete(requestContext.Request.Context(), id); err != nil {
		if errors.Is(err, posts.ErrPostNotFound) {
			requestContext.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		h.logger.Error("post deletion failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "post deletion failed"})
		return
	}

	if imageURLs := embeddedImageURLs(detail.Body); len(imageURLs) > 0 {
		if deleteErr := h.assetStore.DeletePostImages(requestContext.Request.Context(), imageURLs); deleteErr != nil {
			h.logger.Warn("post images left behind", zap.Strings("urls", imageURLs), zap.Error(deleteErr))
			requestContext.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("post removed but failed to delete %v, remove them manually from the asset store", imageURLs),
			})
			return
		}
	}

	requestContext.Status(http.StatusNoContent)
}

func (h *httpHandler) handlePostLike(requestContext *gin.Context) {
	id, ok := parseIDParam(requestContext)
	if !ok {
		return
	}

	err := h.posts.RegisterLike(requestContext.Request.Context(), id, canonicalClientIP(requestContext))
	switch {
	case errors.Is(err, posts.ErrPostNotFound):
		requestContext.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, posts.ErrAlreadyLiked):
		requestContext.JSON(http.StatusConflict, gin.H{"error": "already liked"})
	case err != nil:
		h.logger.Error("like registration failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "like registration failed"})
	default:
		requestContext.JSON(http.StatusOK, selfLink(fmt.Sprintf("/posts/%d", id)))
	}
}

func (h *httpHandler) handlePostImageUpload(requestContext *gin.Context) {
	fileHeader, err := requestContext.FormFile("image")
	if err != nil {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	image, closeFile, err := imageFileFromHeader(fileHeader)
	if err != nil {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image file"})
		return
	}
	defer closeFile()

	url, err := h.assetStore.UploadPostImage(requestContext.Request.Context(), image)
	if errors.Is(err, assets.ErrUnsupportedImageType) {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return
	}
	if err != nil {
		h.logger.Error("image upload failed", zap.Error(err))
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "image upload failed"})
		return
	}

	requestContext.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *httpHandler) handlePostImageDelete(requestContext *gin.Context) {
	imageName := requestContext.Param("imageName")
	if imageName == "" {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "image name is required"})
		return
	}

	if err := h.assetStore.DeletePostImage(requestContext.Request.Context(), imageName); err != nil {
		h.logger.Warn("image deletion failed", zap.String("image", imageName), zap.Error(err))
		requestContext.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("failed to delete %s, remove it manually from the asset store", imageName),
		})
		return
	}

	requestContext.Status(http.StatusNoContent)
}

func (h *httpHandler) handleTagList(requestContext *gin.Context) {
	tags, err := h.posts.ListTags(requestContext.Request.Context())
	if err != nil {
		h.logger.Error("tag listing failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "tag listing failed"})
		return
	}
	requestContext.JSON(http.StatusOK, tags)
}

func (h *httpHandler) handleTagGroups(requestContext *gin.Context) {
	groups, err := h.posts.GroupTags(requestContext.Request.Context())
	if err != nil {
		h.logger.Error("tag grouping failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "tag grouping failed"})
		return
	}
	requestContext.JSON(http.StatusOK, groups)
}
