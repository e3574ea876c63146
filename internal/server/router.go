package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cjcjon/blog-backend/internal/assets"
	"github.com/cjcjon/blog-backend/internal/auth"
	"github.com/cjcjon/blog-backend/internal/lectures"
	"github.com/cjcjon/blog-backend/internal/posts"
	"github.com/cjcjon/blog-backend/internal/series"
	"github.com/cjcjon/blog-backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errMissingTokenService    = errors.New("token service dependency required")
	errMissingUsersService    = errors.New("users service dependency required")
	errMissingLecturesService = errors.New("lectures service dependency required")
	errMissingSeriesService   = errors.New("series service dependency required")
	errMissingPostsService    = errors.New("posts service dependency required")
	errMissingAssetStore      = errors.New("asset store dependency required")
)

// AssetStore is the slice of the image store the handlers depend on.
type AssetStore interface {
	UploadThumbnail(ctx context.Context, file assets.ImageFile) (string, error)
	UploadPostImage(ctx context.Context, file assets.ImageFile) (string, error)
	DeleteThumbnail(ctx context.Context, url string) error
	DeletePostImage(ctx context.Context, url string) error
	DeletePostImages(ctx context.Context, urls []string) error
}

// Dependencies wires the HTTP layer to the domain services.
type Dependencies struct {
	TokenService    *auth.TokenService
	UsersService    *users.Service
	LecturesService *lectures.Service
	SeriesService   *series.Service
	PostsService    *posts.Service
	AssetStore      AssetStore
	CookieName      string
	FrontBaseURL    string
	Logger          *zap.Logger
}

// NewHTTPHandler builds the gin router serving the full REST surface.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenService == nil {
		return nil, errMissingTokenService
	}
	if deps.UsersService == nil {
		return nil, errMissingUsersService
	}
	if deps.LecturesService == nil {
		return nil, errMissingLecturesService
	}
	if deps.SeriesService == nil {
		return nil, errMissingSeriesService
	}
	if deps.PostsService == nil {
		return nil, errMissingPostsService
	}
	if deps.AssetStore == nil {
		return nil, errMissingAssetStore
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cookieName := deps.CookieName
	if cookieName == "" {
		cookieName = "access_token"
	}

	handler := &httpHandler{
		tokens:       deps.TokenService,
		users:        deps.UsersService,
		lectures:     deps.LecturesService,
		series:       deps.SeriesService,
		posts:        deps.PostsService,
		assetStore:   deps.AssetStore,
		cookieName:   cookieName,
		frontBaseURL: deps.FrontBaseURL,
		logger:       logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(handler.resolveSession)

	userRoutes := router.Group("/users")
	userRoutes.POST("/register", handler.handleRegister)
	userRoutes.POST("/login", handler.handleLogin)
	userRoutes.GET("/check", handler.handleCheck)
	userRoutes.POST("/logout", handler.handleLogout)

	lectureRoutes := router.Group("/lectures")
	lectureRoutes.GET("/list", handler.handleLectureList)
	lectureRoutes.GET("/recommand", handler.handleLectureRecommend)
	lectureRoutes.GET("/:id", handler.handleLectureGet)
	lectureRoutes.GET("/:id/posts", handler.handleLecturePosts)
	lectureRoutes.POST("", handler.requireAuthorized, handler.handleLectureCreate)
	lectureRoutes.PATCH("/:id", handler.requireAuthorized, handler.handleLectureUpdate)
	lectureRoutes.DELETE("/:id", handler.requireAuthorized, handler.handleLectureDelete)

	seriesRoutes := router.Group("/series")
	seriesRoutes.GET("/list", handler.handleSeriesList)
	seriesRoutes.GET("/recommand", handler.handleSeriesRecommend)
	seriesRoutes.GET("/:id", handler.handleSeriesGet)
	seriesRoutes.GET("/:id/posts", handler.handleSeriesPosts)
	seriesRoutes.POST("", handler.requireAuthorized, handler.handleSeriesCreate)
	seriesRoutes.PATCH("/:id", handler.requireAuthorized, handler.handleSeriesUpdate)
	seriesRoutes.DELETE("/:id", handler.requireAuthorized, handler.handleSeriesDelete)

	postRoutes := router.Group("/posts")
	postRoutes.GET("/recent", handler.handlePostRecent)
	postRoutes.GET("/recommand", handler.handlePostRecommend)
	postRoutes.GET("/views", handler.handlePostMostViewed)
	postRoutes.GET("/:id", handler.handlePostGet)
	postRoutes.POST("/:id/like", handler.handlePostLike)
	postRoutes.POST("", handler.requireAuthorized, handler.handlePostCreate)
	postRoutes.PATCH("/:id", handler.requireAuthorized, handler.handlePostUpdate)
	postRoutes.DELETE("/:id", handler.requireAuthorized, handler.handlePostDelete)
	postRoutes.POST("/image", handler.requireAuthorized, handler.handlePostImageUpload)
	postRoutes.DELETE("/image/:imageName", handler.requireAuthorized, handler.handlePostImageDelete)

	tagRoutes := router.Group("/tags")
	tagRoutes.GET("", handler.handleTagList)
	tagRoutes.GET("/group", handler.handleTagGroups)

	return router, nil
}

type httpHandler struct {
	tokens       *auth.TokenService
	users        *users.Service
	lectures     *lectures.Service
	series       *series.Service
	posts        *posts.Service
	assetStore   AssetStore
	cookieName   string
	frontBaseURL string
	logger       *zap.Logger
}
