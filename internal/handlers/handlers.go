package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/memoryhaze/memoryhaze/internal/cache"
	"github.com/memoryhaze/memoryhaze/internal/config"
	"github.com/memoryhaze/memoryhaze/internal/mail"
	"github.com/memoryhaze/memoryhaze/internal/middleware"
	"github.com/memoryhaze/memoryhaze/internal/queue"
	"github.com/memoryhaze/memoryhaze/internal/repository"
	"github.com/memoryhaze/memoryhaze/internal/service"
	"github.com/memoryhaze/memoryhaze/internal/storage"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	authService    *service.AuthService
	uploadService  *service.UploadService
	requestService *service.RequestService
	giftService    *service.GiftService
	db             *pgxpool.Pool
	cache          *redis.Client
	users          *repository.UserRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cacheClient *redis.Client, store *storage.ObjectStore, notifier mail.Notifier, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	giftRepo := repository.NewGiftRepository(db)
	otpStore := cache.NewOTPStore(cacheClient)
	cleanup := queue.NewPublisher(cacheClient, cfg.Redis.Stream)

	auth := service.NewAuthService(userRepo, otpStore, notifier, cfg, log)
	upload := service.NewUploadService(store, requestRepo, cfg, log)
	requests := service.NewRequestService(requestRepo, giftRepo, userRepo, cleanup, notifier, cfg, log)
	gifts := service.NewGiftService(giftRepo, userRepo, cleanup, cfg, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		authService:    auth,
		uploadService:  upload,
		requestService: requests,
		giftService:    gifts,
		db:             db,
		cache:          cacheClient,
		users:          userRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/send-otp", h.SendSignupOTP)
	auth.POST("/verify-signup", h.VerifySignup)
	auth.POST("/login", h.Login)
	auth.GET("/user-count", h.UserCount)
	auth.POST("/forgot/send-otp", h.SendResetOTP)
	auth.POST("/forgot/verify", h.CheckResetOTP)
	auth.POST("/forgot/reset", h.ResetPassword)

	protected := api.Group("/auth")
	protected.Use(middleware.Auth(h.cfg, h.users))
	protected.GET("/me", h.Me)

	media := api.Group("/media")
	media.Use(middleware.Auth(h.cfg, h.users))
	media.POST("/upload", h.UploadMedia)

	gifts := api.Group("/gifts")
	gifts.Use(middleware.Auth(h.cfg, h.users))
	gifts.POST("/request", h.SubmitRequest)
	gifts.GET("", h.ListMyGifts)
	gifts.GET("/:id", h.ViewGift)
	gifts.GET("/:id/:recipientToken", h.ViewGift)

	admin := api.Group("/admin")
	admin.Use(
		middleware.Auth(h.cfg, h.users),
		middleware.RequireAdmin(),
	)
	admin.GET("/requests", h.AdminListRequests)
	admin.GET("/requests/stats", h.AdminRequestStats)
	admin.PATCH("/requests/:id/verify", h.AdminVerifyRequest)
	admin.PATCH("/requests/:id/reject", h.AdminRejectRequest)
	admin.PATCH("/requests/:id/complete", h.AdminCompleteRequest)
	admin.POST("/gifts", h.AdminCreateGift)
	admin.PATCH("/gifts/:id/access", h.AdminSetGiftAccess)
	admin.DELETE("/gifts/:id/permanent", h.AdminDeleteGift)
	admin.GET("/users", h.AdminListUsers)
	admin.POST("/users", h.AdminCreateUser)
	admin.GET("/users/:id/gifts", h.AdminListUserGifts)
}
