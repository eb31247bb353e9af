package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/walidbsn/tasdiq/internal/admin"
	"github.com/walidbsn/tasdiq/internal/assistant"
	"github.com/walidbsn/tasdiq/internal/auth"
	"github.com/walidbsn/tasdiq/internal/campaigns"
	"github.com/walidbsn/tasdiq/internal/config"
	"github.com/walidbsn/tasdiq/internal/marketplace"
	"github.com/walidbsn/tasdiq/internal/messaging"
	mware "github.com/walidbsn/tasdiq/internal/middleware"
	"github.com/walidbsn/tasdiq/internal/notifications"
	"github.com/walidbsn/tasdiq/internal/offers"
	"github.com/walidbsn/tasdiq/internal/prefs"
	"github.com/walidbsn/tasdiq/internal/store"
	"github.com/walidbsn/tasdiq/internal/user"
	"github.com/walidbsn/tasdiq/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalw("load config", "error", err)
	}

	st := store.NewSeeded()
	prefStore, err := prefs.Open(cfg.PrefsFile)
	if err != nil {
		sugar.Fatalw("open prefs", "error", err)
	}
	ai := assistant.New(cfg.AssistantBaseURL, cfg.AssistantAPIKey, cfg.AssistantTimeout, sugar)

	authH := auth.NewHandler(st, sugar, []byte(cfg.JWTSecret))
	userH := user.NewHandler(st, sugar)
	marketH := marketplace.NewHandler(st, ai, sugar)
	offerH := offers.NewHandler(st, sugar)
	notifH := notifications.NewHandler(st, sugar)
	msgH := messaging.NewHandler(st, sugar)
	walletH := wallet.NewHandler(st, sugar)
	campaignH := campaigns.NewHandler(st, ai, sugar)
	adminH := admin.NewHandler(st, sugar)
	prefH := prefs.NewHandler(prefStore, sugar)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "tasdiq"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	// Public routes
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", authH.Signup)
	authGroup.POST("/login", authH.Login)

	e.GET("/user/:id/profile", userH.PublicProfile)
	e.GET("/marketplace/services", marketH.Browse)
	e.GET("/marketplace/regions", marketH.BrowseRegions)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWT([]byte(cfg.JWTSecret)))

	api.GET("/auth/me", authH.Me)
	api.PATCH("/user/profile", userH.UpdateProfile)

	api.GET("/marketplace/services/me", marketH.MyListings, mware.RequireRoles("confirmer", "freelancer"))
	api.POST("/marketplace/services", marketH.CreateListing, mware.RequireRoles("confirmer", "freelancer"))
	api.PATCH("/marketplace/services/:id", marketH.UpdateListing, mware.RequireRoles("confirmer", "freelancer"))
	api.DELETE("/marketplace/services/:id", marketH.DeleteListing, mware.RequireRoles("confirmer", "freelancer"))
	api.POST("/marketplace/services/suggest-description", marketH.SuggestDescription, mware.RequireRoles("confirmer", "freelancer"))

	api.GET("/site-services", marketH.SiteServices)
	api.POST("/site-services/:id/request", marketH.RequestSiteService)

	api.POST("/marketplace/offers", offerH.Create)
	api.GET("/marketplace/offers", offerH.List)
	api.GET("/marketplace/offers/:id", offerH.Get)
	api.POST("/marketplace/offers/:id/accept", offerH.Act(offers.ActionAccept))
	api.POST("/marketplace/offers/:id/reject", offerH.Act(offers.ActionReject))
	api.POST("/marketplace/offers/:id/deliver", offerH.Act(offers.ActionDeliver))
	api.POST("/marketplace/offers/:id/complete", offerH.Act(offers.ActionComplete))
	api.POST("/marketplace/offers/:id/request-modification", offerH.Act(offers.ActionRequestModification))
	api.POST("/marketplace/offers/:id/cancel", offerH.Act(offers.ActionCancel))
	api.POST("/marketplace/offers/:id/rating", offerH.Rate)
	api.GET("/marketplace/stats/me", offerH.MyStats)

	api.GET("/notifications", notifH.List)
	api.GET("/notifications/unread-count", notifH.UnreadCount)
	api.POST("/notifications/:id/read", notifH.MarkRead)
	api.POST("/notifications/read-all", notifH.MarkAllRead)

	api.GET("/messages", msgH.ListConversations)
	api.GET("/messages/:peer_id", msgH.GetConversation)
	api.POST("/messages/:peer_id", msgH.SendMessage)

	api.GET("/wallet/balance", walletH.Balance)
	api.GET("/wallet/transactions", walletH.Transactions)

	api.POST("/campaigns", campaignH.Create, mware.RequireRoles("merchant"))
	api.GET("/campaigns/me", campaignH.List, mware.RequireRoles("merchant"))
	api.POST("/campaigns/generate", campaignH.GenerateCopy, mware.RequireRoles("merchant"))

	api.GET("/prefs/theme", prefH.GetTheme)
	api.PUT("/prefs/theme", prefH.SetTheme)

	// Admin routes
	adm := e.Group("/admin")
	adm.Use(mware.JWT([]byte(cfg.JWTSecret)))
	adm.Use(mware.AdminGuard)

	adm.GET("/stats", adminH.Stats)
	adm.GET("/users", adminH.ListUsers)
	adm.PATCH("/users/:id/role", adminH.ChangeUserRole)
	adm.POST("/users/:id/suspend", adminH.SuspendUser)
	adm.POST("/users/:id/activate", adminH.ActivateUser)
	adm.POST("/listings/:id/pin", adminH.TogglePin)
	adm.DELETE("/listings/:id", adminH.DeleteListing)
	adm.POST("/site-services", adminH.CreateSiteService)
	adm.PATCH("/site-services/:id", adminH.UpdateSiteService)
	adm.DELETE("/site-services/:id", adminH.DeleteSiteService)
	adm.GET("/campaigns", adminH.ListCampaigns)
	adm.POST("/campaigns/:id/approve", adminH.ApproveCampaign)
	adm.POST("/campaigns/:id/reject", adminH.RejectCampaign)
	adm.POST("/campaigns/:id/start", adminH.StartCampaign)
	adm.POST("/campaigns/:id/complete", adminH.CompleteCampaign)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(cfg.RunAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server error", "error", err)
		}
	}()
	sugar.Infow("server started", "address", cfg.RunAddress)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("shutdown", "error", err)
	}
}
