package router

import (
	"time"

	"github.com/silaschege/salescompass-sub004/internal/config"
	"github.com/silaschege/salescompass-sub004/internal/handler"
	"github.com/silaschege/salescompass-sub004/internal/infra"
	"github.com/silaschege/salescompass-sub004/internal/middleware"
	"github.com/silaschege/salescompass-sub004/internal/repository"
	"github.com/silaschege/salescompass-sub004/internal/service"
	"github.com/silaschege/salescompass-sub004/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	ledger *infra.LedgerClient,
	suite *infra.SuiteClient,
	renderer *infra.ReceiptPDF,
	dispatcher *worker.Dispatcher,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	terminalRepo := repository.NewTerminalRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	drawerRepo := repository.NewDrawerRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	terminalSvc := service.NewTerminalService(terminalRepo)
	drawerSvc := service.NewDrawerService(drawerRepo, sessionRepo)
	sessionSvc := service.NewSessionService(sessionRepo, terminalRepo, txRepo, refundRepo, drawerSvc)
	txSvc := service.NewTransactionService(txRepo, sessionRepo, suite, suite, suite, suite)
	receiptSvc := service.NewReceiptService(receiptRepo, txRepo, terminalRepo, renderer, dispatcher, cfg.StoreName)
	paymentSvc := service.NewPaymentService(txRepo, sessionRepo, drawerSvc, suite, suite, suite, ledger, dispatcher, receiptSvc)

	approvalThreshold, err := decimal.NewFromString(cfg.RefundApprovalThreshold)
	if err != nil {
		approvalThreshold = decimal.NewFromInt(50)
	}
	refundSvc := service.NewRefundService(refundRepo, txRepo, sessionRepo, drawerSvc, suite, dispatcher, receiptSvc, approvalThreshold)
	reportSvc := service.NewReportService(sessionRepo, txRepo, refundRepo, drawerRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	terminalsH := handler.NewTerminalsHandler(terminalSvc)
	sessionsH := handler.NewSessionsHandler(sessionSvc, reportSvc)
	transactionsH := handler.NewTransactionsHandler(txSvc, paymentSvc)
	refundsH := handler.NewRefundsHandler(refundSvc)
	drawerH := handler.NewDrawerHandler(drawerSvc)
	receiptsH := handler.NewReceiptsHandler(receiptSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, ledger))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, manager, admin — declared per-endpoint
		anyStaff := middleware.RequireRole("cashier", "manager", "admin")
		managers := middleware.RequireRole("manager", "admin")
		admins := middleware.RequireRole("admin")

		terminals := v1.Group("/terminals")
		{
			terminals.POST("", managers, terminalsH.Register)
			terminals.GET("", anyStaff, terminalsH.List)
			terminals.GET("/:id", anyStaff, terminalsH.Get)
			terminals.PUT("/:id", managers, terminalsH.Update)
			terminals.POST("/:id/heartbeat", anyStaff, terminalsH.Heartbeat)
			terminals.GET("/:id/movements", anyStaff, drawerH.Movements)
		}

		sessions := v1.Group("/sessions", anyStaff)
		{
			sessions.POST("", sessionsH.Open)
			sessions.GET("/active", sessionsH.Active)
			sessions.GET("/history", middleware.RequireRole("manager", "admin"), sessionsH.History)
			sessions.GET("/:id", sessionsH.Get)
			sessions.POST("/:id/close", sessionsH.Close)
			sessions.GET("/:id/x-report", sessionsH.XReport)
			sessions.GET("/:id/z-report", sessionsH.ZReport)
			sessions.GET("/:id/transactions", transactionsH.ListBySession)
			sessions.GET("/:id/refunds", refundsH.ListBySession)
		}

		txns := v1.Group("/transactions", anyStaff)
		{
			txns.POST("", transactionsH.Start)
			txns.GET("/:id", transactionsH.Get)
			txns.POST("/:id/lines", transactionsH.AddLine)
			txns.PUT("/:id/lines/:lineId", transactionsH.UpdateLine)
			txns.DELETE("/:id/lines/:lineId", transactionsH.RemoveLine)
			txns.POST("/:id/discount", transactionsH.ApplyDiscount)
			txns.POST("/:id/coupon", transactionsH.ApplyCoupon)
			txns.DELETE("/:id/coupon", transactionsH.RemoveCoupon)
			txns.PUT("/:id/customer", transactionsH.SetCustomer)
			txns.POST("/:id/pay", transactionsH.Pay)
			txns.POST("/:id/retry-completion", transactionsH.RetryCompletion)
			txns.POST("/:id/void", transactionsH.Void)
			txns.GET("/:id/receipts", receiptsH.ListByTransaction)
		}

		refunds := v1.Group("/refunds", anyStaff)
		{
			refunds.POST("", refundsH.Create)
			refunds.GET("/:id", refundsH.Get)
			refunds.POST("/:id/approve", managers, refundsH.Approve)
			refunds.POST("/:id/reject", managers, refundsH.Reject)
			refunds.POST("/:id/process", refundsH.Process)
		}

		drawer := v1.Group("/drawer", anyStaff)
		{
			drawer.POST("/pay-in", drawerH.PayIn)
			drawer.POST("/pay-out", drawerH.PayOut)
		}

		receipts := v1.Group("/receipts", anyStaff)
		{
			receipts.GET("/:id", receiptsH.Get)
			receipts.GET("/:id/download", receiptsH.Download)
			receipts.POST("/:id/reprint", receiptsH.Reprint)
			receipts.POST("/:id/email", receiptsH.Email)
		}

		users := v1.Group("/users", admins)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	return r
}
