package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flicky/storefront-api/internal/config"
	"github.com/flicky/storefront-api/internal/handler"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/service"
)

type services struct {
	auth         *service.AuthService
	users        *service.UserService
	categories   *service.CategoryService
	products     *service.ProductService
	cart         *service.CartService
	orders       *service.OrderService
	transactions *service.TransactionService
	activity     *service.ActivityLogger
	contact      *service.ContactService
}

func newRouter(
	cfg *config.Config,
	log *zap.Logger,
	svcs services,
	limiter *middleware.RateLimiter,
	dbPool *pgxpool.Pool,
	redisClient *redis.Client,
	amqpConn *amqp.Connection,
) *gin.Engine {
	if cfg.Log.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authH := handler.NewAuthHandler(svcs.auth, svcs.users, log)
	userH := handler.NewUserHandler(svcs.users, log)
	categoryH := handler.NewCategoryHandler(svcs.categories, log)
	productH := handler.NewProductHandler(svcs.products, log)
	cartH := handler.NewCartHandler(svcs.cart, log)
	orderH := handler.NewOrderHandler(svcs.orders, log)
	txnH := handler.NewTransactionHandler(svcs.transactions, log)
	logH := handler.NewLogHandler(svcs.activity, log)
	contactH := handler.NewContactHandler(svcs.contact, log)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	authed := middleware.AuthMiddleware(cfg.JWT.Secret, cfg.Admin.Emails)
	admin := middleware.AdminOnly()
	customer := middleware.CustomerOnly()
	optional := middleware.OptionalAuth(cfg.JWT.Secret, cfg.Admin.Emails)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg.CORS.AllowedOrigins))
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", limiter.Middleware(), authH.Register)
		auth.POST("/login", limiter.Middleware(), authH.Login)
		auth.POST("/admin/login", limiter.Middleware(), authH.AdminLogin)
		auth.GET("/me", authed, authH.Me)

		categories := api.Group("/categories")
		categories.GET("", categoryH.List)
		categories.GET("/:id", categoryH.GetByID)
		categories.POST("", authed, admin, categoryH.Create)
		categories.PUT("/:id", authed, admin, categoryH.Update)
		categories.DELETE("/:id", authed, admin, categoryH.Delete)

		products := api.Group("/products")
		products.GET("", optional, productH.List)
		products.GET("/slug/:slug", optional, productH.GetBySlug)
		products.GET("/:id", optional, productH.GetByID)
		products.POST("", authed, admin, productH.Create)
		products.PUT("/:id", authed, admin, productH.Update)
		products.DELETE("/:id", authed, admin, productH.Delete)

		cart := api.Group("/cart", authed, customer)
		cart.GET("", cartH.GetCart)
		cart.DELETE("", cartH.Clear)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:id", cartH.UpdateItem)
		cart.DELETE("/items/:id", cartH.DeleteItem)

		orders := api.Group("/orders", authed)
		orders.POST("/create-order", customer, orderH.CreateOrder)
		orders.POST("/verify-payment", customer, orderH.VerifyPayment)
		orders.GET("", orderH.ListOrders)
		orders.GET("/admin", admin, orderH.ListAll)
		orders.GET("/:id", orderH.GetOrder)
		orders.PUT("/:id/status", admin, orderH.UpdateStatus)

		users := api.Group("/users", authed)
		users.GET("/me", userH.Me)
		users.PUT("/me", userH.UpdateMe)
		users.GET("", admin, userH.List)
		users.GET("/:id", admin, userH.Get)
		users.DELETE("/:id", admin, userH.Delete)

		txns := api.Group("/transactions", authed)
		txns.GET("/mine", txnH.Mine)
		txns.GET("", admin, txnH.List)
		txns.GET("/:id", admin, txnH.Get)

		logs := api.Group("/logs", authed, admin)
		logs.GET("", logH.List)
		logs.POST("", logH.Create)

		contact := api.Group("/contact")
		contact.POST("", limiter.Middleware(), contactH.Submit)
		contact.GET("", authed, admin, contactH.List)
	}

	return router
}
