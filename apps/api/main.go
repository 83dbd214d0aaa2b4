package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"shopvn/apps/api/handler"
	"shopvn/apps/api/middleware"
	"shopvn/apps/api/model"
	"shopvn/pkg/config"
	"shopvn/pkg/database"
	"shopvn/pkg/discovery"
	"shopvn/pkg/jwt"
	"shopvn/pkg/momo"
	"shopvn/pkg/mq"
	"shopvn/pkg/schema"
	"shopvn/pkg/search"
	"shopvn/pkg/tracer"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/flow"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// 定义资源名称
const ResOrderCreate = "order_create_api"

// initSentinel 初始化限流规则
func initSentinel() {
	err := sentinel.InitDefault()
	if err != nil {
		log.Fatalf("Failed to init sentinel: %v", err)
	}

	// 下单接口流控
	_, err = flow.LoadRules([]*flow.Rule{
		{
			Resource:               ResOrderCreate,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        flow.Reject,
			Threshold:              50, // QPS 上限
			StatIntervalInMs:       1000,
		},
	})
	if err != nil {
		log.Fatalf("Failed to load sentinel rules: %v", err)
	}
	log.Println("Sentinel rules loaded: order create QPS limit = 50")
}

func main() {
	// 1. 加载配置
	c, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 环境变量适配
	if v := os.Getenv("MYSQL_HOST"); v != "" {
		c.Mysql.Host = v
		log.Printf("Config Override: MYSQL_HOST used (%s)", v)
	}
	if v := os.Getenv("MYSQL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Mysql.Port = p
		}
	}
	if v := os.Getenv("MYSQL_USER"); v != "" {
		c.Mysql.User = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.Mysql.Password = v
	}
	if v := os.Getenv("MYSQL_DBNAME"); v != "" {
		c.Mysql.DbName = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		c.Redis.Address = v
	}
	if v := os.Getenv("CONSUL_ADDRESS"); v != "" {
		c.Consul.Address = v
	}
	if v := os.Getenv("SERVICE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Service.Port = p
		}
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.Rabbit.URL = v
	}
	if v := os.Getenv("ELASTIC_ADDRESS"); v != "" {
		c.Elastic.Address = v
	}
	if v := os.Getenv("JAEGER_HOST"); v != "" {
		c.Jaeger.Endpoint = v
	}
	if v := os.Getenv("MOMO_PARTNER_CODE"); v != "" {
		c.Momo.PartnerCode = v
	}
	if v := os.Getenv("MOMO_ACCESS_KEY"); v != "" {
		c.Momo.AccessKey = v
	}
	if v := os.Getenv("MOMO_SECRET_KEY"); v != "" {
		c.Momo.SecretKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		jwt.SetSecret(v)
	}

	// 2. 初始化限流器
	initSentinel()

	// 3. Tracer (Jaeger 没配就跳过)
	if c.Jaeger.Endpoint != "" {
		tp, err := tracer.InitTracer(c.Service.Name, c.Jaeger.Endpoint)
		if err != nil {
			log.Printf("Init tracer failed: %v", err)
		} else {
			defer func() { _ = tp.Shutdown(context.Background()) }()
		}
	}

	// 4. MySQL + 建表
	db, err := database.InitMySQL(c.Mysql)
	if err != nil {
		log.Fatalf("Failed to init mysql: %v", err)
	}
	db.AutoMigrate(
		&model.User{},
		&model.Category{}, &model.Product{}, &model.Variant{}, &model.ProductImage{},
		&model.Order{}, &model.OrderItem{}, &model.Payment{},
		&model.Voucher{}, &model.UserVoucher{},
		&model.Review{},
	)
	writer := schema.NewWriter(db)

	// 5. Redis (购物车)
	rdb, err := database.InitRedis(c.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// 6. 可选组件：MQ / ES
	var events *mq.Publisher
	if c.Rabbit.URL != "" {
		events, err = mq.NewPublisher(c.Rabbit.URL)
		if err != nil {
			log.Printf("RabbitMQ unavailable, events disabled: %v", err)
			events = nil
		} else {
			defer events.Close()
		}
	}

	var indexer *search.ProductIndexer
	if c.Elastic.Address != "" {
		indexer, err = search.NewProductIndexer(c.Elastic.Address, c.Elastic.Index)
		if err != nil {
			log.Printf("Elasticsearch unavailable, search falls back to LIKE: %v", err)
			indexer = nil
		}
	}

	// 7. 支付网关配置，启动时校验一次提前暴露问题
	momoCfg := momo.Config{
		PartnerCode: c.Momo.PartnerCode,
		AccessKey:   c.Momo.AccessKey,
		SecretKey:   c.Momo.SecretKey,
		Endpoint:    c.Momo.Endpoint,
		ReturnURL:   c.Momo.ReturnURL,
		IpnURL:      c.Momo.IpnURL,
		RequestType: c.Momo.RequestType,
		Lang:        c.Momo.Lang,
	}
	if err := momoCfg.Validate(); err != nil {
		log.Printf("MoMo not configured, wallet payment disabled: %v", err)
	}

	// 8. Handlers
	userHandler := handler.NewUserHandler(db)
	productHandler := handler.NewProductHandler(db, indexer)
	categoryHandler := handler.NewCategoryHandler(db)
	cartHandler := handler.NewCartHandler(db, rdb)
	orderHandler := handler.NewOrderHandler(db, writer, events)
	paymentHandler := handler.NewPaymentHandler(db, momoCfg, events)
	voucherHandler := handler.NewVoucherHandler(db)
	reviewHandler := handler.NewReviewHandler(db)
	uploadHandler := handler.NewUploadHandler(c.Upload.Dir)

	// 9. 启动 Gin
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(otelgin.Middleware(c.Service.Name))

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.Static("/uploads", c.Upload.Dir)

	v1 := r.Group("/api/v1")

	// 公开接口
	{
		v1.POST("/user/register", userHandler.Register)
		v1.POST("/user/login", userHandler.Login)

		v1.GET("/product/list", productHandler.ListProducts)
		v1.GET("/product/detail/:id", productHandler.GetProduct)
		v1.GET("/product/reviews/:id", reviewHandler.ListReviews)
		v1.GET("/category/list", categoryHandler.ListCategories)

		// 下单允许游客，带限流
		v1.POST("/order/create", middleware.RateLimit(ResOrderCreate), orderHandler.CreateOrder)

		// 网关异步通知
		v1.POST("/payment/momo/ipn", paymentHandler.MomoIPN)
	}

	// 受保护接口
	authed := v1.Group("/")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.GET("/user/profile", userHandler.GetProfile)
		authed.PUT("/user/profile", userHandler.UpdateProfile)
		authed.PUT("/user/password", userHandler.UpdatePassword)

		authed.POST("/cart/add", cartHandler.AddItem)
		authed.POST("/cart/update", cartHandler.UpdateItem)
		authed.GET("/cart/list", cartHandler.GetCart)
		authed.POST("/cart/clear", cartHandler.EmptyCart)

		authed.GET("/order/mine", orderHandler.ListMyOrders)
		authed.GET("/order/detail/:id", orderHandler.GetOrder)
		authed.POST("/order/cancel/:id", orderHandler.CancelOrder)

		authed.POST("/payment/momo/create", paymentHandler.CreateMomoPayment)

		authed.POST("/voucher/claim", voucherHandler.ClaimVoucher)
		authed.POST("/voucher/redeem", voucherHandler.RedeemVoucher)
		authed.GET("/voucher/mine", voucherHandler.ListMyVouchers)

		authed.POST("/review/create", reviewHandler.CreateReview)
	}

	// 管理端接口
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/users", userHandler.ListUsers)
		admin.PUT("/users/:id/status", userHandler.ToggleUserStatus)
		admin.DELETE("/users/:id", userHandler.DeleteUser)

		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)
		admin.POST("/products/:id/variants", productHandler.CreateVariant)
		admin.PUT("/variants/:variantId", productHandler.UpdateVariant)
		admin.DELETE("/variants/:variantId", productHandler.DeleteVariant)
		admin.POST("/variants/:variantId/stock", productHandler.AdjustStock)

		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		admin.GET("/orders", orderHandler.ListAllOrders)
		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
		admin.GET("/orders/:id/payments", paymentHandler.ListOrderPayments)
		admin.DELETE("/orders/:id", orderHandler.DeleteOrder)

		admin.GET("/vouchers", voucherHandler.ListVouchers)
		admin.POST("/vouchers", voucherHandler.CreateVoucher)
		admin.PUT("/vouchers/:id", voucherHandler.UpdateVoucher)
		admin.DELETE("/vouchers/:id", voucherHandler.DeleteVoucher)

		admin.DELETE("/reviews/:id", reviewHandler.DeleteReview)

		admin.POST("/upload", uploadHandler.Upload)
	}

	// 10. 注册到 Consul
	if c.Consul.Address != "" {
		if err := discovery.RegisterService(c.Service.Name, c.Service.Port, c.Consul.Address); err != nil {
			log.Printf("Failed to register service: %v", err)
		}
	}

	// 11. 启动 + 优雅退出
	addr := fmt.Sprintf(":%d", c.Service.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Printf("API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
