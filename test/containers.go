package test

import (
	"context"
	"testing"

	"shopvn/apps/api/model"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type MySQLSetup struct {
	DB      *gorm.DB
	cleanup func()
}

func (m *MySQLSetup) Cleanup() {
	m.cleanup()
}

// SetupMySQL 起一个一次性 MySQL 容器并建好全部表
func SetupMySQL(ctx context.Context, t *testing.T) *MySQLSetup {
	t.Helper()

	container, err := mysql.Run(ctx,
		"mysql:8.0",
		mysql.WithDatabase("shopvn_test"),
		mysql.WithUsername("shopvn"),
		mysql.WithPassword("shopvn"),
	)
	if err != nil {
		t.Fatalf("failed to start mysql container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "charset=utf8mb4", "parseTime=True", "loc=Local")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open gorm connection: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{}, &model.Product{}, &model.Variant{}, &model.ProductImage{},
		&model.Order{}, &model.OrderItem{}, &model.Payment{},
		&model.Voucher{}, &model.UserVoucher{},
		&model.Review{},
	); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to migrate schema: %v", err)
	}

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate mysql container: %v", err)
		}
	}

	return &MySQLSetup{DB: db, cleanup: cleanup}
}

// SetupRedis 起一个一次性 Redis 容器
func SetupRedis(ctx context.Context, t *testing.T) (*goredis.Client, func()) {
	t.Helper()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	opts, err := goredis.ParseURL(uri)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to parse redis url: %v", err)
	}

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	}

	return goredis.NewClient(opts), cleanup
}
