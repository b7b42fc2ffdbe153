package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"sanchari/pkg/common/config"
	followmodel "sanchari/pkg/core/follow/model"
	followdao "sanchari/pkg/core/follow/repository/dao/impl"
	followsvc "sanchari/pkg/core/follow/service"
	"sanchari/pkg/core/storage"
	usermodel "sanchari/pkg/core/user/model"
	userdao "sanchari/pkg/core/user/repository/dao/impl"
	usersvc "sanchari/pkg/core/user/service"
	"sanchari/pkg/core/verification/catalog"
	vmodel "sanchari/pkg/core/verification/model"
	changedao "sanchari/pkg/core/verification/repository/dao/impl"
	vsvc "sanchari/pkg/core/verification/service"
	"sanchari/pkg/web/router"
)

// janitorInterval 服务内置清理任务的执行间隔
const janitorInterval = time.Hour

var rootCmd = &cobra.Command{
	Use:          "web",
	Short:        "Sanchari travel community API server",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		db, err := cfg.InitDB()
		if err != nil {
			return err
		}
		if err := migrate(db); err != nil {
			return err
		}
		hlog.Info("database migrated")
		return nil
	},
}

var olderThan time.Duration

var janitorCmd = &cobra.Command{
	Use:   "janitor",
	Short: "Mark abandoned account changes as incomplete",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		a, err := build(cfg)
		if err != nil {
			return err
		}
		window := olderThan
		if window <= 0 {
			window = cfg.Verification.StaleAfter
		}
		n, err := a.gate.ExpireStale(cmd.Context(), window)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "marked %d account changes incomplete\n", n)
		return nil
	},
}

func init() {
	janitorCmd.Flags().DurationVar(&olderThan, "older-than", 0, "age after which an untouched change is abandoned (default: verification.staleAfter)")
	rootCmd.AddCommand(serveCmd, migrateCmd, janitorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// application 组装好的依赖
type application struct {
	db   *gorm.DB
	deps router.Deps
	gate *vsvc.StepGate
}

func build(cfg *config.Config) (*application, error) {
	// 初始化数据库连接
	db, err := cfg.InitDB()
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	steps, err := catalog.Load(cfg.Verification.StepsFile)
	if err != nil {
		return nil, err
	}
	files, err := storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.BaseURL)
	if err != nil {
		return nil, err
	}

	// 注入到DAO层
	users := userdao.NewGormUserRepository(db)
	follows := followdao.NewGormFollowRepository(db)
	changes := changedao.NewGormChangeRepository(db)

	userService := usersvc.NewUserService(users, usersvc.TokenConfig{
		Secret:        cfg.Middleware.JWT.Secret,
		Issuer:        cfg.Middleware.JWT.Issuer,
		SigningMethod: cfg.Middleware.JWT.SigningMethod,
		TTL:           cfg.Middleware.JWT.ExpireDuration,
	})
	followService := followsvc.NewFollowService(follows, users, followsvc.Options{
		SuggestionLimit: cfg.Social.SuggestionLimit,
		Diagnostics:     !cfg.IsProd(),
	})
	gate := vsvc.NewStepGate(steps, changes, files, vsvc.NewHub(), vsvc.Options{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})

	return &application{
		db:   db,
		gate: gate,
		deps: router.Deps{
			DB:           sqlDB,
			Users:        userService,
			Follows:      followService,
			Verification: gate,
			Files:        files,
		},
	}, nil
}

func migrate(db *gorm.DB) error {
	for _, m := range []func(*gorm.DB) error{
		usermodel.AutoMigrate,
		followmodel.AutoMigrate,
		vmodel.AutoMigrate,
	} {
		if err := m(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	// 初始化配置
	cfg := config.Load()

	a, err := build(cfg)
	if err != nil {
		return err
	}
	if err := migrate(a.db); err != nil {
		return err
	}

	// 创建Hertz实例
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(max(cfg.Middleware.Security.MaxBodySize, cfg.Storage.MaxUploadBytes+1<<20))),
	)

	// 注册路由
	if err := router.RegisterAPIs(h, cfg, a.deps); err != nil {
		return err
	}

	// 后台清理超时未完成的变更
	ctx, cancel := context.WithCancel(context.Background())
	h.OnShutdown = append(h.OnShutdown, func(context.Context) { cancel() })
	go runJanitor(ctx, a.gate, cfg.Verification.StaleAfter)

	// 启动服务
	h.Spin()
	return nil
}

func runJanitor(ctx context.Context, gate *vsvc.StepGate, window time.Duration) {
	if window <= 0 {
		return
	}
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := gate.ExpireStale(ctx, window); err != nil {
				hlog.CtxErrorf(ctx, "janitor: %v", err)
			}
		}
	}
}
