// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v3"

	"hackportal/server/assignment"
	"hackportal/server/config"
	"hackportal/server/database"
	"hackportal/server/hackathon"
	"hackportal/server/leaderboard"
	"hackportal/server/logger"
	"hackportal/server/logs"
	"hackportal/server/submission"
	"hackportal/server/task"
	"hackportal/server/team"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("hackportal exited", "error", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:           "hackportal",
		Usage:          "hackathon competition portal",
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "load environment variables from `FILE` if it exists",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "apply schema, seed tasks and start the HTTP server",
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "apply the database schema and exit",
				Action: runMigrate,
			},
			{
				Name:   "seed",
				Usage:  "insert the built-in task catalog and exit",
				Action: runSeed,
			},
		},
	}
}

// bootstrap 读取配置、初始化日志并连接数据库
func bootstrap(ctx context.Context, cmd *cli.Command) (*config.Config, *sqlx.DB, error) {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return nil, nil, err
	}
	logger.Setup(cfg.Env)

	if cfg.DatabaseURL == "" {
		return nil, nil, errors.New("DATABASE_URL not set")
	}
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	_, db, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	return database.Migrate(ctx, db)
}

func runSeed(ctx context.Context, cmd *cli.Command) error {
	_, db, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = task.Seed(ctx, db)
	return err
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, db, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if cfg.SeedTasks {
		if _, err := task.Seed(ctx, db); err != nil {
			return err
		}
	}

	auth, err := newAdminAuth(cfg)
	if err != nil {
		return err
	}

	wireHooks()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
		corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
		corsConfig.AllowCredentials = true
		r.Use(cors.New(corsConfig))
	}
	registerRoutes(r, db, auth)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// wireHooks 注入跨包调用的函数，避免循环依赖
func wireHooks() {
	// 选题时为所有队伍分配题目
	hackathon.SelectTasks = assignment.AssignToAllTeams

	// 审核或清空提交后推送排行榜
	submission.ScoresChanged = leaderboard.BroadcastStandings
}

func registerRoutes(r *gin.Engine, db *sqlx.DB, auth *adminAuth) {
	api := r.Group("/api")
	{
		// ========== 公开接口 ==========
		api.POST("/login", func(c *gin.Context) {
			handleTeamLogin(c, db, auth.jwtSecret)
		})
		api.POST("/admin/login", func(c *gin.Context) {
			handleAdminLogin(c, db, auth)
		})
		api.GET("/admin/session", func(c *gin.Context) {
			handleAdminSession(c, db)
		})
		api.POST("/logout", func(c *gin.Context) {
			handleLogout(c, db, auth)
		})
		api.GET("/hackathon", func(c *gin.Context) {
			hackathon.HandleGetStatus(c, db)
		})
		api.GET("/leaderboard", func(c *gin.Context) {
			leaderboard.HandleGetLeaderboard(c, db)
		})
		api.GET("/leaderboard/ws", func(c *gin.Context) {
			leaderboard.HandleLeaderboardWebSocket(c, db)
		})
	}

	// ========== 队伍接口（需队伍 token，比赛进行中） ==========
	teamAPI := api.Group("")
	teamAPI.Use(teamAuthMiddleware(auth.jwtSecret), hackathon.RequireActive(db))
	{
		teamAPI.PATCH("/assignments", func(c *gin.Context) {
			assignment.HandleUpdateStatus(c, db)
		})
		teamAPI.POST("/submissions", func(c *gin.Context) {
			submission.HandleUpsertSubmission(c, db)
		})
	}

	// ========== 队伍或管理员 ==========
	sharedAPI := api.Group("")
	sharedAPI.Use(teamOrAdminMiddleware(db, auth.jwtSecret))
	{
		sharedAPI.GET("/submissions", func(c *gin.Context) {
			submission.HandleListSubmissions(c, db)
		})
		sharedAPI.GET("/teams/:id/assignments", requireSelfOrAdmin(), func(c *gin.Context) {
			assignment.HandleListTeamAssignments(c, db)
		})
	}

	// ========== 管理后台 ==========
	adminAPI := api.Group("")
	adminAPI.Use(adminAuthMiddleware(db))
	{
		adminAPI.DELETE("/admin/session", func(c *gin.Context) {
			handleClearSessions(c, db, auth)
		})
		adminAPI.GET("/admin/logs", func(c *gin.Context) {
			logs.HandleGetLogs(c, db)
		})
		adminAPI.GET("/admin/logs/ws", logs.HandleLogsWebSocket)

		adminAPI.POST("/hackathon", func(c *gin.Context) {
			hackathon.HandleAction(c, db)
		})

		adminAPI.GET("/teams", func(c *gin.Context) {
			team.HandleListTeams(c, db)
		})
		adminAPI.POST("/teams", func(c *gin.Context) {
			team.HandleCreateTeam(c, db)
		})
		adminAPI.POST("/teams/import", func(c *gin.Context) {
			team.HandleImportTeamsExcel(c, db)
		})
		adminAPI.GET("/teams/:id", func(c *gin.Context) {
			team.HandleGetTeam(c, db)
		})
		adminAPI.PATCH("/teams/:id", func(c *gin.Context) {
			team.HandleUpdateTeam(c, db)
		})
		adminAPI.DELETE("/teams/:id", func(c *gin.Context) {
			team.HandleDeleteTeam(c, db)
		})

		adminAPI.GET("/tasks", func(c *gin.Context) {
			task.HandleListTasks(c, db)
		})
		adminAPI.POST("/tasks", func(c *gin.Context) {
			task.HandleCreateTask(c, db)
		})
		adminAPI.GET("/tasks/:id", func(c *gin.Context) {
			task.HandleGetTask(c, db)
		})

		adminAPI.GET("/assignments", func(c *gin.Context) {
			assignment.HandleListAssignments(c, db)
		})
		adminAPI.POST("/assignments", func(c *gin.Context) {
			assignment.HandleCreateAssignment(c, db)
		})
		adminAPI.GET("/assignments/:id", func(c *gin.Context) {
			assignment.HandleGetAssignment(c, db)
		})

		adminAPI.PATCH("/submissions", func(c *gin.Context) {
			submission.HandleReviewSubmission(c, db)
		})

		adminAPI.GET("/leaderboard/export", func(c *gin.Context) {
			leaderboard.HandleExportLeaderboard(c, db)
		})
	}
}
