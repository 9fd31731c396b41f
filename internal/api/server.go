package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yizeng/gab/gin/gorm/chatboard/docs"
	v1 "github.com/yizeng/gab/gin/gorm/chatboard/internal/api/handler/v1"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/api/middleware"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/config"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/db"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/repository"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/repository/dao"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/service"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	static http.FileSystem
}

func NewServer(conf *config.AppConfig, gdb *gorm.DB, notifier service.Notifier) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		static: gin.Dir(conf.API.StaticRoot, false),
	}

	s.MountMiddlewares()

	chatHandler := s.initChatHandler(gdb, notifier)
	healthHandler := v1.NewHealthHandler(func(ctx context.Context) error {
		return db.Ping(ctx, gdb)
	})
	s.MountHandlers(chatHandler, healthHandler)

	return s
}

func (s *Server) initChatHandler(gdb *gorm.DB, notifier service.Notifier) *v1.ChatHandler {
	chatDAO := dao.NewChatMessageDAO(gdb, s.Config.Database.QueryTimeout)
	repo := repository.NewChatMessageRepository(chatDAO)
	svc := service.NewChatService(repo, notifier)
	handler := v1.NewChatHandler(svc, s.Config.Page.Path)

	return handler
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ZapLogger())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
	s.Router.Use(middleware.RequestTimeout(s.Config.API.RequestTimeout))
}

func (s *Server) MountHandlers(chatHandler *v1.ChatHandler, healthHandler *v1.HealthHandler) {
	// The explicit page route takes precedence over the static fallback.
	s.Router.GET("/", chatHandler.HandleIndex)
	s.Router.POST("/send", chatHandler.HandleSendMessage)
	s.Router.GET("/messages", chatHandler.HandleGetMessages)
	s.Router.GET("/healthz", healthHandler.HandleHealthcheck)

	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Title = "Chat board API"
	docs.SwaggerInfo.Description = "Post messages, list them, and have each one forwarded by email."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	s.Router.NoRoute(s.serveStatic)
}

// serveStatic serves files below the static root for any unmatched GET.
func (s *Server) serveStatic(ctx *gin.Context) {
	if ctx.Request.Method != http.MethodGet && ctx.Request.Method != http.MethodHead {
		response.RenderErr(ctx, response.ErrNotFound("route"))
		return
	}

	name := path.Clean("/" + ctx.Request.URL.Path)
	f, err := s.static.Open(name)
	if err != nil {
		response.RenderErr(ctx, response.ErrNotFound("file"))
		return
	}
	stat, err := f.Stat()
	_ = f.Close()
	if err != nil || stat.IsDir() {
		response.RenderErr(ctx, response.ErrNotFound("file"))
		return
	}

	ctx.FileFromFS(name, s.static)
}

// Run listens on every configured host and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listeners := make([]net.Listener, 0, len(s.Config.API.ListenHosts))
	for _, host := range s.Config.API.ListenHosts {
		addr := net.JoinHostPort(host, s.Config.API.Port)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return fmt.Errorf("net.Listen %s -> %w", addr, err)
		}
		listeners = append(listeners, ln)
	}

	return s.Serve(ctx, listeners...)
}

// Serve serves the router on listeners and shuts all of them down
// gracefully once ctx is done or any of them fails.
func (s *Server) Serve(ctx context.Context, listeners ...net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	servers := make([]*http.Server, len(listeners))
	for i, ln := range listeners {
		srv := &http.Server{
			Handler:           s.Router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers[i] = srv

		ln := ln
		g.Go(func() error {
			zap.L().Info(fmt.Sprintf("starting server at %v", ln.Addr()))
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("srv.Serve %v -> %w", ln.Addr(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
