package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/socialclone/go-social-backend/config"
	httpapi "github.com/socialclone/go-social-backend/internal/api/http"
	"github.com/socialclone/go-social-backend/internal/api/http/middleware"
	"github.com/socialclone/go-social-backend/internal/auth"
	authhttp "github.com/socialclone/go-social-backend/internal/auth/http"
	authmw "github.com/socialclone/go-social-backend/internal/auth/middleware"
	"github.com/socialclone/go-social-backend/internal/feed"
	feedhttp "github.com/socialclone/go-social-backend/internal/feed/http"
	postshttp "github.com/socialclone/go-social-backend/internal/posts/http"
	postsvc "github.com/socialclone/go-social-backend/internal/posts/service"
	"github.com/socialclone/go-social-backend/internal/store"
	"github.com/socialclone/go-social-backend/internal/upload"
	uploadhttp "github.com/socialclone/go-social-backend/internal/upload/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Cfg         *config.Config
	AuthSvc     *auth.Service
	Store       store.Store
	Uploader    *upload.Gateway
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = dep.Cfg.Server.CORSOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Request-Id")
	r.Use(cors.New(corsCfg))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Store)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestIDMiddleware())

	authhttp.New(dep.AuthSvc).Register(api.Group("/auth"))

	tracker := dep.AuthSvc.Tracker()
	subscriber := feed.NewSubscriber(dep.Store)
	postService := postsvc.NewPostService(tracker, dep.Store)

	// Reads and mutations both require the local session; the feed is
	// not public in this client.
	signedIn := api.Group("")
	signedIn.Use(authmw.RequireSession(tracker))

	feedhttp.New(subscriber).Register(signedIn)
	postshttp.New(postService).Register(signedIn.Group("/posts"))
	uploadhttp.New(dep.Uploader).Register(signedIn.Group("/uploads"))

	return r
}
