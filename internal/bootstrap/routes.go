package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	httpHandler "github.com/Saschakew/ShoppingLists/internal/handler/http"
	wsHandler "github.com/Saschakew/ShoppingLists/internal/handler/websocket"
	"github.com/Saschakew/ShoppingLists/internal/middleware"
)

// RouterDeps is everything SetupRouter mounts.
type RouterDeps struct {
	Log           *logrus.Logger
	AuthHandler   *httpHandler.AuthHandler
	ListHandler   *httpHandler.ListHandler
	WSHandler     *wsHandler.WebSocketHandler
	JWTSecret     string
	AllowedOrigin string
	RateLimiter   gin.HandlerFunc // optional
}

// SetupRouter builds the gin engine with middleware and all routes.
func SetupRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(d.Log))
	router.Use(CORSMiddleware(d.AllowedOrigin))
	if d.RateLimiter != nil {
		router.Use(d.RateLimiter)
	}

	api := router.Group("/api")
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", d.AuthHandler.Register)
		authRoutes.POST("/login", d.AuthHandler.Login)
	}

	lists := api.Group("/lists").Use(middleware.Auth(d.JWTSecret))
	{
		lists.GET("", d.ListHandler.GetLists)
		lists.POST("", d.ListHandler.CreateList)
	}

	list := api.Group("/list/:listId").Use(middleware.Auth(d.JWTSecret))
	{
		list.GET("", d.ListHandler.GetList)
		list.DELETE("", d.ListHandler.DeleteList)
		list.POST("/add_item", d.ListHandler.AddItem)
		list.POST("/delete_item", d.ListHandler.DeleteItem)
		list.GET("/updates", d.ListHandler.GetUpdates)
		list.POST("/share", d.ListHandler.ShareList)
		list.DELETE("/share/:userId", d.ListHandler.RevokeShare)
		list.POST("/favorite", d.ListHandler.ToggleFavorite)
	}

	router.GET("/ws", middleware.Auth(d.JWTSecret), d.WSHandler.HandleConnection)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

	return router
}

// CORSMiddleware allows allowedOrigin to call the API with credentials.
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware logs every request with log.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		switch {
		case errorMessage != "":
			entry.Error(errorMessage)
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
