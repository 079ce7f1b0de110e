package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "papertrader/internal/docs" // swagger docs
	"papertrader/internal/handlers"
	"papertrader/internal/middleware"
)

// NewRouter builds the gin engine serving app's HTTP API.
func NewRouter(app *App) *gin.Engine {
	cfg := app.Config

	tradingHandler := handlers.NewTradingHandler(app.Trading)
	quoteHandler := handlers.NewQuoteHandler(app.Quotes)
	performanceHandler := handlers.NewPerformanceHandler(app.Performance)
	pipelineHandler := handlers.NewPipelineHandler(app.Automation, app.Performance, cfg.Location())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Operator routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	portfolio := protected.Group("/portfolio")
	portfolio.GET("", tradingHandler.GetPortfolio)
	portfolio.POST("/buy", tradingHandler.Buy)
	portfolio.POST("/sell", tradingHandler.Sell)
	portfolio.GET("/transactions", tradingHandler.GetTransactions)
	portfolio.GET("/performance", performanceHandler.GetPerformance)
	portfolio.GET("/performance/baseline", performanceHandler.GetBaseline)

	quotes := protected.Group("/quotes")
	quotes.GET("", quoteHandler.GetQuotes)
	quotes.GET("/:symbol", quoteHandler.GetQuote)

	// Scheduled pipeline routes
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.POST("/ai-cycle", pipelineHandler.RunAICycle)
	pipeline.POST("/stop-loss", pipelineHandler.RunStopLossCheck)
	pipeline.POST("/snapshots", pipelineHandler.RecordSnapshot)
	pipeline.POST("/refresh-quotes", pipelineHandler.RefreshQuotes)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
