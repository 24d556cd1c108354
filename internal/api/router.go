package api

import (
	"net/http"

	"sma-forecast/internal/api/handlers"
	"sma-forecast/internal/api/middleware"
	"sma-forecast/internal/api/models"
	"sma-forecast/internal/config"
	"sma-forecast/internal/data"
	"sma-forecast/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Config  *config.Config
	Source  data.Source
	Metrics *metrics.Recorder
	Logger  zerolog.Logger
}

// NewRouter builds the gin engine serving /data, /summary, /health,
// /variants and, when a recorder is present, /metrics.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger(d.Logger, d.Metrics))
	router.Use(middleware.ErrorHandler(d.Logger))
	router.Use(middleware.CORS())

	dataHandler := handlers.NewDataHandler(d.Source, d.Metrics, d.Logger)
	var variants []config.VariantConfig
	env := ""
	if d.Config != nil {
		variants = d.Config.Variants
		env = d.Config.Env
	}
	variantHandler := handlers.NewVariantHandler(variants)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{Status: "ok", Source: d.Source.Name(), Env: env})
	})
	router.GET("/data", dataHandler.GetData)
	router.GET("/summary", dataHandler.GetSummary)
	router.GET("/variants", variantHandler.ListVariants)
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	})
	return router
}
