package handlers

import (
	"errors"
	"net/http"

	"sma-forecast/internal/analysis"
	"sma-forecast/internal/api/models"
	"sma-forecast/internal/data"
	"sma-forecast/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DataHandler serves the price series from the configured source
type DataHandler struct {
	source  data.Source
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(source data.Source, rec *metrics.Recorder, log zerolog.Logger) *DataHandler {
	return &DataHandler{source: source, metrics: rec, log: log}
}

// GetData handles GET /data
func (h *DataHandler) GetData(c *gin.Context) {
	payload, err := h.source.Load(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.metrics.RecordServed(payload.Count)
	h.log.Debug().Str("source", h.source.Name()).Int("records", payload.Count).Msg("serving /data")
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload.Body)
}

// GetSummary handles GET /summary
func (h *DataHandler) GetSummary(c *gin.Context) {
	payload, err := h.source.Load(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	records, err := data.DecodeRecords(payload.Body)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis.Summarize(records))
}

func (h *DataHandler) writeError(c *gin.Context, err error) {
	var qe *data.QuoteError
	if errors.As(err, &qe) {
		status := http.StatusBadGateway
		switch qe.Code {
		case data.CodeRateLimited:
			status = http.StatusTooManyRequests
		case data.CodeMissingAPIKey:
			status = http.StatusServiceUnavailable
		}
		h.log.Warn().Str("code", qe.Code).Int("upstream_status", qe.StatusCode).Msg(qe.Message)
		c.JSON(status, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    qe.Code,
				Message: qe.Message,
				Details: map[string]interface{}{
					"source":      h.source.Name(),
					"status_code": qe.StatusCode,
				},
			},
		})
		return
	}

	h.log.Error().Err(err).Str("source", h.source.Name()).Msg("failed to load data")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "DATA_LOAD_ERROR",
			Message: err.Error(),
		},
	})
}
