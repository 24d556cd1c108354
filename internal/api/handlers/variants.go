package handlers

import (
	"net/http"

	"sma-forecast/internal/api/models"
	"sma-forecast/internal/config"

	"github.com/gin-gonic/gin"
)

var kindDescriptions = map[string]string{
	"scatter": "Every closing price plotted against the average of its window. No model is trained.",
	"window":  "Dense regressor mapping a full window of closes to its average, evaluated on a held-out split.",
	"date":    "Dense regressor mapping the window date to its average, evaluated over evenly spaced inputs.",
}

// VariantHandler lists the configured pipeline variants
type VariantHandler struct {
	variants []config.VariantConfig
}

// NewVariantHandler creates a new variant handler
func NewVariantHandler(variants []config.VariantConfig) *VariantHandler {
	return &VariantHandler{variants: variants}
}

// ListVariants handles GET /variants
func (h *VariantHandler) ListVariants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variants": DescribeVariants(h.variants)})
}

// DescribeVariants converts variant configs to their API representation.
func DescribeVariants(variants []config.VariantConfig) []models.VariantInfo {
	out := make([]models.VariantInfo, 0, len(variants))
	for _, v := range variants {
		params := []models.ParameterInfo{
			{Name: "window_size", Type: "int", Description: "Closing prices per window", Value: v.WindowSize},
		}
		if v.Kind != "scatter" {
			units := make([]int, len(v.Hidden))
			for i, l := range v.Hidden {
				units[i] = l.Units
			}
			params = append(params,
				models.ParameterInfo{Name: "hidden", Type: "[]int", Description: "Hidden layer widths", Value: units},
				models.ParameterInfo{Name: "epochs", Type: "int", Description: "Training epochs", Value: v.Epochs},
				models.ParameterInfo{Name: "batch_size", Type: "int", Description: "Mini-batch size", Value: v.BatchSize},
				models.ParameterInfo{Name: "learning_rate", Type: "float", Description: "Adam learning rate (0 uses the optimizer default)", Value: v.LearningRate},
			)
		}
		if v.Kind == "window" {
			params = append(params, models.ParameterInfo{Name: "train_fraction", Type: "float", Description: "Share of windows used for training", Value: v.TrainFraction})
		}
		out = append(out, models.VariantInfo{
			Name:        v.Name,
			Kind:        v.Kind,
			Description: kindDescriptions[v.Kind],
			Parameters:  params,
		})
	}
	return out
}
