package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status              string `json:"status"`
	Provider            string `json:"provider"`
	Model               string `json:"model"`
	APIConfigured       bool   `json:"api_configured"`
	GeminiAPIConfigured bool   `json:"gemini_api_configured"`
}

// Health reports whether the provider credential is configured. It never
// calls the provider.
func (h *Handle) Health(c *gin.Context) {
	configured := h.svc.Configured()
	c.JSON(http.StatusOK, HealthResponse{
		Status:              "healthy",
		Provider:            h.svc.Provider(),
		Model:               h.svc.Model(),
		APIConfigured:       configured,
		GeminiAPIConfigured: configured && h.svc.Provider() == "gemini",
	})
}

func (h *Handle) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Cardiac MRI XAI API is running",
		"endpoints": gin.H{
			"analyze": "POST /analyze",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
	})
}
