package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"krakengpt/internal/adapter/provider"
)

// Static catalogs for the providers without a discovery endpoint. The cloud
// entries are deployment names, not raw model identifiers.
var (
	DefaultCloudModels = []string{"gpt-4o-mini", "gpt-4o"}
	DefaultLocalModels = []string{"local-model"}
)

type ModelsHandler struct {
	router     *provider.Router
	aggregator *provider.Aggregator
}

func NewModelsHandler(router *provider.Router, aggregator *provider.Aggregator) *ModelsHandler {
	return &ModelsHandler{router: router, aggregator: aggregator}
}

// GET /models
func (h *ModelsHandler) List(c *gin.Context) {
	providers := gin.H{}
	for _, name := range h.router.Names() {
		p, ok := h.router.Get(name)
		if !ok {
			continue
		}

		var models []string
		switch name {
		case "cloud":
			models = DefaultCloudModels
		case "aggregator":
			models = h.aggregator.Models(c.Request.Context())
		case "local":
			models = DefaultLocalModels
		}
		providers[name] = gin.H{
			"available": p.Available(),
			"models":    models,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"default":   h.router.DefaultName(),
		"providers": providers,
	})
}
