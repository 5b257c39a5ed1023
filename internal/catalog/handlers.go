package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the read-only catalog endpoints used by the pricing UI.
type Handler struct {
	catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/catalog", h.GetCatalog)
	r.GET("/catalog/automations/:id", h.GetAutomation)
	r.GET("/catalog/bundles/:id", h.GetBundle)
}

func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"automations": h.catalog.Automations(),
		"bundles":     h.catalog.Bundles(),
	})
}

func (h *Handler) GetAutomation(c *gin.Context) {
	automation, err := h.catalog.Lookup(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Unknown automation",
		})
		return
	}
	c.JSON(http.StatusOK, automation)
}

func (h *Handler) GetBundle(c *gin.Context) {
	bundle, err := h.catalog.LookupBundle(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Unknown bundle",
		})
		return
	}
	c.JSON(http.StatusOK, bundle)
}
