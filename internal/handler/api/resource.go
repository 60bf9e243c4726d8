package api

import (
	"net/http"

	resdto "biblio/internal/handler/dto/response"
	"biblio/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ResourceHandler struct {
	resourceQueries queries.ResourceQueries
}

func NewResourceHandler(resourceQueries queries.ResourceQueries) *ResourceHandler {
	return &ResourceHandler{
		resourceQueries: resourceQueries,
	}
}

// @Summary List resources
// @Description List all reservable resources with current availability
// @Tags resources
// @Produce json
// @Success 200 {array} resdto.ResourceResponse
// @Router /resources [get]
func (h *ResourceHandler) ListResources(c *gin.Context) {
	views, err := h.resourceQueries.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.ResourceResponse, len(views))
	for i, rm := range views {
		response[i] = resdto.FromResourceView(rm)
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Get resource
// @Description Get a resource by ID
// @Tags resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} resdto.ResourceResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /resources/{id} [get]
func (h *ResourceHandler) GetResource(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid resource ID format",
		})
		return
	}

	view, err := h.resourceQueries.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resource not found",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromResourceView(view))
}
