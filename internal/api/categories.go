package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbook/hub/internal/category"
)

type categoryCommunityRequest struct {
	CommunityName string `json:"community_name" binding:"required"`
}

func (r *Router) listCategories(c *gin.Context) {
	categories, err := r.services.Categories.List(c.Request.Context())
	if err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (r *Router) createCategory(c *gin.Context) {
	var in category.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "malformed category")
		return
	}

	created, err := r.services.Categories.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (r *Router) listCategoryCommunities(c *gin.Context) {
	communities, err := r.services.Categories.Communities(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, communities)
}

func (r *Router) addCategoryCommunity(c *gin.Context) {
	var req categoryCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "community_name is required")
		return
	}

	updated, err := r.services.Categories.AddCommunity(c.Request.Context(), currentUser(c), c.Param("name"), req.CommunityName)
	if err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
