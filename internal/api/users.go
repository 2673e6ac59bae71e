package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (r *Router) hashtagPosts(c *gin.Context) {
	maxID, count, ok := page(c)
	if !ok {
		return
	}

	posts, err := r.services.Feed.HashtagPosts(c.Request.Context(), currentUser(c), c.Param("name"), maxID, count)
	if err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (r *Router) deleteMe(c *gin.Context) {
	if err := r.services.Accounts.DeleteUser(c.Request.Context(), currentUser(c)); err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (r *Router) blockUser(c *gin.Context) {
	if err := r.services.Accounts.Block(c.Request.Context(), currentUser(c), c.Param("username")); err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": c.Param("username")})
}

func (r *Router) unblockUser(c *gin.Context) {
	if err := r.services.Accounts.Unblock(c.Request.Context(), currentUser(c), c.Param("username")); err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unblocked": c.Param("username")})
}

func (r *Router) reportPost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || postID < 1 {
		badRequest(c, "post id must be a positive integer")
		return
	}

	if err := r.services.Accounts.ReportPost(c.Request.Context(), currentUser(c), postID); err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reported": postID})
}
