package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openbook/hub/internal/models"
)

type createCommunityRequest struct {
	Name  string `json:"name" binding:"required"`
	Title string `json:"title" binding:"required"`
	Type  string `json:"type"`
}

type usernameRequest struct {
	Username string `json:"username" binding:"required"`
}

// userResponse is the public view of a user
type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func toUserResponses(users []*models.User) []userResponse {
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = userResponse{ID: u.ID, Username: u.Username}
	}
	return out
}

type logEntryResponse struct {
	ID           int64  `json:"id"`
	ActionType   string `json:"action_type"`
	Action       string `json:"action"`
	SourceUserID int64  `json:"source_user_id"`
	TargetUserID int64  `json:"target_user_id"`
	CreatedAt    string `json:"created_at"`
}

func (r *Router) createCommunity(c *gin.Context) {
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name and title are required")
		return
	}

	community, err := r.services.Communities.CreateCommunity(c.Request.Context(), currentUser(c), req.Name, req.Title, req.Type)
	if err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

func (r *Router) getCommunity(c *gin.Context) {
	details, err := r.services.Communities.GetCommunity(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (r *Router) joinCommunity(c *gin.Context) {
	community, err := r.services.Communities.JoinCommunity(c.Request.Context(), currentUser(c), c.Param("name"))
	if err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

func (r *Router) leaveCommunity(c *gin.Context) {
	community, err := r.services.Communities.LeaveCommunity(c.Request.Context(), currentUser(c), c.Param("name"))
	if err != nil {
		abortWithError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

type listUsersFunc func(ctx context.Context, actor *models.User, communityName string) ([]*models.User, error)

type changeUserFunc func(ctx context.Context, actor *models.User, communityName, username string) (*models.User, error)

// listUsers serves the staff and ban listings
func (r *Router) listUsers(list listUsersFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := list(c.Request.Context(), currentUser(c), c.Param("name"))
		if err != nil {
			abortWithStaffError(c, r.logger, err)
			return
		}
		c.JSON(http.StatusOK, toUserResponses(users))
	}
}

// addUser serves the PUT endpoints taking {username}
func (r *Router) addUser(change changeUserFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req usernameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "username is required")
			return
		}

		user, err := change(c.Request.Context(), currentUser(c), c.Param("name"), req.Username)
		if err != nil {
			abortWithStaffError(c, r.logger, err)
			return
		}
		c.JSON(http.StatusCreated, userResponse{ID: user.ID, Username: user.Username})
	}
}

// removeUser serves the DELETE endpoints addressed by :username
func (r *Router) removeUser(change changeUserFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := change(c.Request.Context(), currentUser(c), c.Param("name"), c.Param("username"))
		if err != nil {
			abortWithStaffError(c, r.logger, err)
			return
		}
		c.JSON(http.StatusOK, userResponse{ID: user.ID, Username: user.Username})
	}
}

func (r *Router) listLogs(c *gin.Context) {
	maxID, count, ok := page(c)
	if !ok {
		return
	}

	entries, err := r.services.Communities.ListLogs(c.Request.Context(), currentUser(c), c.Param("name"), maxID, count)
	if err != nil {
		abortWithError(c, r.logger, err)
		return
	}

	out := make([]logEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = logEntryResponse{
			ID:           e.ID,
			ActionType:   string(e.ActionType),
			Action:       e.ActionType.Name(),
			SourceUserID: e.SourceUserID,
			TargetUserID: e.TargetUserID,
			CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, out)
}
