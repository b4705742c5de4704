package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"newchat/backend/internal/middleware"
	"newchat/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrRoomNotFound, http.StatusNotFound},
	{service.ErrNotRoomMember, http.StatusNotFound},
	{service.ErrFriendRequestNotFound, http.StatusNotFound},
	{service.ErrNotFriend, http.StatusNotFound},

	{service.ErrAlreadyJoined, http.StatusConflict},
	{service.ErrRoomFull, http.StatusConflict},
	{service.ErrUserExists, http.StatusConflict},
	{service.ErrAlreadyFriend, http.StatusConflict},
	{service.ErrFriendRequestExists, http.StatusConflict},
	{service.ErrFriendListFull, http.StatusConflict},

	{service.ErrNotRoomCreator, http.StatusForbidden},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrSelfRelation, http.StatusBadRequest},
	{service.ErrPasswordTooLong, http.StatusBadRequest},
	{service.ErrLockTimeout, http.StatusServiceUnavailable},
}

// respondError writes the status for a service error kind. Anything
// unrecognized is logged and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": e.err.Error()})
			return
		}
	}
	log.Printf("[%s] %s %s: %v", c.GetString(middleware.RequestIDKey), c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// idParam parses the :id path parameter. On failure it has already written
// the 400.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}
