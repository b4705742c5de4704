package handler

import (
	"context"
	"net/http"

	"newchat/backend/internal/auth"
	"newchat/backend/internal/repository"
	"newchat/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type FriendService interface {
	Request(ctx context.Context, myUserID, toUserID uint) error
	Accept(ctx context.Context, myUserID, fromUserID uint) error
	Decline(ctx context.Context, myUserID, fromUserID uint) error
	Cancel(ctx context.Context, myUserID, toUserID uint) error
	Unfriend(ctx context.Context, myUserID, otherUserID uint) error
	List(ctx context.Context, myUserID uint, page repository.Page) (*service.FriendPage, error)
}

type FriendHandler struct {
	friends FriendService
}

func NewFriendHandler(friends FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

// PaginatedUserResponse defines the structure for a paginated list of users.
type PaginatedUserResponse struct {
	Data []PublicUserResponse `json:"data"`
	Meta PaginationMeta       `json:"meta"`
}

// ListFriends godoc
// @Summary      List my friends
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        page    query int false "Page number" default(1)
// @Param        limit   query int false "Items per page" default(10)
// @Success      200 {object} PaginatedUserResponse
// @Failure      401 {object} ErrorResponse
// @Router       /friends [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID, _ := auth.UserID(c)
	page, err := h.friends.List(c.Request.Context(), userID, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	users := make([]PublicUserResponse, 0, len(page.Friends))
	for _, f := range page.Friends {
		users = append(users, newPublicUserResponse(f))
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(users, page.Total, page.Page))
}

// SendRequest godoc
// @Summary      Send a friend request
// @Tags         friends
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target user not found"
// @Failure      409  {object}  ErrorResponse "Relation already exists or friend list is full"
// @Router       /friends/{id}/request [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	h.act(c, h.friends.Request)
}

// AcceptRequest godoc
// @Summary      Accept a friend request
// @Tags         friends
// @Security     BearerAuth
// @Param        id   path      int  true  "Requesting User ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse "No pending request"
// @Failure      409  {object}  ErrorResponse "Friend list is full"
// @Router       /friends/{id}/accept [post]
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	h.act(c, h.friends.Accept)
}

// DeclineRequest godoc
// @Summary      Decline a friend request
// @Tags         friends
// @Security     BearerAuth
// @Param        id   path      int  true  "Requesting User ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse "No pending request"
// @Router       /friends/{id}/decline [post]
func (h *FriendHandler) DeclineRequest(c *gin.Context) {
	h.act(c, h.friends.Decline)
}

// CancelRequest godoc
// @Summary      Cancel a sent friend request
// @Tags         friends
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse "No pending request"
// @Router       /friends/{id}/cancel [post]
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	h.act(c, h.friends.Cancel)
}

// RemoveFriend godoc
// @Summary      Remove a friend
// @Tags         friends
// @Security     BearerAuth
// @Param        id   path      int  true  "Friend User ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse "Not friends"
// @Router       /friends/{id}/remove [post]
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	h.act(c, h.friends.Unfriend)
}

func (h *FriendHandler) act(c *gin.Context, op func(ctx context.Context, me, other uint) error) {
	userID, _ := auth.UserID(c)
	otherID, ok := idParam(c)
	if !ok {
		return
	}

	if err := op(c.Request.Context(), userID, otherID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
