package handler

import (
	"context"
	"net/http"
	"time"

	"newchat/backend/internal/auth"
	"newchat/backend/internal/repository"
	"newchat/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// RoomService is what RoomHandler needs from the room lifecycle layer.
type RoomService interface {
	CreateRoom(ctx context.Context, requesterID uint, title string, maxMembers int) (uint, error)
	JoinRoom(ctx context.Context, roomID, userID uint) error
	ListRooms(ctx context.Context, page repository.Page) (*service.RoomPage, error)
	ListRoomsByCreator(ctx context.Context, userID uint, page repository.Page) (*service.RoomPage, error)
	ListRoomsByMember(ctx context.Context, userID uint, page repository.Page) (*service.RoomPage, error)
	OutRoom(ctx context.Context, userID, roomID uint) error
	DeleteRoom(ctx context.Context, userID, roomID uint) error
}

type RoomHandler struct {
	rooms RoomService
}

func NewRoomHandler(rooms RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// region --- DTOs ---

type RoomInput struct {
	Title      string `json:"title" binding:"required,min=2,max=255" example:"Friday night"`
	MaxMembers int    `json:"max_members" binding:"required,min=1,max=8" example:"4"`
}

type RoomResponse struct {
	ID          uint      `json:"id" example:"1"`
	Title       string    `json:"title" example:"Friday night"`
	CreatorID   uint      `json:"creator_id" example:"1"`
	MemberCount int64     `json:"member_count" example:"2"`
	MaxMembers  int       `json:"max_members" example:"4"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaginatedRoomResponse documents PaginatedResponse[RoomResponse] for swagger.
type PaginatedRoomResponse struct {
	Data []RoomResponse `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

type CreatedRoomResponse struct {
	ID uint `json:"id" example:"1"`
}

func newRoomListResponse(page *service.RoomPage) PaginatedResponse[RoomResponse] {
	rooms := make([]RoomResponse, 0, len(page.Rooms))
	for _, r := range page.Rooms {
		rooms = append(rooms, RoomResponse{
			ID:          r.ID,
			Title:       r.Title,
			CreatorID:   r.CreatorID,
			MemberCount: r.MemberCount,
			MaxMembers:  r.MaxMembers,
			CreatedAt:   r.CreatedAt,
		})
	}
	return NewPaginatedResponse(rooms, page.Total, page.Page)
}

// endregion

// CreateRoom godoc
// @Summary      Create a new room
// @Description  Creates a chat room. The creator takes the first seat.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RoomInput true "Room Info"
// @Success      201  {object}  CreatedRoomResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /rooms [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var input RoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID, err := h.rooms.CreateRoom(c.Request.Context(), userID, input.Title, input.MaxMembers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedRoomResponse{ID: roomID})
}

// ListRooms godoc
// @Summary      List rooms
// @Description  Gets a paginated list of every room with its current member count.
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        page    query int false "Page number" default(1)
// @Param        limit   query int false "Items per page" default(10)
// @Success      200 {object} PaginatedRoomResponse
// @Router       /rooms [get]
func (h *RoomHandler) ListRooms(c *gin.Context) {
	page, err := h.rooms.ListRooms(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRoomListResponse(page))
}

// ListCreatedRooms godoc
// @Summary      List rooms I created
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        page    query int false "Page number" default(1)
// @Param        limit   query int false "Items per page" default(10)
// @Success      200 {object} PaginatedRoomResponse
// @Router       /rooms/created [get]
func (h *RoomHandler) ListCreatedRooms(c *gin.Context) {
	userID, _ := auth.UserID(c)
	page, err := h.rooms.ListRoomsByCreator(c.Request.Context(), userID, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRoomListResponse(page))
}

// ListJoinedRooms godoc
// @Summary      List rooms I am in
// @Description  Gets the rooms the caller holds a seat in, including rooms they created.
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        page    query int false "Page number" default(1)
// @Param        limit   query int false "Items per page" default(10)
// @Success      200 {object} PaginatedRoomResponse
// @Router       /rooms/joined [get]
func (h *RoomHandler) ListJoinedRooms(c *gin.Context) {
	userID, _ := auth.UserID(c)
	page, err := h.rooms.ListRoomsByMember(c.Request.Context(), userID, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRoomListResponse(page))
}

// JoinRoom godoc
// @Summary      Join a room
// @Description  Takes a seat in the room if it is not full.
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      204
// @Failure      404 {object} ErrorResponse "Room not found"
// @Failure      409 {object} ErrorResponse "Room is full or user already joined"
// @Failure      503 {object} ErrorResponse "Room is busy, retry"
// @Router       /rooms/{id}/join [post]
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, _ := auth.UserID(c)
	roomID, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.rooms.JoinRoom(c.Request.Context(), roomID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LeaveRoom godoc
// @Summary      Leave a room
// @Description  Gives up the caller's seat. If the caller created the room, the room is deleted with all its members and messages.
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      204
// @Failure      404 {object} ErrorResponse "Room not found or user is not a member"
// @Router       /rooms/{id}/members/me [delete]
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID, _ := auth.UserID(c)
	roomID, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.rooms.OutRoom(c.Request.Context(), userID, roomID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteRoom godoc
// @Summary      Delete a room (creator only)
// @Description  Deletes the room with all its members and messages.
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      204
// @Failure      403 {object} ErrorResponse "Only the creator can delete the room"
// @Failure      404 {object} ErrorResponse "Room not found"
// @Router       /rooms/{id} [delete]
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID, _ := auth.UserID(c)
	roomID, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.rooms.DeleteRoom(c.Request.Context(), userID, roomID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
