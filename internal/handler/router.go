package handler

import (
	"net/http"
	"time"

	"newchat/backend/internal/auth"
	"newchat/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies is everything the HTTP layer is built from.
type Dependencies struct {
	Users     UserService
	Rooms     RoomService
	Friends   FriendService
	Blacklist auth.TokenBlacklist
	JWTSecret string
	TokenTTL  time.Duration
}

// NewRouter wires every route of the API.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())

	users := NewUserHandler(deps.Users, deps.Blacklist, deps.JWTSecret, deps.TokenTTL)
	rooms := NewRoomHandler(deps.Rooms)
	friends := NewFriendHandler(deps.Friends)
	requireAuth := auth.AuthMiddleware(deps.JWTSecret, deps.Blacklist)

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", users.Register)
			authRoutes.POST("/login", users.Login)
			authRoutes.POST("/logout", requireAuth, users.Logout)
		}

		userRoutes := apiV1.Group("/users")
		userRoutes.Use(requireAuth)
		{
			userRoutes.GET("/me", users.GetMe)
		}

		roomRoutes := apiV1.Group("/rooms")
		roomRoutes.Use(requireAuth)
		{
			roomRoutes.POST("", rooms.CreateRoom)
			roomRoutes.GET("", rooms.ListRooms)
			roomRoutes.GET("/created", rooms.ListCreatedRooms)
			roomRoutes.GET("/joined", rooms.ListJoinedRooms)
			roomRoutes.POST("/:id/join", rooms.JoinRoom)
			roomRoutes.DELETE("/:id/members/me", rooms.LeaveRoom)
			roomRoutes.DELETE("/:id", rooms.DeleteRoom)
		}

		friendRoutes := apiV1.Group("/friends")
		friendRoutes.Use(requireAuth)
		{
			friendRoutes.GET("", friends.ListFriends)
			friendRoutes.POST("/:id/request", friends.SendRequest)
			friendRoutes.POST("/:id/accept", friends.AcceptRequest)
			friendRoutes.POST("/:id/decline", friends.DeclineRequest)
			friendRoutes.POST("/:id/cancel", friends.CancelRequest)
			friendRoutes.POST("/:id/remove", friends.RemoveFriend)
		}
	}

	return router
}
