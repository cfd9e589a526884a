package routes

import (
	"Nhauzo/controllers"
	"Nhauzo/middleware"
	utils "Nhauzo/utils"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, rooms *controllers.RoomController, tokens *middleware.TokenManager) {
	// utils global
	router.Use(utils.ErrorHandler())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.GET("/session", rooms.GetSession)

	api.POST("/rooms", rooms.CreateRoom)

	api.POST("/rooms/:room_id/join", rooms.JoinRoom)

	api.GET("/rooms/:room_id", rooms.GetRoom)

	// Routes that require a player token
	members := api.Group("/rooms/:room_id")
	members.Use(middleware.PlayerAuth(tokens))
	{
		members.GET("/history", rooms.GetHistory)

		members.DELETE("/players/me", rooms.LeaveRoom)
	}
}
