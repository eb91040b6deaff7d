package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnderssonProgramming/code-arena-rt/handlers"
	"github.com/AnderssonProgramming/code-arena-rt/middleware"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Room      *handlers.RoomHandler
	Game      *handlers.GameHandler
	Challenge *handlers.ChallengeHandler
	WS        *handlers.WSHandler
}

func SetupRoutes(router *gin.Engine, h *Handlers, jwtSecret string) {
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ws", h.WS.Connect)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.GET("/availability", h.Auth.CheckAvailability)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/me", h.Auth.Me)
			protected.PUT("/me", h.Auth.UpdateProfile)
			protected.DELETE("/me", h.Auth.Deactivate)

			users := protected.Group("/users")
			{
				users.GET("/rankings", h.Auth.Rankings)
				users.GET("/search", h.Auth.SearchUsers)
				users.GET("/:username", h.Auth.GetUser)
			}

			rooms := protected.Group("/rooms")
			{
				rooms.POST("", h.Room.CreateRoom)
				rooms.GET("", h.Room.ListPublicRooms)
				rooms.GET("/mine", h.Room.ListMyRooms)
				rooms.GET("/:id", h.Room.GetRoom)
				rooms.GET("/code/:code", h.Room.GetRoomByCode)
				rooms.POST("/code/:code/join", h.Room.JoinRoom)
				rooms.POST("/:id/leave", h.Room.LeaveRoom)
				rooms.POST("/:id/ready", h.Room.ToggleReady)
				rooms.POST("/:id/start", h.Room.StartGame)
			}

			games := protected.Group("/games")
			{
				games.GET("/:id", h.Game.GetGame)
				games.GET("/:id/challenge", h.Game.CurrentChallenge)
				games.POST("/:id/answer", h.Game.SubmitAnswer)
				games.POST("/:id/end", h.Game.EndGame)
			}

			challenges := protected.Group("/challenges")
			{
				challenges.POST("", h.Challenge.CreateChallenge)
				challenges.GET("", h.Challenge.ListChallenges)
				challenges.GET("/search", h.Challenge.SearchChallenges)
				challenges.GET("/random", h.Challenge.GetRandomChallenge)
				challenges.GET("/:id", h.Challenge.GetChallenge)
				challenges.PUT("/:id", h.Challenge.UpdateChallenge)
				challenges.DELETE("/:id", h.Challenge.DeleteChallenge)
			}
		}
	}
}
