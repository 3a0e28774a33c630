package api

import (
	"github.com/gin-gonic/gin"

	"carpark_manager/internal/api/handler"
	"carpark_manager/internal/api/middleware"
	"carpark_manager/internal/service"
)

func SetupRouter(as *service.AuthService, cs *service.CarParkService, authMw *middleware.AuthMiddleware) *gin.Engine {
	r := gin.Default()

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		// Account management is an admin task; there is no self-service
		// signup at an attendant desk.
		authRoutes.POST("/register", authMw.Authenticate(), authMw.AuthorizeRole("admin"), authHandler.Register)
		authRoutes.GET("/users", authMw.Authenticate(), authMw.AuthorizeRole("admin"), authHandler.ListUsers)
	}

	carParkHandler := handler.NewCarParkHandler(cs)
	apiRoutes := r.Group("/api")
	apiRoutes.Use(authMw.Authenticate())
	{
		apiRoutes.GET("/state", carParkHandler.GetState)
		apiRoutes.POST("/setup", authMw.AuthorizeRole("admin"), carParkHandler.Setup)
		apiRoutes.POST("/park", carParkHandler.Park)
		apiRoutes.POST("/remove", carParkHandler.Remove)
		apiRoutes.GET("/transactions", carParkHandler.ListTransactions)
		apiRoutes.PUT("/transactions/:index", carParkHandler.EditTransaction)
		apiRoutes.PUT("/spot/:spot/comments", carParkHandler.SetSpotComments)
		apiRoutes.GET("/search", carParkHandler.Search)
		apiRoutes.POST("/rate", authMw.AuthorizeRole("admin"), carParkHandler.SetRate)
		apiRoutes.POST("/save", carParkHandler.SaveSnapshot)
		apiRoutes.POST("/load", carParkHandler.LoadSnapshot)

		invoiceRoutes := apiRoutes.Group("/invoice")
		{
			invoiceRoutes.GET("/daily", carParkHandler.GetDailyInvoice)
			invoiceRoutes.GET("/tx/:index", carParkHandler.GetInvoice)
			invoiceRoutes.POST("/tx/:index/print", carParkHandler.PrintInvoice)
		}
	}
	return r
}
