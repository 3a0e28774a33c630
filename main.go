package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carpark_manager/internal/api"
	"carpark_manager/internal/api/middleware"
	"carpark_manager/internal/config"
	"carpark_manager/internal/invoice"
	"carpark_manager/internal/repository/sqlite"
	"carpark_manager/internal/service"
)

func main() {
	// 1. Load configuration
	cfg := config.Load()

	// 2. Open the embedded database
	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("could not open database: %v", err)
	}
	defer db.Close()
	log.Printf("database ready at %s", cfg.DBPath)

	// 3. Repositories
	carParkRepo := sqlite.NewCarParkRepository(db)
	userRepo := sqlite.NewUserRepository(db)

	// 4. Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiration)
	if err := authService.EnsureDefaultAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("could not seed default admin: %v", err)
	}

	carParkService := service.NewCarParkService(carParkRepo, invoice.LPPrinter{}, nil)
	if err := carParkService.LoadOrCreate(context.Background(), cfg.DefaultCapacity, cfg.DefaultRate); err != nil {
		log.Fatalf("could not initialize car park: %v", err)
	}

	// 5. HTTP router
	authMw := middleware.NewAuthMiddleware(authService)
	router := api.SetupRouter(authService, carParkService, authMw)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// 6. Graceful shutdown: persist the final state before exit
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := carParkService.Shutdown(ctx); err != nil {
		log.Printf("final save failed: %v", err)
	} else {
		log.Println("state saved")
	}
}
