package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"product_catalog/internal/config"
	"product_catalog/internal/es"
	"product_catalog/internal/handlers"
	"product_catalog/internal/handlers/api"
	"product_catalog/internal/logging"
	authmw "product_catalog/internal/middleware/auth"
	loggingmw "product_catalog/internal/middleware/logging"
	"product_catalog/internal/mykafka"
	"product_catalog/internal/repository"
	"product_catalog/internal/service"
	httpserver "product_catalog/internal/transport/http"
	"product_catalog/internal/view"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.JWT_SECRET, "JWT_SECRET")

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *mykafka.Producer
	if len(configuration.KAFKA_BROKERS) > 0 {
		producer = mykafka.NewProducer(configuration.KAFKA_BROKERS, "product_events")
	}

	tokens := &authmw.TokenService{JWTSecret: []byte(configuration.JWT_SECRET)}
	productRepo := repository.NewGormProductRepo(db)
	userRepo := repository.NewGormUserRepo(db)
	productSvc := &service.ProductService{Repo: productRepo, Producer: producer}

	e := echo.New()
	e.Renderer = view.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		Tokens:            tokens,
		AuthHandler:       &handlers.AuthHandler{Users: userRepo, Tokens: tokens},
		ProductHandler:    &handlers.ProductHandler{Svc: productSvc},
		APIAuthHandler:    &api.AuthHandler{Users: userRepo, Tokens: tokens},
		APIProductHandler: &api.ProductHandler{Svc: productSvc},
	}

	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.SearchHandler = api.NewSearchHandler(esClient, "product")
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
