package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/chatterbox/chatterbox-backend/config"
	"github.com/chatterbox/chatterbox-backend/handlers"
	"github.com/chatterbox/chatterbox-backend/repository"
	"github.com/chatterbox/chatterbox-backend/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using environment as-is")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx := context.Background()
	client, err := repository.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}
	db := client.Database(cfg.MongoDatabase)

	users := repository.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}
	messages := repository.NewMessageRepository(db)

	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)

	hub := handlers.NewHub()
	go hub.Run()

	renderer, err := handlers.NewPageRenderer()
	if err != nil {
		log.Fatal("Failed to parse templates:", err)
	}

	pages := handlers.NewPageHandler(renderer, users, messages, hub, sessions, cfg.HistoryLimit)
	auth := handlers.NewAuthHandler(users, sessions, renderer)
	admin := handlers.NewAdminHandler(users, renderer)
	chat := handlers.NewChatHandler(hub, messages)

	r := handlers.NewRouter(pages, auth, admin, chat, sessions)

	log.Printf("Server running on http://localhost%s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}
