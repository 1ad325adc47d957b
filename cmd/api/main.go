package main

import (
	"database/sql"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/mythicmarket/market-backend/internal/admin"
	"github.com/mythicmarket/market-backend/internal/admission"
	"github.com/mythicmarket/market-backend/internal/config"
	"github.com/mythicmarket/market-backend/internal/discord"
	"github.com/mythicmarket/market-backend/internal/email"
	"github.com/mythicmarket/market-backend/internal/gateway"
	"github.com/mythicmarket/market-backend/internal/notify"
	"github.com/mythicmarket/market-backend/internal/order"
	"github.com/mythicmarket/market-backend/internal/product"
)

// main wires dependencies (dependency injection) and starts the HTTP
// server. Every collaborator is constructed here and passed down, so
// nothing in the request path reaches for globals.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	app := fiber.New()
	setupCORS(app, cfg.SiteOrigin)
	app.Use(logger.New())

	// admission filter runs before any business logic
	filter := admission.NewFilter(admission.Config{SiteOrigin: cfg.SiteOrigin})
	app.Use(filter.Middleware())

	orderRepo, productRepo := buildRepositories(cfg)

	discordClient := discord.NewClient(discord.Config{
		BotToken:  cfg.Discord.BotToken,
		GuildID:   cfg.Discord.GuildID,
		ChannelID: cfg.Discord.ChannelID,
	})
	emailSender := email.NewSender(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	dispatcher := notify.NewDispatcher(discordClient, emailSender, discord.FormatOrderMessage, 15*time.Second)

	gatewayHandler := gateway.NewHandler(cfg.GatewaySecret, dispatcher, orderRepo, discordClient, gateway.Upstreams{
		Discord: discordClient.Configured(),
		Email:   cfg.SMTP.Host != "" && cfg.SMTP.From != "",
	})
	gatewayHandler.RegisterPublicRoutes(app)
	gatewayHandler.RegisterProtectedRoutes(app)

	productHandler := product.NewHandler(product.NewService(productRepo))
	productHandler.RegisterPublicRoutes(app)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		adminService, err := admin.NewService(cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("admin setup failed: %v", err)
		}
		adminHandler := admin.NewHandler(adminService, orderRepo, cfg.JWTSecret)
		adminHandler.RegisterPublicRoutes(app)
		adminHandler.RegisterProtectedRoutes(app)
	} else {
		log.Printf("admin surface disabled: ADMIN_EMAIL/ADMIN_PASSWORD not set")
	}

	log.Printf("starting server on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// buildRepositories opens Postgres when DATABASE_URL is set and falls
// back to the in-memory stores otherwise, so the backend runs locally
// with no infrastructure at all.
func buildRepositories(cfg config.Config) (order.Repository, product.Repository) {
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set, using in-memory stores")
		return order.NewInMemoryRepository(), product.NewInMemoryRepository(seedProducts())
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("could not open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("could not reach database: %v", err)
	}

	orderRepo := order.NewPostgresRepository(db)
	if err := orderRepo.EnsureSchema(); err != nil {
		log.Fatalf("orders schema: %v", err)
	}
	productRepo := product.NewPostgresRepository(db)
	if err := productRepo.EnsureSchema(); err != nil {
		log.Fatalf("product schema: %v", err)
	}
	return orderRepo, productRepo
}

func seedProducts() []product.Product {
	return []product.Product{
		{ID: 1, Name: "Dragon mug", Price: 20, Category: "Mugs and drinkware", InStock: true},
		{ID: 2, Name: "Phoenix pin", Price: 10, Category: "Pins and patches", InStock: true},
		{ID: 3, Name: "Kraken print", Price: 35, Category: "Prints and posters", InStock: true},
		{ID: 4, Name: "Gryphon dice set", Price: 15, Category: "Dice and games", InStock: true},
	}
}

func setupCORS(app *fiber.App, origin string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origin,
		AllowMethods: "GET,POST,HEAD,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}
