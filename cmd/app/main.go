package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Shubrajit22/Zestware1/internal/address"
	"github.com/Shubrajit22/Zestware1/internal/cart"
	"github.com/Shubrajit22/Zestware1/internal/catalog"
	"github.com/Shubrajit22/Zestware1/internal/checkout"
	"github.com/Shubrajit22/Zestware1/internal/config"
	"github.com/Shubrajit22/Zestware1/internal/order"
	"github.com/Shubrajit22/Zestware1/internal/review"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is not set")
	}

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()

	if err := bootstrap(db); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	// repositories and services
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)

	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)

	cartRepo := cart.NewPostgresRepository(db)
	cartService := cart.NewService(cartRepo, catalogService, cfg.MaxLineQuantity, cfg.GuestCartTTL)

	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, catalogService)

	addressRepo := address.NewPostgresRepository(db)
	addressService := address.NewService(addressRepo)

	reviewRepo := review.NewPostgresRepository(db)
	reviewService := review.NewService(reviewRepo, catalogService, userService)

	checkoutStore := checkout.NewPostgresStore(db)
	checkoutService := checkout.NewService(cartService, catalogService, orderService, checkoutStore, checkout.NewFakeGateway())

	// a sign-in or sign-up carrying a guest token folds the guest cart into
	// the account cart
	mergeOnLogin := func(ctx context.Context, guestToken string, userID int) error {
		_, err := cartService.MergeGuestCart(ctx, guestToken, userID)
		return err
	}

	catalogHandler := catalog.NewHandler(catalogService)
	userHandler := user.NewHandler(userService, mergeOnLogin)
	cartHandler := cart.NewHandler(cartService)
	orderHandler := order.NewHandler(orderService)
	addressHandler := address.NewHandler(addressService)
	checkoutHandler := checkout.NewHandler(checkoutService, addressService)
	reviewHandler := review.NewHandler(reviewService)

	app := fiber.New()
	setupCORS(app)
	app.Use(requestLogger)

	// public surface, registered before the JWT middleware
	catalogHandler.RegisterPublicRoutes(app)
	userHandler.RegisterPublicRoutes(app)
	reviewHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		// guests shop with an X-Guest-Token header instead of a JWT; the
		// identity resolver validates the token on every request
		Filter: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) == "" && c.Get(user.GuestTokenHeader) != ""
		},
	}))

	userHandler.RegisterProtectedRoutes(app)
	catalogHandler.RegisterAdminRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	checkoutHandler.RegisterProtectedRoutes(app)
	reviewHandler.RegisterProtectedRoutes(app)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	janitor := cart.NewJanitor(cartRepo, cfg.SweepInterval)
	go janitor.Run(ctx)

	go func() {
		if err := app.Listen(cfg.Addr); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("addr", cfg.Addr).Msg("listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Guest-Token",
	}))
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("request")
	return err
}

func mustOpenDB(url string) *sql.DB {
	db, err := sql.Open("pgx", url)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}
	return db
}
