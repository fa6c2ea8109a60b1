package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/gookit/color"
	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/connection"
	"github.com/oarkflow/squealx/drivers/sqlite"

	"github.com/chemworks/diffusio/pkg/auth"
	"github.com/chemworks/diffusio/pkg/config"
	"github.com/chemworks/diffusio/pkg/http/handlers"
	"github.com/chemworks/diffusio/pkg/http/middlewares"
	"github.com/chemworks/diffusio/pkg/http/routes"
	"github.com/chemworks/diffusio/pkg/mailer"
	"github.com/chemworks/diffusio/pkg/storage"
	"github.com/chemworks/diffusio/pkg/token"
)

func main() {
	cfg := config.Load(".env")

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	store, err := storage.NewUserStore(db)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	signer := token.NewSigner(cfg.Secret)
	dispatcher := newMailer(cfg)
	svc := auth.NewService(store, signer, dispatcher, auth.Config{
		LockoutThreshold: cfg.LockoutThreshold,
		LockoutWindow:    cfg.LockoutWindow,
		ResetTokenTTL:    cfg.ResetTokenTTL,
		PasswordAlgo:     cfg.PasswordAlgo,
		BaseURL:          cfg.BaseURL,
	})

	engine := html.New(cfg.ViewsDir, ".html")
	if cfg.Environment != "production" {
		engine.Reload(true)
	}
	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layouts/main",
	})

	h := handlers.New(svc, signer, cfg)
	session := middlewares.NewSession(signer, store, cfg)
	routes.Setup(app, h, session)

	startServer(app, cfg.Addr)
}

func openDatabase(cfg *config.Config) (*squealx.DB, error) {
	if cfg.DBDriver == "sqlite" {
		return sqlite.Open(cfg.DBDSN, "sqlite")
	}
	db, _, err := connection.FromConfig(squealx.Config{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Username: cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
	})
	return db, err
}

func newMailer(cfg *config.Config) mailer.Dispatcher {
	if cfg.SendGridAPIKey == "" {
		log.Println("SENDGRID_API_KEY not set, outgoing mail will be logged only")
		return mailer.LogOnly{}
	}
	return mailer.NewSendGrid(cfg.SendGridAPIKey, cfg.MailSenderName, cfg.MailSenderAddr)
}

func startServer(app *fiber.App, addr string) {
	go func() {
		color.Green.Printf("▶ listening on http://localhost%s\n", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ shutting down…")
	if err := app.Shutdown(); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	log.Println("✔ server stopped")
}
