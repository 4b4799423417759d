package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benbeisheim/kingchess-backend/internal/controller"
	"github.com/benbeisheim/kingchess-backend/internal/service"
	"github.com/benbeisheim/kingchess-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	addr := flag.String("addr", ":3000", "address to listen on")
	origins := flag.String("origins", "http://localhost:5173", "comma separated origins allowed by CORS and websockets")
	dataDir := flag.String("data", "./data", "results database directory, empty to keep results in memory")
	flag.Parse()

	store, err := storage.Open(*dataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	gameManager := service.NewGameManager()
	defer gameManager.Close()
	gameService := service.NewGameService(gameManager, store)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     *origins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(func(c *fiber.Ctx) error {
		log.Printf("%s %s", c.Method(), c.Path())
		return c.Next()
	})

	controller.SetupRoutes(app, gameService, strings.Split(*origins, ","))

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		log.Println("shutting down")
		app.Shutdown()
	}()

	if err := app.Listen(*addr); err != nil {
		log.Fatal(err)
	}
}
