package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/kiliankoe/faceoff/internal/ai"
	"github.com/kiliankoe/faceoff/internal/ai/openai"
	"github.com/kiliankoe/faceoff/internal/config"
	"github.com/kiliankoe/faceoff/internal/game"
	"github.com/kiliankoe/faceoff/internal/httpapi"
	"github.com/kiliankoe/faceoff/internal/scenario"
	"github.com/kiliankoe/faceoff/internal/store/memory"
	"github.com/kiliankoe/faceoff/internal/store/postgres"
	"github.com/kiliankoe/faceoff/internal/ws"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Faceoff - round-based party voting game

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT                Port to listen on (default: 8080)
  PUBLIC_URL          Base URL used in join QR codes (default: http://localhost:8080)
  STORE               Persistence backend: "memory" or "postgres" (default: memory)
  DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE
                      Postgres connection (when STORE=postgres)
  OPENAI_API_KEY      OpenAI API key (scenarios fall back to templates without it)
  OPENAI_BASE_URL     Custom OpenAI API base URL (optional)
  AI_MODEL            Model for scenario and roast generation (default: gpt-4o-mini)
`, os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Faceoff %s\n", version)
		return
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	cfg := config.FromEnv()
	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		zerologlog.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("dur", time.Since(start)).
			Msg("http")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	var store game.Store
	switch cfg.Store {
	case "postgres":
		db, err := postgres.Connect(cfg.Postgres)
		if err != nil {
			zerologlog.Fatal().Err(err).Msg("postgres connect failed")
		}
		if err := postgres.MigrateSchema(db); err != nil {
			zerologlog.Fatal().Err(err).Msg("postgres migration failed")
		}
		store = postgres.New(db)
		zerologlog.Info().Str("host", cfg.Postgres.Host).Msg("using postgres store")
	case "memory":
		store = memory.New()
		zerologlog.Info().Msg("using in-memory store")
	default:
		zerologlog.Fatal().Str("store", cfg.Store).Msg("unknown STORE value")
	}

	var provider ai.Provider
	if cfg.OpenAIKey != "" {
		provider = openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	} else {
		zerologlog.Warn().Msg("no OPENAI_API_KEY, scenarios come from templates only")
	}
	gen := scenario.New(provider, cfg.Model, zerologlog.Logger)

	sock := ws.New(store)
	io := sock.Mount(r)
	defer io.Close()

	ctrl := game.NewController(store, gen, sock, zerologlog.Logger)
	api := httpapi.New(ctrl, cfg.PublicURL)
	api.Register(r)

	zerologlog.Info().Str("port", port).Msg("listening")
	if err := r.Run(":" + port); err != nil {
		zerologlog.Fatal().Err(err).Msg("server exited")
	}
}
