package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/okofen-viewer/backend/internal/api"
	"github.com/okofen-viewer/backend/internal/config"
	"github.com/okofen-viewer/backend/internal/logindex"
	"github.com/okofen-viewer/backend/internal/parser"
	"github.com/okofen-viewer/backend/internal/scan"
	"github.com/okofen-viewer/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "OkofenViewer.exe.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Chart styles: built-in defaults unless the config points at an override
	styles := parser.DefaultChartStyles()
	if cfg.Logs.ChartStylesFile != "" {
		loaded, err := parser.LoadChartStyles(cfg.Logs.ChartStylesFile)
		if err != nil {
			fmt.Printf("Warning: failed to load chart styles: %v\n", err)
		} else {
			styles = loaded
			fmt.Printf("Chart styles loaded from %s\n", cfg.Logs.ChartStylesFile)
		}
	}

	// Initialize the log index and scan manager
	index := logindex.New()
	scanMgr := scan.NewManager(index)

	// Scan the configured default directory on startup, if any
	if cfg.Logs.DefaultDirectory != "" {
		if _, err := scanMgr.StartScan(cfg.Logs.DefaultDirectory); err != nil {
			fmt.Printf("Warning: failed to scan default directory: %v\n", err)
		}
	}

	h := api.NewHandler(scanMgr, styles)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/status") || path == "/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
	}))

	if cfg.Advanced.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Advanced.CompressionLevel,
		}))
	}

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	// API routes, then the embedded frontend catch-all
	api.RegisterRoutes(e, h)

	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			fmt.Printf("Warning: failed to register static routes: %v\n", err)
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("Ökofen Log Viewer %s (built %s)\n", Version, BuildTime)
	fmt.Printf("  Config: %s\n", configPath)
	fmt.Printf("  Listen: http://%s\n", cfg.GetServerAddr())
	if cfg.Logs.DefaultDirectory != "" {
		fmt.Printf("  Logs:   %s\n", cfg.Logs.DefaultDirectory)
	}
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}
