package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contacts-app/internal/bootstrap"
	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-app/internal/service"
	"gitlab.com/dirk.krummacker/contacts-app/internal/tui"
)

// With the local object store the app serves the images under /objects on the configured server
// address itself. If cmd/service already listens there, it serves them instead.
//
// Usage example on the command line:
// > DOCSTORE_DRIVER=redis REDIS_ADDR=localhost:6379 go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("could not load configuration", err)
		os.Exit(1)
	}
	lg, err := logger.New(cfg.Log, logger.ModeTUI)
	if err != nil {
		fmt.Println("could not create logger", err)
		os.Exit(1)
	}
	defer lg.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, lg)
	if err != nil {
		lg.Error("could not set up stores", zap.Error(err))
		fmt.Println("could not set up stores", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.ObjectsRoot != "" {
		srv := serveObjects(cfg.Server.Addr(), app.ObjectsRoot, lg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	p := tea.NewProgram(tui.New(ctx, app.Contacts, lg), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		lg.Error("program failed", zap.Error(err))
		fmt.Println(err)
	}
}

// serveObjects serves the local object store in the background. The terminal belongs to the app,
// so failures only go to the log.
func serveObjects(addr string, root string, lg *zap.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           service.SetupObjectsRouter(root, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Warn("not serving images", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return srv
}
