package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightapp/api"
	"github.com/Domenick1991/flightapp/config"
	"github.com/Domenick1991/flightapp/internal/service/flights"
	"github.com/Domenick1991/flightapp/internal/service/tickets"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, flightSvc flights.FlightUseCase, ticketSvc tickets.TicketUseCase) error {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	group := router.Group("/flight")
	api.NewFlightHandler(flightSvc).Register(group)
	api.NewTicketHandler(ticketSvc).Register(group)

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger-spec", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger-spec/flightapp.swagger.json"),
		)))
	}

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
