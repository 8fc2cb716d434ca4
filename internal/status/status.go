// Package status exposes an optional HTTP listener with health and index
// statistics endpoints. It is a read-only side channel for operators; the
// wire protocol on the TCP listener is not affected by it.
package status

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/huyhandes/pkgindexd/internal/index"
)

type Listener struct {
	store     *index.Store
	router    *gin.Engine
	srv       *http.Server
	startedAt time.Time
}

// Stats is the payload served on /stats.
type Stats struct {
	Packages      int            `json:"packages"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Counters      index.Counters `json:"counters"`
}

func New(store *index.Store, addr string) *Listener {
	gin.SetMode(gin.ReleaseMode)

	l := &Listener{
		store:     store,
		startedAt: time.Now(),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", l.handleHealthz)
	router.GET("/stats", l.handleStats)

	l.router = router
	l.srv = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return l
}

// Run serves until Shutdown. The http.ErrServerClosed sentinel from a clean
// shutdown is swallowed.
func (l *Listener) Run() error {
	log.Info().Str("address", l.srv.Addr).Msg("status listener starting")
	if err := l.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (l *Listener) Shutdown(ctx context.Context) error {
	return l.srv.Shutdown(ctx)
}

// Router returns the underlying gin engine, for tests.
func (l *Listener) Router() *gin.Engine {
	return l.router
}

func (l *Listener) handleHealthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (l *Listener) handleStats(c *gin.Context) {
	stats := Stats{
		Packages:      l.store.Len(),
		UptimeSeconds: time.Since(l.startedAt).Seconds(),
		Counters:      l.store.Counters(),
	}

	body, err := sonic.ConfigFastest.Marshal(stats)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}
