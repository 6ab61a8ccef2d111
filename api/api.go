package api

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"oracle-node/messages"
	"oracle-node/store"

	"github.com/gin-gonic/gin"
	"github.com/tendermint/tendermint/libs/log"
)

// Clock returns the current time in milliseconds, used to derive query statuses.
type Clock func() int64

func WallClock() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// Server is a read only explorer over the committed oracle state.
type Server struct {
	store  *store.Store
	clock  Clock
	logger log.Logger
}

func NewServer(db *store.Store, clock Clock, logger log.Logger) *Server {
	return &Server{store: db, clock: clock, logger: logger.With("module", "api")}
}

// Router returns the gin engine serving the explorer routes.
func (server *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(server.logRequests)

	router.GET("/status", server.status)
	router.GET("/queries", server.queries)
	router.GET("/queries/:id", server.query)
	router.GET("/accounts/:address", server.account)
	return router
}

// Serve listens on address until ctx is cancelled.
func (server *Server) Serve(ctx context.Context, address string) error {
	httpServer := &http.Server{Addr: address, Handler: server.Router()}
	errs := make(chan error, 1)
	go func() {
		errs <- httpServer.ListenAndServe()
	}()
	server.logger.Info("Serving explorer", "address", address)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdown)
	}
}

func (server *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	server.logger.Debug("Served request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start))
}

func (server *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	server.logger.Error("Failed to read store", "path", c.Request.URL.Path, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (server *Server) status(c *gin.Context) {
	meta, err := server.store.Meta()
	if err != nil {
		server.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"height":   meta.Height,
		"app_hash": hex.EncodeToString(meta.AppHash),
		"time":     server.clock(),
	})
}

func (server *Server) queries(c *gin.Context) {
	queries, err := server.store.Queries()
	if err != nil {
		server.fail(c, err)
		return
	}
	now := server.clock()
	status := c.Query("status")
	records := make([]messages.QueryRecord, 0, len(queries))
	for _, query := range queries {
		record := messages.QueryRecord{Query: query, Status: query.Status(now).String()}
		if status != "" && record.Status != status {
			continue
		}
		records = append(records, record)
	}
	c.JSON(http.StatusOK, gin.H{"queries": records})
}

func (server *Server) query(c *gin.Context) {
	query, err := server.store.Query(c.Param("id"))
	if err != nil {
		server.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messages.QueryRecord{Query: query, Status: query.Status(server.clock()).String()})
}

func (server *Server) account(c *gin.Context) {
	address := c.Param("address")
	balances, err := server.store.Account(address)
	if errors.Is(err, store.ErrNotFound) {
		balances = map[string]int64{}
	} else if err != nil {
		server.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messages.Account{Address: address, Balances: balances})
}
