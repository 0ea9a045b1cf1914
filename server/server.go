package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zeu5/osm-deviation-rl/types"
)

// TableServer serves a learned table over HTTP for inspection
type TableServer struct {
	Addr   string
	ctx    context.Context
	server *http.Server
	logger *slog.Logger

	lock  *sync.RWMutex
	name  string
	table *types.QTable
}

// NewTableServer creates the server, it shuts down when ctx is cancelled
func NewTableServer(ctx context.Context, addr string, name string, table *types.QTable) *TableServer {
	s := &TableServer{
		Addr:   addr,
		ctx:    ctx,
		logger: slog.Default().With("component", "server"),
		lock:   new(sync.RWMutex),
		name:   name,
		table:  table,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/healthz", s.handleHealth)
	r.GET("/qtable", s.handleTable)
	r.PUT("/qtable", s.handleReplace)
	r.GET("/qtable/:key", s.handleRow)
	r.GET("/predict/:key", s.handlePredict)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler exposes the routes, mainly for tests
func (s *TableServer) Handler() http.Handler {
	return s.server.Handler
}

// SetTable swaps the served table
func (s *TableServer) SetTable(name string, table *types.QTable) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.name = name
	s.table = table
}

func (s *TableServer) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "addr", s.Addr, "error", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}()
}

func (s *TableServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *TableServer) handleTable(c *gin.Context) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	keys := s.table.Keys()
	states := make([]string, len(keys))
	for i, k := range keys {
		states[i] = k.String()
	}
	c.JSON(http.StatusOK, gin.H{
		"name":         s.name,
		"states":       s.table.Len(),
		"action_space": s.table.ActionSpace(),
		"keys":         states,
	})
}

// handleReplace loads a serialized table into the served one, all or nothing
func (s *TableServer) handleReplace(c *gin.Context) {
	bs, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request"})
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.table.Deserialize(bs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"states": s.table.Len()})
}

func (s *TableServer) handleRow(c *gin.Context) {
	key, ok := parseKeyParam(c)
	if !ok {
		return
	}
	s.lock.RLock()
	defer s.lock.RUnlock()

	row, ok := s.table.Row(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown state", "state": key.String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": key.String(), "values": row})
}

func (s *TableServer) handlePredict(c *gin.Context) {
	key, ok := parseKeyParam(c)
	if !ok {
		return
	}
	s.lock.RLock()
	defer s.lock.RUnlock()

	action := s.table.Predict(key)
	if action < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown state", "state": key.String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": key.String(), "action": action})
}

// keys are given as comma separated parts, "1,0,2" for (1, 0, 2)
func parseKeyParam(c *gin.Context) (types.StateKey, bool) {
	raw := strings.Trim(c.Param("key"), "()")
	key, err := types.ParseKey("(" + raw + ")")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return types.StateKey{}, false
	}
	return key, true
}
