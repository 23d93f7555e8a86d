package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/culprit/internal/model"
)

// Store is the narrow store contract required by the HTTP API.
type Store interface {
	model.StatisticsReader
	ExecuteQuery(query string) ([]map[string]interface{}, error)
	SchemaDescription() string
	TableRowCounts() (map[string]int64, error)
	RecentAttributions(ctx context.Context, limit int, testCase string) ([]model.AttributionRecord, error)
}

// Attributor attributes a test case directory on disk.
type Attributor interface {
	Attribute(ctx context.Context, dir string) (model.Verdict, error)
}

// Server provides an HTTP API over the statistics store and attributor.
type Server struct {
	addr       string
	store      Store
	attributor Attributor
	server     *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
	startTime  time.Time
}

// NewServer creates a new HTTP API server. attributor may be nil, in which
// case attribution requests are refused.
func NewServer(addr string, store Store, attributor Attributor) *Server {
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:       addr,
		store:      store,
		attributor: attributor,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/schema", s.handleSchema)
	r.POST("/api/query", s.handleQuery)
	r.GET("/api/lookup/:modality/:category/:value", s.handleLookup)
	r.POST("/api/attribute", s.handleAttribute)
	r.GET("/api/attributions", s.handleAttributions)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	counts, err := s.store.TableRowCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read health metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).String(),
		"row_counts": counts,
	})
}

func (s *Server) handleSchema(c *gin.Context) {
	description := s.store.SchemaDescription()

	tables, err := s.store.ExecuteQuery(
		"SELECT table_name, column_name, data_type FROM information_schema.columns WHERE table_schema = 'main' ORDER BY table_name, ordinal_position",
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read schema metadata"})
		return
	}

	schema := make(map[string][]map[string]string)
	for _, row := range tables {
		tableName := fmt.Sprintf("%v", row["table_name"])
		schema[tableName] = append(schema[tableName], map[string]string{
			"column": fmt.Sprintf("%v", row["column_name"]),
			"type":   fmt.Sprintf("%v", row["data_type"]),
		})
	}

	counts, err := s.store.TableRowCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read table row counts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"description": description,
		"tables":      schema,
		"row_counts":  counts,
	})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req struct {
		SQL string `json:"sql" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing sql field"})
		return
	}

	results, err := s.store.ExecuteQuery(req.SQL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var columns []string
	if len(results) > 0 {
		for col := range results[0] {
			columns = append(columns, col)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"columns":   columns,
		"rows":      results,
		"row_count": len(results),
	})
}

func (s *Server) handleLookup(c *gin.Context) {
	m, err := model.ParseModality(c.Param("modality"))
	if err != nil || m == model.NetworkCapture {
		c.JSON(http.StatusBadRequest, gin.H{"error": "modality must be host-security or host-monitoring"})
		return
	}
	cat, err := model.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	value, err := strconv.ParseInt(c.Param("value"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be an integer"})
		return
	}

	pred, err := s.store.Lookup(c.Request.Context(), m, cat, value)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"modality":   m.String(),
		"category":   cat.String(),
		"value":      value,
		"actor":      int(pred.Actor),
		"confidence": pred.Confidence,
		"matched":    pred.Actor != model.NoActor,
	})
}

func (s *Server) handleAttribute(c *gin.Context) {
	if s.attributor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attribution is not configured"})
		return
	}
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing path field"})
		return
	}

	v, err := s.attributor.Attribute(c.Request.Context(), req.Path)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, verdictBody(v))
}

func (s *Server) handleAttributions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.store.RecentAttributions(c.Request.Context(), limit, c.Query("case"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read attributions"})
		return
	}

	rows := make([]gin.H, 0, len(records))
	for _, r := range records {
		rows = append(rows, gin.H{
			"recorded_at":      r.Timestamp.UTC().Format(time.RFC3339Nano),
			"case":             r.Case,
			"actor":            int(r.Actor),
			"network_actor":    int(r.Network),
			"security_actor":   int(r.Security),
			"monitoring_actor": int(r.Monitoring),
			"tied":             r.Tied,
		})
	}
	c.JSON(http.StatusOK, gin.H{"attributions": rows, "count": len(rows)})
}

func verdictBody(v model.Verdict) gin.H {
	preds := make([]gin.H, 0, len(v.Predictions))
	for _, p := range v.Predictions {
		preds = append(preds, gin.H{
			"modality":   p.Modality.String(),
			"actor":      int(p.Actor),
			"confidence": p.Confidence,
		})
	}
	tied := make([]int, 0, len(v.Tied))
	for _, a := range v.Tied {
		tied = append(tied, int(a))
	}
	return gin.H{
		"case":        v.Case,
		"actor":       int(v.Actor),
		"tally":       v.Tally,
		"tied":        tied,
		"predictions": preds,
	}
}
