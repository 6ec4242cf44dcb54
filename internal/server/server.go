package server

import (
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa/internal/agent"
	"docqa/internal/domain"
	"docqa/internal/index"
	"docqa/internal/service"
)

// User-facing messages for the refusal taxonomy. NoDocument and
// NoRelevantContent must stay distinguishable for the user.
const (
	msgNoDocument        = "No document has been uploaded yet. Please upload a document first."
	msgNoRelevantContent = "I'm sorry, but the provided document does not contain information relevant to your question. Please try rephrasing your question or upload a different document."
	msgGenerationFailed  = "An error occurred while generating the answer. Please try again."
)

var allowedExtensions = map[string]bool{".txt": true, ".md": true, ".text": true}

// Server exposes the upload, chat and health endpoints over HTTP.
type Server struct {
	engine *gin.Engine
	ingest *service.IngestService
	loop   *agent.Loop
	index  *index.Index
	log    *log.Logger
}

// New wires the HTTP routes.
func New(ingest *service.IngestService, loop *agent.Loop, idx *index.Index, logger *log.Logger) *Server {
	s := &Server{
		engine: gin.Default(),
		ingest: ingest,
		loop:   loop,
		index:  idx,
		log:    logger,
	}
	s.engine.POST("/upload", s.handleUpload)
	s.engine.POST("/chat", s.handleChat)
	s.engine.GET("/health", s.handleHealth)
	return s
}

// Engine returns the underlying router, used by tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	if s.log != nil {
		s.log.Printf("listening on %s", addr)
	}
	return s.engine.Run(addr)
}

type chatRequest struct {
	Question string `json:"question"`
	Debug    bool   `json:"debug"`
}

type debugInfo struct {
	TotalRetrieved int      `json:"total_retrieved"`
	RelevantCount  int      `json:"relevant_count"`
	ChunkScores    []string `json:"chunk_scores"`
	RoundsUsed     int      `json:"rounds_used"`
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "file is required"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"message": "only .txt, .md and .text files are supported"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	result, err := s.ingest.Ingest(c.Request.Context(), file.Filename, string(content))
	if err != nil {
		if s.log != nil {
			s.log.Printf("upload of %q failed: %v", file.Filename, err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error processing document: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "document processed and index ready.",
		"passages_created": result.Passages,
		"summary":          result.Summary,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "question is required"})
		return
	}
	if !s.index.Ready() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please upload a document first"})
		return
	}

	outcome, err := s.loop.Answer(c.Request.Context(), req.Question)
	if err != nil {
		if s.log != nil {
			s.log.Printf("chat failed: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	resp := gin.H{"answer": answerMessage(outcome)}
	if req.Debug {
		resp["debug_info"] = buildDebugInfo(outcome)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"index_ready": s.index.Ready(),
	})
}

func answerMessage(outcome domain.Outcome) string {
	if outcome.Answered {
		return outcome.Answer
	}
	switch outcome.Reason {
	case domain.RefusalNoDocument:
		return msgNoDocument
	case domain.RefusalGenerationFailed:
		return msgGenerationFailed
	default:
		return msgNoRelevantContent
	}
}

func buildDebugInfo(outcome domain.Outcome) debugInfo {
	scores := make([]string, len(outcome.Verdicts))
	relevant := 0
	for i, v := range outcome.Verdicts {
		switch {
		case v.Degraded:
			scores[i] = "error"
		case v.Relevant:
			scores[i] = "yes"
			relevant++
		default:
			scores[i] = "no"
		}
	}
	return debugInfo{
		TotalRetrieved: outcome.TotalRetrieved,
		RelevantCount:  relevant,
		ChunkScores:    scores,
		RoundsUsed:     outcome.RoundsUsed,
	}
}
