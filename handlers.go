package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unilife/qa-bot/internal"
)

const transcriptName = "unilife_conversation.txt"

func newEngine(a *app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(a.logger))

	origin := a.cfg.Server.AllowedOrigin
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	started := time.Now()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "uptime": time.Since(started).Round(time.Second).String()})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	r.GET("/api/kb", func(c *gin.Context) {
		c.JSON(http.StatusOK, internal.KnowledgeList{Questions: a.kb.Questions()})
	})

	r.GET("/api/settings", func(c *gin.Context) {
		c.JSON(http.StatusOK, internal.Settings{
			Modes:              []internal.Mode{internal.ModeProvider, internal.ModeRuleBased},
			DefaultModel:       a.router.DefaultModel,
			DefaultTemperature: a.router.DefaultTemperature,
			Adapters:           a.chain.Names(),
		})
	})

	r.POST("/api/ask", func(c *gin.Context) {
		var req internal.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
		mode, err := internal.ParseMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ans, ok := a.router.Answer(c.Request.Context(), internal.Query{
			Mode:        mode,
			Question:    req.Question,
			Credential:  req.APIKey,
			Model:       req.Model,
			Temperature: req.Temperature,
		})
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
			return
		}

		turn := a.history.Append(mode, strings.TrimSpace(req.Question), ans.Text)
		c.JSON(http.StatusOK, internal.AskResponse{
			Answer:           ans.Text,
			CredentialSource: ans.CredentialSource,
			Turn:             turn,
		})
	})

	r.GET("/api/history", func(c *gin.Context) {
		c.JSON(http.StatusOK, internal.ChatHistory{Turns: a.history.All()})
	})

	r.DELETE("/api/history", func(c *gin.Context) {
		a.history.Reset()
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET("/api/history/export", func(c *gin.Context) {
		if a.history.Len() == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no conversation to export"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+transcriptName+`"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(a.history.Transcript()))
	})

	return r
}

// requestLogger logs method, path and status. Bodies are never logged since
// they can carry an api_key.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
