package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/faceunlock/internal/faceprint"
	"github.com/example/faceunlock/internal/repository"
	"github.com/example/faceunlock/internal/usecase"
	"github.com/example/faceunlock/internal/verification"
)

// DefaultMaxPayloadSize caps request bodies when no limit is configured.
const DefaultMaxPayloadSize = 10 << 20

// imageRequest carries one encoded image, e.g. a base64 data URL from a
// camera capture.
type imageRequest struct {
	Image string `json:"image"`
}

type verifyResponse struct {
	verification.Result
	RequestID      string     `json:"requestId"`
	UnlockToken    string     `json:"unlockToken,omitempty"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
}

// RegisterRoutes wires the HTTP handlers to the Gin router. guard protects
// enrollment changes once a face is enrolled.
func RegisterRoutes(router *gin.Engine, uc *usecase.FaceUseCase, guard gin.HandlerFunc, maxPayload int64) {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayloadSize
	}
	limit := limitBody(maxPayload)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	face := router.Group("/api/face")
	face.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, uc.Status())
	})

	face.POST("/enroll", limit, guard, func(c *gin.Context) {
		req, ok := bindImage(c)
		if !ok {
			return
		}
		if req.Image == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
			return
		}

		status, err := uc.EnrollFace(c.Request.Context(), faceprint.PayloadFromString(req.Image))
		if err != nil {
			if errors.Is(err, usecase.ErrEmptyPayload) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enroll face"})
			return
		}
		c.JSON(http.StatusOK, status)
	})

	face.DELETE("/enroll", guard, func(c *gin.Context) {
		if err := uc.ClearFace(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear enrollment"})
			return
		}
		c.JSON(http.StatusOK, uc.Status())
	})

	face.POST("/verify", limit, func(c *gin.Context) {
		req, ok := bindImage(c)
		if !ok {
			return
		}

		out, err := uc.VerifyFace(c.Request.Context(), faceprint.PayloadFromString(req.Image))
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "verification unavailable"})
			return
		}

		resp := verifyResponse{Result: out.Result, RequestID: out.RequestID, UnlockToken: out.UnlockToken}
		if !out.TokenExpiresAt.IsZero() {
			resp.TokenExpiresAt = &out.TokenExpiresAt
		}
		c.JSON(http.StatusOK, resp)
	})

	face.GET("/results/:id", func(c *gin.Context) {
		stored, err := uc.GetResult(c.Request.Context(), c.Param("id"))
		switch {
		case errors.Is(err, usecase.ErrResultPending):
			c.JSON(http.StatusAccepted, gin.H{"status": "processing"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load result"})
		default:
			c.JSON(http.StatusOK, stored)
		}
	})

	face.GET("/metrics/summary", func(c *gin.Context) {
		summary, err := uc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate metrics"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func bindImage(c *gin.Context) (imageRequest, bool) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return req, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return req, false
	}
	return req, true
}
