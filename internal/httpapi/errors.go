package httpapi

import (
	"errors"
	"net/http"

	"github.com/HendryAvila/phasegate/internal/session"
	"github.com/HendryAvila/phasegate/internal/storage"
	"github.com/gin-gonic/gin"
)

// writeError maps an error to a status code and an {"error": ...} body.
func writeError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if msg, ok := storage.Message(err); ok {
		c.JSON(storageStatus(msg), gin.H{"error": msg})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func storageStatus(msg string) int {
	switch msg {
	case storage.MsgFull:
		return http.StatusInsufficientStorage
	case storage.MsgLoad:
		return http.StatusInternalServerError
	default:
		return http.StatusServiceUnavailable
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// mapped reports whether writeError has a specific status for err.
func mapped(err error) bool {
	if errors.Is(err, session.ErrProjectNotFound) {
		return true
	}
	_, ok := storage.Message(err)
	return ok
}
