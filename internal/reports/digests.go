package reports

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/pkg/archive"
	"github.com/yuditriaji/ruhmrita-backend/pkg/response"
)

// DigestReader lists archived restock digests.
type DigestReader interface {
	Recent(ctx context.Context, limit int64) ([]archive.Digest, error)
}

type DigestHandler struct {
	digests DigestReader
	log     *zap.Logger
}

func NewDigestHandler(digests DigestReader, log *zap.Logger) *DigestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DigestHandler{digests: digests, log: log}
}

// List returns the newest archived digests, limit defaults to 30
func (h *DigestHandler) List(c *gin.Context) {
	limit := int64(30)
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			response.Error(c, h.log, domain.Invalid("limit", "must be a positive whole number"))
			return
		}
		limit = n
	}

	out, err := h.digests.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	if out == nil {
		out = []archive.Digest{}
	}
	response.OK(c, http.StatusOK, out)
}
