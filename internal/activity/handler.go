package activity

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/pkg/activitylog"
	"github.com/yuditriaji/ruhmrita-backend/pkg/response"
)

const defaultLimit = 100

type Handler struct {
	logger *activitylog.Logger
	log    *zap.Logger
}

func NewHandler(logger *activitylog.Logger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{logger: logger, log: log}
}

// List returns the newest audit entries, limit defaults to 100
func (h *Handler) List(c *gin.Context) {
	limit := defaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Error(c, h.log, domain.Invalid("limit", "must be a positive whole number"))
			return
		}
		limit = n
	}

	entries, err := h.logger.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, http.StatusOK, entries)
}
