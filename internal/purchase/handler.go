package purchase

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/analytics"
	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/pkg/activitylog"
	"github.com/yuditriaji/ruhmrita-backend/pkg/response"
)

type Handler struct {
	ledger   *ledger.Ledger
	activity *activitylog.Logger
	loc      *time.Location
	log      *zap.Logger
}

func NewHandler(l *ledger.Ledger, activity *activitylog.Logger, loc *time.Location, log *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{ledger: l, activity: activity, loc: loc, log: log}
}

type CreatePurchaseRequest struct {
	SareeID  uuid.UUID       `json:"saree_id"`
	Quantity int             `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// List returns purchases newest first, optionally within from..to (YYYY-MM-DD, to inclusive)
func (h *Handler) List(c *gin.Context) {
	r, err := analytics.DayRange(c.Query("from"), c.Query("to"), h.loc)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	snap, err := h.ledger.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	out := make([]domain.Purchase, 0, len(snap.Purchases))
	for _, p := range snap.Purchases {
		if r.Contains(p.CreatedAt) {
			out = append(out, p)
		}
	}
	response.OK(c, http.StatusOK, out)
}

// Create books restocked units and adds them to the saree's quantity
func (h *Handler) Create(c *gin.Context) {
	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.log, domain.Invalid("body", err.Error()))
		return
	}

	p, err := h.ledger.RecordPurchase(c.Request.Context(), ledger.PurchaseInput{
		ItemID:   req.SareeID,
		Quantity: req.Quantity,
		UnitCost: req.UnitCost,
	})
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	h.activity.LogCreate(c, "purchase", p.ID, p)
	response.OK(c, http.StatusCreated, p)
}
