package inventory

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/analytics"
	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/pkg/activitylog"
	"github.com/yuditriaji/ruhmrita-backend/pkg/response"
	"github.com/yuditriaji/ruhmrita-backend/pkg/storage"
)

type Handler struct {
	ledger      *ledger.Ledger
	uploader    storage.Uploader
	activity    *activitylog.Logger
	placeholder string
	lowStock    int
	log         *zap.Logger
}

// Options carries the display settings of the inventory endpoints.
type Options struct {
	PlaceholderImageURL string
	LowStockThreshold   int
}

func NewHandler(l *ledger.Ledger, uploader storage.Uploader, activity *activitylog.Logger, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = analytics.DefaultLowStockThreshold
	}
	return &Handler{
		ledger:      l,
		uploader:    uploader,
		activity:    activity,
		placeholder: opts.PlaceholderImageURL,
		lowStock:    opts.LowStockThreshold,
		log:         log,
	}
}

// List returns the catalog, filtered by q, type, min_price, max_price, in_stock and low_stock
func (h *Handler) List(c *gin.Context) {
	filter := analytics.ItemFilter{
		Query:             c.Query("q"),
		Type:              c.Query("type"),
		LowStockThreshold: h.lowStock,
	}
	for key, dst := range map[string]**decimal.Decimal{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			response.Error(c, h.log, domain.Invalid(key, "must be a number"))
			return
		}
		*dst = &d
	}
	filter.InStockOnly, _ = strconv.ParseBool(c.Query("in_stock"))
	filter.LowStockOnly, _ = strconv.ParseBool(c.Query("low_stock"))

	items, err := h.ledger.Items(c.Request.Context())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	response.OK(c, http.StatusOK, analytics.FilterItems(items, filter))
}

// Get returns one saree with its version as ETag
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	item, err := h.ledger.Item(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	c.Header("ETag", etag(item.Version))
	response.OK(c, http.StatusOK, item)
}

// Create adds a saree from JSON or a multipart form with image files
func (h *Handler) Create(c *gin.Context) {
	req, err := bindSaree(c)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	in := req.input()
	if err := ledger.ValidateItem(in); err != nil {
		response.Error(c, h.log, err)
		return
	}
	in.Images = append(in.Images, h.uploadAll(c, req)...)
	if len(in.Images) == 0 && h.placeholder != "" {
		in.Images = []string{h.placeholder}
	}

	item, err := h.ledger.Add(c.Request.Context(), in)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	h.activity.LogCreate(c, "saree", item.ID, item)
	c.Header("ETag", etag(item.Version))
	response.OK(c, http.StatusCreated, item)
}

// Update replaces a saree. Omitted images or tags keep their current values.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	version, err := ifMatch(c)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	req, err := bindSaree(c)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	current, err := h.ledger.Item(ctx, id)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	in := req.input()
	if req.Images == nil && req.ImageURL == "" {
		in.Images = current.Images
	}
	if req.Tags == nil && !req.AutoTags {
		in.Tags = current.Tags
	}
	if err := ledger.ValidateItem(in); err != nil {
		response.Error(c, h.log, err)
		return
	}
	in.Images = append(in.Images, h.uploadAll(c, req)...)

	item, err := h.ledger.Update(ctx, id, in, version)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	h.activity.LogUpdate(c, "saree", id, current, item)
	c.Header("ETag", etag(item.Version))
	response.OK(c, http.StatusOK, item)
}

// Delete removes a saree. Its sales stay in the history.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	current, err := h.ledger.Item(ctx, id)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	if err := h.ledger.Delete(ctx, id); err != nil {
		response.Error(c, h.log, err)
		return
	}

	h.activity.LogDelete(c, "saree", id, current)
	response.OK(c, http.StatusOK, gin.H{"id": id})
}

// uploadAll stores the multipart images. A failed upload is replaced by the placeholder.
func (h *Handler) uploadAll(c *gin.Context, req SareeRequest) []string {
	var urls []string
	for _, fh := range req.files {
		url, err := h.upload(c, fh)
		if err != nil {
			h.log.Warn("Image upload failed, using placeholder",
				zap.String("file", fh.Filename),
				zap.Error(err),
			)
			if h.placeholder != "" {
				urls = append(urls, h.placeholder)
			}
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

func (h *Handler) upload(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	if h.uploader == nil {
		return "", errors.New("no image storage configured")
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return h.uploader.Upload(c.Request.Context(), storage.ObjectName(fh.Filename), fh.Header.Get("Content-Type"), f)
}

func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.log, domain.Invalid("id", "must be a valid id"))
		return uuid.Nil, false
	}
	return id, true
}
