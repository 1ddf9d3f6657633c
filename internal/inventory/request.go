package inventory

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
)

// tagList accepts either a JSON array or a comma separated string.
type tagList []string

func (t *tagList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("tags must be a string or an array of strings")
	}
	*t = splitTags(s)
	return nil
}

func splitTags(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SareeRequest is the body of create and update calls.
type SareeRequest struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Images      []string        `json:"images"`
	ImageURL    string          `json:"image_url"`
	Tags        tagList         `json:"tags"`
	Description string          `json:"description"`
	AutoTags    bool            `json:"auto_tags"`

	files []*multipart.FileHeader
}

func (r SareeRequest) input() ledger.ItemInput {
	images := r.Images
	if r.ImageURL != "" {
		images = append([]string{r.ImageURL}, images...)
	}
	tags := []string(r.Tags)
	if r.AutoTags {
		tags = mergeTags(tags, AutoTags(r.Name, r.Type))
	}
	return ledger.ItemInput{
		Name:        r.Name,
		Type:        r.Type,
		Price:       r.Price,
		Quantity:    r.Quantity,
		Images:      images,
		Tags:        tags,
		Description: r.Description,
	}
}

// bindSaree reads a JSON body or a multipart form with "images" file parts.
func bindSaree(c *gin.Context) (SareeRequest, error) {
	var req SareeRequest
	if c.ContentType() != "multipart/form-data" {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, domain.Invalid("body", err.Error())
		}
		return req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return req, domain.Invalid("body", err.Error())
	}
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	req.Name = value("name")
	req.Type = value("type")
	req.Description = value("description")
	req.ImageURL = value("image_url")
	req.Images = form.Value["image_urls"]
	if v, ok := form.Value["tags"]; ok {
		req.Tags = tagList{}
		for _, s := range v {
			req.Tags = append(req.Tags, splitTags(s)...)
		}
	}
	req.AutoTags, _ = strconv.ParseBool(value("auto_tags"))

	if v := value("price"); v != "" {
		if req.Price, err = decimal.NewFromString(v); err != nil {
			return req, domain.Invalid("price", "must be a number")
		}
	}
	if v := value("quantity"); v != "" {
		if req.Quantity, err = strconv.Atoi(v); err != nil {
			return req, domain.Invalid("quantity", "must be a whole number")
		}
	}

	req.files = form.File["images"]
	return req, nil
}

// ifMatch reads the expected version from If-Match. Absent means 0.
func ifMatch(c *gin.Context) (int, error) {
	h := strings.TrimSpace(c.GetHeader("If-Match"))
	if h == "" || h == "*" {
		return 0, nil
	}
	h = strings.TrimPrefix(h, "W/")
	h = strings.Trim(h, `"`)
	v, err := strconv.Atoi(h)
	if err != nil || v < 1 {
		return 0, domain.Invalid("If-Match", "must be a saree version")
	}
	return v, nil
}

func etag(version int) string {
	return `"` + strconv.Itoa(version) + `"`
}
