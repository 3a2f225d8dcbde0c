// ================== internal/features/items/handler.go ==================
package items

// Swagger API metadata is defined globally in cmd/api/main.go

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xyz-asif/lostfound/internal/pkg/imaging"
	"github.com/xyz-asif/lostfound/internal/pkg/logger"
	"github.com/xyz-asif/lostfound/internal/pkg/pagination"
	"github.com/xyz-asif/lostfound/internal/pkg/response"
	appErrors "github.com/xyz-asif/lostfound/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func label(status Status) string {
	if status == StatusLost {
		return "Lost"
	}
	return "Found"
}

// ReportLost godoc
// @Summary Report a lost item
// @Description Create a lost item and propose a match against found items with a similar name at the same location
// @Tags items
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Item name"
// @Param location formData string true "Where it was lost"
// @Param description formData string false "Description"
// @Param date formData string false "Date (YYYY-MM-DD)"
// @Param image formData file false "Photo (jpg, jpeg, png, gif, webp up to 10MB)"
// @Success 201 {object} response.APIResponse{data=ReportResult}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/lost [post]
func (h *Handler) ReportLost(c *gin.Context) {
	h.report(c, StatusLost)
}

// ReportFound godoc
// @Summary Report a found item
// @Description Create a found item and propose a match against lost items with a similar name at the same location
// @Tags items
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Item name"
// @Param location formData string true "Where it was found"
// @Param description formData string false "Description"
// @Param date formData string false "Date (YYYY-MM-DD)"
// @Param image formData file false "Photo (jpg, jpeg, png, gif, webp up to 10MB)"
// @Success 201 {object} response.APIResponse{data=ReportResult}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/found [post]
func (h *Handler) ReportFound(c *gin.Context) {
	h.report(c, StatusFound)
}

func (h *Handler) report(c *gin.Context, status Status) {
	owner, ok := requesterID(c)
	if !ok {
		return
	}

	in, image, closeImage, ok := bindInput(c)
	if !ok {
		return
	}
	defer closeImage()

	result, err := h.service.Report(c.Request.Context(), owner, status, in, image)
	if err != nil {
		h.fail(c, err, "Error reporting "+strings.ToLower(label(status))+" item")
		return
	}

	response.Created(c, result, label(status)+" item reported")
}

// ListLost godoc
// @Summary List my lost items
// @Description Lost items reported by the caller, with the matched item and its reporter
// @Tags items
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=[]ItemView}
// @Failure 401 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/lost [get]
func (h *Handler) ListLost(c *gin.Context) {
	h.listOwn(c, StatusLost)
}

// ListFound godoc
// @Summary List my found items
// @Description Found items reported by the caller, with the matched item and its reporter
// @Tags items
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=[]ItemView}
// @Failure 401 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/found [get]
func (h *Handler) ListFound(c *gin.Context) {
	h.listOwn(c, StatusFound)
}

func (h *Handler) listOwn(c *gin.Context, status Status) {
	owner, ok := requesterID(c)
	if !ok {
		return
	}

	views, err := h.service.ListOwn(c.Request.Context(), owner, status)
	if err != nil {
		h.fail(c, err, "Error fetching "+strings.ToLower(label(status))+" items")
		return
	}

	response.Success(c, views)
}

// UpdateLost godoc
// @Summary Update my lost item
// @Description Empty fields keep their value. Not allowed once the match is verified.
// @Tags items
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param name formData string false "Item name"
// @Param location formData string false "Location"
// @Param description formData string false "Description"
// @Param date formData string false "Date (YYYY-MM-DD)"
// @Param image formData file false "Replacement photo"
// @Success 200 {object} response.APIResponse{data=ReportResult}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/lost/{id} [put]
func (h *Handler) UpdateLost(c *gin.Context) {
	h.update(c, StatusLost)
}

// UpdateFound godoc
// @Summary Update my found item
// @Description Empty fields keep their value. Not allowed once the match is verified.
// @Tags items
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param name formData string false "Item name"
// @Param location formData string false "Location"
// @Param description formData string false "Description"
// @Param date formData string false "Date (YYYY-MM-DD)"
// @Param image formData file false "Replacement photo"
// @Success 200 {object} response.APIResponse{data=ReportResult}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/found/{id} [put]
func (h *Handler) UpdateFound(c *gin.Context) {
	h.update(c, StatusFound)
}

func (h *Handler) update(c *gin.Context, status Status) {
	owner, ok := requesterID(c)
	if !ok {
		return
	}
	notFound := label(status) + " item not found or not authorized"

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, notFound, "ITEM_NOT_FOUND")
		return
	}

	in, image, closeImage, ok := bindInput(c)
	if !ok {
		return
	}
	defer closeImage()

	result, err := h.service.Update(c.Request.Context(), owner, status, id, in, image)
	if err != nil {
		h.failNotFound(c, err, notFound, "Error updating "+strings.ToLower(label(status))+" item")
		return
	}

	response.Success(c, result, label(status)+" item updated")
}

// DeleteLost godoc
// @Summary Delete my lost item
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/lost/{id} [delete]
func (h *Handler) DeleteLost(c *gin.Context) {
	h.delete(c, StatusLost)
}

// DeleteFound godoc
// @Summary Delete my found item
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/found/{id} [delete]
func (h *Handler) DeleteFound(c *gin.Context) {
	h.delete(c, StatusFound)
}

func (h *Handler) delete(c *gin.Context, status Status) {
	owner, ok := requesterID(c)
	if !ok {
		return
	}
	notFound := label(status) + " item not found or not authorized"

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, notFound, "ITEM_NOT_FOUND")
		return
	}

	if err := h.service.Delete(c.Request.Context(), owner, status, id); err != nil {
		h.failNotFound(c, err, notFound, "Error deleting "+strings.ToLower(label(status))+" item")
		return
	}

	response.Success(c, nil, label(status)+" item deleted successfully")
}

// Matches godoc
// @Summary List my pending matches
// @Description Caller's items that are linked and still pending, with the counterpart and its reporter
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=[]ItemView}
// @Failure 401 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/matches [get]
func (h *Handler) Matches(c *gin.Context) {
	owner, ok := requesterID(c)
	if !ok {
		return
	}

	views, err := h.service.PendingMatches(c.Request.Context(), owner)
	if err != nil {
		h.fail(c, err, "Error fetching matches")
		return
	}

	response.Success(c, views)
}

// Dashboard godoc
// @Summary My dashboard
// @Description Caller's lost items with their matches
// @Tags items
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	owner, ok := requesterID(c)
	if !ok {
		return
	}

	views, err := h.service.Dashboard(c.Request.Context(), owner)
	if err != nil {
		h.fail(c, err, "Error fetching items")
		return
	}

	response.Success(c, gin.H{"lostItems": views})
}

// Verify godoc
// @Summary Verify a match
// @Description Marks the caller's item and its counterpart as verified
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/verify/{id} [put]
func (h *Handler) Verify(c *gin.Context) {
	requester, ok := requesterID(c)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Item not found", "ITEM_NOT_FOUND")
		return
	}

	if err := h.service.Verify(c.Request.Context(), id, requester); err != nil {
		h.failNotFound(c, err, "Item not found", "Error verifying match")
		return
	}

	response.Success(c, nil, "Match verified")
}

// Reject godoc
// @Summary Reject a match
// @Description Drops the item's link and leaves it pending. The token identifies the caller only; any authenticated user may reject any item.
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /items/reject/{id} [put]
func (h *Handler) Reject(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Item not found", "ITEM_NOT_FOUND")
		return
	}

	if err := h.service.Reject(c.Request.Context(), id); err != nil {
		h.failNotFound(c, err, "Item not found", "Failed to reject match")
		return
	}

	response.Success(c, nil, "Match rejected")
}

// Verified godoc
// @Summary List verified items
// @Tags matches
// @Produce json
// @Success 200 {object} response.APIResponse{data=[]ItemView}
// @Failure 500 {object} response.APIResponse
// @Router /items/verified [get]
func (h *Handler) Verified(c *gin.Context) {
	views, err := h.service.Verified(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Error fetching verified items")
		return
	}

	response.Success(c, views)
}

// AllLost godoc
// @Summary List everyone's lost items
// @Tags items
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.APIResponse{data=response.PaginatedData{items=[]ItemView}}
// @Failure 500 {object} response.APIResponse
// @Router /items/all-lost [get]
func (h *Handler) AllLost(c *gin.Context) {
	h.listAll(c, StatusLost)
}

// AllFound godoc
// @Summary List everyone's found items
// @Tags items
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.APIResponse{data=response.PaginatedData{items=[]ItemView}}
// @Failure 500 {object} response.APIResponse
// @Router /items/all-found [get]
func (h *Handler) AllFound(c *gin.Context) {
	h.listAll(c, StatusFound)
}

func (h *Handler) listAll(c *gin.Context, status Status) {
	page := pagination.FromRequest(c.Query("page"), c.Query("limit"))

	views, total, err := h.service.ListAll(c.Request.Context(), status, page)
	if err != nil {
		h.fail(c, err, "Error fetching "+strings.ToLower(label(status))+" items")
		return
	}

	response.Paginated(c, views, total, page.Limit, page.Page)
}

func requesterID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Invalid token", "INVALID_TOKEN")
		return primitive.NilObjectID, false
	}
	return id, true
}

// bindInput reads the item fields and the optional "image" file
func bindInput(c *gin.Context) (ItemInput, io.Reader, func(), bool) {
	noop := func() {}

	var in ItemInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&in); err != nil {
			response.BindError(c, err)
			return in, nil, noop, false
		}
	}

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return in, nil, noop, true
	}

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, noop, true
	}
	if err != nil {
		response.BadRequest(c, "Invalid image upload", "INVALID_IMAGE")
		return in, nil, noop, false
	}
	if err := imaging.ValidateHeader(header); err != nil {
		response.BadRequest(c, err.Error(), "INVALID_IMAGE")
		return in, nil, noop, false
	}

	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, "Invalid image upload", "INVALID_IMAGE")
		return in, nil, noop, false
	}
	return in, file, func() { _ = file.Close() }, true
}

func (h *Handler) failNotFound(c *gin.Context, err error, notFound, fallback string) {
	if errors.Is(err, appErrors.ErrNotFound) {
		response.NotFound(c, notFound, "ITEM_NOT_FOUND")
		return
	}
	h.fail(c, err, fallback)
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	var inputErr *InputError
	switch {
	case errors.As(err, &inputErr):
		response.ValidationFailed(c, inputErr.Message)
	case errors.Is(err, imaging.ErrInvalidImage):
		response.BadRequest(c, err.Error(), "INVALID_IMAGE")
	case errors.Is(err, ErrMatchVerified):
		response.BadRequest(c, "Cannot update after verification", "MATCH_VERIFIED")
	case errors.Is(err, appErrors.ErrConflict):
		response.Error(c, http.StatusConflict, "Item changed, try again", "CONFLICT")
	case errors.Is(err, appErrors.ErrNotFound):
		response.NotFound(c, "Item not found", "ITEM_NOT_FOUND")
	default:
		logger.Error(fallback, zap.Error(err), zap.String("path", c.FullPath()))
		_ = c.Error(err)
		response.DatabaseError(c, fallback)
	}
}
