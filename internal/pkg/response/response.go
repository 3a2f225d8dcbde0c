package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/xyz-asif/lostfound/internal/pkg/pagination"
)

// APIResponse is the envelope returned by every endpoint
type APIResponse struct {
	Success    bool        `json:"success" example:"true"`
	StatusCode int         `json:"statusCode" example:"200"`
	Message    string      `json:"message,omitempty" example:"ok"`
	Data       interface{} `json:"data,omitempty"`
	Code       string      `json:"code,omitempty" example:"VALIDATION_FAILED"`
}

// PaginatedData is the data payload of a paginated list
type PaginatedData struct {
	Items   interface{} `json:"items"`
	Total   int64       `json:"total" example:"25"`
	Limit   int         `json:"limit" example:"20"`
	Page    int         `json:"page" example:"1"`
	Pages   int         `json:"pages" example:"2"`
	HasNext bool        `json:"hasNext" example:"true"`
}

func write(c *gin.Context, status int, data interface{}, message, code string) {
	c.JSON(status, APIResponse{
		Success:    status < http.StatusBadRequest,
		StatusCode: status,
		Message:    message,
		Data:       data,
		Code:       code,
	})
}

func first(values []string) string {
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

// Success sends a 200 OK response with data
func Success(c *gin.Context, data interface{}, message ...string) {
	write(c, http.StatusOK, data, first(message), "")
}

// Created sends a 201 Created response
func Created(c *gin.Context, data interface{}, message ...string) {
	write(c, http.StatusCreated, data, first(message), "")
}

// Paginated sends a paginated response
func Paginated(c *gin.Context, items interface{}, total int64, limit int, page ...int) {
	pageNum := 1
	if len(page) > 0 {
		pageNum = page[0]
	}
	p := pagination.New(pageNum, limit, total)

	write(c, http.StatusOK, PaginatedData{
		Items:   items,
		Total:   p.Total,
		Limit:   p.Limit,
		Page:    p.Page,
		Pages:   p.Pages,
		HasNext: p.HasNext,
	}, "", "")
}

// Error sends an error response with custom status code and message
func Error(c *gin.Context, statusCode int, message string, errorCode ...string) {
	write(c, statusCode, nil, message, first(errorCode))
}

// ErrorWithData sends an error response carrying extra details
func ErrorWithData(c *gin.Context, statusCode int, message string, data interface{}, errorCode ...string) {
	write(c, statusCode, data, message, first(errorCode))
}

// BadRequest sends a 400 Bad Request error
func BadRequest(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusBadRequest, message, errorCode...)
}

// Unauthorized sends a 401 Unauthorized error
func Unauthorized(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusUnauthorized, message, errorCode...)
}

// NotFound sends a 404 Not Found error
func NotFound(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusNotFound, message, errorCode...)
}

// InternalServerError sends a 500 Internal Server Error
func InternalServerError(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusInternalServerError, message, errorCode...)
}

// ServiceUnavailable sends a 503 Service Unavailable error
func ServiceUnavailable(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusServiceUnavailable, message, errorCode...)
}

// BindError handles errors from ShouldBind. Failed binding tags become
// VALIDATION_FAILED naming the first offending field; anything else is a malformed body.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		ValidationFailed(c, fieldMessage(verrs[0]))
		return
	}
	BadRequest(c, "Invalid request format", "INVALID_REQUEST")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	if field != "" {
		field = strings.ToLower(field[:1]) + field[1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

// ValidationFailed handles validation errors
func ValidationFailed(c *gin.Context, message string) {
	BadRequest(c, message, "VALIDATION_FAILED")
}

// DatabaseError handles database operation errors
func DatabaseError(c *gin.Context, message string) {
	InternalServerError(c, message, "DATABASE_ERROR")
}
