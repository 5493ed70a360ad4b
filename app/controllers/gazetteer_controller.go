package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/app/responses"
	"github.com/address-resolver/app/services"
	"github.com/address-resolver/internal/gazetteer"
	"github.com/address-resolver/internal/search"
)

// GazetteerController tra cứu cây hành chính
type GazetteerController struct {
	gazetteerService *services.GazetteerService
	logger           *zap.Logger
}

// NewGazetteerController tạo mới GazetteerController
func NewGazetteerController(gazetteerService *services.GazetteerService, logger *zap.Logger) *GazetteerController {
	return &GazetteerController{gazetteerService: gazetteerService, logger: logger}
}

// GetEntity lấy một đơn vị hành chính theo id
func (gc *GazetteerController) GetEntity(c *gin.Context) {
	e, err := gc.gazetteerService.Lookup(c.Param("id"))
	if err != nil {
		gc.lookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, newEntityResponse(e))
}

// GetChildren các đơn vị con, id "root" là các đơn vị cấp 1
func (gc *GazetteerController) GetChildren(c *gin.Context) {
	id := c.Param("id")
	children, err := gc.gazetteerService.Children(id)
	if err != nil {
		gc.lookupError(c, err)
		return
	}

	entities := make([]responses.EntityResponse, 0, len(children))
	for _, e := range children {
		entities = append(entities, newEntityResponse(e))
	}
	c.JSON(http.StatusOK, responses.EntityListResponse{
		ParentID: id,
		Entities: entities,
		Total:    len(entities),
	})
}

// Search tìm đơn vị theo tên: ?q=&level=&parent_id=&limit=
func (gc *GazetteerController) Search(c *gin.Context) {
	var q search.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("INVALID_REQUEST", "Query không hợp lệ: "+err.Error()))
		return
	}

	hits, err := gc.gazetteerService.Search(c.Request.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			c.JSON(http.StatusBadRequest, responses.NewErrorResponse("EMPTY_QUERY", err.Error()))
		case errors.Is(err, services.ErrGazetteerMissing):
			c.JSON(http.StatusServiceUnavailable, responses.NewErrorResponse("GAZETTEER_NOT_LOADED", err.Error()))
		default:
			gc.logger.Error("Lỗi tìm kiếm gazetteer", zap.Error(err))
			c.JSON(http.StatusInternalServerError, responses.NewErrorResponse("SEARCH_ERROR", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Tìm kiếm thành công", hits))
}

// GetStats thống kê gazetteer đang dùng
func (gc *GazetteerController) GetStats(c *gin.Context) {
	stats, err := gc.gazetteerService.Stats()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, responses.NewErrorResponse("GAZETTEER_NOT_LOADED", err.Error()))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (gc *GazetteerController) lookupError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrGazetteerMissing) {
		c.JSON(http.StatusServiceUnavailable, responses.NewErrorResponse("GAZETTEER_NOT_LOADED", err.Error()))
		return
	}
	c.JSON(http.StatusNotFound, responses.NewErrorResponse("ENTITY_NOT_FOUND", err.Error()))
}

func newEntityResponse(e *gazetteer.Entity) responses.EntityResponse {
	path := make([]models.AdminRef, 0, e.Level())
	for _, p := range e.Path() {
		path = append(path, models.AdminRef{ID: p.ID(), Name: p.Name(), Type: p.Type(), Level: p.Level()})
	}
	return responses.EntityResponse{
		ID:          e.ID(),
		Name:        e.Name(),
		Type:        e.Type(),
		Level:       e.Level(),
		Status:      e.Status().String(),
		RedirectID:  e.RedirectID(),
		Aliases:     e.Aliases(),
		HasChildren: e.HasChildren(),
		Path:        path,
	}
}
