package handler

import (
	"log/slog"
	"net/http"

	"attrschema/internal/delivery/api/response"
	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"
	"attrschema/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// DefinitionHandlerParams holds dependencies for DefinitionHandler, injected by Fx.
type DefinitionHandlerParams struct {
	fx.In

	DefinitionUC usecase.DefinitionUsecase
	Logger       *slog.Logger
}

// DefinitionHandler serves the attribute definition and group endpoints.
type DefinitionHandler struct {
	definitionUC usecase.DefinitionUsecase
	logger       *slog.Logger
}

// NewDefinitionHandler is the constructor for DefinitionHandler
func NewDefinitionHandler(params DefinitionHandlerParams) *DefinitionHandler {
	return &DefinitionHandler{
		definitionUC: params.DefinitionUC,
		logger:       params.Logger,
	}
}

// ChangeStatusRequest is the body of a single status change.
type ChangeStatusRequest struct {
	Status entity.Status `json:"status" validate:"required"`
	Reason string        `json:"reason,omitempty" validate:"max=500"`
}

// BulkStatusRequest is the body of a bulk status change.
type BulkStatusRequest struct {
	IDs    []uuid.UUID   `json:"ids" validate:"required,min=1,max=500"`
	Status entity.Status `json:"status" validate:"required"`
	Reason string        `json:"reason,omitempty" validate:"max=500"`
}

// ReorderRequest maps definition ids to their new placement.
type ReorderRequest struct {
	Placements map[uuid.UUID]usecase.Placement `json:"placements" validate:"required,min=1"`
}

// DuplicateRequest names the group receiving the copy; empty keeps the source group.
type DuplicateRequest struct {
	Group string `json:"group,omitempty" validate:"max=64"`
}

// Create handles POST /definitions
func (h *DefinitionHandler) Create(c echo.Context) error {
	var input usecase.DefinitionInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid definition input")
	}

	def, err := h.definitionUC.Create(c.Request().Context(), &input)
	if err != nil {
		return err
	}

	return response.Created(c, def)
}

// List handles GET /definitions
func (h *DefinitionHandler) List(c echo.Context) error {
	filter, err := definitionFilterFromQuery(c)
	if err != nil {
		return err
	}

	page, err := h.definitionUC.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return response.Page(c, page.Items, page.Total, page.Limit, page.Offset)
}

func definitionFilterFromQuery(c echo.Context) (repository.DefinitionFilter, error) {
	filter := repository.DefinitionFilter{
		Kinds:   queryList(c, "kind"),
		Groups:  queryList(c, "group"),
		Search:  c.QueryParam("search"),
		OrderBy: c.QueryParam("order_by"),
	}
	for _, status := range queryList(c, "status") {
		filter.Statuses = append(filter.Statuses, entity.Status(status))
	}

	var err error
	if filter.Searchable, err = queryOptionalBool(c, "searchable"); err != nil {
		return filter, err
	}
	if filter.Public, err = queryOptionalBool(c, "public"); err != nil {
		return filter, err
	}
	if filter.Desc, err = queryBool(c, "desc"); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(c, "limit", 0); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(c, "offset", 0); err != nil {
		return filter, err
	}

	return filter, nil
}

// Get handles GET /definitions/:id
func (h *DefinitionHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	def, err := h.definitionUC.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return response.OK(c, def)
}

// GetByName handles GET /definitions/by-name/:name
func (h *DefinitionHandler) GetByName(c echo.Context) error {
	def, err := h.definitionUC.GetByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}

	return response.OK(c, def)
}

// Update handles PUT /definitions/:id. Fields missing from the body keep their
// stored value. force=true is required to change a system definition.
func (h *DefinitionHandler) Update(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	force, err := queryBool(c, "force")
	if err != nil {
		return err
	}

	var input usecase.DefinitionInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid definition input")
	}

	def, err := h.definitionUC.Update(c.Request().Context(), id, &input, force)
	if err != nil {
		return err
	}

	return response.OK(c, def)
}

// Delete handles DELETE /definitions/:id. A definition with stored values is
// deprecated instead and the error handler answers 202 with the usage count.
func (h *DefinitionHandler) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	force, err := queryBool(c, "force")
	if err != nil {
		return err
	}

	if err := h.definitionUC.Delete(c.Request().Context(), id, force); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// ChangeStatus handles POST /definitions/:id/status
func (h *DefinitionHandler) ChangeStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req ChangeStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	def, err := h.definitionUC.ChangeStatus(c.Request().Context(), id, req.Status, req.Reason)
	if err != nil {
		return err
	}

	return response.OK(c, def)
}

// BulkChangeStatus handles POST /definitions/status
func (h *DefinitionHandler) BulkChangeStatus(c echo.Context) error {
	var req BulkStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.definitionUC.BulkChangeStatus(c.Request().Context(), req.IDs, req.Status, req.Reason)
	if err != nil {
		return err
	}

	return response.OK(c, result)
}

// Reorder handles POST /definitions/reorder
func (h *DefinitionHandler) Reorder(c echo.Context) error {
	var req ReorderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.definitionUC.Reorder(c.Request().Context(), req.Placements); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Duplicate handles POST /definitions/:id/duplicate
func (h *DefinitionHandler) Duplicate(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req DuplicateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	def, err := h.definitionUC.Duplicate(c.Request().Context(), id, req.Group)
	if err != nil {
		return err
	}

	return response.Created(c, def)
}

// History handles GET /definitions/:id/history
func (h *DefinitionHandler) History(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}

	records, err := h.definitionUC.History(c.Request().Context(), id, limit)
	if err != nil {
		return err
	}

	return response.OK(c, records)
}

// ListGroups handles GET /groups
func (h *DefinitionHandler) ListGroups(c echo.Context) error {
	groups, err := h.definitionUC.ListGroups(c.Request().Context())
	if err != nil {
		return err
	}

	return response.OK(c, groups)
}

// SaveGroup handles PUT /groups/:key
func (h *DefinitionHandler) SaveGroup(c echo.Context) error {
	var input usecase.GroupInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group input")
	}
	input.Key = c.Param("key")

	group, err := h.definitionUC.SaveGroup(c.Request().Context(), &input)
	if err != nil {
		return err
	}

	return response.OK(c, group)
}

// Stats handles GET /stats
func (h *DefinitionHandler) Stats(c echo.Context) error {
	stats, err := h.definitionUC.Stats(c.Request().Context())
	if err != nil {
		return err
	}

	return response.OK(c, stats)
}
