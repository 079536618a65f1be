package handler

import (
	"log/slog"
	"net/http"

	"attrschema/internal/attrkind"
	"attrschema/internal/delivery/api/response"
	"attrschema/internal/domain/entity"
	"attrschema/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ValueHandlerParams holds dependencies for ValueHandler, injected by Fx.
type ValueHandlerParams struct {
	fx.In

	ValueUC usecase.ValueUsecase
	Logger  *slog.Logger
}

// ValueHandler serves the per-principal value endpoints.
type ValueHandler struct {
	valueUC usecase.ValueUsecase
	logger  *slog.Logger
}

// NewValueHandler is the constructor for ValueHandler
func NewValueHandler(params ValueHandlerParams) *ValueHandler {
	return &ValueHandler{
		valueUC: params.ValueUC,
		logger:  params.Logger,
	}
}

// SaveValueRequest is the body of a single value write.
type SaveValueRequest struct {
	Value      any            `json:"value"`
	Privacy    entity.Privacy `json:"privacy,omitempty" validate:"omitempty,oneof=public members private"`
	IsVerified bool           `json:"is_verified,omitempty"`
}

// SubmitValuesRequest is a whole form submission keyed by definition name.
type SubmitValuesRequest struct {
	Values  map[string]any `json:"values" validate:"required"`
	Privacy entity.Privacy `json:"privacy,omitempty" validate:"omitempty,oneof=public members private"`
}

// List handles GET /principals/:principalId/values
func (h *ValueHandler) List(c echo.Context) error {
	principalID, err := pathUUID(c, "principalId")
	if err != nil {
		return err
	}

	values, err := h.valueUC.GetValues(c.Request().Context(), principalID)
	if err != nil {
		return err
	}

	return response.OK(c, values)
}

// Submit handles PUT /principals/:principalId/values. Field errors come
// back with 422 and nothing is stored.
func (h *ValueHandler) Submit(c echo.Context) error {
	principalID, err := pathUUID(c, "principalId")
	if err != nil {
		return err
	}
	var req SubmitValuesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.valueUC.SaveValues(c.Request().Context(), principalID, req.Values, req.Privacy)
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return response.Success(c, http.StatusUnprocessableEntity, result)
	}

	return response.OK(c, result)
}

// Save handles PUT /principals/:principalId/values/:definitionId
func (h *ValueHandler) Save(c echo.Context) error {
	principalID, err := pathUUID(c, "principalId")
	if err != nil {
		return err
	}
	definitionID, err := pathUUID(c, "definitionId")
	if err != nil {
		return err
	}
	var req SaveValueRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	value, err := h.valueUC.SaveValue(c.Request().Context(), &usecase.SaveValueInput{
		PrincipalID:  principalID,
		DefinitionID: definitionID,
		Value:        req.Value,
		Privacy:      req.Privacy,
		IsVerified:   req.IsVerified,
	})
	if err != nil {
		return err
	}

	return response.OK(c, value)
}

// Delete handles DELETE /principals/:principalId/values/:definitionId
func (h *ValueHandler) Delete(c echo.Context) error {
	principalID, err := pathUUID(c, "principalId")
	if err != nil {
		return err
	}
	definitionID, err := pathUUID(c, "definitionId")
	if err != nil {
		return err
	}

	if err := h.valueUC.DeleteValue(c.Request().Context(), principalID, definitionID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// RenderForm handles GET /principals/:principalId/forms/:group and returns
// an HTML fragment with one field per active definition of the group.
func (h *ValueHandler) RenderForm(c echo.Context) error {
	principalID, err := pathUUID(c, "principalId")
	if err != nil {
		return err
	}
	readOnly, err := queryBool(c, "readonly")
	if err != nil {
		return err
	}

	markup, err := h.valueUC.RenderForm(c.Request().Context(), principalID, c.Param("group"), attrkind.RenderArgs{
		IDPrefix: c.QueryParam("id_prefix"),
		ReadOnly: readOnly,
	})
	if err != nil {
		return err
	}

	return c.HTML(http.StatusOK, markup)
}
