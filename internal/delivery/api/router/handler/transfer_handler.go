package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"attrschema/internal/delivery/api/response"
	"attrschema/internal/domain/entity"
	"attrschema/internal/transfer"
	"attrschema/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const maxImportSize = 16 << 20

// TransferHandlerParams holds dependencies for TransferHandler, injected by Fx.
type TransferHandlerParams struct {
	fx.In

	TransferUC usecase.TransferUsecase
	PurgeUC    usecase.PurgeUsecase
	Logger     *slog.Logger
}

// TransferHandler serves import/export and maintenance endpoints.
type TransferHandler struct {
	transferUC usecase.TransferUsecase
	purgeUC    usecase.PurgeUsecase
	logger     *slog.Logger
}

// NewTransferHandler is the constructor for TransferHandler
func NewTransferHandler(params TransferHandlerParams) *TransferHandler {
	return &TransferHandler{
		transferUC: params.TransferUC,
		purgeUC:    params.PurgeUC,
		logger:     params.Logger,
	}
}

func exportOptionsFromQuery(c echo.Context) (*usecase.ExportOptions, error) {
	opts := &usecase.ExportOptions{
		Groups: queryList(c, "group"),
		Origin: c.QueryParam("origin"),
	}
	for _, status := range queryList(c, "status") {
		opts.Statuses = append(opts.Statuses, entity.Status(status))
	}

	var err error
	if opts.IncludeGroups, err = queryBool(c, "include_groups"); err != nil {
		return nil, err
	}
	if opts.IncludeValues, err = queryBool(c, "include_values"); err != nil {
		return nil, err
	}
	if opts.IncludeSettings, err = queryBool(c, "include_settings"); err != nil {
		return nil, err
	}

	return opts, nil
}

func importOptionsFromQuery(c echo.Context) (*usecase.ImportOptions, error) {
	opts := &usecase.ImportOptions{ConflictMode: c.QueryParam("conflict_mode")}

	var err error
	if opts.DryRun, err = queryBool(c, "dry_run"); err != nil {
		return nil, err
	}
	if opts.ImportValues, err = queryBool(c, "import_values"); err != nil {
		return nil, err
	}
	if opts.ImportGroups, err = queryBool(c, "import_groups"); err != nil {
		return nil, err
	}

	return opts, nil
}

func requestFormat(raw string) (string, error) {
	format, err := transfer.NormalizeFormat(raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "format must be json or yaml")
	}

	return format, nil
}

// Export handles GET /admin/export and streams the encoded document.
func (h *TransferHandler) Export(c echo.Context) error {
	format, err := requestFormat(c.QueryParam("format"))
	if err != nil {
		return err
	}
	opts, err := exportOptionsFromQuery(c)
	if err != nil {
		return err
	}

	doc, err := h.transferUC.Export(c.Request().Context(), opts)
	if err != nil {
		return err
	}
	data, err := transfer.Encode(doc, format)
	if err != nil {
		return err
	}

	contentType := echo.MIMEApplicationJSON
	if format == transfer.FormatYAML {
		contentType = "application/yaml"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="attributes.`+format+`"`)

	return c.Blob(http.StatusOK, contentType, data)
}

// Import handles POST /admin/import with the encoded document as body.
func (h *TransferHandler) Import(c echo.Context) error {
	opts, err := importOptionsFromQuery(c)
	if err != nil {
		return err
	}
	format := c.QueryParam("format")
	if format == "" && strings.Contains(c.Request().Header.Get(echo.HeaderContentType), "yaml") {
		format = transfer.FormatYAML
	}
	if format, err = requestFormat(format); err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportSize))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read import document")
	}

	result, err := h.transferUC.ImportBytes(c.Request().Context(), data, format, opts)
	if err != nil {
		return err
	}

	return response.OK(c, result)
}

// ExportToStore handles POST /admin/exports/:key
func (h *TransferHandler) ExportToStore(c echo.Context) error {
	key := c.Param("key")
	opts, err := exportOptionsFromQuery(c)
	if err != nil {
		return err
	}

	if err := h.transferUC.ExportToStore(c.Request().Context(), key, transfer.FormatFromKey(key), opts); err != nil {
		return err
	}

	return response.Created(c, map[string]string{"key": key})
}

// ImportFromStore handles POST /admin/imports/:key
func (h *TransferHandler) ImportFromStore(c echo.Context) error {
	opts, err := importOptionsFromQuery(c)
	if err != nil {
		return err
	}

	result, err := h.transferUC.ImportFromStore(c.Request().Context(), c.Param("key"), opts)
	if err != nil {
		return err
	}

	return response.OK(c, result)
}

// RunPurges handles POST /admin/purges/run
func (h *TransferHandler) RunPurges(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}

	report, err := h.purgeUC.RunDue(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	return response.OK(c, report)
}
