package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"attrschema/config"
	"attrschema/internal/attrkind"
	"attrschema/internal/delivery/api/router"
	"attrschema/internal/delivery/api/router/handler"
	deliverycontext "attrschema/internal/delivery/context"
	"attrschema/internal/delivery/middleware"
	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"
	"attrschema/internal/domain/service"
	"attrschema/internal/infra/auth"
	"attrschema/internal/infra/persistence/memory"
	"attrschema/internal/usecase/impl"
	"attrschema/internal/validation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	echo      *echo.Echo
	tokens    service.TokenService
	txManager repository.TransactionManager
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()

	cfg := &config.Config{
		Schema: &config.SchemaConfig{PurgeRetentionDays: 30},
		Export: &config.ExportConfig{Origin: "test"},
		Auth:   &config.AuthConfig{Issuer: "attrschema-test"},
	}
	cfg.SecretKey.Access = "test-secret"
	cfg.HTTP.MaxRequestBodySize = "1MB"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	txManager := memory.NewTransactionManager(memory.NewStore())
	validator := validation.NewFromConfig(attrkind.NewDefaultRegistry(), cfg)
	definitions := impl.NewDefinitionService(impl.DefinitionServiceParams{
		TxManager: txManager, Validator: validator, Config: cfg, Logger: logger,
	})
	values := impl.NewValueService(impl.ValueServiceParams{
		TxManager: txManager, Validator: validator, Logger: logger,
	})
	transfer := impl.NewTransferService(impl.TransferServiceParams{
		TxManager: txManager, Validator: validator, Config: cfg, Logger: logger,
	})
	purges := impl.NewPurgeService(impl.PurgeServiceParams{
		Definitions: definitions, Config: cfg, Logger: logger,
	})

	e := NewEcho(cfg, logger)
	router.NewRouter(router.RouterParams{
		DefinitionHandler: handler.NewDefinitionHandler(handler.DefinitionHandlerParams{DefinitionUC: definitions, Logger: logger}),
		ValueHandler:      handler.NewValueHandler(handler.ValueHandlerParams{ValueUC: values, Logger: logger}),
		TransferHandler:   handler.NewTransferHandler(handler.TransferHandlerParams{TransferUC: transfer, PurgeUC: purges, Logger: logger}),
		AuthMiddleware:    middleware.NewAuthMiddleware(tokens, logger),
	}).RegisterRoutes(e)

	return apiFixture{echo: e, tokens: tokens, txManager: txManager}
}

func (f apiFixture) token(t *testing.T, subject string, caps ...string) string {
	t.Helper()
	token, err := f.tokens.GenerateToken(subject, caps)
	require.NoError(t, err)

	return token
}

func (f apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
		Total     *int64 `json:"total"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	return env
}

func eyeColorBody() map[string]any {
	return map[string]any{
		"name":    "eye_color",
		"label":   "Eye Color",
		"kind":    "select",
		"options": map[string]any{"choices": map[string]any{"brown": "Brown", "blue": "Blue"}},
		"group":   "appearance",
	}
}

func TestAPI_Health(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(deliverycontext.HeaderXRequestID))
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/definitions", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "HTTP_ERROR", env.Error.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/definitions", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_DefinitionLifecycle(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	admin := f.token(t, "admin", "*")

	rec := f.do(t, http.MethodPost, "/api/v1/definitions", admin, eyeColorBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "eye_color", created.Name)

	rec = f.do(t, http.MethodGet, "/api/v1/definitions?group=appearance&status=active", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Meta.Total)
	assert.Equal(t, int64(1), *env.Meta.Total)

	rec = f.do(t, http.MethodGet, "/api/v1/definitions/by-name/eye_color", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/definitions/"+created.ID.String()+"/status", admin,
		map[string]any{"status": "inactive", "reason": "seasonal"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/definitions/"+created.ID.String()+"/history", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &history))
	assert.Len(t, history, 2)

	rec = f.do(t, http.MethodDelete, "/api/v1/definitions/"+created.ID.String(), admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/definitions/"+created.ID.String(), admin, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec).Error.Code)
}

func TestAPI_UpdateSystemDefinitionNeedsForce(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	admin := f.token(t, "admin", "*")

	def := &entity.AttributeDefinition{
		ID:          uuid.New(),
		Name:        "birth_year",
		Label:       "Birth year",
		Kind:        "number",
		Description: "Four digit year",
		Group:       entity.DefaultGroup,
		Order:       10,
		Status:      entity.StatusActive,
		Width:       entity.WidthFull,
		IsPublic:    true,
		IsEditable:  true,
		IsSystem:    true,
	}
	require.NoError(t, f.txManager.Execute(t.Context(), func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.DefinitionRepo().Create(t.Context(), def)
	}))
	path := "/api/v1/definitions/" + def.ID.String()

	rec := f.do(t, http.MethodPut, path, admin, map[string]any{"label": "Year of birth"})
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	assert.Equal(t, "SYSTEM_PROTECTED", decode(t, rec).Error.Code)

	rec = f.do(t, http.MethodPut, path+"?force=true", admin, map[string]any{"label": "Year of birth"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated struct {
		Label       string `json:"label"`
		Kind        string `json:"kind"`
		Description string `json:"description"`
		IsSystem    bool   `json:"is_system"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &updated))
	assert.Equal(t, "Year of birth", updated.Label)
	assert.Equal(t, "number", updated.Kind, "fields missing from the body are kept")
	assert.Equal(t, "Four digit year", updated.Description)
	assert.True(t, updated.IsSystem)
}

func TestAPI_ValidationErrorListsFields(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	admin := f.token(t, "admin", "*")

	body := eyeColorBody()
	body["name"] = "Eye Color!"
	rec := f.do(t, http.MethodPost, "/api/v1/definitions", admin, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	var fields []struct {
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(env.Error.Details, &fields))
	require.NotEmpty(t, fields)
	assert.Equal(t, "name", fields[0].Field)

	rec = f.do(t, http.MethodPost, "/api/v1/definitions/status", admin, map[string]any{"status": "active"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, rec).Error.Code)
}

func TestAPI_PermissionDenied(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	member := f.token(t, uuid.NewString())

	rec := f.do(t, http.MethodPost, "/api/v1/definitions", member, eyeColorBody())
	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "PERMISSION_DENIED", env.Error.Code)
	assert.Empty(t, env.Error.Details, "forbidden responses carry no details")

	rec = f.do(t, http.MethodGet, "/api/v1/admin/export", member, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPI_DeleteWithValuesDeprecates(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	admin := f.token(t, "admin", "*")

	rec := f.do(t, http.MethodPost, "/api/v1/definitions", admin, eyeColorBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))

	principal := uuid.NewString()
	rec = f.do(t, http.MethodPut, "/api/v1/principals/"+principal+"/values/"+created.ID.String(), admin,
		map[string]any{"value": "brown"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/api/v1/definitions/"+created.ID.String(), admin, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "HAS_DEPENDENT_DATA", env.Error.Code)
	var details map[string]any
	require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	assert.InDelta(t, 1, details["usage_count"], 0)

	rec = f.do(t, http.MethodGet, "/api/v1/principals/"+principal+"/values", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var values []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &values))
	assert.Len(t, values, 1)
}

func TestAPI_ExportImportRoundTrip(t *testing.T) {
	t.Parallel()
	source := newAPIFixture(t)
	admin := source.token(t, "admin", "*")

	rec := source.do(t, http.MethodPost, "/api/v1/definitions", admin, eyeColorBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = source.do(t, http.MethodGet, "/api/v1/admin/export?format=yaml", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "yaml")
	document := rec.Body.Bytes()

	target := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/import?format=yaml", bytes.NewReader(document))
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+target.token(t, "admin", "*"))
	out := httptest.NewRecorder()
	target.echo.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())

	var result struct {
		Imported int `json:"imported"`
	}
	require.NoError(t, json.Unmarshal(decode(t, out).Data, &result))
	assert.Equal(t, 1, result.Imported)

	rec = target.do(t, http.MethodGet, "/api/v1/admin/export?format=xml", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_RequestIDIsEchoed(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, "trace-123")
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	assert.Equal(t, "trace-123", rec.Header().Get(deliverycontext.HeaderXRequestID))
}
