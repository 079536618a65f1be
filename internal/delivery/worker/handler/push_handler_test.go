package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"attrschema/config"
	deliverycontext "attrschema/internal/delivery/context"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

type mockPurgeUsecase struct {
	mock.Mock
}

func (m *mockPurgeUsecase) RunDue(ctx context.Context, limit int) (*usecase.PurgeReport, error) {
	args := m.Called(ctx, limit)
	report, _ := args.Get(0).(*usecase.PurgeReport)

	return report, args.Error(1)
}

func newTestPushHandler(purgeUC usecase.PurgeUsecase, cfg *config.Config) *PushHandler {
	if cfg == nil {
		cfg = &config.Config{PubSub: &config.PubSubConfig{Provider: "local"}}
	}

	return NewPushHandler(PushHandlerParams{
		Config:  cfg,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		PurgeUC: purgeUC,
	})
}

func pushBody(t *testing.T, event *service.SchemaEvent) string {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)

	msg := PubSubMessage{Subscription: "local-subscription"}
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.MessageID = event.EventID
	msg.Message.Attributes = map[string]string{"request_id": "req-from-attrs"}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	return string(body)
}

func servePush(h *PushHandler, body string, header http.Header) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	_ = h.HandlePush(e.NewContext(req, rec))

	return rec
}

func TestPushHandler_PurgeScheduledRunsDuePurges(t *testing.T) {
	t.Parallel()
	purgeUC := &mockPurgeUsecase{}
	purgeUC.On("RunDue", mock.MatchedBy(func(ctx context.Context) bool {
		return deliverycontext.GetRequestIDFromContext(ctx) == "req-from-attrs"
	}), 0).Return(&usecase.PurgeReport{Due: 1, Purged: 1}, nil).Once()
	h := newTestPushHandler(purgeUC, nil)

	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	rec := servePush(h, pushBody(t, &service.SchemaEvent{
		EventID: "evt-1", Type: service.EventPurgeScheduled, DefinitionID: "d-1", UsageCount: 3, PurgeDueAt: &due,
	}), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"purged":1`)
	purgeUC.AssertExpectations(t)
}

func TestPushHandler_OtherEventsAreAcknowledged(t *testing.T) {
	t.Parallel()
	purgeUC := &mockPurgeUsecase{}
	h := newTestPushHandler(purgeUC, nil)

	rec := servePush(h, pushBody(t, &service.SchemaEvent{EventID: "evt-2", Type: service.EventDefinitionCreated}), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	purgeUC.AssertNotCalled(t, "RunDue", mock.Anything, mock.Anything)
}

func TestPushHandler_FailedRunAsksForRedelivery(t *testing.T) {
	t.Parallel()
	purgeUC := &mockPurgeUsecase{}
	purgeUC.On("RunDue", mock.Anything, 0).Return(nil, errors.New("database down"))
	h := newTestPushHandler(purgeUC, nil)

	rec := servePush(h, pushBody(t, &service.SchemaEvent{EventID: "evt-3", Type: service.EventPurgeScheduled}), nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPushHandler_MalformedMessages(t *testing.T) {
	t.Parallel()
	h := newTestPushHandler(&mockPurgeUsecase{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{"},
		{name: "bad base64", body: `{"message":{"data":"***"}}`},
		{name: "bad event", body: `{"message":{"data":"` + base64.StdEncoding.EncodeToString([]byte("[]")) + `"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := servePush(h, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPushHandler_VerifiesTokenWhenAudienceIsSet(t *testing.T) {
	t.Parallel()
	purgeUC := &mockPurgeUsecase{}
	purgeUC.On("RunDue", mock.Anything, 0).Return(&usecase.PurgeReport{}, nil)
	h := newTestPushHandler(purgeUC, &config.Config{PubSub: &config.PubSubConfig{
		Provider:     "google",
		PushAudience: "https://worker.example.com/push",
	}})

	var gotAudience string
	h.validateToken = func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		gotAudience = audience
		if token != "good" {
			return nil, errors.New("bad signature")
		}

		return &idtoken.Payload{Issuer: "https://accounts.google.com", Claims: map[string]any{"email_verified": true}}, nil
	}
	body := pushBody(t, &service.SchemaEvent{EventID: "evt-4", Type: service.EventPurgeScheduled})

	rec := servePush(h, body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = servePush(h, body, http.Header{"Authorization": {"Bearer bad"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = servePush(h, body, http.Header{"Authorization": {"Bearer good"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://worker.example.com/push", gotAudience)
}

func TestPushHandler_RejectsForeignIssuer(t *testing.T) {
	t.Parallel()
	h := newTestPushHandler(&mockPurgeUsecase{}, &config.Config{PubSub: &config.PubSubConfig{PushAudience: "aud"}})
	h.validateToken = func(context.Context, string, string) (*idtoken.Payload, error) {
		return &idtoken.Payload{Issuer: "https://evil.example.com"}, nil
	}

	rec := servePush(h, "{}", http.Header{"Authorization": {"Bearer token"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
