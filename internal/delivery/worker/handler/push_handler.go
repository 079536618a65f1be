// Package handler contains the HTTP handlers of the purge worker.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"attrschema/config"
	deliverycontext "attrschema/internal/delivery/context"
	"attrschema/internal/domain/constants"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// tokenValidator checks a Google-signed OIDC token for audience.
type tokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PushHandler consumes schema events pushed by Pub/Sub and runs due purges.
type PushHandler struct {
	verifyPushAuth bool
	audience       string
	validateToken  tokenValidator
	logger         *slog.Logger
	purgeUC        usecase.PurgeUsecase
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config  *config.Config
	Logger  *slog.Logger
	PurgeUC usecase.PurgeUsecase
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	pubsubCfg := params.Config.PubSub
	if pubsubCfg == nil {
		pubsubCfg = &config.PubSubConfig{}
	}

	// Pushes are verified for Google outside development, or whenever an audience is pinned.
	verifyPushAuth := pubsubCfg.PushAudience != "" ||
		(pubsubCfg.Provider == constants.PubSubProviderGoogle && params.Config.Env.Env != constants.EnvDevelop)

	return &PushHandler{
		verifyPushAuth: verifyPushAuth,
		audience:       pubsubCfg.PushAudience,
		validateToken:  idtoken.Validate,
		logger:         params.Logger,
		purgeUC:        params.PurgeUC,
	}
}

// HandlePush handles incoming Pub/Sub push messages. A 503 makes Pub/Sub
// redeliver; malformed messages are acknowledged so they are not retried.
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.authorize(c.Request()); err != nil {
		h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

		return c.NoContent(http.StatusUnauthorized)
	}

	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	var event service.SchemaEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Failed to parse schema event", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	requestID := h.extractRequestID(ctx, &pushMsg, &event)
	ctx, reqLogger := deliverycontext.WithRequestScope(ctx, requestID, h.logger)

	reqLogger.Info("[Worker] Received schema event",
		slog.String("event_id", event.EventID),
		slog.String("type", event.Type),
		slog.String("definition_id", event.DefinitionID),
		slog.String("definition_name", event.DefinitionName),
	)

	if event.Type != service.EventPurgeScheduled {
		return c.NoContent(http.StatusOK)
	}

	if event.PurgeDueAt != nil {
		reqLogger.Info("[Worker] Purge scheduled",
			slog.String("definition_id", event.DefinitionID),
			slog.Int64("usage_count", event.UsageCount),
			slog.Time("due_at", *event.PurgeDueAt),
		)
	}

	// Each schedule notice doubles as a catch-up run for purges already due.
	report, err := h.purgeUC.RunDue(ctx, 0)
	if err != nil {
		reqLogger.Error("[Worker] Failed to run due purges", slog.Any("error", err))

		return c.NoContent(http.StatusServiceUnavailable)
	}

	return c.JSON(http.StatusOK, report)
}

// RunPurges handles the scheduler trigger endpoint.
func (h *PushHandler) RunPurges(c echo.Context) error {
	if err := h.authorize(c.Request()); err != nil {
		h.logger.Warn("[Worker] Invalid scheduler token", slog.Any("error", err))

		return c.NoContent(http.StatusUnauthorized)
	}

	ctx, reqLogger := deliverycontext.WithRequestScope(c.Request().Context(), deliverycontext.GetRequestID(c), h.logger)

	report, err := h.purgeUC.RunDue(ctx, 0)
	if err != nil {
		reqLogger.Error("[Worker] Failed to run due purges", slog.Any("error", err))

		return c.NoContent(http.StatusServiceUnavailable)
	}

	return c.JSON(http.StatusOK, report)
}

// extractRequestID prefers message attributes, then the event, then the incoming request.
func (h *PushHandler) extractRequestID(ctx context.Context, pushMsg *PubSubMessage, event *service.SchemaEvent) string {
	if requestID := pushMsg.Message.Attributes["request_id"]; requestID != "" {
		return requestID
	}

	if event.RequestID != "" {
		return event.RequestID
	}

	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.NewString()
}

func (h *PushHandler) authorize(req *http.Request) error {
	if !h.verifyPushAuth {
		return nil
	}

	return h.verifyPubSubToken(req)
}

// verifyPubSubToken verifies the OIDC token Google attaches to push requests.
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func (h *PushHandler) verifyPubSubToken(req *http.Request) error {
	authHeader := req.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	audience := h.audience
	if audience == "" {
		scheme := "https"
		if req.TLS == nil {
			scheme = "http"
		}
		audience = scheme + "://" + req.Host + req.URL.Path
	}

	payload, err := h.validateToken(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
