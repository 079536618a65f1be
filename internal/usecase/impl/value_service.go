package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"attrschema/internal/attrkind"
	deliverycontext "attrschema/internal/delivery/context"
	"attrschema/internal/domain/constants"
	"attrschema/internal/domain/entity"
	domainerrors "attrschema/internal/domain/errors"
	"attrschema/internal/domain/repository"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/usecase"
	"attrschema/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// Value write rejection codes.
const (
	codeNotEditable    = "not_editable"
	codeNotWritable    = "not_writable"
	codeUnknownField   = "unknown_field"
	codeInvalidPrivacy = "invalid_privacy"
)

// valueService implements the ValueUsecase interface.
type valueService struct {
	txManager  repository.TransactionManager
	validator  *validation.Validator
	cache      schemaCache
	authorizer service.Authorizer
	logger     *slog.Logger
	now        func() time.Time
}

// ValueServiceParams holds dependencies for ValueService, injected by Fx.
type ValueServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	Validator  *validation.Validator
	Cache      service.Cache      `optional:"true"`
	Authorizer service.Authorizer `optional:"true"`
	Logger     *slog.Logger
}

// NewValueService is the constructor for valueService.
func NewValueService(params ValueServiceParams) usecase.ValueUsecase {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authorizer := params.Authorizer
	if authorizer == nil {
		authorizer = service.NewContextAuthorizer()
	}

	return &valueService{
		txManager:  params.TxManager,
		validator:  params.Validator,
		cache:      schemaCache{cache: params.Cache, logger: logger},
		authorizer: authorizer,
		logger:     logger,
		now:        time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *valueService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// authorizePrincipal allows principals to write their own values and
// actors holding the write capability to write anyone's.
func (srv *valueService) authorizePrincipal(ctx context.Context, principalID uuid.UUID) error {
	actor := service.ActorFromContext(ctx)
	if actor.ID == principalID.String() || srv.authorizer.Can(ctx, constants.CapabilityWriteValues) {
		return nil
	}
	srv.log(ctx).Warn("Permission denied", "actor", actor.ID, "principalID", principalID)

	return errors.Wrapf(domainerrors.ErrPermissionDenied, "actor %s cannot write values of %s", actor.ID, principalID)
}

// SaveValue validates, sanitizes and stores one value.
func (srv *valueService) SaveValue(ctx context.Context, input *usecase.SaveValueInput) (*entity.AttributeValue, error) {
	srv.log(ctx).Info("Saving attribute value", "principalID", input.PrincipalID, "definitionID", input.DefinitionID)

	if err := srv.authorizePrincipal(ctx, input.PrincipalID); err != nil {
		return nil, err
	}
	privileged := srv.authorizer.Can(ctx, constants.CapabilityWriteValues)

	var stored *entity.AttributeValue
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		// 1. Find the definition and check it accepts writes
		def, err := findDefinition(ctx, repoFactory.DefinitionRepo(), input.DefinitionID)
		if err != nil {
			return err
		}
		if msg, ok := checkWritable(def, privileged); !ok {
			return domainerrors.NewValidationError([]domainerrors.FieldMessage{msg})
		}

		// 2. Validate then sanitize
		if res := srv.validator.ValidateValue(def, input.Value); !res.Valid() {
			return valueValidationError(res.Errors)
		}
		privacy, err := resolvePrivacy(def, input.Privacy)
		if err != nil {
			return err
		}

		// 3. Store with its projections
		stored, err = srv.upsertInTx(ctx, repoFactory, def, input.PrincipalID, srv.validator.SanitizeValue(def, input.Value), privacy, input.IsVerified && privileged)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to save attribute value")
	}

	srv.cache.invalidatePrincipal(ctx, input.PrincipalID)

	return stored, nil
}

// SaveValues validates a whole submission and stores it only when every
// visible field is valid. Hidden fields are neither validated nor stored.
func (srv *valueService) SaveValues(ctx context.Context, principalID uuid.UUID, values map[string]any, privacy entity.Privacy) (*usecase.SubmissionResult, error) {
	srv.log(ctx).Info("Saving attribute submission", "principalID", principalID, "fields", len(values))

	if err := srv.authorizePrincipal(ctx, principalID); err != nil {
		return nil, err
	}
	privileged := srv.authorizer.Can(ctx, constants.CapabilityWriteValues)

	result := &usecase.SubmissionResult{Saved: map[string]any{}}
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		// 1. Collect the definitions that take part in the submission
		var defs []*entity.AttributeDefinition
		byName := make(map[string]*entity.AttributeDefinition)
		filter := repository.DefinitionFilter{Statuses: []entity.Status{entity.StatusActive}}
		if err := forEachDefinition(ctx, repoFactory.DefinitionRepo(), filter, func(def *entity.AttributeDefinition) {
			byName[def.Name] = def
			if def.IsEditable || privileged {
				defs = append(defs, def)
			}
		}); err != nil {
			return err
		}

		for name := range values {
			def, ok := byName[name]
			switch {
			case !ok:
				result.Errors = append(result.Errors, attrkind.FieldError{Field: name, Code: codeUnknownField, Message: "no active attribute with this name"})
			case !def.IsEditable && !privileged:
				result.Errors = append(result.Errors, attrkind.FieldError{Field: name, Code: codeNotEditable, Message: "this attribute cannot be edited"})
			}
		}

		// 2. Validate every visible field at once
		res := srv.validator.ValidateSubmission(defs, values)
		result.Errors = append(result.Errors, res.Errors...)
		if len(result.Errors) > 0 {
			return valueValidationError(result.Errors)
		}

		// 3. Store the sanitized values
		sanitized := srv.validator.SanitizeSubmission(defs, values)
		for _, def := range defs {
			value, ok := sanitized[def.Name]
			if !ok {
				continue
			}
			p, err := resolvePrivacy(def, privacy)
			if err != nil {
				return err
			}
			if _, err := srv.upsertInTx(ctx, repoFactory, def, principalID, value, p, false); err != nil {
				return err
			}
			result.Saved[def.Name] = value
		}

		return nil
	})
	if err != nil {
		if len(result.Errors) > 0 {
			result.Saved = map[string]any{}

			return result, errors.Wrap(err, "failed to save attribute submission")
		}

		return nil, errors.Wrap(err, "failed to save attribute submission")
	}

	srv.cache.invalidatePrincipal(ctx, principalID)

	return result, nil
}

func (srv *valueService) upsertInTx(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	def *entity.AttributeDefinition,
	principalID uuid.UUID,
	value any,
	privacy entity.Privacy,
	verified bool,
) (*entity.AttributeValue, error) {
	projection := srv.validator.Registry().Project(def, value)
	now := srv.now()
	stored := &entity.AttributeValue{
		ID:           uuid.New(),
		PrincipalID:  principalID,
		DefinitionID: def.ID,
		Value:        value,
		NumericValue: projection.Numeric,
		DateValue:    projection.Date,
		Privacy:      privacy,
		IsVerified:   verified,
		UpdatedBy:    service.ActorFromContext(ctx).ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repoFactory.ValueRepo().Upsert(ctx, stored); err != nil {
		return nil, storageError(err, "failed to store value")
	}

	return stored, nil
}

// GetValues returns every stored value of a principal.
func (srv *valueService) GetValues(ctx context.Context, principalID uuid.UUID) ([]*entity.AttributeValue, error) {
	key := principalValuesCacheKey(principalID)
	if values, ok := cacheLoad[[]*entity.AttributeValue](ctx, srv.cache, service.CacheGroupValues, key); ok {
		return values, nil
	}

	var values []*entity.AttributeValue
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		values, err = repoFactory.ValueRepo().ListByPrincipal(ctx, principalID)
		if err != nil {
			return storageError(err, "failed to list values")
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get attribute values")
	}

	cacheStore(ctx, srv.cache, service.CacheGroupValues, key, values, 0)

	return values, nil
}

// DeleteValue removes one stored value.
func (srv *valueService) DeleteValue(ctx context.Context, principalID, definitionID uuid.UUID) error {
	srv.log(ctx).Info("Deleting attribute value", "principalID", principalID, "definitionID", definitionID)

	if err := srv.authorizePrincipal(ctx, principalID); err != nil {
		return err
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.ValueRepo().Delete(ctx, principalID, definitionID); err != nil {
			if errors.Is(err, repository.ErrValueNotFound) {
				return errors.Wrapf(domainerrors.ErrNotFound, "value of %s for %s", principalID, definitionID)
			}

			return storageError(err, "failed to delete value")
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete attribute value")
	}

	srv.cache.invalidatePrincipal(ctx, principalID)

	return nil
}

// RenderForm renders the active definitions of a group in display order,
// prefilled with the principal's stored values.
func (srv *valueService) RenderForm(ctx context.Context, principalID uuid.UUID, group string, args attrkind.RenderArgs) (string, error) {
	if group = strings.TrimSpace(group); group == "" {
		group = entity.DefaultGroup
	}

	var (
		defs   []*entity.AttributeDefinition
		stored []*entity.AttributeValue
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		filter := repository.DefinitionFilter{
			Statuses: []entity.Status{entity.StatusActive},
			Groups:   []string{group},
		}
		if err := forEachDefinition(ctx, repoFactory.DefinitionRepo(), filter, func(def *entity.AttributeDefinition) {
			defs = append(defs, def)
		}); err != nil {
			return err
		}

		var err error
		stored, err = repoFactory.ValueRepo().ListByPrincipal(ctx, principalID)
		if err != nil {
			return storageError(err, "failed to list values")
		}

		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to render attribute form")
	}

	byDefinition := make(map[uuid.UUID]any, len(stored))
	for _, v := range stored {
		byDefinition[v.DefinitionID] = v.Value
	}
	current := make(map[string]any, len(defs))
	for k, v := range args.Values {
		current[k] = v
	}
	for _, def := range defs {
		if v, ok := byDefinition[def.ID]; ok {
			if _, submitted := current[def.Name]; !submitted {
				current[def.Name] = v
			}
		}
	}
	args.Values = current

	var b strings.Builder
	for _, def := range defs {
		fieldArgs := args
		fieldArgs.ReadOnly = args.ReadOnly || !def.IsEditable
		html, err := srv.validator.Registry().Render(def, current[def.Name], fieldArgs)
		if err != nil {
			return "", errors.Wrapf(err, "failed to render attribute %q", def.Name)
		}
		b.WriteString(html)
		b.WriteByte('\n')
	}

	return b.String(), nil
}

// checkWritable rejects draft and archived definitions, and non-editable
// ones unless the caller is privileged.
func checkWritable(def *entity.AttributeDefinition, privileged bool) (domainerrors.FieldMessage, bool) {
	if def.Status == entity.StatusDraft || def.Status == entity.StatusArchived {
		return domainerrors.FieldMessage{Field: def.Name, Code: codeNotWritable, Message: "attribute is " + def.Status.String()}, false
	}
	if !def.IsEditable && !privileged {
		return domainerrors.FieldMessage{Field: def.Name, Code: codeNotEditable, Message: "this attribute cannot be edited"}, false
	}

	return domainerrors.FieldMessage{}, true
}

// resolvePrivacy defaults to public for public definitions and private otherwise.
func resolvePrivacy(def *entity.AttributeDefinition, requested entity.Privacy) (entity.Privacy, error) {
	if requested == "" {
		if def.IsPublic {
			return entity.PrivacyPublic, nil
		}

		return entity.PrivacyPrivate, nil
	}
	if !requested.IsValid() {
		return "", domainerrors.NewValidationError([]domainerrors.FieldMessage{{
			Field: "privacy", Code: codeInvalidPrivacy, Message: "privacy must be public, members or private",
		}})
	}

	return requested, nil
}

func valueValidationError(fieldErrors []attrkind.FieldError) error {
	fields := make([]domainerrors.FieldMessage, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields = append(fields, domainerrors.FieldMessage{Field: fe.Field, Code: fe.Code, Message: fe.Message})
	}

	return domainerrors.NewValidationError(fields)
}
