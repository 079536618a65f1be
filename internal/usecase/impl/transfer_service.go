package impl

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"attrschema/config"
	deliverycontext "attrschema/internal/delivery/context"
	"attrschema/internal/domain/constants"
	"attrschema/internal/domain/entity"
	domainerrors "attrschema/internal/domain/errors"
	"attrschema/internal/domain/repository"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/transfer"
	"attrschema/internal/usecase"
	"attrschema/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

const importedLabelSuffix = " (Imported)"

// errDryRun rolls back a dry-run import after every step has run.
var errDryRun = errors.New("dry run")

// transferService implements the TransferUsecase interface.
type transferService struct {
	txManager   repository.TransactionManager
	validator   *validation.Validator
	definitions *definitionService
	values      *valueService
	store       service.ExportStore
	origin      string
	format      string
	logger      *slog.Logger
	now         func() time.Time
}

// TransferServiceParams holds dependencies for TransferService, injected by Fx.
type TransferServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	Validator   *validation.Validator
	Cache       service.Cache          `optional:"true"`
	Publisher   service.EventPublisher `optional:"true"`
	Authorizer  service.Authorizer     `optional:"true"`
	ExportStore service.ExportStore    `optional:"true"`
	Config      *config.Config
	Logger      *slog.Logger
}

// NewTransferService is the constructor for transferService.
func NewTransferService(params TransferServiceParams) usecase.TransferUsecase {
	return newTransferService(params)
}

func newTransferService(params TransferServiceParams) *transferService {
	definitions := newDefinitionService(DefinitionServiceParams{
		TxManager:  params.TxManager,
		Validator:  params.Validator,
		Cache:      params.Cache,
		Publisher:  params.Publisher,
		Authorizer: params.Authorizer,
		Config:     params.Config,
		Logger:     params.Logger,
	})
	values := NewValueService(ValueServiceParams{
		TxManager:  params.TxManager,
		Validator:  params.Validator,
		Cache:      params.Cache,
		Authorizer: params.Authorizer,
		Logger:     params.Logger,
	}).(*valueService)

	origin, format := "", transfer.FormatJSON
	if params.Config != nil && params.Config.Export != nil {
		origin = params.Config.Export.Origin
		if f, err := transfer.NormalizeFormat(params.Config.Export.Format); err == nil {
			format = f
		}
	}

	return &transferService{
		txManager:   params.TxManager,
		validator:   params.Validator,
		definitions: definitions,
		values:      values,
		store:       params.ExportStore,
		origin:      origin,
		format:      format,
		logger:      definitions.logger,
		now:         time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *transferService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Export builds a document from the stored definitions. Entries never carry
// ids, the system flag or audit actors.
func (srv *transferService) Export(ctx context.Context, opts *usecase.ExportOptions) (*usecase.ImportDocument, error) {
	if opts == nil {
		opts = &usecase.ExportOptions{}
	}
	srv.log(ctx).Info("Exporting attribute definitions", "statuses", opts.Statuses, "groups", opts.Groups, "includeValues", opts.IncludeValues)

	if err := srv.definitions.authorize(ctx, constants.CapabilityManage); err != nil {
		return nil, err
	}
	if opts.IncludeValues {
		if err := srv.definitions.authorize(ctx, constants.CapabilityExportValues); err != nil {
			return nil, err
		}
	}

	origin := opts.Origin
	if origin == "" {
		origin = srv.origin
	}
	doc := &usecase.ImportDocument{
		FormatVersion: usecase.FormatVersion,
		ExportedAt:    srv.now().UTC(),
		Origin:        origin,
		Data:          usecase.ImportData{Definitions: []*usecase.DefinitionInput{}},
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		// 1. Definitions in display order
		var defs []*entity.AttributeDefinition
		filter := repository.DefinitionFilter{Statuses: opts.Statuses, Groups: opts.Groups}
		if err := forEachDefinition(ctx, repoFactory.DefinitionRepo(), filter, func(def *entity.AttributeDefinition) {
			defs = append(defs, def)
		}); err != nil {
			return err
		}
		for _, def := range defs {
			doc.Data.Definitions = append(doc.Data.Definitions, usecase.DefinitionInputFrom(def))
		}

		// 2. Group metadata
		if opts.IncludeGroups {
			groups, err := repoFactory.GroupRepo().List(ctx)
			if err != nil {
				return storageError(err, "failed to list groups")
			}
			doc.Data.Groups = make(map[string]*usecase.GroupInput, len(groups))
			for _, g := range groups {
				doc.Data.Groups[g.Key] = &usecase.GroupInput{
					Key:         g.Key,
					Label:       g.Label,
					Icon:        g.Icon,
					Description: g.Description,
					Order:       g.Order,
				}
			}
		}

		// 3. Principal values keyed by definition name
		if opts.IncludeValues {
			doc.Data.Values = make(map[string][]*usecase.ValueRecord)
			for _, def := range defs {
				stored, err := repoFactory.ValueRepo().ListByDefinition(ctx, def.ID)
				if err != nil {
					return storageError(err, "failed to list values")
				}
				for _, v := range stored {
					doc.Data.Values[def.Name] = append(doc.Data.Values[def.Name], &usecase.ValueRecord{
						PrincipalID: v.PrincipalID,
						Value:       v.Value,
						Privacy:     v.Privacy,
						IsVerified:  v.IsVerified,
					})
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to export attribute definitions")
	}

	if opts.IncludeSettings {
		doc.Data.Settings = policyDocument(srv.validator.Policy())
	}

	srv.log(ctx).Info("Exported attribute definitions", "definitions", len(doc.Data.Definitions), "groups", len(doc.Data.Groups))

	return doc, nil
}

// Import applies a document in one transaction. Invalid entries are logged
// and skipped; a storage failure rolls the whole batch back. A dry run runs
// the same steps and rolls back at the end.
func (srv *transferService) Import(ctx context.Context, doc *usecase.ImportDocument, opts *usecase.ImportOptions) (*usecase.ImportResult, error) {
	if opts == nil {
		opts = &usecase.ImportOptions{}
	}
	if doc == nil {
		return nil, domainerrors.NewValidationError([]domainerrors.FieldMessage{{
			Field: "document", Code: validation.CodeRequired, Message: "import document is required",
		}})
	}
	srv.log(ctx).Info("Importing attribute definitions",
		"definitions", len(doc.Data.Definitions), "conflictMode", opts.ConflictMode, "dryRun", opts.DryRun, "origin", doc.Origin)

	if err := srv.definitions.authorize(ctx, constants.CapabilityManage); err != nil {
		return nil, err
	}
	if opts.ImportValues && len(doc.Data.Values) > 0 {
		if err := srv.definitions.authorize(ctx, constants.CapabilityWriteValues); err != nil {
			return nil, err
		}
	}
	if err := transfer.CheckCompatible(doc.FormatVersion, usecase.FormatVersion); err != nil {
		return nil, err
	}

	mode := strings.ToLower(strings.TrimSpace(opts.ConflictMode))
	if mode == "" {
		mode = usecase.ConflictSkip
	}
	if mode != usecase.ConflictSkip && mode != usecase.ConflictUpdate && mode != usecase.ConflictRename {
		return nil, domainerrors.NewValidationError([]domainerrors.FieldMessage{{
			Field: "conflict_mode", Code: validation.CodeInvalidChoice, Message: "conflict mode must be skip, update or rename",
		}})
	}

	var result *usecase.ImportResult
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		result = &usecase.ImportResult{DryRun: opts.DryRun, Log: []usecase.ImportLogEntry{}, IDMap: map[string]uuid.UUID{}}

		// 1. Group metadata first so definitions can reference it
		if opts.ImportGroups {
			if err := srv.importGroups(ctx, repoFactory, doc.Data.Groups, result); err != nil {
				return err
			}
		}

		// 2. Definitions in document order
		for i, input := range doc.Data.Definitions {
			if input == nil {
				result.Record("#"+strconv.Itoa(i), usecase.ImportActionError, "empty definition entry")

				continue
			}
			if err := srv.importDefinition(ctx, repoFactory, input, mode, result); err != nil {
				return err
			}
		}

		// 3. Principal values
		if opts.ImportValues {
			if err := srv.importValues(ctx, repoFactory, doc.Data.Values, result); err != nil {
				return err
			}
		}

		if opts.DryRun {
			return errDryRun
		}

		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, errors.Wrap(err, "failed to import attribute definitions")
	}

	if doc.Data.Settings != nil {
		srv.log(ctx).Info("Import document settings are not applied; settings come from configuration", "keys", doc.Data.Settings.Keys())
	}

	srv.log(ctx).Info("Imported attribute definitions",
		"imported", result.Imported, "updated", result.Updated, "skipped", result.Skipped, "errors", result.Errors, "dryRun", result.DryRun)

	if !opts.DryRun {
		srv.definitions.cache.invalidateAll(ctx)
		if result.Values > 0 {
			srv.definitions.cache.flush(ctx, service.CacheGroupValues)
		}
		event := &service.SchemaEvent{Type: service.EventDefinitionsImported, UsageCount: int64(result.Imported + result.Updated)}
		srv.definitions.publish(ctx, event)
	}

	return result, nil
}

func (srv *transferService) importDefinition(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	input *usecase.DefinitionInput,
	mode string,
	result *usecase.ImportResult,
) error {
	definitionRepo := repoFactory.DefinitionRepo()
	name := strings.TrimSpace(input.Name)

	existing, err := definitionRepo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, repository.ErrDefinitionNotFound) {
		return storageError(err, "failed to find definition")
	}

	if existing == nil {
		created, err := srv.definitions.createInTx(ctx, repoFactory, input)
		if err != nil {
			return recordEntryError(result, name, err)
		}
		result.IDMap[name] = created.ID
		result.Record(name, usecase.ImportActionCreated, "")

		return nil
	}

	switch mode {
	case usecase.ConflictUpdate:
		updated, err := srv.definitions.updateInTx(ctx, repoFactory, existing, input, false)
		if err != nil {
			return recordEntryError(result, name, err)
		}
		result.IDMap[name] = updated.ID
		result.Record(name, usecase.ImportActionUpdated, "")
	case usecase.ConflictRename:
		fresh, err := freeName(ctx, definitionRepo, name)
		if err != nil {
			return recordEntryError(result, name, err)
		}
		renamed := *input
		renamed.Name = fresh
		renamed.Label = strings.TrimSpace(input.Label) + importedLabelSuffix
		renamed.Order = nil
		created, err := srv.definitions.createInTx(ctx, repoFactory, &renamed)
		if err != nil {
			return recordEntryError(result, name, err)
		}
		result.IDMap[name] = created.ID
		result.Record(name, usecase.ImportActionRenamed, "imported as "+fresh)
	case usecase.ConflictSkip:
		result.IDMap[name] = existing.ID
		result.Record(name, usecase.ImportActionSkipped, "a definition with this name already exists")
	default:
		return recordEntryError(result, name, errors.Wrapf(domainerrors.ErrConflictUnresolved, "conflict mode %q", mode))
	}

	return nil
}

func (srv *transferService) importGroups(ctx context.Context, repoFactory repository.RepositoryFactory, groups map[string]*usecase.GroupInput, result *usecase.ImportResult) error {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		input := groups[key]
		if input == nil {
			continue
		}
		group := &entity.AttributeGroup{
			Key:         key,
			Label:       strings.TrimSpace(input.Label),
			Icon:        strings.TrimSpace(input.Icon),
			Description: strings.TrimSpace(input.Description),
			Order:       input.Order,
		}
		if err := srv.validator.ValidateGroup(group).Err(); err != nil {
			result.Record("group:"+key, usecase.ImportActionError, err.Error())

			continue
		}
		if err := srv.definitions.saveGroupInTx(ctx, repoFactory, group); err != nil {
			return err
		}
		result.Groups++
	}

	return nil
}

func (srv *transferService) importValues(ctx context.Context, repoFactory repository.RepositoryFactory, values map[string][]*usecase.ValueRecord, result *usecase.ImportResult) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		def, err := repoFactory.DefinitionRepo().FindByName(ctx, name)
		if id, ok := result.IDMap[name]; ok {
			def, err = repoFactory.DefinitionRepo().FindByID(ctx, id)
		}
		if errors.Is(err, repository.ErrDefinitionNotFound) {
			result.Record("values:"+name, usecase.ImportActionError, "no definition for imported values")

			continue
		}
		if err != nil {
			return storageError(err, "failed to find definition")
		}

		for _, record := range values[name] {
			if record == nil {
				continue
			}
			if res := srv.validator.ValidateValue(def, record.Value); !res.Valid() {
				result.Record("values:"+name, usecase.ImportActionError, valueValidationError(res.Errors).Error())

				continue
			}
			privacy, err := resolvePrivacy(def, record.Privacy)
			if err != nil {
				result.Record("values:"+name, usecase.ImportActionError, err.Error())

				continue
			}
			value := srv.validator.SanitizeValue(def, record.Value)
			if _, err := srv.values.upsertInTx(ctx, repoFactory, def, record.PrincipalID, value, privacy, record.IsVerified); err != nil {
				return err
			}
			result.Values++
		}
	}

	return nil
}

// recordEntryError logs a per-entry rejection and lets the batch continue.
// Storage failures are returned so the batch rolls back.
func recordEntryError(result *usecase.ImportResult, name string, err error) error {
	if errors.Is(err, domainerrors.ErrStorage) {
		return err
	}
	result.Record(name, usecase.ImportActionError, err.Error())

	return nil
}

// ImportBytes decodes, structurally validates and imports an encoded document.
func (srv *transferService) ImportBytes(ctx context.Context, data []byte, format string, opts *usecase.ImportOptions) (*usecase.ImportResult, error) {
	doc, err := transfer.Decode(data, format)
	if err != nil {
		if errors.Is(err, transfer.ErrUnknownFormat) {
			return nil, domainerrors.NewValidationError([]domainerrors.FieldMessage{{
				Field: "format", Code: validation.CodeInvalidChoice, Message: err.Error(),
			}})
		}

		return nil, errors.Wrap(err, "failed to decode import document")
	}

	return srv.Import(ctx, doc, opts)
}

// ExportToStore encodes an export and writes it to the export store under key.
func (srv *transferService) ExportToStore(ctx context.Context, key, format string, opts *usecase.ExportOptions) error {
	if srv.store == nil {
		return errors.Wrap(domainerrors.ErrInternalError, "export store is not configured")
	}
	if format == "" {
		format = srv.format
	}

	doc, err := srv.Export(ctx, opts)
	if err != nil {
		return err
	}
	data, err := transfer.Encode(doc, format)
	if err != nil {
		return errors.Wrap(err, "failed to encode export document")
	}
	if err := srv.store.Write(ctx, key, data); err != nil {
		return errors.WithStack(domainerrors.NewStorageError(err, "failed to write export document"))
	}

	srv.log(ctx).Info("Export document written", "key", key, "format", format, "bytes", len(data))

	return nil
}

// ImportFromStore reads key from the export store and imports it.
func (srv *transferService) ImportFromStore(ctx context.Context, key string, opts *usecase.ImportOptions) (*usecase.ImportResult, error) {
	if srv.store == nil {
		return nil, errors.Wrap(domainerrors.ErrInternalError, "export store is not configured")
	}

	data, err := srv.store.Read(ctx, key)
	if err != nil {
		if errors.Is(err, service.ErrObjectNotFound) {
			return nil, errors.Wrapf(domainerrors.ErrNotFound, "export document %s", key)
		}

		return nil, errors.WithStack(domainerrors.NewStorageError(err, "failed to read import document"))
	}

	return srv.ImportBytes(ctx, data, transfer.FormatFromKey(key), opts)
}

// policyDocument describes the definition rules of this deployment.
func policyDocument(p validation.Policy) *entity.Document {
	return entity.NewDocument(
		"reservedWords", p.ReservedWords,
		"forbiddenPrefixes", p.ForbiddenPrefixes,
		"requiredPublicPolicy", string(p.RequiredPublic),
		"maxChoices", p.MaxChoices,
		"validateDefaultValue", p.ValidateDefaultValue,
	)
}
