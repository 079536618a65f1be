package postgres

import (
	"bytes"
	"encoding/json"

	"attrschema/internal/domain/entity"
	"attrschema/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

var jsonNull = []byte("null")

func isEmptyJSON(raw datatypes.JSON) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

func encodeJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode json column")
	}
	if bytes.Equal(raw, jsonNull) {
		return nil, nil
	}

	return datatypes.JSON(raw), nil
}

func encodeDocument(doc *entity.Document) (datatypes.JSON, error) {
	if doc == nil {
		return nil, nil
	}

	return encodeJSON(doc)
}

func decodeDocument(raw datatypes.JSON) (*entity.Document, error) {
	if isEmptyJSON(raw) {
		return nil, nil
	}
	doc := &entity.Document{}
	if err := doc.UnmarshalJSON(raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode document column")
	}

	return doc, nil
}

// --- Mapper Functions ---

// toDefinitionDomain converts a GORM AttributeDefinitionModel to a domain AttributeDefinition entity.
func toDefinitionDomain(data *model.AttributeDefinitionModel) (*entity.AttributeDefinition, error) {
	if data == nil {
		return nil, nil
	}

	options, err := decodeDocument(data.Options)
	if err != nil {
		return nil, err
	}
	display, err := decodeDocument(data.DisplayOptions)
	if err != nil {
		return nil, err
	}
	var logic *entity.ConditionalLogic
	if !isEmptyJSON(data.ConditionalLogic) {
		logic = &entity.ConditionalLogic{}
		if err := json.Unmarshal(data.ConditionalLogic, logic); err != nil {
			return nil, errors.Wrap(err, "failed to decode conditional logic column")
		}
	}

	return &entity.AttributeDefinition{
		ID:               data.ID,
		Name:             data.Name,
		Label:            data.Label,
		Kind:             data.Kind,
		Description:      data.Description,
		Placeholder:      data.Placeholder,
		HelpText:         data.HelpText,
		Options:          options,
		ValidationRules:  data.ValidationRules.Data(),
		DisplayOptions:   display,
		ConditionalLogic: logic,
		Group:            data.GroupKey,
		Order:            data.SortOrder,
		IsRequired:       data.IsRequired,
		IsSearchable:     data.IsSearchable,
		IsPublic:         data.IsPublic,
		IsEditable:       data.IsEditable,
		Status:           entity.Status(data.Status),
		MinValue:         data.MinValue,
		MaxValue:         data.MaxValue,
		MinLength:        data.MinLength,
		MaxLength:        data.MaxLength,
		RegexPattern:     data.RegexPattern,
		DefaultValue:     data.DefaultValue,
		Width:            entity.Width(data.Width),
		CSSClass:         data.CSSClass,
		IsSystem:         data.IsSystem,
		CreatedBy:        data.CreatedBy,
		UpdatedBy:        data.UpdatedBy,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}, nil
}

// fromDefinitionDomain converts a domain AttributeDefinition entity to a GORM AttributeDefinitionModel.
func fromDefinitionDomain(data *entity.AttributeDefinition) (*model.AttributeDefinitionModel, error) {
	if data == nil {
		return nil, nil
	}

	options, err := encodeDocument(data.Options)
	if err != nil {
		return nil, err
	}
	display, err := encodeDocument(data.DisplayOptions)
	if err != nil {
		return nil, err
	}
	var logic datatypes.JSON
	if data.ConditionalLogic != nil {
		if logic, err = encodeJSON(data.ConditionalLogic); err != nil {
			return nil, err
		}
	}

	return &model.AttributeDefinitionModel{
		ID:               data.ID,
		Name:             data.Name,
		Label:            data.Label,
		Kind:             data.Kind,
		Description:      data.Description,
		Placeholder:      data.Placeholder,
		HelpText:         data.HelpText,
		Options:          options,
		ValidationRules:  datatypes.NewJSONType(data.ValidationRules),
		DisplayOptions:   display,
		ConditionalLogic: logic,
		GroupKey:         data.Group,
		SortOrder:        data.Order,
		IsRequired:       data.IsRequired,
		IsSearchable:     data.IsSearchable,
		IsPublic:         data.IsPublic,
		IsEditable:       data.IsEditable,
		Status:           data.Status.String(),
		MinValue:         data.MinValue,
		MaxValue:         data.MaxValue,
		MinLength:        data.MinLength,
		MaxLength:        data.MaxLength,
		RegexPattern:     data.RegexPattern,
		DefaultValue:     data.DefaultValue,
		Width:            string(data.Width),
		CSSClass:         data.CSSClass,
		IsSystem:         data.IsSystem,
		CreatedBy:        data.CreatedBy,
		UpdatedBy:        data.UpdatedBy,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}, nil
}

// toValueDomain converts a GORM AttributeValueModel to a domain AttributeValue entity.
func toValueDomain(data *model.AttributeValueModel) (*entity.AttributeValue, error) {
	if data == nil {
		return nil, nil
	}

	var value any
	if !isEmptyJSON(data.Value) {
		if err := json.Unmarshal(data.Value, &value); err != nil {
			return nil, errors.Wrap(err, "failed to decode value column")
		}
	}

	return &entity.AttributeValue{
		ID:           data.ID,
		PrincipalID:  data.PrincipalID,
		DefinitionID: data.DefinitionID,
		Value:        value,
		NumericValue: data.NumericValue,
		DateValue:    data.DateValue,
		Privacy:      entity.Privacy(data.Privacy),
		IsVerified:   data.IsVerified,
		UpdatedBy:    data.UpdatedBy,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}, nil
}

// fromValueDomain converts a domain AttributeValue entity to a GORM AttributeValueModel.
func fromValueDomain(data *entity.AttributeValue) (*model.AttributeValueModel, error) {
	if data == nil {
		return nil, nil
	}

	value, err := encodeJSON(data.Value)
	if err != nil {
		return nil, err
	}

	return &model.AttributeValueModel{
		ID:           data.ID,
		PrincipalID:  data.PrincipalID,
		DefinitionID: data.DefinitionID,
		Value:        value,
		NumericValue: data.NumericValue,
		DateValue:    data.DateValue,
		Privacy:      string(data.Privacy),
		IsVerified:   data.IsVerified,
		UpdatedBy:    data.UpdatedBy,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}, nil
}

func toGroupDomain(data *model.AttributeGroupModel) *entity.AttributeGroup {
	if data == nil {
		return nil
	}

	return &entity.AttributeGroup{
		Key:         data.Key,
		Label:       data.Label,
		Icon:        data.Icon,
		Description: data.Description,
		Order:       data.SortOrder,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func fromGroupDomain(data *entity.AttributeGroup) *model.AttributeGroupModel {
	if data == nil {
		return nil
	}

	return &model.AttributeGroupModel{
		Key:         data.Key,
		Label:       data.Label,
		Icon:        data.Icon,
		Description: data.Description,
		SortOrder:   data.Order,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func toHistoryDomain(data *model.DefinitionHistoryModel) (*entity.HistoryRecord, error) {
	oldSnap, err := decodeDocument(data.OldSnapshot)
	if err != nil {
		return nil, err
	}
	newSnap, err := decodeDocument(data.NewSnapshot)
	if err != nil {
		return nil, err
	}

	return &entity.HistoryRecord{
		ID:           data.ID,
		DefinitionID: data.DefinitionID,
		ChangeType:   entity.ChangeType(data.ChangeType),
		OldSnapshot:  oldSnap,
		NewSnapshot:  newSnap,
		Actor:        data.Actor,
		Reason:       data.Reason,
		Origin:       data.Origin,
		CreatedAt:    data.CreatedAt,
	}, nil
}

func fromHistoryDomain(data *entity.HistoryRecord) (*model.DefinitionHistoryModel, error) {
	oldSnap, err := encodeDocument(data.OldSnapshot)
	if err != nil {
		return nil, err
	}
	newSnap, err := encodeDocument(data.NewSnapshot)
	if err != nil {
		return nil, err
	}

	return &model.DefinitionHistoryModel{
		ID:           data.ID,
		DefinitionID: data.DefinitionID,
		ChangeType:   string(data.ChangeType),
		OldSnapshot:  oldSnap,
		NewSnapshot:  newSnap,
		Actor:        data.Actor,
		Reason:       data.Reason,
		Origin:       data.Origin,
		CreatedAt:    data.CreatedAt,
	}, nil
}

func toPurgeDomain(data *model.PendingPurgeModel) (*entity.PendingPurge, error) {
	snapshot, err := decodeDocument(data.Snapshot)
	if err != nil {
		return nil, err
	}

	return &entity.PendingPurge{
		DefinitionID:   data.DefinitionID,
		DefinitionName: data.DefinitionName,
		UsageCount:     data.UsageCount,
		Snapshot:       snapshot,
		ScheduledAt:    data.ScheduledAt,
		DueAt:          data.DueAt,
		RequestedBy:    data.RequestedBy,
	}, nil
}

func fromPurgeDomain(data *entity.PendingPurge) (*model.PendingPurgeModel, error) {
	snapshot, err := encodeDocument(data.Snapshot)
	if err != nil {
		return nil, err
	}

	return &model.PendingPurgeModel{
		DefinitionID:   data.DefinitionID,
		DefinitionName: data.DefinitionName,
		UsageCount:     data.UsageCount,
		Snapshot:       snapshot,
		ScheduledAt:    data.ScheduledAt,
		DueAt:          data.DueAt,
		RequestedBy:    data.RequestedBy,
	}, nil
}
