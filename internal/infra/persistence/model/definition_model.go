package model

import (
	"time"

	"attrschema/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AttributeDefinitionModel mirrors the 'attribute_definitions' table.
// The JSON-shaped configuration lives in jsonb columns.
// It is an exported type so it can be used by the GORM Gen tool from other packages.
type AttributeDefinitionModel struct {
	ID               uuid.UUID                                  `gorm:"type:uuid;primary_key"`
	Name             string                                     `gorm:"type:varchar(64);uniqueIndex;not null"`
	Label            string                                     `gorm:"type:varchar(255);not null"`
	Kind             string                                     `gorm:"type:varchar(32);not null;index"`
	Description      string                                     `gorm:"type:text"`
	Placeholder      string                                     `gorm:"type:varchar(255)"`
	HelpText         string                                     `gorm:"type:text"`
	Options          datatypes.JSON                             `gorm:"type:jsonb"`
	ValidationRules  datatypes.JSONType[entity.ValidationRules] `gorm:"type:jsonb"`
	DisplayOptions   datatypes.JSON                             `gorm:"type:jsonb"`
	ConditionalLogic datatypes.JSON                             `gorm:"type:jsonb"`
	GroupKey         string                                     `gorm:"type:varchar(64);not null;index:idx_definitions_group_order,priority:1"`
	SortOrder        int                                        `gorm:"not null;default:0;index:idx_definitions_group_order,priority:2"`
	IsRequired       bool                                       `gorm:"not null;default:false"`
	IsSearchable     bool                                       `gorm:"not null;default:false"`
	IsPublic         bool                                       `gorm:"not null;default:true"`
	IsEditable       bool                                       `gorm:"not null;default:true"`
	Status           string                                     `gorm:"type:varchar(16);not null;default:'active';index"`
	MinValue         *float64
	MaxValue         *float64
	MinLength        *int
	MaxLength        *int
	RegexPattern     string `gorm:"type:text"`
	DefaultValue     string `gorm:"type:text"`
	Width            string `gorm:"type:varchar(16);not null;default:'full'"`
	CSSClass         string `gorm:"type:varchar(255)"`
	IsSystem         bool   `gorm:"not null;default:false"`
	CreatedBy        string `gorm:"type:varchar(255)"`
	UpdatedBy        string `gorm:"type:varchar(255)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (AttributeDefinitionModel) TableName() string {
	return "attribute_definitions"
}

// AttributeGroupModel mirrors the 'attribute_groups' table.
type AttributeGroupModel struct {
	Key         string `gorm:"type:varchar(64);primaryKey"`
	Label       string `gorm:"type:varchar(255);not null"`
	Icon        string `gorm:"type:varchar(64)"`
	Description string `gorm:"type:text"`
	SortOrder   int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (AttributeGroupModel) TableName() string {
	return "attribute_groups"
}
