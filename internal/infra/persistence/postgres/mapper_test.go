package postgres

import (
	"testing"
	"time"

	"attrschema/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDefinitionMapper_KeepsDocumentKeyOrder(t *testing.T) {
	t.Parallel()

	maxLen := 20
	def := &entity.AttributeDefinition{
		ID:     uuid.New(),
		Name:   "eye_color",
		Label:  "Eye Color",
		Kind:   "select",
		Group:  "appearance",
		Order:  30,
		Status: entity.StatusActive,
		Width:  entity.WidthHalf,
		Options: entity.NewDocument("choices", entity.NewDocument(
			"green", "Green",
			"brown", "Brown",
			"amber", "Amber",
		)),
		ValidationRules: entity.ValidationRules{Required: true, MaxLength: &maxLen},
		CreatedAt:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	row, err := fromDefinitionDomain(def)
	require.NoError(t, err)
	assert.Nil(t, row.ConditionalLogic, "absent logic is stored as SQL NULL")
	assert.Nil(t, row.DisplayOptions)
	assert.Equal(t, "appearance", row.GroupKey)
	assert.Equal(t, 30, row.SortOrder)

	back, err := toDefinitionDomain(row)
	require.NoError(t, err)
	assert.Equal(t, []string{"green", "brown", "amber"}, back.Choices().Values())
	assert.Nil(t, back.ConditionalLogic)
	require.NotNil(t, back.ValidationRules.MaxLength)
	assert.Equal(t, 20, *back.ValidationRules.MaxLength)
	assert.Equal(t, entity.WidthHalf, back.Width)
}

func TestValueMapper_DecodesJSONValue(t *testing.T) {
	t.Parallel()

	value := &entity.AttributeValue{
		ID:           uuid.New(),
		PrincipalID:  uuid.New(),
		DefinitionID: uuid.New(),
		Value:        []any{"hiking", "chess"},
		Privacy:      entity.PrivacyMembers,
	}

	row, err := fromValueDomain(value)
	require.NoError(t, err)
	assert.JSONEq(t, `["hiking","chess"]`, string(row.Value))

	back, err := toValueDomain(row)
	require.NoError(t, err)
	assert.Equal(t, []any{"hiking", "chess"}, back.Value)
	assert.Equal(t, entity.PrivacyMembers, back.Privacy)

	row.Value = nil
	back, err = toValueDomain(row)
	require.NoError(t, err)
	assert.Nil(t, back.Value)
}

func TestConstraintViolations(t *testing.T) {
	t.Parallel()

	unique := errors.Wrap(&pgconn.PgError{Code: pgUniqueViolation}, "insert")
	assert.True(t, isUniqueConstraintViolation(unique))
	assert.True(t, isUniqueConstraintViolation(gorm.ErrDuplicatedKey))
	assert.False(t, isUniqueConstraintViolation(errors.New("connection reset")))

	assert.True(t, isForeignKeyConstraintViolation(&pgconn.PgError{Code: pgForeignKeyViolation}))
	assert.True(t, isNotNullConstraintViolation(&pgconn.PgError{Code: pgNotNullViolation}))
	assert.False(t, isNotNullConstraintViolation(unique))
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `100\% eye\_color`, escapeLike("100% eye_color"))
}
