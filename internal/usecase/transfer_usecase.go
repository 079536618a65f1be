package usecase

import (
	"context"
	"time"

	"attrschema/internal/domain/entity"

	"github.com/google/uuid"
)

// FormatVersion is the import/export document version written by this engine.
// Documents with a newer major.minor are rejected.
const FormatVersion = "1.2.0"

// TransferUsecase produces and consumes import/export documents.
type TransferUsecase interface {
	Export(ctx context.Context, opts *ExportOptions) (*ImportDocument, error)
	Import(ctx context.Context, doc *ImportDocument, opts *ImportOptions) (*ImportResult, error)
	// ImportBytes decodes, structurally validates and imports an encoded document.
	ImportBytes(ctx context.Context, data []byte, format string, opts *ImportOptions) (*ImportResult, error)
	// ExportToStore encodes an export and writes it to the export store under key.
	ExportToStore(ctx context.Context, key, format string, opts *ExportOptions) error
	// ImportFromStore reads key from the export store and imports it.
	ImportFromStore(ctx context.Context, key string, opts *ImportOptions) (*ImportResult, error)
}

// Import conflict modes.
const (
	ConflictSkip   = "skip"
	ConflictUpdate = "update"
	ConflictRename = "rename"
)

// Per-entry import actions.
const (
	ImportActionCreated = "created"
	ImportActionUpdated = "updated"
	ImportActionSkipped = "skipped"
	ImportActionRenamed = "renamed"
	ImportActionError   = "error"
)

// --- Input DTOs ---

// ExportOptions selects what goes into an export document.
type ExportOptions struct {
	Statuses        []entity.Status `json:"statuses,omitempty"`
	Groups          []string        `json:"groups,omitempty"`
	IncludeGroups   bool            `json:"include_groups"`
	IncludeValues   bool            `json:"include_values"`
	IncludeSettings bool            `json:"include_settings"`
	Origin          string          `json:"origin,omitempty"`
}

// ImportOptions controls how incoming definitions are applied.
type ImportOptions struct {
	ConflictMode string `json:"conflict_mode"`
	DryRun       bool   `json:"dry_run"`
	ImportValues bool   `json:"import_values"`
	ImportGroups bool   `json:"import_groups"`
}

// --- Document ---

// ImportDocument is the versioned exchange format between deployments.
type ImportDocument struct {
	FormatVersion string     `json:"formatVersion"`
	ExportedAt    time.Time  `json:"exportedAt"`
	Origin        string     `json:"origin"`
	Data          ImportData `json:"data"`
}

// ImportData holds the document payload. Definition entries never carry
// ids, the system flag or audit actors.
type ImportData struct {
	Definitions []*DefinitionInput        `json:"definitions"`
	Groups      map[string]*GroupInput    `json:"groups,omitempty"`
	Values      map[string][]*ValueRecord `json:"values,omitempty"` // Keyed by definition name.
	Settings    *entity.Document          `json:"settings,omitempty"`
}

// ValueRecord is one exported principal value.
type ValueRecord struct {
	PrincipalID uuid.UUID      `json:"principal_id"`
	Value       any            `json:"value"`
	Privacy     entity.Privacy `json:"privacy,omitempty"`
	IsVerified  bool           `json:"is_verified,omitempty"`
}

// --- Output DTOs ---

// ImportLogEntry reports what happened to one incoming definition.
type ImportLogEntry struct {
	Name    string `json:"name"`
	Action  string `json:"action"`
	Message string `json:"message,omitempty"`
}

// ImportResult summarizes an import run.
type ImportResult struct {
	DryRun   bool                 `json:"dry_run"`
	Imported int                  `json:"imported"`
	Updated  int                  `json:"updated"`
	Skipped  int                  `json:"skipped"`
	Errors   int                  `json:"errors"`
	Values   int                  `json:"values"`
	Groups   int                  `json:"groups"`
	Log      []ImportLogEntry     `json:"log"`
	IDMap    map[string]uuid.UUID `json:"id_map"` // Incoming name to the id it now maps to.
}

// Record appends a log entry and bumps the matching counter.
func (r *ImportResult) Record(name, action, message string) {
	r.Log = append(r.Log, ImportLogEntry{Name: name, Action: action, Message: message})
	switch action {
	case ImportActionCreated, ImportActionRenamed:
		r.Imported++
	case ImportActionUpdated:
		r.Updated++
	case ImportActionSkipped:
		r.Skipped++
	case ImportActionError:
		r.Errors++
	}
}
