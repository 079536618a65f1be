package transfer

import (
	"strings"

	domainerrors "attrschema/internal/domain/errors"
	"attrschema/internal/errors"

	"github.com/Masterminds/semver/v3"
)

// CheckCompatible rejects a document whose major.minor version is newer than
// the engine's. Patch releases never change the document shape.
func CheckCompatible(documentVersion, engineVersion string) error {
	doc, err := parseSemver(documentVersion)
	if err != nil {
		return errors.Wrapf(domainerrors.ErrFormatIncompatible, "unreadable format version %q", documentVersion)
	}
	engine, err := parseSemver(engineVersion)
	if err != nil {
		return errors.Wrapf(err, "parse engine version %q", engineVersion)
	}

	newer := doc.Major() > engine.Major() || (doc.Major() == engine.Major() && doc.Minor() > engine.Minor())
	if newer {
		return errors.Wrapf(domainerrors.ErrFormatIncompatible,
			"document format %s is newer than supported %d.%d", doc, engine.Major(), engine.Minor())
	}

	return nil
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")

	return semver.NewVersion(version)
}
