// Package blob provides the image stores of the catalog: a local
// filesystem store and an S3 compatible store. Both hand out names of the
// form "<unix millis>-<random hex><ext>" and accept only image extensions.
package blob

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/catalog/internal/core/domain"
)

// Driver identifies a blob store implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

var acceptedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// AcceptedExtensions returns the allow-list of image extensions.
func AcceptedExtensions() []string {
	return []string{".png", ".jpg", ".jpeg"}
}

// ValidateExtension normalizes ext to lower case and checks it against the
// allow-list.
func ValidateExtension(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if _, ok := acceptedExtensions[ext]; !ok {
		return "", fmt.Errorf(
			"%w: only images are allowed (%s), got %q",
			domain.ErrValidation, strings.Join(AcceptedExtensions(), ", "), ext,
		)
	}
	return ext, nil
}

// NameFunc generates a stored name for the validated extension.
type NameFunc func(ext string) string

// NewName combines a millisecond timestamp with a random suffix so names
// stay unique across concurrent uploads.
func NewName(ext string) string {
	token := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + token + ext
}

func validateName(name string) error {
	switch {
	case name == "",
		strings.ContainsAny(name, `/\`),
		strings.Contains(name, ".."),
		strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: invalid blob name %q", domain.ErrValidation, name)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}
