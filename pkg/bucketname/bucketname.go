// Package bucketname validates the opaque name tag that identifies a
// single catalog+blob-store pair.
package bucketname

import (
	"regexp"

	"github.com/bucketfs/bucketfs/pkg/storeerr"
	"github.com/go-playground/validator/v10"
)

const (
	// MinLength is the shortest accepted bucket name.
	MinLength = 3
	// MaxLength is the longest accepted bucket name.
	MaxLength = 63
)

// pattern matches S3-style bucket names: lowercase alphanumerics and
// internal hyphens, never leading or trailing with a hyphen.
var pattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

var validate = validator.New(validator.WithRequiredStructEnabled())

type nameHolder struct {
	Name string `validate:"required,min=3,max=63"`
}

// Name is a validated bucket name.
type Name struct {
	value string
}

// Parse validates s and returns a Name, or fails with an
// InvalidBucketName domain error.
func Parse(s string) (Name, error) {
	if err := validate.Struct(nameHolder{Name: s}); err != nil {
		return Name{}, storeerr.NewInvalidBucketName(s)
	}
	if !pattern.MatchString(s) {
		return Name{}, storeerr.NewInvalidBucketName(s)
	}
	return Name{value: s}, nil
}

// String returns the validated bucket name.
func (n Name) String() string { return n.value }
