package catalog

import (
	"strings"

	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

// mapWriteError classifies a failed INSERT/UPDATE against file_v0.
// The driver surfaces SQLite's constraint violations as plain error
// strings ("UNIQUE constraint failed: file_v0.fullpath"); matching on
// the offending column name is the only portable way to tell a
// fullpath collision from an entityid collision without depending on
// the driver's internal error type.
func mapWriteError(err error, bucket, path string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		if strings.Contains(msg, "file_v0.fullpath") {
			return storeerr.NewFileExists(bucket, path)
		}
		if strings.Contains(msg, "file_v0.entityid") || strings.Contains(msg, "file_v0_entityid_idx") {
			return storeerr.NewOther("catalog: entity id collision, caller must generate a fresh id")
		}
	}
	return storeerr.NewOther("catalog: " + msg)
}
