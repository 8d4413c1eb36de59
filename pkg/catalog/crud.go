package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bucketfs/bucketfs/internal/telemetry"
	"github.com/bucketfs/bucketfs/pkg/fspath"
	"github.com/bucketfs/bucketfs/pkg/mimetype"
	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

const pathSegSeparator = "\x1f"

func segmentsOf(p fspath.Path) string {
	return strings.Join(p.Segments(), pathSegSeparator)
}

// Create inserts one row for filePath. mimeType in in, if empty, is
// inferred from filePath's basename.
func (e *Engine) Create(ctx context.Context, filePath string, in CreateInput) (err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogInsert, telemetry.Bucket(e.bucket), telemetry.Path(filePath))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return err
	}
	p, err := fspath.Parse(filePath)
	if err != nil {
		return err
	}

	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = mimetype.FromPath(p.Basename())
	}

	descRaw, descFTS, err := e.encodeDescription(in.Description)
	if err != nil {
		return err
	}
	metaJS, err := e.encodeMetadata(in.Metadata)
	if err != nil {
		return err
	}

	_, err = e.db.ExecContext(ctx, `
		INSERT INTO file_v0 (fullpath, path_seg, entityid, hash_md5, mime_typ, cont_len, last_mod, desc_raw, desc_fts, meta_js)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.String(), segmentsOf(p), in.EntityID, in.Checksum, mimeType, in.FileSize, time.Now().UnixMilli(),
		descRaw, descFTS, metaJS,
	)
	if err != nil {
		return mapWriteError(err, e.bucket, filePath)
	}
	return checkpoint(ctx, e.db)
}

// Read returns the full projection of filePath.
func (e *Engine) Read(ctx context.Context, filePath string) (r Record, err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogLookup, telemetry.Bucket(e.bucket), telemetry.Path(filePath))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return Record{}, err
	}
	row := e.db.QueryRowContext(ctx, `
		SELECT entityid, hash_md5, mime_typ, cont_len, last_mod FROM file_v0 WHERE fullpath = ?`, filePath)

	if err := row.Scan(&r.EntityID, &r.Checksum, &r.MimeType, &r.FileSize, &r.LastModified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, storeerr.NewFileNotFound(e.bucket, filePath)
		}
		return Record{}, storeerr.NewOther(fmt.Sprintf("catalog: read: %v", err))
	}
	return r, nil
}

// ReadEntityID returns the entityid column alone.
func (e *Engine) ReadEntityID(ctx context.Context, filePath string) (id string, err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogLookup, telemetry.Bucket(e.bucket), telemetry.Path(filePath))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return "", err
	}
	err = e.db.QueryRowContext(ctx, `SELECT entityid FROM file_v0 WHERE fullpath = ?`, filePath).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storeerr.NewFileNotFound(e.bucket, filePath)
	}
	if err != nil {
		return "", storeerr.NewOther(fmt.Sprintf("catalog: readEntityId: %v", err))
	}
	return id, nil
}

// ReadDescription returns the human-readable description, or nil if unset.
func (e *Engine) ReadDescription(ctx context.Context, filePath string) (desc *string, err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogLookup, telemetry.Bucket(e.bucket), telemetry.Path(filePath))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return nil, err
	}
	var raw sql.NullString
	err = e.db.QueryRowContext(ctx, `SELECT desc_raw FROM file_v0 WHERE fullpath = ?`, filePath).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeerr.NewFileNotFound(e.bucket, filePath)
	}
	if err != nil {
		return nil, storeerr.NewOther(fmt.Sprintf("catalog: readDescription: %v", err))
	}
	if !raw.Valid {
		return nil, nil
	}
	return &raw.String, nil
}

// ReadMetadata returns the JSON-decoded meta_js value, or nil if unset.
func (e *Engine) ReadMetadata(ctx context.Context, filePath string, out any) (found bool, err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogLookup, telemetry.Bucket(e.bucket), telemetry.Path(filePath))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return false, err
	}
	var meta sql.NullString
	err = e.db.QueryRowContext(ctx, `SELECT meta_js FROM file_v0 WHERE fullpath = ?`, filePath).Scan(&meta)
	if errors.Is(err, sql.ErrNoRows) {
		return false, storeerr.NewFileNotFound(e.bucket, filePath)
	}
	if err != nil {
		return false, storeerr.NewOther(fmt.Sprintf("catalog: readMetadata: %v", err))
	}
	if !meta.Valid {
		return false, nil
	}
	if err := e.codec.Unmarshal([]byte(meta.String), out); err != nil {
		return false, storeerr.NewOther(fmt.Sprintf("catalog: decode metadata: %v", err))
	}
	return true, nil
}

// Move renames src to dst, preserving all side-metadata.
func (e *Engine) Move(ctx context.Context, src, dst string) (err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogUpdate, telemetry.Bucket(e.bucket), telemetry.Path(src), telemetry.Path(dst))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return err
	}
	dstPath, err := fspath.Parse(dst)
	if err != nil {
		return err
	}

	res, err := e.db.ExecContext(ctx, `
		UPDATE file_v0 SET fullpath = ?, path_seg = ? WHERE fullpath = ?`,
		dstPath.String(), segmentsOf(dstPath), src,
	)
	if err != nil {
		return mapWriteError(err, e.bucket, dst)
	}
	if err := requireOneRowAffected(res, e.bucket, src); err != nil {
		return err
	}
	return checkpoint(ctx, e.db)
}

// Copy clones src's row to dst under a fresh entity id.
func (e *Engine) Copy(ctx context.Context, src, dst, dstEntityID string) (err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogInsert, telemetry.Bucket(e.bucket), telemetry.Path(src), telemetry.Path(dst), telemetry.EntityID(dstEntityID))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return err
	}
	dstPath, err := fspath.Parse(dst)
	if err != nil {
		return err
	}

	res, err := e.db.ExecContext(ctx, `
		INSERT INTO file_v0 (fullpath, path_seg, entityid, hash_md5, mime_typ, cont_len, last_mod, desc_raw, desc_fts, meta_js)
		SELECT ?, ?, ?, hash_md5, mime_typ, cont_len, ?, desc_raw, desc_fts, meta_js
		FROM file_v0 WHERE fullpath = ?`,
		dstPath.String(), segmentsOf(dstPath), dstEntityID, time.Now().UnixMilli(), src,
	)
	if err != nil {
		return mapWriteError(err, e.bucket, dst)
	}
	if err := requireOneRowAffected(res, e.bucket, src); err != nil {
		return err
	}
	return checkpoint(ctx, e.db)
}

// Update applies a partial update to filePath. When in is entirely
// unset, it only verifies the row exists. When OldEntityID is set, the
// WHERE clause additionally requires entityid = OldEntityID; a
// mismatch (including concurrent deletion) surfaces as FileNotFound.
func (e *Engine) Update(ctx context.Context, filePath string, in UpdateInput) (err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogUpdate, telemetry.Bucket(e.bucket), telemetry.Path(filePath))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return err
	}

	if in.isEmpty() {
		_, err := e.ReadEntityID(ctx, filePath)
		return err
	}

	sets := []string{"last_mod = ?"}
	args := []any{time.Now().UnixMilli()}

	if in.NewEntityID.IsSet() {
		sets = append(sets, "entityid = ?")
		args = append(args, in.NewEntityID.Value())
	}
	if in.Checksum.IsSet() {
		sets = append(sets, "hash_md5 = ?")
		args = append(args, in.Checksum.Value())
	}
	if in.MimeType.IsSet() {
		sets = append(sets, "mime_typ = ?")
		args = append(args, in.MimeType.Value())
	}
	if in.FileSize.IsSet() {
		sets = append(sets, "cont_len = ?")
		args = append(args, in.FileSize.Value())
	}
	if in.Description.IsSet() {
		descRaw, descFTS, err := e.encodeDescription(in.Description.Value())
		if err != nil {
			return err
		}
		sets = append(sets, "desc_raw = ?", "desc_fts = ?")
		args = append(args, descRaw, descFTS)
	}
	if in.Metadata.IsSet() {
		metaJS, err := e.encodeMetadata(in.Metadata.Value())
		if err != nil {
			return err
		}
		sets = append(sets, "meta_js = ?")
		args = append(args, metaJS)
	}

	query := "UPDATE file_v0 SET " + strings.Join(sets, ", ") + " WHERE fullpath = ?"
	args = append(args, filePath)
	if in.OldEntityID.IsSet() {
		query += " AND entityid = ?"
		args = append(args, in.OldEntityID.Value())
	}

	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, e.bucket, filePath)
	}
	if err := requireOneRowAffected(res, e.bucket, filePath); err != nil {
		return err
	}
	return checkpoint(ctx, e.db)
}

// Delete removes filePath's row.
func (e *Engine) Delete(ctx context.Context, filePath string) (err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogDelete, telemetry.Bucket(e.bucket), telemetry.Path(filePath))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return err
	}
	res, err := e.db.ExecContext(ctx, `DELETE FROM file_v0 WHERE fullpath = ?`, filePath)
	if err != nil {
		return storeerr.NewOther(fmt.Sprintf("catalog: delete: %v", err))
	}
	if err := requireOneRowAffected(res, e.bucket, filePath); err != nil {
		return err
	}
	return checkpoint(ctx, e.db)
}

// requireOneRowAffected treats a zero-row mutation as FileNotFound,
// per spec.md §9's "no first row / zero rows affected" open question:
// both sentinels are checked uniformly.
func requireOneRowAffected(res sql.Result, bucket, path string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.NewOther(fmt.Sprintf("catalog: rows affected: %v", err))
	}
	if n == 0 {
		return storeerr.NewFileNotFound(bucket, path)
	}
	return nil
}

// encodeDescription bounds desc_raw directly by maxDescriptionSize. The
// invariant that raw description length stay within half that budget
// (leaving headroom for desc_fts) and the config description of
// maxDescriptionSize as a direct bound on desc_raw disagree on which of
// the two is the real ceiling; no surviving original-source reference
// settles it, so the direct bound is treated as authoritative here and
// desc_fts is truncated separately below instead of being pre-budgeted.
func (e *Engine) encodeDescription(desc *string) (descRaw, descFTS sql.NullString, err error) {
	if desc == nil {
		return sql.NullString{}, sql.NullString{}, nil
	}
	if utf8.RuneCountInString(*desc) > e.maxDescriptionSize {
		return sql.NullString{}, sql.NullString{}, storeerr.NewOther("catalog: description exceeds maximum size")
	}
	fts := e.toFTS(*desc)
	if len(fts) > 2*e.maxDescriptionSize {
		fts = fts[:2*e.maxDescriptionSize]
	}
	return sql.NullString{String: *desc, Valid: true}, sql.NullString{String: fts, Valid: true}, nil
}

func (e *Engine) encodeMetadata(meta any) (sql.NullString, error) {
	if meta == nil {
		return sql.NullString{}, nil
	}
	data, err := e.codec.Marshal(meta)
	if err != nil {
		return sql.NullString{}, storeerr.NewOther(fmt.Sprintf("catalog: encode metadata: %v", err))
	}
	if len(data) > e.maxMetadataJSONSize {
		return sql.NullString{}, storeerr.NewOther("catalog: metadata exceeds maximum size")
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
