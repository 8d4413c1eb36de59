package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/bucketfs/bucketfs/internal/telemetry"
	"github.com/bucketfs/bucketfs/pkg/fspath"
	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

const depthExpr = "(LENGTH(fullpath) - LENGTH(REPLACE(fullpath, '/', '')) + 1)"

// dirPrefix returns the SQL LIKE pattern matching every path strictly
// under dir, and the depth of dir itself. The root directory (dir
// empty) has depth 0 and an empty, unconstraining prefix.
func dirPrefix(dir []string) (pattern string, depth int) {
	if len(dir) == 0 {
		return "", 0
	}
	escaped := make([]string, len(dir))
	for i, seg := range dir {
		escaped[i] = escapeLike(seg)
	}
	return strings.Join(escaped, "/") + "/%", len(dir)
}

func escapeLike(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "%", "\\%", "_", "\\_")
	return r.Replace(s)
}

// ExistsFile reports whether a row exists at filePath.
func (e *Engine) ExistsFile(ctx context.Context, filePath string) (bool, error) {
	if err := e.requireConnected(); err != nil {
		return false, err
	}
	var one int
	err := e.db.QueryRowContext(ctx, `SELECT 1 FROM file_v0 WHERE fullpath = ? LIMIT 1`, filePath).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeerr.NewOther(fmt.Sprintf("catalog: exists: %v", err))
	}
	return true, nil
}

// ExistsDir reports whether any file lives strictly under dir. The
// root directory (dir empty) always exists.
func (e *Engine) ExistsDir(ctx context.Context, dir []string) (bool, error) {
	if len(dir) == 0 {
		return true, nil
	}
	if err := e.requireConnected(); err != nil {
		return false, err
	}
	pattern, depth := dirPrefix(dir)
	var one int
	err := e.db.QueryRowContext(ctx, `
		SELECT 1 FROM file_v0
		WHERE fullpath LIKE ? ESCAPE '\' AND `+depthExpr+` > ?
		LIMIT 1`, pattern, depth).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeerr.NewOther(fmt.Sprintf("catalog: existsDir: %v", err))
	}
	return true, nil
}

// Stat reports whether path names a file, a directory, or both.
func (e *Engine) Stat(ctx context.Context, path string) (isFile, isDirectory bool, err error) {
	if err := e.requireConnected(); err != nil {
		return false, false, err
	}
	p, err := fspath.Parse(path)
	if err != nil {
		return false, false, err
	}
	isFile, err = e.ExistsFile(ctx, path)
	if err != nil {
		return false, false, err
	}
	isDirectory, err = e.ExistsDir(ctx, p.Segments())
	if err != nil {
		return false, false, err
	}
	return isFile, isDirectory, nil
}

// List returns the distinct immediate children of dir.
func (e *Engine) List(ctx context.Context, dir []string, limit, offset int, orderByName string) (_ []ListEntry, err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogList, telemetry.Bucket(e.bucket), telemetry.Count(int64(limit)))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return nil, err
	}
	if limit == 0 {
		return nil, nil
	}

	pattern, depth := dirPrefix(dir)
	query := `SELECT fullpath FROM file_v0 WHERE ` + depthExpr + ` > ?`
	args := []any{depth}
	if pattern != "" {
		query += ` AND fullpath LIKE ? ESCAPE '\'`
		args = append(args, pattern)
	}

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.NewOther(fmt.Sprintf("catalog: list: %v", err))
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var entries []ListEntry
	for rows.Next() {
		var full string
		if err := rows.Scan(&full); err != nil {
			return nil, storeerr.NewOther(fmt.Sprintf("catalog: list scan: %v", err))
		}
		p, err := fspath.Parse(full)
		if err != nil {
			continue
		}
		segs := p.Segments()
		var name string
		var isFile bool
		if len(segs) == depth+1 {
			name, isFile = segs[depth], true
		} else {
			name, isFile = segs[depth], false
		}
		key := fmt.Sprintf("%t:%s", isFile, name)
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, ListEntry{Name: name, IsFile: isFile})
	}
	if err := rows.Err(); err != nil {
		return nil, storeerr.NewOther(fmt.Sprintf("catalog: list rows: %v", err))
	}

	desc := strings.EqualFold(orderByName, "DESC")
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsFile != entries[j].IsFile {
			return !entries[i].IsFile // directories (false) sort before files (true)
		}
		if desc {
			return entries[i].Name > entries[j].Name
		}
		return entries[i].Name < entries[j].Name
	})

	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	telemetry.SetAttributes(ctx, telemetry.Results(len(entries)))
	return entries, nil
}

// Search rebuilds the BM25 index over desc_fts and returns rows under
// dir ranked by descending score.
func (e *Engine) Search(ctx context.Context, dir []string, query string, limit int, recursive bool, scoreThreshold float64) (_ []SearchResult, err error) {
	ctx, span := telemetry.StartCatalogSpan(ctx, telemetry.SpanCatalogSearch, telemetry.Bucket(e.bucket), telemetry.Query(query))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := e.requireConnected(); err != nil {
		return nil, err
	}

	if err := e.rebuildFTS(ctx); err != nil {
		return nil, err
	}

	pattern, depth := dirPrefix(dir)
	cmp := "="
	if recursive {
		cmp = ">="
	}

	sqlQuery := `
		SELECT f.fullpath, f.desc_raw, bm25(file_v0_fts) AS score
		FROM file_v0_fts ft
		JOIN file_v0 f ON f.fullpath = ft.fullpath
		WHERE file_v0_fts MATCH ?
		AND ` + depthExpr + ` ` + cmp + ` ?`
	args := []any{e.toFTS(query), depth + 1}
	if pattern != "" {
		sqlQuery += ` AND f.fullpath LIKE ? ESCAPE '\'`
		args = append(args, pattern)
	}
	sqlQuery += ` ORDER BY score ASC` // SQLite's bm25() is more negative for a better match
	if limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := e.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, storeerr.NewOther(fmt.Sprintf("catalog: search: %v", err))
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			full  string
			desc  sql.NullString
			score float64
		)
		if err := rows.Scan(&full, &desc, &score); err != nil {
			return nil, storeerr.NewOther(fmt.Sprintf("catalog: search scan: %v", err))
		}
		normalized := -score // bm25() returns a lower-is-better value; expose higher-is-better
		if normalized < scoreThreshold {
			continue
		}
		results = append(results, SearchResult{FilePath: full, Description: desc.String, Score: normalized})
	}
	if err := rows.Err(); err != nil {
		return nil, storeerr.NewOther(fmt.Sprintf("catalog: search rows: %v", err))
	}
	telemetry.SetAttributes(ctx, telemetry.Results(len(results)))
	return results, nil
}

func (e *Engine) rebuildFTS(ctx context.Context) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return storeerr.NewOther(fmt.Sprintf("catalog: rebuild fts: %v", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_v0_fts`); err != nil {
		return storeerr.NewOther(fmt.Sprintf("catalog: rebuild fts delete: %v", err))
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO file_v0_fts (fullpath, desc_fts)
		SELECT fullpath, desc_fts FROM file_v0 WHERE desc_fts IS NOT NULL`); err != nil {
		return storeerr.NewOther(fmt.Sprintf("catalog: rebuild fts insert: %v", err))
	}
	if err := tx.Commit(); err != nil {
		return storeerr.NewOther(fmt.Sprintf("catalog: rebuild fts commit: %v", err))
	}
	return nil
}
