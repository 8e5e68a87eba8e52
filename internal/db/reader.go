package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/michaelscutari/sdficon/internal/entry"
)

// SortKeys lists the orderings accepted by LoadIcons.
var SortKeys = []string{"name", "scale", "bytes", "width", "height"}

const iconColumns = `name, source_path, output_path, source_width, source_height, scale, offset_x, offset_y,
		xlink, bytes, checked, COALESCE(ink_x0, 0), COALESCE(ink_y0, 0), COALESCE(ink_x1, 0), COALESCE(ink_y1, 0),
		overflow, empty, duration_ns`

// ValidSort reports whether sortBy is one of SortKeys.
func ValidSort(sortBy string) bool {
	for _, k := range SortKeys {
		if k == sortBy {
			return true
		}
	}
	return false
}

func orderClause(sortBy string) string {
	switch sortBy {
	case "scale":
		return "scale DESC, name ASC"
	case "bytes":
		return "bytes DESC, name ASC"
	case "width":
		return "source_width DESC, name ASC"
	case "height":
		return "source_height DESC, name ASC"
	default:
		return "name ASC"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIcon(row rowScanner) (entry.Icon, error) {
	var i entry.Icon
	var durationNs int64
	err := row.Scan(&i.Name, &i.SourcePath, &i.OutputPath, &i.SourceWidth, &i.SourceHeight,
		&i.Scale, &i.OffsetX, &i.OffsetY, &i.XLink, &i.Bytes, &i.Checked,
		&i.InkX0, &i.InkY0, &i.InkX1, &i.InkY1, &i.Overflow, &i.Empty, &durationNs)
	i.Duration = time.Duration(durationNs)
	return i, err
}

// LoadIcons returns manifest rows ordered by sortBy (name when unknown).
// A non-positive limit returns every row.
func LoadIcons(db *sql.DB, sortBy string, limit int) ([]entry.Icon, error) {
	if limit <= 0 {
		limit = -1
	}
	query := fmt.Sprintf(`SELECT %s FROM icons ORDER BY %s LIMIT ?`, iconColumns, orderClause(sortBy))

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var icons []entry.Icon
	for rows.Next() {
		i, err := scanIcon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		icons = append(icons, i)
	}

	return icons, rows.Err()
}

// GetIcon returns one icon by file name, or nil when it is not recorded.
func GetIcon(db *sql.DB, name string) (*entry.Icon, error) {
	cache := getIconCache(db)
	if cached, ok := cache.Get(name); ok {
		return &cached, nil
	}

	i, err := scanIcon(db.QueryRow(fmt.Sprintf(`SELECT %s FROM icons WHERE name = ?`, iconColumns), name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cache.Set(i)
	return &i, nil
}

// LoadErrors returns recorded build errors in insertion order.
func LoadErrors(db *sql.DB, limit int) ([]entry.BuildError, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT path, message FROM build_errors ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []entry.BuildError
	for rows.Next() {
		var e entry.BuildError
		if err := rows.Scan(&e.Path, &e.Message); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetBuildMeta retrieves build metadata.
func GetBuildMeta(db *sql.DB) (*entry.BuildMeta, error) {
	var m entry.BuildMeta
	var startTime, endTime int64
	var status string

	err := db.QueryRow(`
		SELECT source_dir, dest_dir, start_time, COALESCE(end_time, 0), icon_count, total_bytes, overflow_count, empty_count, status, error
		FROM build_meta WHERE id = 1
	`).Scan(&m.SourceDir, &m.DestDir, &startTime, &endTime, &m.IconCount, &m.TotalBytes, &m.OverflowCount, &m.EmptyCount, &status, &m.Error)

	if err != nil {
		return nil, err
	}

	m.Status = entry.ParseStatus(status)
	m.StartTime = time.Unix(startTime, 0)
	if endTime > 0 {
		m.EndTime = time.Unix(endTime, 0)
	}

	return &m, nil
}
