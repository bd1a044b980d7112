package discovery

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chatbook/smsbridge/pkg/platform"
	_ "modernc.org/sqlite"
)

// BackupFile represents a discovered phone database backup
type BackupFile struct {
	Path         string
	Size         int64
	ModTime      time.Time
	IsValid      bool
	ErrorMessage string
	Preview      *BackupPreview
}

// BackupPreview contains basic info about the backup contents
type BackupPreview struct {
	MessageCount int
	MmsCount     int
	DateRange    string
}

// Scanner locates SMS/MMS database backups in the usual drop locations
type Scanner struct {
	searchPaths []string
}

func NewScanner() *Scanner {
	scanner := &Scanner{}

	if downloadsDir, err := platform.GetDownloadsDir(); err == nil {
		if absPath, err := filepath.Abs(downloadsDir); err == nil {
			scanner.searchPaths = append(scanner.searchPaths, absPath)
		} else {
			scanner.searchPaths = append(scanner.searchPaths, downloadsDir)
		}
	}

	scanner.addExtraPaths()

	return scanner
}

// addExtraPaths adds common places backup tools write to besides Downloads
func (s *Scanner) addExtraPaths() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}

	additionalPaths := []string{
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Documents", "Backups"),
	}

	for _, path := range additionalPaths {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(path)
			if err != nil {
				absPath = path
			}
			if !s.hasPath(absPath) {
				s.searchPaths = append(s.searchPaths, absPath)
			}
		}
	}
}

func (s *Scanner) hasPath(path string) bool {
	for _, p := range s.searchPaths {
		if p == path {
			return true
		}
	}
	return false
}

// SearchPaths returns the directories the scanner will look in.
func (s *Scanner) SearchPaths() []string {
	return s.searchPaths
}

// AddPath adds an explicit directory to scan
func (s *Scanner) AddPath(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if !s.hasPath(path) {
		s.searchPaths = append(s.searchPaths, path)
	}
}

// Scan walks the search paths looking for database files that carry an
// Android telephony schema. Results are sorted newest first.
func (s *Scanner) Scan() ([]*BackupFile, error) {
	var found []*BackupFile
	seen := make(map[string]bool)

	for _, dir := range s.searchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !isCandidateName(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if seen[path] {
				continue
			}
			seen[path] = true

			info, err := entry.Info()
			if err != nil {
				continue
			}

			file := &BackupFile{
				Path:    path,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}
			s.validate(file)
			found = append(found, file)
		}
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].ModTime.After(found[j].ModTime)
	})

	return found, nil
}

// isCandidateName matches the filenames backup tools use for the
// telephony provider database.
func isCandidateName(name string) bool {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	if ext != ".db" && ext != ".sqlite" && ext != ".sqlite3" {
		return false
	}
	return strings.Contains(lower, "sms") || strings.Contains(lower, "mms") ||
		strings.Contains(lower, "message")
}

// validate opens the database read-only and checks for the sms table
func (s *Scanner) validate(file *BackupFile) {
	dsn := fmt.Sprintf("file:%s?_pragma=query_only(1)", file.Path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		file.ErrorMessage = err.Error()
		return
	}
	defer func() { _ = conn.Close() }()

	var smsCount int
	if err := conn.QueryRow("SELECT COUNT(*) FROM sms").Scan(&smsCount); err != nil {
		file.ErrorMessage = "no sms table"
		return
	}

	preview := &BackupPreview{MessageCount: smsCount}

	// MMS table is optional; older backups only carry sms
	if err := conn.QueryRow("SELECT COUNT(*) FROM pdu").Scan(&preview.MmsCount); err != nil {
		preview.MmsCount = 0
	}

	var minDate, maxDate sql.NullInt64
	if err := conn.QueryRow("SELECT MIN(date), MAX(date) FROM sms").Scan(&minDate, &maxDate); err == nil {
		if minDate.Valid && maxDate.Valid {
			first := time.UnixMilli(minDate.Int64)
			last := time.UnixMilli(maxDate.Int64)
			preview.DateRange = fmt.Sprintf("%s - %s",
				first.Format("2006-01-02"), last.Format("2006-01-02"))
		}
	}

	file.IsValid = true
	file.Preview = preview
}
