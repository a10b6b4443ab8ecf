package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"certgen-server-go/models"
)

var unsafeChars = strings.NewReplacer("/", "_", "\\", "_")

// FileName builds "<student_id>_<name_zh><ext>" for a record
func FileName(rec models.Record, ext string) string {
	id := strings.TrimSpace(rec.StudentID)
	if id == "" {
		id = "Unknown"
	}
	name := strings.TrimSpace(rec.NameZh)
	if name == "" {
		name = "Doc"
	}
	return unsafeChars.Replace(id) + "_" + unsafeChars.Replace(name) + ext
}

// namer hands out unique file names, suffixing repeats with " (2)", " (3)"...
type namer struct {
	used map[string]int
}

func newNamer() *namer {
	return &namer{used: make(map[string]int)}
}

func (n *namer) next(name string) string {
	key := strings.ToLower(name)
	n.used[key]++
	count := n.used[key]
	if count == 1 {
		return name
	}
	ext := filepath.Ext(name)
	candidate := fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), count, ext)
	return n.next(candidate)
}
