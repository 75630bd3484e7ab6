package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// TempSibling returns a hidden path next to dst that keeps dst's extension so
// ffmpeg still picks the right muxer.
func TempSibling(dst, tag string) string {
	dir := filepath.Dir(dst)
	base := filepath.Base(dst)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if tag == "" {
		tag = "partial"
	}
	return filepath.Join(dir, "."+stem+"."+tag+ext)
}

// Promote moves a finished temporary file onto its final path. A rename is
// attempted first; across filesystems the file is copied and the temp removed.
// dst is only ever replaced by a complete file.
func Promote(tmp, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	err := os.Rename(tmp, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("promote %s: %w", filepath.Base(dst), err)
	}

	staged := TempSibling(dst, "promote")
	if err := CopyFile(tmp, staged); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("promote copy: %w", err)
	}
	if err := os.Rename(staged, dst); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("promote %s: %w", filepath.Base(dst), err)
	}
	_ = os.Remove(tmp)
	return nil
}

// SanitizeName folds a file stem into an ASCII-safe identifier: accents are
// stripped, runs of anything other than letters, digits, dash and dot become a
// single underscore.
func SanitizeName(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	b.Grow(len(folded))
	pendingUnderscore := false
	for _, r := range folded {
		keep := r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.')
		if !keep {
			pendingUnderscore = b.Len() > 0
			continue
		}
		if pendingUnderscore {
			b.WriteByte('_')
			pendingUnderscore = false
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "untitled"
	}
	return out
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
