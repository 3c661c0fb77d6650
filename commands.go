package main

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ossyrian/sarcpack/internal/sarc"
)

var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List the entries of a SARC archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var extractCmd = &cobra.Command{
	Use:   "extract <archive>",
	Short: "Extract all named entries of a SARC archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var createCmd = &cobra.Command{
	Use:   "create <dir>",
	Short: "Create a SARC archive from a directory tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

// openArchive loads an archive file into memory and parses it. The
// core only ever sees the buffer; all file I/O stays in this layer.
func openArchive(path string) ([]byte, *sarc.Archive, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read archive: %w", err)
	}
	a, err := sarc.Open(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return buf, a, nil
}

func runList(cmd *cobra.Command, args []string) error {
	_, a, err := openArchive(args[0])
	if err != nil {
		return err
	}

	slog.Info("opened archive",
		"file", args[0],
		"entries", a.Len(),
		"endian", endianName(a.Endian()),
		"data_offset", a.DataOffset(),
	)

	for e := range a.Entries() {
		name := e.Name
		if !e.HasName {
			name = "<nameless>"
		}
		fmt.Printf("%10d  %s\n", len(e.Data), name)
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	_, a, err := openArchive(args[0])
	if err != nil {
		return err
	}

	var written int
	for e := range a.Entries() {
		if !e.HasName {
			slog.Warn("skipping nameless entry", "size", len(e.Data))
			continue
		}
		target, err := entryPath(cfg.OutputDir, e.Name)
		if err != nil {
			slog.Warn("skipping entry with unsafe name", "name", e.Name, "error", err)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", e.Name, err)
		}
		if err := os.WriteFile(target, e.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		written++
	}

	slog.Info("extracted archive", "file", args[0], "entries", written, "dir", cfg.OutputDir)
	return nil
}

// entryPath maps an archive entry name onto the output directory,
// rejecting names that would escape it.
func entryPath(dir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry name %q escapes the output directory", name)
	}
	return filepath.Join(dir, clean), nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	order, err := byteOrder(cfg.Endian)
	if err != nil {
		return err
	}

	w := sarc.NewWriter(order)
	w.SetLegacyMode(cfg.Legacy)
	if cfg.MinAlignment != 0 {
		if err := w.SetMinAlignment(cfg.MinAlignment); err != nil {
			return err
		}
	}

	root := args[0]
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		name := filepath.ToSlash(rel)
		slog.Debug("adding entry", "name", name, "size", len(data))
		return w.Add(name, data)
	})
	if err != nil {
		return err
	}

	buf, err := w.Write()
	if err != nil {
		return fmt.Errorf("failed to serialize archive: %w", err)
	}
	if err := os.WriteFile(cfg.OutputFile, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	slog.Info("created archive",
		"file", cfg.OutputFile,
		"entries", w.Len(),
		"size", len(buf),
		"endian", cfg.Endian,
	)
	return nil
}

func byteOrder(name string) (binary.ByteOrder, error) {
	switch name {
	case "little", "":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order: %s", name)
	}
}

func endianName(order binary.ByteOrder) string {
	if order == binary.ByteOrder(binary.BigEndian) {
		return "big"
	}
	return "little"
}
