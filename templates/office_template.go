package templates

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/meysamhadeli/buroca/resources/models"
	"github.com/open2b/scriggo"
)

// OfficeTemplate is an office document (a zip container) whose XML parts
// hold template code. Values are XML escaped and every other part is copied
// unchanged.
type OfficeTemplate struct {
	name   string
	format string
	data   []byte
	parts  map[string]*TextTemplate
}

func newOfficeTemplate(r *Renderer, name, format string, data []byte) (*OfficeTemplate, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s document: %w", format, err)
	}

	t := &OfficeTemplate{
		name:   name,
		format: format,
		data:   data,
		parts:  make(map[string]*TextTemplate),
	}
	for _, file := range archive.File {
		if !isTemplatePart(format, file.Name) {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil, err
		}
		fsys := scriggo.Files{file.Name: content}
		part, err := newTextTemplate(r, name+":"+file.Name, "xml", fsys, file.Name, scriggo.FormatHTML)
		if err != nil {
			return nil, err
		}
		t.parts[file.Name] = part
	}
	return t, nil
}

func isTemplatePart(format, name string) bool {
	for _, pattern := range officeFormats[format] {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (t *OfficeTemplate) Name() string   { return t.name }
func (t *OfficeTemplate) Format() string { return t.format }

// Parts returns the names of the parts rendered as templates.
func (t *OfficeTemplate) Parts() []string {
	names := make([]string, 0, len(t.parts))
	for name := range t.parts {
		names = append(names, name)
	}
	return names
}

// Render writes a copy of the document with its template parts rendered.
func (t *OfficeTemplate) Render(ctx context.Context, ns models.Namespace, w io.Writer) error {
	archive, err := zip.NewReader(bytes.NewReader(t.data), int64(len(t.data)))
	if err != nil {
		return fmt.Errorf("failed to open %s document: %w", t.format, err)
	}

	var buf bytes.Buffer
	out := zip.NewWriter(&buf)
	for _, file := range archive.File {
		part, ok := t.parts[file.Name]
		if !ok {
			// OpenDocument requires "mimetype" first and stored, Copy keeps
			// both the order and the compression method.
			if err := out.Copy(file); err != nil {
				return fmt.Errorf("failed to copy %s: %w", file.Name, err)
			}
			continue
		}

		var rendered bytes.Buffer
		if err := part.Render(ctx, ns, &rendered); err != nil {
			return err
		}
		header := file.FileHeader
		header.CompressedSize64 = 0
		header.UncompressedSize64 = 0
		header.CRC32 = 0
		dst, err := out.CreateHeader(&header)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
		if _, err := dst.Write(rendered.Bytes()); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s document: %w", t.format, err)
	}

	_, err = w.Write(buf.Bytes())
	return err
}
