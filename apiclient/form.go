package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Form accumulates fields and files for a multipart upload.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	field    string
	filename string
	content  io.Reader
}

// NewForm returns an empty multipart form.
func NewForm() *Form {
	return &Form{}
}

// AddField appends a plain text field.
func (f *Form) AddField(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AddFile appends a file part read from content.
func (f *Form) AddFile(field, filename string, content io.Reader) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, content: content})
	return f
}

// encode renders the form into a multipart body and reports the content type
// carrying the generated boundary.
func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("writing field %q: %w", field.name, err)
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part %q: %w", file.filename, err)
		}
		if _, err := io.Copy(part, file.content); err != nil {
			return nil, "", fmt.Errorf("copying file %q: %w", file.filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
