package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

// Attachment is the optional PDF sent with a new scholarship.
type Attachment struct {
	Filename string
	Content  io.Reader
}

// ListScholarships returns every scholarship.
func (c *Client) ListScholarships(ctx context.Context) ([]model.Scholarship, error) {
	var list []model.Scholarship
	if err := c.doJSON(ctx, http.MethodGet, c.scholarshipsPath, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetScholarship returns one scholarship.
func (c *Client) GetScholarship(ctx context.Context, id string) (*model.Scholarship, error) {
	var s model.Scholarship
	if err := c.doJSON(ctx, http.MethodGet, itemPath(c.scholarshipsPath, id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateScholarship validates the form and posts it as multipart, with pdf
// as the "pdfLink" file part when given.
func (c *Client) CreateScholarship(ctx context.Context, form model.ScholarshipForm, pdf *Attachment) (*model.Scholarship, error) {
	form.Normalize()
	if _, err := form.Parse(); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeScholarshipForm(mw, form, pdf))
	}()

	data, err := c.do(ctx, http.MethodPost, c.scholarshipsPath, mw.FormDataContentType(), pr)
	pr.Close()
	if err != nil {
		return nil, err
	}

	var created model.Scholarship
	if err := decodeOptional(data, &created); err != nil {
		return nil, fmt.Errorf("api: failed to parse create response: %w", err)
	}
	return &created, nil
}

// formFields lists the text parts of a new scholarship, in form order.
func formFields(f model.ScholarshipForm) [][2]string {
	return [][2]string{
		{"title", f.Title},
		{"university", f.University},
		{"description", f.Description},
		{"anneeAcademique", f.AnneeAcademique},
		{"amount", f.Amount},
		{"duration", f.Duration},
		{"places", f.Places},
		{"startDate", f.StartDate},
		{"deadline", f.Deadline},
		{"requiredDocuments", f.RequiredDocuments},
		{"eligibilityCriteria", f.EligibilityCriteria},
	}
}

func writeScholarshipForm(mw *multipart.Writer, form model.ScholarshipForm, pdf *Attachment) error {
	for _, field := range formFields(form) {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return err
		}
	}

	if pdf != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="pdfLink"; filename="%s"`, escapeQuotes(filepath.Base(pdf.Filename))))
		contentType := mime.TypeByExtension(filepath.Ext(pdf.Filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, pdf.Content); err != nil {
			return fmt.Errorf("api: failed to read attachment: %w", err)
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// UpdateScholarship replaces a scholarship with a JSON body.
func (c *Client) UpdateScholarship(ctx context.Context, id string, s model.Scholarship) (*model.Scholarship, error) {
	s.ID = model.ID(id)
	if s.EligibilityCriteria == nil {
		s.EligibilityCriteria = []model.Criterion{}
	}
	if s.RequiredDocuments == nil {
		s.RequiredDocuments = []string{}
	}
	var updated model.Scholarship
	if err := c.doJSON(ctx, http.MethodPut, itemPath(c.scholarshipsPath, id), s, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteScholarship removes a scholarship.
func (c *Client) DeleteScholarship(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath(c.scholarshipsPath, id), "", nil)
	return err
}
