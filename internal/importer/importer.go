package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

// Expected header names, in their canonical spelling.
const (
	ColumnNom    = "Nom"
	ColumnPrenom = "Prénom"
	ColumnCNE    = "CNE"
)

var (
	// ErrEmptySheet is returned when the first sheet has no data row.
	ErrEmptySheet = errors.New("le fichier Excel est vide ou ne contient pas de données lisibles")

	// ErrNoValidRows is returned when no row carries all three columns.
	ErrNoValidRows = fmt.Errorf("le fichier ne contient pas de données valides ou les colonnes attendues (%s, %s, %s) sont manquantes",
		ColumnNom, ColumnPrenom, ColumnCNE)
)

// UnsupportedFormatError reports a file extension excelize cannot read.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == ".xls" {
		return "format .xls non supporté: enregistrez le classeur au format .xlsx"
	}
	return fmt.Sprintf("format %q non supporté: fichier .xlsx attendu", e.Ext)
}

// Row is one student read from the sheet, with its 1-based sheet row.
type Row struct {
	Line    int
	Student model.Student
}

// ReadFile opens a workbook from disk and reads its students.
func ReadFile(path string) ([]Row, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadStudents(f)
}

// ReadStudents reads students from the first sheet of a workbook.
func ReadStudents(r io.Reader) ([]Row, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la lecture du fichier Excel: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la lecture de la feuille %q: %w", sheets[0], err)
	}
	return parseRows(rows)
}

// columns holds the header index of each field, -1 when absent.
type columns struct {
	nom, prenom, cne int
}

func exactColumns(header []string) (columns, bool) {
	c := columns{nom: -1, prenom: -1, cne: -1}
	for i, h := range header {
		switch h {
		case ColumnNom:
			c.nom = i
		case ColumnPrenom:
			c.prenom = i
		case ColumnCNE:
			c.cne = i
		}
	}
	return c, c.nom >= 0 && c.prenom >= 0 && c.cne >= 0
}

func foldedColumns(header []string) columns {
	c := columns{nom: -1, prenom: -1, cne: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "nom":
			c.nom = i
		case "prénom", "prenom":
			c.prenom = i
		case "cne":
			c.cne = i
		}
	}
	return c
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseRows(rows [][]string) ([]Row, error) {
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}
	header, data := rows[0], rows[1:]

	cols, exact := exactColumns(header)
	if !exact {
		cols = foldedColumns(header)
	}

	var out []Row
	for i, row := range data {
		if blank(row) {
			continue
		}
		s := model.Student{
			Nom:    cell(row, cols.nom),
			Prenom: cell(row, cols.prenom),
			CNE:    cell(row, cols.cne),
		}
		if !exact && (s.Nom == "" || s.Prenom == "" || s.CNE == "") {
			continue
		}
		out = append(out, Row{Line: i + 2, Student: s})
	}

	if len(out) == 0 {
		if exact {
			return nil, ErrEmptySheet
		}
		return nil, ErrNoValidRows
	}
	return out, nil
}

// StudentCreator creates one student.
type StudentCreator interface {
	CreateStudent(ctx context.Context, s model.Student) (*model.Student, error)
}

// Failure is a row the records service refused.
type Failure struct {
	Row Row
	Err error
}

// Summary is the outcome of an import.
type Summary struct {
	Added  []model.Student
	Failed []Failure
}

// Total returns the number of rows processed.
func (s *Summary) Total() int {
	return len(s.Added) + len(s.Failed)
}

// Import creates the rows one at a time, in sheet order. A refused row
// does not stop the import; a cancelled context does.
func Import(ctx context.Context, creator StudentCreator, rows []Row) (*Summary, error) {
	summary := &Summary{}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		created, err := creator.CreateStudent(ctx, row.Student)
		if err != nil {
			summary.Failed = append(summary.Failed, Failure{Row: row, Err: err})
			continue
		}
		summary.Added = append(summary.Added, *created)
	}
	return summary, nil
}
