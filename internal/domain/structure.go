package domain

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultResponseMarker flags an answer slot in flow-text questionnaires when
// structure detection does not provide one.
const DefaultResponseMarker = "Réponse du titulaire"

// SheetStructure describes where questions and answers live in one worksheet.
// Columns are spreadsheet letters ("A", "AB"); rows are 1-based.
type SheetStructure struct {
	Name            string   `json:"name"`
	HasQuestions    bool     `json:"has_questions"`
	IDColumn        string   `json:"id_column,omitempty"`
	QuestionColumn  string   `json:"question_column"`
	ResponseColumns []string `json:"response_columns"`
	HeaderRow       int      `json:"header_row"`
	FirstDataRow    int      `json:"first_data_row"`
}

// StructureModel is the per-document layout descriptor. Sheets is used by the
// tabular format; ResponseMarker and Pattern by the flow-text format.
type StructureModel struct {
	Format         Format           `json:"format"`
	Sheets         []SheetStructure `json:"sheets,omitempty"`
	Pattern        string           `json:"pattern,omitempty"`
	ResponseMarker string           `json:"response_marker,omitempty"`
}

// DefaultStructure returns the built-in layout used when detection fails.
func DefaultStructure(format Format) *StructureModel {
	if format == FormatXLSX {
		return &StructureModel{
			Format: FormatXLSX,
			Sheets: []SheetStructure{{
				Name:            "Sheet1",
				HasQuestions:    true,
				QuestionColumn:  "A",
				ResponseColumns: []string{"B"},
				HeaderRow:       1,
				FirstDataRow:    2,
			}},
		}
	}
	return &StructureModel{Format: FormatDOCX, ResponseMarker: DefaultResponseMarker}
}

// Validate checks the format-specific invariants of the structure.
func (s *StructureModel) Validate() error {
	switch s.Format {
	case FormatXLSX:
		if len(s.Sheets) == 0 {
			return eris.Wrap(ErrInvalidStructure, "tabular structure has no sheet")
		}
		usable := false
		for i := range s.Sheets {
			sh := &s.Sheets[i]
			if strings.TrimSpace(sh.Name) == "" {
				return eris.Wrapf(ErrInvalidStructure, "sheet %d has no name", i)
			}
			if sh.FirstDataRow < 1 {
				return eris.Wrapf(ErrInvalidStructure, "sheet %q has invalid first data row %d", sh.Name, sh.FirstDataRow)
			}
			if sh.QuestionColumn != "" && len(sh.ResponseColumns) > 0 {
				usable = true
			}
		}
		if !usable {
			return eris.Wrap(ErrInvalidStructure, "no sheet has both a question column and a response column")
		}
	case FormatDOCX:
		if strings.TrimSpace(s.ResponseMarker) == "" {
			return eris.Wrap(ErrInvalidStructure, "flow-text structure has an empty response marker")
		}
	default:
		return eris.Wrapf(ErrUnsupportedFormat, "structure format %q", s.Format)
	}
	return nil
}

// SheetNames lists the sheet names declared in a tabular structure.
func (s *StructureModel) SheetNames() []string {
	names := make([]string, 0, len(s.Sheets))
	for i := range s.Sheets {
		names = append(names, s.Sheets[i].Name)
	}
	return names
}

// Marker returns the response marker, falling back to the default one.
func (s *StructureModel) Marker() string {
	if s == nil || strings.TrimSpace(s.ResponseMarker) == "" {
		return DefaultResponseMarker
	}
	return s.ResponseMarker
}

// rawSheet is the loose form of SheetStructure accepted from detection output
// and from clients. Missing fields take the defaults of DefaultStructure.
type rawSheet struct {
	Name            *string    `json:"name"`
	HasQuestions    *bool      `json:"has_questions"`
	IDColumn        *string    `json:"id_column"`
	QuestionColumn  *string    `json:"question_column"`
	ResponseColumns columnList `json:"response_columns"`
	HeaderRow       *int       `json:"header_row"`
	FirstDataRow    *int       `json:"first_data_row"`
}

type rawStructure struct {
	Sheets         []rawSheet `json:"sheets"`
	Pattern        *string    `json:"pattern"`
	ResponseMarker *string    `json:"response_marker"`
}

// columnList accepts either a list of column letters or a single letter.
type columnList []string

func (c *columnList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*c = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single != "" {
		*c = columnList{single}
	}
	return nil
}

// ParseStructure builds a structure of the given format from its JSON object
// form, filling missing fields with defaults, and validates the result.
func ParseStructure(format Format, data []byte) (*StructureModel, error) {
	var raw rawStructure
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(ErrInvalidStructure, err.Error())
	}

	s := &StructureModel{Format: format}
	switch format {
	case FormatXLSX:
		for _, rs := range raw.Sheets {
			sh := SheetStructure{
				Name:            orString(rs.Name, "Sheet1"),
				HasQuestions:    rs.HasQuestions == nil || *rs.HasQuestions,
				IDColumn:        strings.TrimSpace(orString(rs.IDColumn, "")),
				QuestionColumn:  orString(rs.QuestionColumn, "A"),
				ResponseColumns: []string(rs.ResponseColumns),
				HeaderRow:       orInt(rs.HeaderRow, 1),
				FirstDataRow:    orInt(rs.FirstDataRow, 2),
			}
			if rs.ResponseColumns == nil {
				sh.ResponseColumns = []string{"B"}
			}
			s.Sheets = append(s.Sheets, sh)
		}
		if len(s.Sheets) == 0 {
			s.Sheets = DefaultStructure(FormatXLSX).Sheets
		}
	case FormatDOCX:
		s.Pattern = orString(raw.Pattern, "")
		s.ResponseMarker = orString(raw.ResponseMarker, DefaultResponseMarker)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func orString(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

func orInt(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}
