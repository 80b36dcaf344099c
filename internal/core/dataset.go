package core

import "fmt"

// Row is one record of a dataset, aligned with Dataset.Columns by position.
type Row []Value

// Dataset is a loaded table: ordered column names plus ordered rows.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// NewDataset creates an empty dataset with the given (already normalised)
// column names.
func NewDataset(columns []string) *Dataset {
	return &Dataset{Columns: columns}
}

// AddRow appends a row. Short rows are padded with nulls; rows wider than
// the column list are rejected.
func (d *Dataset) AddRow(values []Value) error {
	if len(values) > len(d.Columns) {
		return fmt.Errorf("row %d has %d values, expected at most %d", len(d.Rows)+1, len(values), len(d.Columns))
	}
	row := make(Row, len(d.Columns))
	copy(row, values)
	for i := len(values); i < len(row); i++ {
		row[i] = Null()
	}
	d.Rows = append(d.Rows, row)
	return nil
}

// Validate checks that the dataset has columns and that every row carries
// exactly one value per column.
func (d *Dataset) Validate() error {
	if d == nil {
		return &ValidationError{Field: "dataset", Message: "dataset is nil"}
	}
	if len(d.Columns) == 0 {
		return &ValidationError{Field: "dataset", Message: "dataset has no columns"}
	}
	for i, r := range d.Rows {
		if len(r) != len(d.Columns) {
			return &ValidationError{
				Field:   "dataset",
				Message: fmt.Sprintf("row %d has %d values, expected %d", i+1, len(r), len(d.Columns)),
			}
		}
	}
	return nil
}
