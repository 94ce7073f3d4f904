package exercise

import (
	"github.com/mesh-intelligence/drills/pkg/model"
	"github.com/mesh-intelligence/drills/pkg/types"
)

// Field schema field names.
const (
	FieldName    = "name"
	FieldSurface = "surface"
	FieldLength  = "length"
	FieldWidth   = "width"
)

// FieldSchema declares the savable fields of a Field.
var FieldSchema = types.Schema{
	{Name: FieldName, ValueType: types.ValueTypeText, Required: true},
	{Name: FieldSurface, ValueType: types.ValueTypeText},
	{Name: FieldLength, ValueType: types.ValueTypeNumber},
	{Name: FieldWidth, ValueType: types.ValueTypeNumber},
}

// FieldData is the snapshot shape a Field is constructed from.
type FieldData struct {
	ID      types.ID `json:"id"`
	Name    string   `json:"name"`
	Surface string   `json:"surface"`
	Length  float64  `json:"length"`
	Width   float64  `json:"width"`
}

// Field is the pitch an exercise is played on.
type Field struct {
	*model.Model
}

// NewField builds a Field from its snapshot.
func NewField(d FieldData) (*Field, error) {
	m, err := model.New(types.KindField, FieldSchema, d.ID, map[string]any{
		FieldName:    d.Name,
		FieldSurface: d.Surface,
		FieldLength:  d.Length,
		FieldWidth:   d.Width,
	})
	if err != nil {
		return nil, err
	}
	return &Field{Model: m}, nil
}

func (f *Field) Name() string    { return getString(f.Model, FieldName) }
func (f *Field) Surface() string { return getString(f.Model, FieldSurface) }
func (f *Field) Length() float64 { return getFloat(f.Model, FieldLength) }
func (f *Field) Width() float64  { return getFloat(f.Model, FieldWidth) }

func (f *Field) SetName(v string) error    { return f.Set(FieldName, v) }
func (f *Field) SetSurface(v string) error { return f.Set(FieldSurface, v) }
func (f *Field) SetLength(v float64) error { return f.Set(FieldLength, v) }
func (f *Field) SetWidth(v float64) error  { return f.Set(FieldWidth, v) }

// Merge reconciles incoming into f field by field.
func (f *Field) Merge(incoming *Field, opts model.MergeOptions) error {
	_, err := model.Merge(f.Model, incoming.Model, opts)
	return err
}

// Data returns the field's current values as a snapshot.
func (f *Field) Data() FieldData {
	return FieldData{
		ID:      f.ID(),
		Name:    f.Name(),
		Surface: f.Surface(),
		Length:  f.Length(),
		Width:   f.Width(),
	}
}
