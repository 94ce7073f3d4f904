package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mesh-intelligence/drills/pkg/exercise"
	"github.com/mesh-intelligence/drills/pkg/model"
)

// fieldView is the printed state of one field of one entity.
type fieldView struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Field string `json:"field"`
	Value any    `json:"value"`
	Saved any    `json:"saved"`
	Dirty bool   `json:"dirty"`
	Error string `json:"error,omitempty"`
}

// modelViews returns the state of every field of m in schema order.
func modelViews(m *model.Model) []fieldView {
	views := make([]fieldView, 0, len(m.Fields()))
	for _, f := range m.Fields() {
		st, err := m.State(f)
		if err != nil {
			continue
		}
		v := fieldView{Kind: m.Kind(), ID: m.ID().String(), Field: f, Value: st.Value, Saved: st.Saved, Dirty: st.Dirty}
		if st.Err != nil {
			v.Error = st.Err.Error()
		}
		views = append(views, v)
	}
	return views
}

// exerciseViews returns the state of every field of ex, its field and its
// players in id order.
func exerciseViews(ex *exercise.Exercise) []fieldView {
	views := modelViews(ex.Model)
	views = append(views, modelViews(ex.Field().Model)...)
	for _, id := range ex.PlayerIDs() {
		if p, ok := ex.Player(id); ok {
			views = append(views, modelViews(p.Model)...)
		}
	}
	return views
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// printStates writes field states as JSON or as an aligned table.
func printStates(w io.Writer, jsonMode bool, views []fieldView) error {
	if jsonMode {
		return printJSON(w, views)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tFIELD\tVALUE\tSAVED\tSTATE")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%v\t%s\n", v.Kind, v.ID, v.Field, v.Value, v.Saved, stateLabel(v))
	}
	return tw.Flush()
}

func stateLabel(v fieldView) string {
	switch {
	case v.Error != "":
		return "error: " + v.Error
	case v.Dirty:
		return "modified"
	default:
		return "saved"
	}
}
