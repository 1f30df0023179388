package feed

import "fmt"

// Row is one rendered line of the feed.
type Row struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// View is the rendered feed. Placeholder is set when there is nothing to
// list; Rows is then empty.
type View struct {
	Placeholder bool  `json:"placeholder"`
	Rows        []Row `json:"rows"`
}

// Render produces one row per entry, in order.
func Render(entries []Entry) View {
	if len(entries) == 0 {
		return View{Placeholder: true, Rows: []Row{}}
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		row := Row{Primary: e.Key, Secondary: e.Msg}
		if t := e.Record; t != nil {
			row.Secondary = fmt.Sprintf("%s %s %s (%s %s)", t.Class, t.Fname, t.Gender, t.Place, t.Status)
		}
		rows = append(rows, row)
	}
	return View{Rows: rows}
}
