package join

import "strconv"

// RowColumn is the pseudo-column holding an output row's 1-based position.
const RowColumn = "ROW"

// ColumnUniverse deduplicates raw column names in first-seen order and puts
// ROW first. A source column literally named ROW is shadowed by the pseudo-column.
func ColumnUniverse(raw []string) []string {
	seen := map[string]struct{}{RowColumn: {}}
	universe := []string{RowColumn}
	for _, c := range raw {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		universe = append(universe, c)
	}
	return universe
}

// Project keeps the universe columns named in project, in universe order,
// always keeping ROW. A nil or empty project list keeps everything. It fails
// with ErrEmptyProjection when no column besides ROW survives.
func Project(universe, project []string) ([]string, error) {
	if len(project) == 0 {
		return universe, nil
	}

	allowed := make(map[string]struct{}, len(project))
	for _, c := range project {
		allowed[c] = struct{}{}
	}

	header := []string{RowColumn}
	for _, c := range universe {
		if c == RowColumn {
			continue
		}
		if _, ok := allowed[c]; ok {
			header = append(header, c)
		}
	}
	if len(header) == 1 {
		return nil, ErrEmptyProjection
	}
	return header, nil
}

// Values returns a row's values aligned to header. Missing columns are empty.
func Values(header []string, row OutputRow) []string {
	values := make([]string, len(header))
	for i, c := range header {
		if c == RowColumn {
			values[i] = strconv.Itoa(row.Index)
			continue
		}
		values[i], _ = row.Values.Get(c)
	}
	return values
}
