package codegen

import "github.com/xkilldash9x/scribe-cli/api/schemas"

// buildFixture produces the data rows backing the generated loop. A
// fresh fixture is one row with every column empty, ready to be filled
// in. Merging keeps every pre-existing row and value and only adds
// newly detected columns, so regeneration never discards user data.
func buildFixture(columns []schemas.Parameter, previous []schemas.FixtureRow) []schemas.FixtureRow {
	if len(previous) == 0 {
		row := make(schemas.FixtureRow, len(columns))
		for _, column := range columns {
			row[column.Column] = ""
		}
		return []schemas.FixtureRow{row}
	}

	out := make([]schemas.FixtureRow, 0, len(previous))
	for _, prev := range previous {
		row := make(schemas.FixtureRow, len(prev)+len(columns))
		for k, v := range prev {
			row[k] = v
		}
		for _, column := range columns {
			if _, ok := row[column.Column]; !ok {
				row[column.Column] = ""
			}
		}
		out = append(out, row)
	}
	return out
}
