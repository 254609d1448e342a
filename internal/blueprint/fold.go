package blueprint

// Row is one flat result row of a header LEFT JOIN points query. X and Y are
// nil when the header has no matching point row.
type Row struct {
	Author string
	Name   string
	X      *int
	Y      *int
}

type identity struct {
	author string
	name   string
}

// Fold groups rows into blueprints. Blueprints appear in the order their
// first row appears, and points keep the order of their rows. A point is
// materialized only when both coordinates are present, so a header without
// points folds to a blueprint with an empty point slice.
func Fold(rows []Row) []Blueprint {
	blueprints := []Blueprint{}
	index := make(map[identity]int)

	for _, row := range rows {
		key := identity{author: row.Author, name: row.Name}
		i, ok := index[key]
		if !ok {
			i = len(blueprints)
			index[key] = i
			blueprints = append(blueprints, Blueprint{
				Author: row.Author,
				Name:   row.Name,
				Points: []Point{},
			})
		}
		if row.X != nil && row.Y != nil {
			blueprints[i].Points = append(blueprints[i].Points, Point{X: *row.X, Y: *row.Y})
		}
	}

	return blueprints
}
