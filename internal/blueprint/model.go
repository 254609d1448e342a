package blueprint

// Point is a single 2D coordinate. Points have no identity beyond their values.
type Point struct {
	X int
	Y int
}

// Blueprint is an author's named, ordered sequence of points. The pair
// (Author, Name) identifies it across the whole store.
type Blueprint struct {
	Author string
	Name   string
	Points []Point
}
