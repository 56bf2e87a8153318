// Package template holds the built-in default maze, used whenever the
// server is started without a -t template file.
package template

// defaultRows is a 21x21 maze, wide enough to host several players
// and give line-of-sight corridors of varying length.
var defaultRows = []string{
	"#####################",
	"#   #       #       #",
	"#   #   #   #   #####",
	"#   #   #   #       #",
	"##### ##### ##### ###",
	"#       #       #   #",
	"#   #####   #####   #",
	"#   #       #       #",
	"#   #   #########   #",
	"#       #           #",
	"#####   #   #########",
	"#       #   #       #",
	"#   #####   #   #   #",
	"#   #       #   #   #",
	"#   #   #########   #",
	"#       #           #",
	"##### ##### ##### ###",
	"#   #       #       #",
	"#   #   #   #####   #",
	"#           #       #",
	"#####################",
}

// Default returns a copy of the built-in default maze template rows.
func Default() []string {
	rows := make([]string, len(defaultRows))
	copy(rows, defaultRows)
	return rows
}
