package bot

import "fmt"

// pluralize picks the Ukrainian form for count: one for 1, 21, 31...,
// few for 2-4, 22-24..., many otherwise.
func pluralize(one, few, many string, count int) string {
	n := count % 100
	var s string
	switch {
	case n%10 == 1 && n != 11:
		s = one
	case n%10 >= 2 && n%10 <= 4 && (n < 12 || n > 14):
		s = few
	default:
		s = many
	}
	return fmt.Sprintf("%d %s", count, s)
}
