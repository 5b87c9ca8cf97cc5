package resolve

// colorEnums maps the canonical color words produced by extraction to the
// marketplace ColorEnum. Unknown enums are dropped by the client on retry.
var colorEnums = map[string]string{
	"black":  "BLACK",
	"white":  "WHITE",
	"gray":   "GREY",
	"grey":   "GREY",
	"brown":  "BROWN",
	"orange": "ORANGE",
	"red":    "RED",
	"blue":   "BLUE",
	"navy":   "BLUE",
	"green":  "GREEN",
	"olive":  "GREEN",
	"khaki":  "KHAKI",
	"pink":   "PINK",
	"purple": "PURPLE",
	"beige":  "BEIGE",
	"cream":  "BEIGE",
	"tan":    "BEIGE",
	"yellow": "YELLOW",
	"silver": "SILVER",
	"gold":   "GOLD",
}
