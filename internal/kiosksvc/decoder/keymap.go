package decoder

// KeyEnter terminates one keyboard-emulation frame.
const KeyEnter = "KEY_ENTER"

// Shift modifiers. The keyboard shim emits the modifier keycode on its own
// line before the key it applies to.
const (
	KeyLeftShift  = "KEY_LEFTSHIFT"
	KeyRightShift = "KEY_RIGHTSHIFT"
)

// ShiftedKeymap translates keycodes that arrive behind a shift modifier.
// Only underscore needs it; the scanner has dedicated codes for the rest of
// the JSON alphabet.
var ShiftedKeymap = map[string]string{
	"KEY_MINUS": "_",
}

// Keymap translates evdev-style key-up codes into the characters a QR
// payload can contain. The scanner ships its own layout, so shift state is
// irrelevant: every symbol the JSON alphabet needs has a dedicated keycode.
var Keymap = map[string]string{
	"KEY_0": "0", "KEY_1": "1", "KEY_2": "2", "KEY_3": "3", "KEY_4": "4",
	"KEY_5": "5", "KEY_6": "6", "KEY_7": "7", "KEY_8": "8", "KEY_9": "9",

	"KEY_A": "a", "KEY_B": "b", "KEY_C": "c", "KEY_D": "d", "KEY_E": "e",
	"KEY_F": "f", "KEY_G": "g", "KEY_H": "h", "KEY_I": "i", "KEY_J": "j",
	"KEY_K": "k", "KEY_L": "l", "KEY_M": "m", "KEY_N": "n", "KEY_O": "o",
	"KEY_P": "p", "KEY_Q": "q", "KEY_R": "r", "KEY_S": "s", "KEY_T": "t",
	"KEY_U": "u", "KEY_V": "v", "KEY_W": "w", "KEY_X": "x", "KEY_Y": "y",
	"KEY_Z": "z",

	"KEY_LEFTBRACE":  "{",
	"KEY_RIGHTBRACE": "}",
	"KEY_APOSTROPHE": "\"",
	"KEY_SEMICOLON":  ":",
	"KEY_COMMA":      ",",
	"KEY_MINUS":      "-",
	"KEY_DOT":        ".",
	"KEY_SLASH":      "/",
	"KEY_EQUAL":      "=",
	"KEY_SPACE":      " ",
	"KEY_KPPLUS":     "+",
}
