package event

import (
	"fmt"
	"strconv"
	"strings"
)

// Conventional event codes. They are vocabulary for producers and listeners
// that want to agree on common names; the manager attaches no meaning to any
// code.
const (
	EventNone = iota
	EventKeyPress
	EventKeyRelease
	EventChar
	EventTime
	EventTimer0
	EventTimer1
	EventTimer2
	EventTimer3
	EventAnalog0
	EventAnalog1
	EventAnalog2
	EventAnalog3
	EventAnalog4
	EventAnalog5
	EventMenu0
	EventMenu1
	EventMenu2
	EventMenu3
	EventMenu4
	EventMenu5
	EventMenu6
	EventMenu7
	EventMenu8
	EventMenu9
	EventSerial
	EventPaint
	EventUser0
	EventUser1
	EventUser2
	EventUser3
	EventUser4
	EventUser5
	EventUser6
	EventUser7
	EventUser8
	EventUser9
)

var codeNames = [...]string{
	EventNone:       "none",
	EventKeyPress:   "keypress",
	EventKeyRelease: "keyrelease",
	EventChar:       "char",
	EventTime:       "time",
	EventTimer0:     "timer0",
	EventTimer1:     "timer1",
	EventTimer2:     "timer2",
	EventTimer3:     "timer3",
	EventAnalog0:    "analog0",
	EventAnalog1:    "analog1",
	EventAnalog2:    "analog2",
	EventAnalog3:    "analog3",
	EventAnalog4:    "analog4",
	EventAnalog5:    "analog5",
	EventMenu0:      "menu0",
	EventMenu1:      "menu1",
	EventMenu2:      "menu2",
	EventMenu3:      "menu3",
	EventMenu4:      "menu4",
	EventMenu5:      "menu5",
	EventMenu6:      "menu6",
	EventMenu7:      "menu7",
	EventMenu8:      "menu8",
	EventMenu9:      "menu9",
	EventSerial:     "serial",
	EventPaint:      "paint",
	EventUser0:      "user0",
	EventUser1:      "user1",
	EventUser2:      "user2",
	EventUser3:      "user3",
	EventUser4:      "user4",
	EventUser5:      "user5",
	EventUser6:      "user6",
	EventUser7:      "user7",
	EventUser8:      "user8",
	EventUser9:      "user9",
}

// CodeName returns the conventional name of an event code, or the decimal
// code for codes without one.
func CodeName(code int) string {
	if code >= 0 && code < len(codeNames) {
		return codeNames[code]
	}
	return strconv.Itoa(code)
}

// ParseCode parses a conventional event name ("timer0", "user3") or a
// decimal integer into an event code.
func ParseCode(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for code, name := range codeNames {
		if name == s {
			return code, nil
		}
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCode, s)
	}
	return code, nil
}
