package message

// lineReader reads lines from a string. A line ends with "\r\n", "\r" or "\n".
// The line terminator is not part of the returned line. Text after the final
// terminator is returned as a last line, but a terminator at the end of the
// text does not produce an additional empty line.
type lineReader struct {
	s string
	o int
}

// line returns the next line, and false if no more lines are present.
func (r *lineReader) line() (string, bool) {
	if r.o >= len(r.s) {
		return "", false
	}
	s := r.s[r.o:]
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			r.o += i + 1
			return s[:i], true
		case '\r':
			r.o += i + 1
			if i+1 < len(s) && s[i+1] == '\n' {
				r.o++
			}
			return s[:i], true
		}
	}
	r.o = len(r.s)
	return s, true
}

// rest returns the unread remainder of the text.
func (r *lineReader) rest() string {
	return r.s[r.o:]
}

// Lines splits s into lines the same way lineReader does.
func Lines(s string) []string {
	r := &lineReader{s: s}
	var l []string
	for {
		line, ok := r.line()
		if !ok {
			return l
		}
		l = append(l, line)
	}
}
