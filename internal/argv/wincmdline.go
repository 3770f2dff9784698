package argv

import "strings"

// SplitWindowsCommandLine tokenizes a Windows command line with the rules
// CommandLineToArgvW applies. The program name ends at the next quote when
// it starts with one, otherwise at the first blank, and backslashes are
// literal inside it. Later arguments use the 2n / 2n+1 backslash rule and
// treat "" inside a quoted span as a literal quote.
func SplitWindowsCommandLine(cmd string) []string {
	args := []string{}
	if cmd == "" {
		return args
	}

	var prog strings.Builder
	i := 0
	if cmd[0] == '"' {
		i = 1
		for i < len(cmd) && cmd[i] != '"' {
			prog.WriteByte(cmd[i])
			i++
		}
		if i < len(cmd) {
			i++
		}
	} else {
		for i < len(cmd) && !isBlank(cmd[i]) {
			prog.WriteByte(cmd[i])
			i++
		}
	}
	args = append(args, prog.String())

	for {
		for i < len(cmd) && isBlank(cmd[i]) {
			i++
		}
		if i >= len(cmd) {
			return args
		}
		var arg string
		arg, i = readArg(cmd, i)
		args = append(args, arg)
	}
}

func readArg(cmd string, i int) (string, int) {
	var b strings.Builder
	inQuote := false
	slashes := 0
	for ; i < len(cmd); i++ {
		c := cmd[i]
		switch {
		case c == '\\':
			slashes++
			continue
		case c == '"':
			b.WriteString(strings.Repeat(`\`, slashes/2))
			if slashes%2 == 1 {
				b.WriteByte('"')
			} else if inQuote && i+1 < len(cmd) && cmd[i+1] == '"' {
				b.WriteByte('"')
				i++
			} else {
				inQuote = !inQuote
			}
			slashes = 0
			continue
		case isBlank(c) && !inQuote:
			b.WriteString(strings.Repeat(`\`, slashes))
			return b.String(), i
		}
		b.WriteString(strings.Repeat(`\`, slashes))
		slashes = 0
		b.WriteByte(c)
	}
	b.WriteString(strings.Repeat(`\`, slashes))
	return b.String(), i
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}
