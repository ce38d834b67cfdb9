package expand

import "strings"

// Selection records the choice made in one subcommand group
type Selection struct {
	Group    string `json:"group"`
	Selected string `json:"selected"`
}

// Chain is an ordered list of selections from the job root downwards
type Chain []Selection

// With returns a copy of the chain extended by one selection
func (c Chain) With(group, selected string) Chain {
	next := make(Chain, len(c), len(c)+1)
	copy(next, c)
	return append(next, Selection{Group: group, Selected: selected})
}

// ArgumentPath is the storage key of an argument value below the chain
func ArgumentPath(chain Chain, argument string) string {
	return join(chain, argument)
}

// SelectionPath is the storage key of the choice made in group below the chain
func SelectionPath(chain Chain, group string) string {
	return join(chain, group)
}

var escaper = strings.NewReplacer(`\`, `\\`, `.`, `\.`)

func join(chain Chain, leaf string) string {
	var sb strings.Builder
	for _, s := range chain {
		sb.WriteString(escaper.Replace(s.Group))
		sb.WriteByte('.')
		sb.WriteString(escaper.Replace(s.Selected))
		sb.WriteByte('.')
	}
	sb.WriteString(escaper.Replace(leaf))
	return sb.String()
}

// SplitPath is the inverse of the path join: it returns the unescaped
// components of a path
func SplitPath(path string) []string {
	parts := []string{}
	var sb strings.Builder
	escaped := false
	for _, r := range path {
		switch {
		case escaped:
			sb.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '.':
			parts = append(parts, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	return append(parts, sb.String())
}
