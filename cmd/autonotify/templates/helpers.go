package templates

import (
	"strconv"
	"strings"

	"github.com/delaneyj/autonotify/module"
)

func attributeList(attrs []module.Attribute) string {
	var sb strings.Builder
	for i, a := range attrs {
		sb.WriteString(a.Type)
		if len(a.Args) > 0 {
			sb.WriteByte('(')
			for j, arg := range a.Args {
				sb.WriteString(strconv.Quote(arg))
				if j < len(a.Args)-1 {
					sb.WriteString(", ")
				}
			}
			sb.WriteByte(')')
		}
		if i < len(attrs)-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

func signature(m *module.Method) string {
	var sb strings.Builder
	if m.Static {
		sb.WriteString("static ")
	} else {
		sb.WriteString("instance ")
	}
	if m.Returns {
		sb.WriteString("value ")
	} else {
		sb.WriteString("void ")
	}
	sb.WriteString(m.Name)
	sb.WriteByte('(')
	for i := 0; i < m.Params; i++ {
		sb.WriteString("arg")
		sb.WriteString(strconv.Itoa(i + 1))
		if i < m.Params-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func accessors(p *module.Property) string {
	var parts []string
	if p.Getter != nil {
		parts = append(parts, "get "+p.Getter.Name)
	}
	if p.Setter != nil {
		parts = append(parts, "set "+p.Setter.Name)
	}
	return strings.Join(parts, "; ")
}

// offset renders the instruction index the way disassemblers do.
func offset(i int) string {
	s := strconv.FormatInt(int64(i), 16)
	if len(s) < 4 {
		s = strings.Repeat("0", 4-len(s)) + s
	}
	return "IL_" + s
}

func fieldKind(f *module.Field) string {
	if f.Event {
		return ".event"
	}
	return ".field"
}
