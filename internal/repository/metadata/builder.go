package metadata

import "strconv"

type placeholderStyle int

const (
	placeholderQuestion placeholderStyle = iota
	placeholderDollar
)

// builder collects query arguments and renders driver-specific placeholders.
type builder struct {
	style placeholderStyle
	args  []any
}

func newBuilder(style placeholderStyle) *builder {
	return &builder{style: style}
}

// Arg records v and returns its placeholder.
func (b *builder) Arg(v any) string {
	b.args = append(b.args, v)
	if b.style == placeholderDollar {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

func (b *builder) Args() []any { return b.args }
