package tags

// Organisation says whether a bracketed token opens, closes, or
// self-closes an element.
type Organisation uint8

const (
	Opening Organisation = iota
	Closing
	SelfClosing
)

func (o Organisation) String() string {
	switch o {
	case Closing:
		return "closing"
	case SelfClosing:
		return "self-closing"
	default:
		return "opening"
	}
}

// Classify inspects the token src[start..end], where src[start] is '<' and
// src[end] is the matching '>'. A leading slash wins over a trailing one, so
// "</x/>" is Closing and "<br/>" is SelfClosing.
func Classify(src []byte, start, end int) Organisation {
	if start+1 < len(src) && start+1 < end && src[start+1] == '/' {
		return Closing
	}
	if end-1 > start && src[end-1] == '/' {
		return SelfClosing
	}
	return Opening
}

// NameSpan returns the half-open byte range [from, to) of the tag name inside
// the token src[start..end]. The name runs from after '<' (and after '/' for
// closing tokens) to the first whitespace or the end of the bracket; a
// self-closing slash is not part of the name.
func NameSpan(src []byte, start, end int, org Organisation) (int, int) {
	from := start + 1
	if org == Closing {
		from++
	}
	to := end
	if org == SelfClosing {
		to--
	}
	for i := from; i < to; i++ {
		if isSpace(src[i]) {
			to = i
			break
		}
	}
	if from > to {
		from = to
	}
	return from, to
}

// KindOf classifies a token and resolves its name in one step.
func KindOf(src []byte, start, end int) (Kind, Organisation) {
	org := Classify(src, start, end)
	from, to := NameSpan(src, start, end, org)
	return Lookup(string(src[from:to])), org
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
