package diffpath

// Well-known keys of the command metadata schema.
const (
	KeySubGroups  = "sub_groups"
	KeyCommands   = "commands"
	KeyParameters = "parameters"
)

// CommandName returns the command addressed by the path and the position of
// its name segment. Command names are unique leaves and the nesting is
// strictly outside-in, so the first ['commands'][name] pair from the left is
// authoritative.
func (p Path) CommandName() (string, int, bool) {
	for i := 0; i+1 < len(p); i++ {
		if p[i].Is(KeyCommands) && !p[i+1].IsIndex {
			return p[i+1].Key, i + 1, true
		}
	}
	return "", -1, false
}

// CommandProperty returns the key immediately following the command name
// segment, e.g. "parameters" or "is_preview".
func (p Path) CommandProperty() (string, bool) {
	_, at, ok := p.CommandName()
	if !ok || at+1 >= len(p) || p[at+1].IsIndex {
		return "", false
	}
	return p[at+1].Key, true
}

// ParameterLocator returns the segments after the first ['parameters'] key:
// the parameter index, then the field name, then any nested index. It returns
// nil when the path does not reach below the parameter list.
func (p Path) ParameterLocator() []Segment {
	for i, s := range p {
		if s.Is(KeyParameters) {
			if i+1 >= len(p) {
				return nil
			}
			out := make([]Segment, len(p)-i-1)
			copy(out, p[i+1:])
			return out
		}
	}
	return nil
}

// GroupName returns the innermost ['sub_groups'][name] pair that precedes any
// command segment, along with the position of its name segment.
func (p Path) GroupName() (string, int, bool) {
	limit := len(p)
	if _, at, ok := p.CommandName(); ok {
		limit = at - 1
	}
	name, pos := "", -1
	for i := 0; i+1 < limit; i++ {
		if p[i].Is(KeySubGroups) && !p[i+1].IsIndex {
			name, pos = p[i+1].Key, i+1
		}
	}
	return name, pos, pos >= 0
}

// GroupProperty returns the key following the innermost group segment for a
// path that does not address a command.
func (p Path) GroupProperty() (string, bool) {
	if _, _, ok := p.CommandName(); ok {
		return "", false
	}
	_, at, ok := p.GroupName()
	if !ok || at+1 >= len(p) || p[at+1].IsIndex {
		return "", false
	}
	return p[at+1].Key, true
}

// ExtractCommandName scans a raw path for its ['commands'][name] segment.
// It reports false for malformed paths and for purely group-level paths.
func ExtractCommandName(raw string) (bool, string) {
	p, err := Parse(raw)
	if err != nil {
		return false, ""
	}
	name, _, ok := p.CommandName()
	return ok, name
}

// ExtractCommandProperty returns the key following the segment of cmdName.
func ExtractCommandProperty(raw, cmdName string) (bool, string) {
	p, err := Parse(raw)
	if err != nil {
		return false, ""
	}
	name, _, ok := p.CommandName()
	if !ok || name != cmdName {
		return false, ""
	}
	prop, ok := p.CommandProperty()
	return ok, prop
}

// ExtractParameterLocator returns the bare keys after ['parameters'], e.g.
// ["0", "options", "1"], or nil.
func ExtractParameterLocator(raw string) []string {
	p, err := Parse(raw)
	if err != nil {
		return nil
	}
	loc := p.ParameterLocator()
	if loc == nil {
		return nil
	}
	return Path(loc).Strings()
}
