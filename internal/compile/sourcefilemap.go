package compile

// SourceFileMap records, for diagnostics only, which source file a run
// of consecutive instructions came from. It never affects execution;
// the Linker concatenates these as it concatenates code.
type SourceFileMap struct {
	// runs holds (instructionCount, fileName) pairs in code order.
	runs []sourceRun
}

type sourceRun struct {
	count int
	file  string
}

// NewEmptySourceFileMap returns a map with no runs, as compile.rs's
// SourceFileMap::new_empty.
func NewEmptySourceFileMap() SourceFileMap {
	return SourceFileMap{}
}

// NewSourceFileMap returns a map with a single run covering the whole
// program.
func NewSourceFileMap(count int, file string) SourceFileMap {
	return SourceFileMap{runs: []sourceRun{{count: count, file: file}}}
}

// Push appends a run of count instructions attributed to file.
func (m *SourceFileMap) Push(count int, file string) {
	if count == 0 {
		return
	}
	m.runs = append(m.runs, sourceRun{count: count, file: file})
}

// FileAt returns the file name attributed to instruction index idx, or
// "" if idx falls outside every recorded run.
func (m SourceFileMap) FileAt(idx int) string {
	base := 0
	for _, r := range m.runs {
		if idx < base+r.count {
			return r.file
		}
		base += r.count
	}
	return ""
}

// Len returns the total instruction count the map covers.
func (m SourceFileMap) Len() int {
	n := 0
	for _, r := range m.runs {
		n += r.count
	}
	return n
}
