package token

import "fmt"

// Pos is a compact encoding of a source position: a 1-based byte offset
// into the FileSet's base space. NoPos means "no position".
type Pos int

const NoPos Pos = 0

func (p Pos) IsValid() bool { return p != NoPos }

// Position is a human-readable source position.
type Position struct {
	Filename string
	Offset   int // byte offset, starting at 0
	Line     int // line number, starting at 1
	Column   int // column number, starting at 1 (byte count)
}

func (pos Position) IsValid() bool { return pos.Line > 0 }

func (pos Position) String() string {
	s := pos.Filename
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// File is a handle for a single source file in a FileSet.
type File struct {
	name  string
	base  Pos
	size  int
	lines []int // byte offset of the start of each line
}

func (f *File) Name() string { return f.name }
func (f *File) Base() Pos    { return f.base }
func (f *File) Size() int    { return f.size }

// AddLine records the byte offset of a new line start.
func (f *File) AddLine(offset int) {
	if i := len(f.lines); (i == 0 || f.lines[i-1] < offset) && offset <= f.size {
		f.lines = append(f.lines, offset)
	}
}

// LineStart returns the Pos of the start of the given 1-based line.
func (f *File) LineStart(line int) Pos {
	if line < 1 || line > len(f.lines) {
		return NoPos
	}
	return f.base + Pos(f.lines[line-1])
}

// Pos converts a byte offset into a Pos within this file.
func (f *File) Pos(offset int) Pos {
	return f.base + Pos(offset)
}

// Offset converts a Pos back into a byte offset within this file.
func (f *File) Offset(p Pos) int {
	return int(p - f.base)
}

func (f *File) Position(p Pos) Position {
	offset := f.Offset(p)
	line, col := 1, offset+1
	for i := len(f.lines) - 1; i >= 0; i-- {
		if f.lines[i] <= offset {
			line = i + 1
			col = offset - f.lines[i] + 1
			break
		}
	}
	return Position{Filename: f.name, Offset: offset, Line: line, Column: col}
}

// FileSet holds the files known to an analysis session.
type FileSet struct {
	base  Pos
	files []*File
}

func NewFileSet() *FileSet {
	return &FileSet{base: 1}
}

func (s *FileSet) AddFile(name string, size int) *File {
	f := &File{name: name, base: s.base, size: size, lines: []int{0}}
	s.base += Pos(size) + 1
	s.files = append(s.files, f)
	return f
}

// File returns the file containing p, or nil.
func (s *FileSet) File(p Pos) *File {
	for _, f := range s.files {
		if p >= f.base && p <= f.base+Pos(f.size) {
			return f
		}
	}
	return nil
}

func (s *FileSet) Position(p Pos) Position {
	if f := s.File(p); f != nil {
		return f.Position(p)
	}
	return Position{}
}
