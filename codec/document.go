package codec

// fieldKind discriminates the value stored in a field.
type fieldKind int

const (
	kindDouble fieldKind = iota
	kindInt64
	kindInt
	kindString
	kindMessage
	kindList
)

func (k fieldKind) String() string {
	switch k {
	case kindDouble:
		return "double"
	case kindInt64:
		return "int64"
	case kindInt:
		return "int"
	case kindString:
		return "string"
	case kindMessage:
		return "message"
	case kindList:
		return "list"
	}
	return "unknown"
}

type field struct {
	tag  int
	name string
	kind fieldKind

	f64  float64
	i64  int64
	str  string
	msg  *Document
	list []*Document
}

// Document is an in-memory implementation of Writer and Reader. Writing
// appends fields; reading consumes them front to back. It stands in for
// the external codec engine in tests and the simulator.
type Document struct {
	fields []field
	next   int
}

// NewDocument returns an empty document ready for writing.
func NewDocument() *Document { return &Document{} }

var (
	_ Writer = (*Document)(nil)
	_ Reader = (*Document)(nil)
)

// Len returns the number of fields held by the document.
func (d *Document) Len() int { return len(d.fields) }

// Rewind resets the read cursor so the document can be decoded again.
func (d *Document) Rewind() {
	d.next = 0
	for _, f := range d.fields {
		if f.msg != nil {
			f.msg.Rewind()
		}
		for _, e := range f.list {
			e.Rewind()
		}
	}
}

func (d *Document) WriteDouble(tag int, name string, v float64) error {
	d.fields = append(d.fields, field{tag: tag, name: name, kind: kindDouble, f64: v})
	return nil
}

func (d *Document) WriteInt64(tag int, name string, v int64) error {
	d.fields = append(d.fields, field{tag: tag, name: name, kind: kindInt64, i64: v})
	return nil
}

func (d *Document) WriteInt(tag int, name string, v int) error {
	d.fields = append(d.fields, field{tag: tag, name: name, kind: kindInt, i64: int64(v)})
	return nil
}

func (d *Document) WriteString(tag int, name string, v string) error {
	d.fields = append(d.fields, field{tag: tag, name: name, kind: kindString, str: v})
	return nil
}

func (d *Document) WriteMessage(tag int, name string, write func(Writer) error) error {
	nested := NewDocument()
	if err := write(nested); err != nil {
		return err
	}
	d.fields = append(d.fields, field{tag: tag, name: name, kind: kindMessage, msg: nested})
	return nil
}

func (d *Document) WriteList(tag int, name string, n int, write func(i int, w Writer) error) error {
	elems := make([]*Document, 0, n)
	for i := 0; i < n; i++ {
		nested := NewDocument()
		if err := write(i, nested); err != nil {
			return err
		}
		elems = append(elems, nested)
	}
	d.fields = append(d.fields, field{tag: tag, name: name, kind: kindList, list: elems})
	return nil
}

func (d *Document) IsNext(tag int, name string) bool {
	return d.next < len(d.fields) && d.fields[d.next].tag == tag
}

// take consumes the next field, checking tag and kind.
func (d *Document) take(tag int, name string, kind fieldKind) (field, error) {
	if d.next >= len(d.fields) {
		return field{}, decodeErrf("truncated message, want field %d (%s)", tag, name)
	}
	f := d.fields[d.next]
	if f.tag != tag {
		return field{}, decodeErrf("want field %d (%s), have field %d (%s)", tag, name, f.tag, f.name)
	}
	if f.kind != kind {
		return field{}, decodeErrf("field %d (%s): want %s, have %s", tag, name, kind, f.kind)
	}
	d.next++
	return f, nil
}

func (d *Document) ReadDouble(tag int, name string) (float64, error) {
	f, err := d.take(tag, name, kindDouble)
	if err != nil {
		return 0, err
	}
	return f.f64, nil
}

func (d *Document) ReadInt64(tag int, name string, def int64) (int64, error) {
	if !d.IsNext(tag, name) {
		return def, nil
	}
	f, err := d.take(tag, name, kindInt64)
	if err != nil {
		return 0, err
	}
	return f.i64, nil
}

func (d *Document) ReadInt(tag int, name string) (int, error) {
	f, err := d.take(tag, name, kindInt)
	if err != nil {
		return 0, err
	}
	return int(f.i64), nil
}

func (d *Document) ReadString(tag int, name string) (string, error) {
	f, err := d.take(tag, name, kindString)
	if err != nil {
		return "", err
	}
	return f.str, nil
}

func (d *Document) ReadMessage(tag int, name string) (Reader, error) {
	f, err := d.take(tag, name, kindMessage)
	if err != nil {
		return nil, err
	}
	return f.msg, nil
}

func (d *Document) ReadList(tag int, name string) ([]Reader, error) {
	f, err := d.take(tag, name, kindList)
	if err != nil {
		return nil, err
	}
	out := make([]Reader, len(f.list))
	for i, e := range f.list {
		out[i] = e
	}
	return out, nil
}
