package jsonlio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"time"

	iox "github.com/wdm0006/shaper/pkg/io/ioutils"
	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Write emits one object per row with keys in column order. Null cells are
// omitted; times are written as RFC 3339 strings.
func Write(out io.Writer, f *sh.Frame) error {
	w := bufio.NewWriter(out)
	var line bytes.Buffer
	for r := 0; r < f.Rows(); r++ {
		line.Reset()
		line.WriteByte('{')
		first := true
		for c := 0; c < f.Cols(); c++ {
			col := f.Column(c)
			v := col.Value(r)
			if v == nil {
				continue
			}
			if ts, ok := v.(time.Time); ok {
				v = ts.Format(time.RFC3339)
			}
			if !first {
				line.WriteByte(',')
			}
			first = false
			k, err := json.Marshal(col.Name())
			if err != nil {
				return err
			}
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			line.Write(k)
			line.WriteByte(':')
			line.Write(b)
		}
		line.WriteString("}\n")
		if _, err := w.Write(line.Bytes()); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteAll writes a Frame to path atomically; a .gz path is compressed.
func WriteAll(path string, f *sh.Frame) error {
	return iox.WriteAtomic(path, func(w io.Writer) error { return Write(w, f) })
}
