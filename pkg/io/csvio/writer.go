package csvio

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	iox "github.com/wdm0006/shaper/pkg/io/ioutils"
	sh "github.com/wdm0006/shaper/pkg/shaper"
)

type WriterOptions struct {
	Delimiter rune // default ','
}

// Write writes a Frame as CSV with a header row. Nulls become empty fields.
func Write(out io.Writer, f *sh.Frame, opt WriterOptions) error {
	w := csv.NewWriter(out)
	if opt.Delimiter != 0 {
		w.Comma = opt.Delimiter
	}
	if err := w.Write(f.Names()); err != nil {
		return err
	}
	row := make([]string, f.Cols())
	for r := 0; r < f.Rows(); r++ {
		for c := 0; c < f.Cols(); c++ {
			row[c] = FormatCell(f.Column(c).Value(r))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteAll writes a Frame to path atomically; a .gz path is compressed.
func WriteAll(path string, f *sh.Frame, opt WriterOptions) error {
	return iox.WriteAtomic(path, func(w io.Writer) error { return Write(w, f, opt) })
}

// FormatCell renders a cell value the way Write does.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return ""
}
