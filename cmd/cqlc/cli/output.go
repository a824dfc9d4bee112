package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Output formats.
const (
	formatJSON    = "json"
	formatMsgpack = "msgpack"
	formatTable   = "table"
)

// printer handles table, JSON or msgpack output.
type printer struct {
	format string
	w      io.Writer
	indent bool
	zw     *zstd.Encoder
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case formatJSON, formatMsgpack, formatTable:
	default:
		return nil, fmt.Errorf("invalid output format %q", format)
	}
	return &printer{format: format, w: w, indent: true}, nil
}

// compress routes all further output through a zstd stream. close must be
// called to flush it.
func (p *printer) compress() error {
	zw, err := zstd.NewWriter(p.w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	p.zw = zw
	p.w = zw
	return nil
}

func (p *printer) close() error {
	if p.zw == nil {
		return nil
	}
	return p.zw.Close()
}

// value writes one document in the printer's format. JSON documents are
// newline-terminated, indented unless the printer is in streaming mode.
func (p *printer) value(v any) error {
	if p.format == formatMsgpack {
		enc := msgpack.NewEncoder(p.w)
		enc.SetSortMapKeys(true)
		return enc.Encode(v)
	}
	enc := json.NewEncoder(p.w)
	if p.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// table writes rows using tabwriter. header is the first row.
func (p *printer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for i, h := range header {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, h)
	}
	_, _ = fmt.Fprintln(tw)
	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, col)
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

// kv prints a key-value detail view.
func (p *printer) kv(pairs [][2]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, pair := range pairs {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", pair[0], pair[1])
	}
	_ = tw.Flush()
}
