package formats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/gzip"

	"github.com/fsworks/featurestore-go/pkg/dataframe"
	"github.com/fsworks/featurestore-go/pkg/featurestore"
)

// Encoder serializes rows into a format-specific byte stream.
type Encoder interface {
	Encode(w io.Writer, columns []string, rows [][]any) error
}

// Decoder produces a lazy row reader over a format-specific byte stream.
// The returned reader owns r and closes it.
type Decoder interface {
	Decode(r io.ReadCloser) (dataframe.RowReader, error)
}

// NewEncoder returns the encoder for a format with effective options already
// computed by WriteOptions.
func NewEncoder(format featurestore.DataFormat, options map[string]string) (Encoder, error) {
	switch format {
	case featurestore.FormatCSV, featurestore.FormatTSV:
		return &csvEncoder{
			delimiter: delimiterOf(options),
			header:    options[OptionHeader] != "false",
			gzipped:   options[OptionCompression] == CompressionGzip,
		}, nil
	case featurestore.FormatJSON:
		return &jsonEncoder{gzipped: options[OptionCompression] == CompressionGzip}, nil
	default:
		return nil, featurestore.NewError(featurestore.CodeValidation,
			fmt.Sprintf("no encoder for format %q", format))
	}
}

// NewDecoder returns the decoder for a format with effective options already
// computed by ReadOptions.
func NewDecoder(format featurestore.DataFormat, options map[string]string) (Decoder, error) {
	switch format {
	case featurestore.FormatCSV, featurestore.FormatTSV:
		return &csvDecoder{
			delimiter: delimiterOf(options),
			header:    options[OptionHeader] != "false",
			gzipped:   options[OptionCompression] == CompressionGzip,
		}, nil
	case featurestore.FormatJSON:
		return &jsonDecoder{gzipped: options[OptionCompression] == CompressionGzip}, nil
	default:
		return nil, featurestore.NewError(featurestore.CodeValidation,
			fmt.Sprintf("no decoder for format %q", format))
	}
}

func delimiterOf(options map[string]string) rune {
	if d := options[OptionDelimiter]; d != "" {
		return []rune(d)[0]
	}
	return ','
}

type csvEncoder struct {
	delimiter rune
	header    bool
	gzipped   bool
}

func (e *csvEncoder) Encode(w io.Writer, columns []string, rows [][]any) error {
	var flushClose func() error
	if e.gzipped {
		gz := gzip.NewWriter(w)
		w = gz
		flushClose = gz.Close
	}

	cw := csv.NewWriter(w)
	cw.Comma = e.delimiter

	if e.header {
		if err := cw.Write(columns); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, v := range row {
			record[i] = stringify(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	if flushClose != nil {
		return flushClose()
	}
	return nil
}

type csvDecoder struct {
	delimiter rune
	header    bool
	gzipped   bool
}

func (d *csvDecoder) Decode(r io.ReadCloser) (dataframe.RowReader, error) {
	raw := r
	var src io.Reader = r
	if d.gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		src = gz
	}

	cr := csv.NewReader(src)
	cr.Comma = d.delimiter
	cr.ReuseRecord = false

	var columns []string
	if d.header {
		rec, err := cr.Read()
		if err == io.EOF {
			return dataframe.NewSliceReader(nil, nil), raw.Close()
		}
		if err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("reading header: %w", err)
		}
		columns = rec
	}
	return &csvRowReader{cr: cr, columns: columns, closer: raw}, nil
}

type csvRowReader struct {
	cr      *csv.Reader
	columns []string
	closer  io.Closer
}

func (r *csvRowReader) Columns() []string { return r.columns }

func (r *csvRowReader) Next() ([]any, error) {
	rec, err := r.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	if r.columns == nil {
		// headerless stream: synthesize positional column names once
		r.columns = make([]string, len(rec))
		for i := range rec {
			r.columns[i] = fmt.Sprintf("_c%d", i)
		}
	}
	row := make([]any, len(rec))
	for i, v := range rec {
		row[i] = v
	}
	return row, nil
}

func (r *csvRowReader) Close() error { return r.closer.Close() }

type jsonEncoder struct {
	gzipped bool
}

func (e *jsonEncoder) Encode(w io.Writer, columns []string, rows [][]any) error {
	var flushClose func() error
	if e.gzipped {
		gz := gzip.NewWriter(w)
		w = gz
		flushClose = gz.Close
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, row := range rows {
		obj := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(row) {
				obj[col] = row[i]
			}
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing json: %w", err)
	}
	if flushClose != nil {
		return flushClose()
	}
	return nil
}

type jsonDecoder struct {
	gzipped bool
}

func (d *jsonDecoder) Decode(r io.ReadCloser) (dataframe.RowReader, error) {
	raw := r
	var src io.Reader = r
	if d.gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		src = gz
	}
	return &jsonRowReader{dec: json.NewDecoder(src), closer: raw}, nil
}

type jsonRowReader struct {
	dec     *json.Decoder
	columns []string
	closer  io.Closer
}

func (r *jsonRowReader) Columns() []string { return r.columns }

func (r *jsonRowReader) Next() ([]any, error) {
	var obj map[string]any
	if err := r.dec.Decode(&obj); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("decoding row: %w", err)
	}
	if r.columns == nil {
		// column order comes from the first record, sorted for determinism
		r.columns = make([]string, 0, len(obj))
		for k := range obj {
			r.columns = append(r.columns, k)
		}
		sort.Strings(r.columns)
	}
	row := make([]any, len(r.columns))
	for i, col := range r.columns {
		row[i] = obj[col]
	}
	return row, nil
}

func (r *jsonRowReader) Close() error { return r.closer.Close() }

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
