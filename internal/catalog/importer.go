package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/pneumabot/internal/progress"
	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

// Header aliases in Tokenize form, most specific first.
var (
	codeHeaders  = []string{"malzeme kodu", "malzeme", "stok kodu", "kod", "code"}
	nameHeaders  = []string{"malzeme adi", "malzeme aciklamasi", "aciklama", "urun adi", "name"}
	brandHeaders = []string{"marka", "brand"}
	stockHeaders = []string{"donem sonu miktar", "stok", "miktar", "stock"}
	priceHeaders = []string{"birim fiyat", "stok fiyati", "fiyat", "price"}
)

// ErrNoFiles is returned when no pattern matches a file.
var ErrNoFiles = errors.New("no import files matched")

// ImportOptions tunes an import run.
type ImportOptions struct {
	// Workers bounds how many files are parsed at once; <= 0 means 4.
	Workers  int
	Progress progress.Reporter
	Log      zerolog.Logger
}

// Summary reports what an import did.
type Summary struct {
	Files   int `json:"files"`
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// ExpandPatterns resolves glob patterns (with ** support) to a sorted,
// de-duplicated file list. A pattern without metacharacters is taken as a
// literal path.
func ExpandPatterns(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Import parses every file matched by patterns and upserts the rows through
// w. Files are parsed concurrently and written one at a time, each in its
// own transaction, so a bad file does not undo earlier ones.
func Import(ctx context.Context, w Writer, patterns []string, opts ImportOptions) (Summary, error) {
	files, err := ExpandPatterns(patterns)
	if err != nil {
		return Summary{}, err
	}
	if len(files) == 0 {
		return Summary{}, ErrNoFiles
	}

	rep := opts.Progress
	if rep == nil {
		rep = progress.Nop{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	var (
		mu      sync.Mutex
		writeMu sync.Mutex
		sum     = Summary{Files: len(files)}
		done    int
	)

	rep.Start(len(files))
	defer rep.Finish()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range files {
		g.Go(func() error {
			rows, skipped, err := ParseFile(path)
			if err != nil {
				return err
			}

			writeMu.Lock()
			n, err := w.Upsert(gctx, rows)
			writeMu.Unlock()
			if err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}

			mu.Lock()
			sum.Rows += n
			sum.Skipped += skipped + len(rows) - n
			done++
			rep.Update(done, filepath.Base(path))
			mu.Unlock()

			opts.Log.Info().Str("file", path).Int("rows", n).Int("skipped", skipped).Msg("imported")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	return sum, nil
}

// ParseFile reads one CSV export. It returns the usable rows and the number
// of lines skipped for lacking a code.
func ParseFile(path string) ([]Row, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, skipped, err := Parse(f)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rows, skipped, nil
}

// Parse reads CSV with a header row. The delimiter (";" or ",") is sniffed
// from the header and a UTF-8 BOM is ignored.
func Parse(r io.Reader) ([]Row, int, error) {
	br := bufio.NewReader(r)
	if bom, _ := br.Peek(3); bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, 0, err
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(first)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}
	cols := mapColumns(header)
	if cols.code < 0 {
		return nil, 0, fmt.Errorf("no product code column in header %v", header)
	}

	var (
		rows    []Row
		skipped int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading row: %w", err)
		}
		row, ok := cols.row(rec)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func sniffDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

type columns struct {
	code, name, brand, stock, price int
}

func mapColumns(header []string) columns {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = textnorm.Tokenize(h)
	}
	find := func(aliases []string) int {
		for _, alias := range aliases {
			for i, h := range folded {
				if h == alias {
					return i
				}
			}
		}
		return -1
	}
	return columns{
		code:  find(codeHeaders),
		name:  find(nameHeaders),
		brand: find(brandHeaders),
		stock: find(stockHeaders),
		price: find(priceHeaders),
	}
}

func (c columns) row(rec []string) (Row, bool) {
	cell := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	code := cell(c.code)
	if code == "" {
		return Row{}, false
	}
	r := Row{
		Code:  code,
		Name:  textnorm.Normalize(cell(c.name)),
		Brand: textnorm.Normalize(cell(c.brand)),
	}
	if r.Name == "" {
		r.Name = code
	}
	if v, ok := ParseNumber(cell(c.stock)); ok && v > 0 {
		r.Stock = v
	}
	if v, ok := ParseNumber(cell(c.price)); ok && v > 0 {
		r.UnitPrice = v
	}
	return r, true
}
