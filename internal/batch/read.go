package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLine bounds one query line.
const maxLine = 1 << 20

// Item is one query to compile.
type Item struct {
	Source string // file:line
	Query  string
}

// ReadQueries reads one query per line from r. source names r in each
// item's Source.
func ReadQueries(r io.Reader, source string) ([]Item, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)

	var items []Item
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		items = append(items, Item{
			Source: fmt.Sprintf("%s:%d", source, line),
			Query:  text,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s:%d: %w", source, line+1, err)
	}
	return items, nil
}

// ReadFiles reads the queries of every file, in order.
func ReadFiles(paths []string) ([]Item, error) {
	var items []Item
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		fileItems, err := ReadQueries(f, path)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		items = append(items, fileItems...)
	}
	return items, nil
}
