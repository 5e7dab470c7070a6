package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TableData is a column table read from a text file
type TableData struct {
	X []float64
	Y []float64
	E []float64 // Empty when the file has only two columns
}

// ParseTable parses whitespace or comma separated columns of x, y and an
// optional error. Blank lines and lines starting with '#' are skipped.
// Every data line must have the same number of columns.
func ParseTable(reader io.Reader) (*TableData, error) {
	data := &TableData{}
	columns := 0
	lineNumber := 0

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: expected 2 or 3 columns, got %d", lineNumber, len(fields))
		}
		if columns == 0 {
			columns = len(fields)
		} else if len(fields) != columns {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineNumber, columns, len(fields))
		}

		values := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid number %q", lineNumber, field)
			}
			values[i] = v
		}

		data.X = append(data.X, values[0])
		data.Y = append(data.Y, values[1])
		if columns == 3 {
			data.E = append(data.E, values[2])
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %v", err)
	}
	if len(data.X) == 0 {
		return nil, fmt.Errorf("table has no data lines")
	}

	return data, nil
}

// LoadTable loads and parses a table file
func LoadTable(filename string) (*TableData, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %v", err)
	}
	defer file.Close()

	data, err := ParseTable(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}

// validateFilePath rejects paths that cannot name a table file
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Check for null bytes (could indicate path manipulation)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	cleanPath := filepath.Clean(filename)
	if len(cleanPath) > 512 {
		return fmt.Errorf("file path too long: maximum 512 characters allowed")
	}

	switch strings.ToLower(filepath.Ext(cleanPath)) {
	case ".dat", ".txt", ".csv", ".xye":
	default:
		return fmt.Errorf("invalid file type: only .dat, .txt, .csv and .xye files are allowed")
	}

	return nil
}
