package ingest

import (
	"bufio"
	"context"
	"log"
	"os"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/observability"
)

// maxRecordBytes bounds a single JSONL record; export rows with long hit
// sequences can run well past bufio's default line limit.
const maxRecordBytes = 4 * 1024 * 1024

// FileSource streams sessions from a JSONL export file, one record per line.
type FileSource struct {
	path   string
	logger *log.Logger
}

// NewFileSource creates a source reading the JSONL file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:   path,
		logger: log.New(os.Stdout, "[ingest-file] ", log.LstdFlags),
	}
}

var _ SessionSource = (*FileSource)(nil)

// Subscribe streams every record in the file. Malformed lines are counted
// and skipped; the channel closes at EOF or cancellation.
func (f *FileSource) Subscribe(ctx context.Context) (<-chan *domain.Session, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}

	ch := make(chan *domain.Session, 100)
	go func() {
		defer close(ch)
		defer file.Close()

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 64*1024), maxRecordBytes)

		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			session, err := ParseRecord(line)
			if err != nil {
				observability.RecordMalformedRecord()
				f.logger.Printf("Skipping malformed record at line %d: %v", lineNo, err)
				continue
			}

			select {
			case ch <- session:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			f.logger.Printf("Read error after line %d: %v", lineNo, err)
		}
	}()

	return ch, nil
}
