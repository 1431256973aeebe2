package textfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
)

// CredentialFile reads credential records from a text file.
type CredentialFile struct {
	path string
}

// NewCredentialFile returns a CredentialFile for path.
func NewCredentialFile(path string) *CredentialFile {
	return &CredentialFile{path: path}
}

// Path returns the file path.
func (f *CredentialFile) Path() string {
	return f.path
}

// LoadCredentials reads every record. Blank lines and lines that do not
// have exactly two fields are skipped.
func (f *CredentialFile) LoadCredentials(ctx context.Context) ([]domain.Credential, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, domain.ErrDataFile.WithDetails(f.path).WithCause(err)
	}
	defer file.Close()

	var records []domain.Credential
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		records = append(records, domain.Credential{ID: fields[0], Secret: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.ErrDataFile.WithDetails(f.path).WithCause(fmt.Errorf("scan: %w", err))
	}

	return records, nil
}
