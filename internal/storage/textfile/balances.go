package textfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
)

// BalanceFile persists the ledger as a text file.
type BalanceFile struct {
	path string
	perm os.FileMode
}

// NewBalanceFile returns a BalanceFile for path.
func NewBalanceFile(path string) *BalanceFile {
	return &BalanceFile{path: path, perm: 0600}
}

// Path returns the file path.
func (f *BalanceFile) Path() string {
	return f.path
}

// Load reads every account in file order. Blank lines are skipped; any
// other line must hold an id and two non-negative decimals.
func (f *BalanceFile) Load(ctx context.Context) ([]*domain.Account, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, domain.ErrDataFile.WithDetails(f.path).WithCause(err)
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil {
		f.perm = info.Mode().Perm()
	}

	var accounts []*domain.Account
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, domain.ErrDataFile.WithDetails(
				fmt.Sprintf("%s:%d: want 3 fields, got %d", f.path, lineNo, len(fields)))
		}
		a, err := domain.NewAccount(fields[0], fields[1], fields[2])
		if err != nil {
			return nil, domain.ErrDataFile.WithDetails(fmt.Sprintf("%s:%d", f.path, lineNo)).WithCause(err)
		}
		accounts = append(accounts, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.ErrDataFile.WithDetails(f.path).WithCause(fmt.Errorf("scan: %w", err))
	}

	return accounts, nil
}

// Save atomically replaces the file with accounts, one per line.
func (f *BalanceFile) Save(ctx context.Context, accounts []*domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("balances: create temp file: %w", err)
	}
	tempPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, a := range accounts {
		if _, err := fmt.Fprintf(w, "%s %s %s\n", a.ID, a.Savings.String(), a.Checking.String()); err != nil {
			tmp.Close()
			os.Remove(tempPath)
			return fmt.Errorf("balances: write: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("balances: flush: %w", err)
	}
	if err := tmp.Chmod(f.perm); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("balances: chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("balances: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("balances: close: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("balances: rename: %w", err)
	}

	return syncDir(dir)
}

// syncDir flushes the directory entry so the rename survives a crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("balances: open dir: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("balances: sync dir: %w", err)
	}
	return nil
}
