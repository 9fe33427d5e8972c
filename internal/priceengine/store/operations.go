package store

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// AppendPrice appends one record to the prices table.
func (s *Store) AppendPrice(e PriceEntry) error {
	record, err := encodePrice(e)
	if err != nil {
		return err
	}
	return s.append(TablePrices, record)
}

// AppendSupply appends one record to the totalSupply table.
func (s *Store) AppendSupply(e SupplyEntry) error {
	record, err := encodeSupply(e)
	if err != nil {
		return err
	}
	return s.append(TableTotalSupply, record)
}

// AppendEpochFee appends one record to the epochFees table.
func (s *Store) AppendEpochFee(e EpochFeeEntry) error {
	record, err := encodeEpochFee(e)
	if err != nil {
		return err
	}
	return s.append(TableEpochFees, record)
}

// append validates the current file size before writing, refusing to
// extend a file whose size isn't a whole multiple of the record width.
func (s *Store) append(table Table, record string) error {
	if _, err := s.sizeIsValid(table); err != nil {
		return err
	}
	path := s.pathFor(table)
	f, err := s.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "store: open %s for append", path)
	}
	defer f.Close()
	if _, err := f.Write([]byte(record)); err != nil {
		return errors.Wrapf(err, "store: write %s", path)
	}
	return nil
}

// RewritePrices truncates and rewrites the prices table, atomically via a
// temp-file-then-rename, used after any removal (pruning or rollback).
func (s *Store) RewritePrices(entries []PriceEntry) error {
	var sb strings.Builder
	for _, e := range entries {
		record, err := encodePrice(e)
		if err != nil {
			return err
		}
		sb.WriteString(record)
	}
	return s.atomicRewrite(TablePrices, sb.String())
}

// RewriteSupply truncates and rewrites the totalSupply table.
func (s *Store) RewriteSupply(entries []SupplyEntry) error {
	var sb strings.Builder
	for _, e := range entries {
		record, err := encodeSupply(e)
		if err != nil {
			return err
		}
		sb.WriteString(record)
	}
	return s.atomicRewrite(TableTotalSupply, sb.String())
}

// RewriteEpochFees truncates and rewrites the epochFees table.
func (s *Store) RewriteEpochFees(entries []EpochFeeEntry) error {
	var sb strings.Builder
	for _, e := range entries {
		record, err := encodeEpochFee(e)
		if err != nil {
			return err
		}
		sb.WriteString(record)
	}
	return s.atomicRewrite(TableEpochFees, sb.String())
}

// atomicRewrite writes content to a temp sibling of table's file, then
// renames it into place. A transient IO error during the write leaves
// the previous file untouched.
func (s *Store) atomicRewrite(table Table, content string) error {
	path := s.pathFor(table)
	tmp := path + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "store: open %s for rewrite", tmp)
	}
	if _, err := f.Write([]byte(content)); err != nil {
		f.Close()
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, "store: write %s", tmp)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, "store: close %s", tmp)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "store: rename %s to %s", tmp, path)
	}
	return nil
}

// LoadPrices parses the whole prices table in order.
func (s *Store) LoadPrices() ([]PriceEntry, error) {
	records, err := s.readAll(TablePrices)
	if err != nil {
		return nil, err
	}
	entries := make([]PriceEntry, 0, len(records))
	for _, r := range records {
		e, err := decodePrice(r)
		if err != nil {
			return nil, &CorruptError{Table: TablePrices, Reason: err.Error()}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadSupply parses the whole totalSupply table in order.
func (s *Store) LoadSupply() ([]SupplyEntry, error) {
	records, err := s.readAll(TableTotalSupply)
	if err != nil {
		return nil, err
	}
	entries := make([]SupplyEntry, 0, len(records))
	for _, r := range records {
		e, err := decodeSupply(r)
		if err != nil {
			return nil, &CorruptError{Table: TableTotalSupply, Reason: err.Error()}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadEpochFees parses the whole epochFees table in order.
func (s *Store) LoadEpochFees() ([]EpochFeeEntry, error) {
	records, err := s.readAll(TableEpochFees)
	if err != nil {
		return nil, err
	}
	entries := make([]EpochFeeEntry, 0, len(records))
	for _, r := range records {
		e, err := decodeEpochFee(r)
		if err != nil {
			return nil, &CorruptError{Table: TableEpochFees, Reason: err.Error()}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// readAll validates file size and slices it into fixed-width records.
func (s *Store) readAll(table Table) ([]string, error) {
	size, err := s.sizeIsValid(table)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	path := s.pathFor(table)
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "store: open %s", path)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "store: read %s", path)
	}
	width := recordWidth(table)
	n := len(data) / width
	records := make([]string, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, string(data[i*width:(i+1)*width]))
	}
	return records, nil
}
