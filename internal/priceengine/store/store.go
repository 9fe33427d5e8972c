// Package store implements the engine's persistent log store: three
// append-only, fixed-width text tables (prices, totalSupply, epochFees)
// with atomic rewrite-on-prune semantics.
//
// Each table is backed by an afero.Fs rather than the os package directly,
// so production code can inject afero.NewOsFs() while tests inject
// afero.NewMemMapFs() and exercise corruption/atomicity without touching
// disk.
package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/catapult-chain/priceengine/internal/priceengine/mathutil"
)

// Table names the three logical tables, which map 1:1 to file names in
// the engine's working directory.
type Table string

const (
	TablePrices      Table = "prices"
	TableTotalSupply Table = "totalSupply"
	TableEpochFees   Table = "epochFees"
)

// Field widths for the fixed-width record layout. These are fixed for
// the lifetime of a data directory: changing them requires a migration,
// not a config flag.
const (
	priceHeightWidth     = 10
	priceLowWidth        = 15
	priceHighWidth       = 15
	priceMultiplierWidth = 10
	PriceRecordWidth     = priceHeightWidth + priceLowWidth + priceHighWidth + priceMultiplierWidth // 50

	supplyHeightWidth   = 10
	supplySupplyWidth   = 12
	supplyIncreaseWidth = 12
	SupplyRecordWidth   = supplyHeightWidth + supplySupplyWidth + supplyIncreaseWidth // 34

	epochHeightWidth    = 10
	epochCollectedWidth = 12
	epochDividendWidth  = 12
	epochHarvesterWidth = 64
	EpochFeeRecordWidth = epochHeightWidth + epochCollectedWidth + epochDividendWidth + epochHarvesterWidth // 98
)

// CorruptError reports that a log file's size is not a multiple of its
// record width, or that a fixed-width field failed to parse. It is fatal:
// the engine must refuse to start rather than guess at recovery.
type CorruptError struct {
	Table  Table
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("store: table %q is corrupt: %s", e.Table, e.Reason)
}

// PriceEntry, SupplyEntry and EpochFeeEntry are the decoded form of a
// single record in each of the three persistent logs.
type PriceEntry struct {
	Height     uint64
	Low        uint64
	High       uint64
	Multiplier float64
}

type SupplyEntry struct {
	Height   uint64
	Supply   uint64
	Increase uint64
}

type EpochFeeEntry struct {
	Height    uint64
	Collected uint64
	Dividend  uint64
	Harvester string
}

// Store owns the three log files beneath a single data directory.
type Store struct {
	fs     afero.Fs
	dir    string
	log    *zap.Logger
	prices string
	supply string
	fees   string
}

// New returns a Store rooted at dir on fs. dir must already exist.
func New(fs afero.Fs, dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		fs:     fs,
		dir:    dir,
		log:    log,
		prices: joinPath(dir, string(TablePrices)),
		supply: joinPath(dir, string(TableTotalSupply)),
		fees:   joinPath(dir, string(TableEpochFees)),
	}
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimRight(dir, "/") + "/" + name
}

func (s *Store) pathFor(table Table) string {
	switch table {
	case TablePrices:
		return s.prices
	case TableTotalSupply:
		return s.supply
	case TableEpochFees:
		return s.fees
	default:
		panic("store: unknown table " + string(table))
	}
}

func recordWidth(table Table) int {
	switch table {
	case TablePrices:
		return PriceRecordWidth
	case TableTotalSupply:
		return SupplyRecordWidth
	case TableEpochFees:
		return EpochFeeRecordWidth
	default:
		panic("store: unknown table " + string(table))
	}
}

// sizeIsValid checks that a file's length (0 if it doesn't exist) is a
// multiple of the table's record width.
func (s *Store) sizeIsValid(table Table) (int64, error) {
	path := s.pathFor(table)
	info, err := s.fs.Stat(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "store: stat %s", path)
	}
	size := info.Size()
	width := int64(recordWidth(table))
	if size%width != 0 {
		return size, &CorruptError{Table: table, Reason: fmt.Sprintf("size %d is not a multiple of record width %d", size, width)}
	}
	return size, nil
}

// padField right-pads value with spaces to width, producing the
// space-padded decimal layout every record field uses.
func padField(value string, width int) (string, error) {
	if len(value) > width {
		return "", errors.Errorf("store: field %q exceeds width %d", value, width)
	}
	return value + strings.Repeat(" ", width-len(value)), nil
}

func encodePrice(e PriceEntry) (string, error) {
	h, err := padField(strconv.FormatUint(e.Height, 10), priceHeightWidth)
	if err != nil {
		return "", err
	}
	lo, err := padField(strconv.FormatUint(e.Low, 10), priceLowWidth)
	if err != nil {
		return "", err
	}
	hi, err := padField(strconv.FormatUint(e.High, 10), priceHighWidth)
	if err != nil {
		return "", err
	}
	m, err := padField(strconv.FormatFloat(e.Multiplier, 'f', 6, 64), priceMultiplierWidth)
	if err != nil {
		return "", err
	}
	return h + lo + hi + m, nil
}

func decodePrice(record string) (PriceEntry, error) {
	if len(record) != PriceRecordWidth {
		return PriceEntry{}, errors.Errorf("store: price record has length %d, want %d", len(record), PriceRecordWidth)
	}
	var off int
	height, ok := mathutil.ParseUint64(strings.TrimSpace(record[off : off+priceHeightWidth]))
	if !ok {
		return PriceEntry{}, errors.New("store: parse price height")
	}
	off += priceHeightWidth
	low, ok := mathutil.ParseUint64(strings.TrimSpace(record[off : off+priceLowWidth]))
	if !ok {
		return PriceEntry{}, errors.New("store: parse price low")
	}
	off += priceLowWidth
	high, ok := mathutil.ParseUint64(strings.TrimSpace(record[off : off+priceHighWidth]))
	if !ok {
		return PriceEntry{}, errors.New("store: parse price high")
	}
	off += priceHighWidth
	mult, err := strconv.ParseFloat(strings.TrimSpace(record[off:off+priceMultiplierWidth]), 64)
	if err != nil {
		return PriceEntry{}, errors.Wrap(err, "store: parse price multiplier")
	}
	return PriceEntry{Height: height, Low: low, High: high, Multiplier: mult}, nil
}

func encodeSupply(e SupplyEntry) (string, error) {
	h, err := padField(strconv.FormatUint(e.Height, 10), supplyHeightWidth)
	if err != nil {
		return "", err
	}
	sup, err := padField(strconv.FormatUint(e.Supply, 10), supplySupplyWidth)
	if err != nil {
		return "", err
	}
	inc, err := padField(strconv.FormatUint(e.Increase, 10), supplyIncreaseWidth)
	if err != nil {
		return "", err
	}
	return h + sup + inc, nil
}

func decodeSupply(record string) (SupplyEntry, error) {
	if len(record) != SupplyRecordWidth {
		return SupplyEntry{}, errors.Errorf("store: supply record has length %d, want %d", len(record), SupplyRecordWidth)
	}
	var off int
	height, ok := mathutil.ParseUint64(strings.TrimSpace(record[off : off+supplyHeightWidth]))
	if !ok {
		return SupplyEntry{}, errors.New("store: parse supply height")
	}
	off += supplyHeightWidth
	supply, ok := mathutil.ParseUint64(strings.TrimSpace(record[off : off+supplySupplyWidth]))
	if !ok {
		return SupplyEntry{}, errors.New("store: parse supply amount")
	}
	off += supplySupplyWidth
	increase, ok := mathutil.ParseUint64(strings.TrimSpace(record[off : off+supplyIncreaseWidth]))
	if !ok {
		return SupplyEntry{}, errors.New("store: parse supply increase")
	}
	return SupplyEntry{Height: height, Supply: supply, Increase: increase}, nil
}

func encodeEpochFee(e EpochFeeEntry) (string, error) {
	h, err := padField(strconv.FormatUint(e.Height, 10), epochHeightWidth)
	if err != nil {
		return "", err
	}
	c, err := padField(strconv.FormatUint(e.Collected, 10), epochCollectedWidth)
	if err != nil {
		return "", err
	}
	d, err := padField(strconv.FormatUint(e.Dividend, 10), epochDividendWidth)
	if err != nil {
		return "", err
	}
	addr, err := padField(e.Harvester, epochHarvesterWidth)
	if err != nil {
		return "", err
	}
	return h + c + d + addr, nil
}

func decodeEpochFee(record string) (EpochFeeEntry, error) {
	if len(record) != EpochFeeRecordWidth {
		return EpochFeeEntry{}, errors.Errorf("store: epoch fee record has length %d, want %d", len(record), EpochFeeRecordWidth)
	}
	var off int
	height, ok := mathutil.ParseUint64(strings.TrimSpace(record[off : off+epochHeightWidth]))
	if !ok {
		return EpochFeeEntry{}, errors.New("store: parse epoch fee height")
	}
	off += epochHeightWidth
	collected, ok := mathutil.ParseUint64(strings.TrimSpace(record[off : off+epochCollectedWidth]))
	if !ok {
		return EpochFeeEntry{}, errors.New("store: parse epoch fee collected")
	}
	off += epochCollectedWidth
	dividend, ok := mathutil.ParseUint64(strings.TrimSpace(record[off : off+epochDividendWidth]))
	if !ok {
		return EpochFeeEntry{}, errors.New("store: parse epoch fee dividend")
	}
	off += epochDividendWidth
	harvester := strings.TrimSpace(record[off : off+epochHarvesterWidth])
	return EpochFeeEntry{Height: height, Collected: collected, Dividend: dividend, Harvester: harvester}, nil
}
