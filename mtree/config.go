package mtree

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

const (
	nodeHeaderSize     = 20 // checksum(8) id(8) leaf(1) numEntries(2) reserved(1)
	leafEntrySize      = 16 // objectID(8) parentDistance(8)
	directoryEntrySize = 32 // nodeID(8) routingObjectID(8) parentDistance(8) coveringRadius(8)
)

// Config configures the page file and the tree.
type Config struct {
	// PageSize must match the pager's page size.
	PageSize int
	// LeafCapacity and DirCapacity count the overflow slot. Zero derives
	// them from PageSize.
	LeafCapacity int
	DirCapacity  int
	// CacheSize is the number of decoded nodes kept in memory. Negative
	// disables the node cache.
	CacheSize int64
	// ExtraIntegrityChecks runs the full integrity check after every insert.
	ExtraIntegrityChecks bool
	Logger               *logrus.Logger
}

func (cfg Config) normalized() Config {
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.LeafCapacity == 0 {
		cfg.LeafCapacity = maxLeafEntries(cfg.PageSize)
	}
	if cfg.DirCapacity == 0 {
		cfg.DirCapacity = maxDirectoryEntries(cfg.PageSize)
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return cfg
}

func (cfg Config) validate() error {
	cfg = cfg.normalized()
	if cfg.PageSize < nodeHeaderSize+minCapacity*directoryEntrySize {
		return errors.Wrapf(ErrInvalidConfig, "page size %d is too small", cfg.PageSize)
	}
	if cfg.LeafCapacity < minCapacity || cfg.LeafCapacity > maxLeafEntries(cfg.PageSize) {
		return errors.Wrapf(ErrInvalidConfig, "leaf capacity must be in [%d, %d], got %d",
			minCapacity, maxLeafEntries(cfg.PageSize), cfg.LeafCapacity)
	}
	if cfg.DirCapacity < minCapacity || cfg.DirCapacity > maxDirectoryEntries(cfg.PageSize) {
		return errors.Wrapf(ErrInvalidConfig, "directory capacity must be in [%d, %d], got %d",
			minCapacity, maxDirectoryEntries(cfg.PageSize), cfg.DirCapacity)
	}
	return nil
}

func maxLeafEntries(pageSize int) int {
	return (pageSize - nodeHeaderSize) / leafEntrySize
}

func maxDirectoryEntries(pageSize int) int {
	return (pageSize - nodeHeaderSize) / directoryEntrySize
}
