package kv

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// OpenBadger opens the embedded key-value store at dir. An empty dir opens an
// in-memory store that is lost on close.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	log.Info().Str("dir", dir).Bool("in_memory", dir == "").Msg("badger: opened")
	return db, nil
}
