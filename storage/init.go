// Package storage selects and constructs a storage/api.Backend based on
// configuration, grounded on the teacher's storage/init.go, which imports
// storage/api plus each concrete backend (leveldb, memory, ...) and switches
// on the configured backend name. The Backend interface itself lives in the
// leaf package storage/api so that backend implementations can import it
// without importing this package back.
package storage

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trusted-setup/coordinator/storage/api"
	"github.com/trusted-setup/coordinator/storage/badgerdb"
	"github.com/trusted-setup/coordinator/storage/memory"
)

const (
	cfgBackend = "storage.backend"
	cfgDataDir = "storage.data_dir"

	backendNameMemory = "memory"
	backendNameBadger = "badger"
)

// New constructs a Backend based on the configuration flags, grounded on the
// teacher's storage.New backend-selection switch.
func New(dataDir string) (api.Backend, error) {
	backend := viper.GetString(cfgBackend)
	switch strings.ToLower(backend) {
	case backendNameMemory:
		return memory.New(), nil
	case backendNameBadger:
		dir := dataDir
		if dir == "" {
			dir = viper.GetString(cfgDataDir)
		}
		return badgerdb.New(dir)
	default:
		return nil, fmt.Errorf("storage: unsupported backend: %q", backend)
	}
}

// RegisterFlags registers the storage configuration flags with the provided
// command, in the same style as the teacher's storage.RegisterFlags.
func RegisterFlags(cmd *cobra.Command) {
	if !cmd.Flags().Parsed() {
		cmd.Flags().String(cfgBackend, backendNameBadger, "Storage backend (memory, badger)")
		cmd.Flags().String(cfgDataDir, "", "Directory for the badger-backed storage backend")
	}

	for _, v := range []string{cfgBackend, cfgDataDir} {
		_ = viper.BindPFlag(v, cmd.Flags().Lookup(v))
	}
}
