// Package config defines the coordinator's runtime configuration (spec.md
// §6) and registers it as cobra/viper flags, grounded on the teacher's
// storage.RegisterFlags/cfgBackend convention (storage/init.go).
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trusted-setup/coordinator/common/crypto/signature"
)

const (
	cfgContributorsPerRound      = "ceremony.contributors_per_round"
	cfgVerifiersPerRound         = "ceremony.verifiers_per_round"
	cfgNumberOfChunks            = "ceremony.number_of_chunks"
	cfgChunkSize                 = "ceremony.chunk_size"
	cfgTimeoutSeconds            = "ceremony.timeout_seconds"
	cfgLockTimeoutSeconds        = "ceremony.lock_timeout_seconds"
	cfgQueueWaitSeconds          = "ceremony.queue_wait_seconds"
	cfgContributorLockChunkLimit = "ceremony.contributor_lock_chunk_limit"
	cfgVerifierLockChunkLimit    = "ceremony.verifier_lock_chunk_limit"
	cfgCoordinatorContributors   = "ceremony.coordinator_contributors"
	cfgCoordinatorVerifiers      = "ceremony.coordinator_verifiers"
	cfgUpdateIntervalSeconds     = "ceremony.update_interval_seconds"
	cfgMinReliability            = "ceremony.min_reliability"
)

// Config is the enumerated configuration block of spec.md §6.
type Config struct {
	ContributorsPerRound      int
	VerifiersPerRound         int
	NumberOfChunks            int
	ChunkSize                 int
	TimeoutSeconds            int
	LockTimeoutSeconds        int
	QueueWaitSeconds          int
	ContributorLockChunkLimit int
	VerifierLockChunkLimit    int
	CoordinatorContributors   []signature.PublicKey
	CoordinatorVerifiers      []signature.PublicKey
	UpdateIntervalSeconds     int
	MinReliability            uint8
}

// RegisterFlags registers every configuration flag on cmd and binds it into
// viper, in the same style as storage.RegisterFlags.
func RegisterFlags(cmd *cobra.Command) {
	if !cmd.Flags().Parsed() {
		cmd.Flags().Int(cfgContributorsPerRound, 1, "Number of contributors seated per round")
		cmd.Flags().Int(cfgVerifiersPerRound, 1, "Number of verifiers seated per round")
		cmd.Flags().Int(cfgNumberOfChunks, 1, "Number of chunks partitioning each round")
		cmd.Flags().Int(cfgChunkSize, 1<<20, "Size in bytes of one chunk's artifact")
		cmd.Flags().Int(cfgTimeoutSeconds, 120, "Heartbeat timeout before a participant is dropped")
		cmd.Flags().Int(cfgLockTimeoutSeconds, 300, "Chunk lock hold timeout before a participant is dropped")
		cmd.Flags().Int(cfgQueueWaitSeconds, 30, "Minimum wait before a queued participant is eligible for promotion")
		cmd.Flags().Int(cfgContributorLockChunkLimit, 1, "Maximum concurrent chunk locks per contributor")
		cmd.Flags().Int(cfgVerifierLockChunkLimit, 1, "Maximum concurrent chunk locks per verifier")
		cmd.Flags().StringSlice(cfgCoordinatorContributors, nil, "Hex-encoded public keys used for initialization and failure recovery")
		cmd.Flags().StringSlice(cfgCoordinatorVerifiers, nil, "Hex-encoded public keys used for initialization and failure recovery")
		cmd.Flags().Int(cfgUpdateIntervalSeconds, 10, "Interval between update() reconciliation ticks")
		cmd.Flags().Uint8(cfgMinReliability, 10, "Reliability floor below which a participant is dropped")
	}

	for _, v := range []string{
		cfgContributorsPerRound, cfgVerifiersPerRound, cfgNumberOfChunks, cfgChunkSize,
		cfgTimeoutSeconds, cfgLockTimeoutSeconds, cfgQueueWaitSeconds,
		cfgContributorLockChunkLimit, cfgVerifierLockChunkLimit,
		cfgCoordinatorContributors, cfgCoordinatorVerifiers,
		cfgUpdateIntervalSeconds, cfgMinReliability,
	} {
		_ = viper.BindPFlag(v, cmd.Flags().Lookup(v))
	}
}

// Load reads the bound viper values into a Config, parsing the hex-encoded
// coordinator identities.
func Load() (*Config, error) {
	contributors, err := parseKeys(viper.GetStringSlice(cfgCoordinatorContributors))
	if err != nil {
		return nil, fmt.Errorf("config: coordinator_contributors: %w", err)
	}
	verifiers, err := parseKeys(viper.GetStringSlice(cfgCoordinatorVerifiers))
	if err != nil {
		return nil, fmt.Errorf("config: coordinator_verifiers: %w", err)
	}

	cfg := &Config{
		ContributorsPerRound:      viper.GetInt(cfgContributorsPerRound),
		VerifiersPerRound:         viper.GetInt(cfgVerifiersPerRound),
		NumberOfChunks:            viper.GetInt(cfgNumberOfChunks),
		ChunkSize:                 viper.GetInt(cfgChunkSize),
		TimeoutSeconds:            viper.GetInt(cfgTimeoutSeconds),
		LockTimeoutSeconds:        viper.GetInt(cfgLockTimeoutSeconds),
		QueueWaitSeconds:          viper.GetInt(cfgQueueWaitSeconds),
		ContributorLockChunkLimit: viper.GetInt(cfgContributorLockChunkLimit),
		VerifierLockChunkLimit:    viper.GetInt(cfgVerifierLockChunkLimit),
		CoordinatorContributors:   contributors,
		CoordinatorVerifiers:      verifiers,
		UpdateIntervalSeconds:     viper.GetInt(cfgUpdateIntervalSeconds),
		MinReliability:            uint8(viper.GetUint(cfgMinReliability)),
	}
	return cfg, cfg.Validate()
}

// Validate enforces the bounds spec.md §6 enumerates (contributors_per_round
// ≥ 1, number_of_chunks > 0, etc).
func (c *Config) Validate() error {
	switch {
	case c.ContributorsPerRound < 1:
		return fmt.Errorf("config: contributors_per_round must be >= 1")
	case c.VerifiersPerRound < 1:
		return fmt.Errorf("config: verifiers_per_round must be >= 1")
	case c.NumberOfChunks < 1:
		return fmt.Errorf("config: number_of_chunks must be > 0")
	case c.ContributorLockChunkLimit < 1:
		return fmt.Errorf("config: contributor_lock_chunk_limit must be >= 1")
	case c.VerifierLockChunkLimit < 1:
		return fmt.Errorf("config: verifier_lock_chunk_limit must be >= 1")
	}
	return nil
}

func parseKeys(hexKeys []string) ([]signature.PublicKey, error) {
	out := make([]signature.PublicKey, 0, len(hexKeys))
	for _, s := range hexKeys {
		if s == "" {
			continue
		}
		pub, err := signature.ParsePublicKeyHex(s)
		if err != nil {
			return nil, err
		}
		out = append(out, pub)
	}
	return out, nil
}
