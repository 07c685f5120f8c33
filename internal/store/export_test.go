package store

import "context"

// TruncatePostgres empties every table so integration tests start clean.
func TruncatePostgres(ctx context.Context, s *PostgresStore) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE zinc_instances, zinc_behaviour_packs, zinc_runtime_profiles, zinc_channel_configs, zinc_runtime_rules`)
	return err
}
