// Package pg connects to PostgreSQL with pgx/v5 and applies goose
// migrations.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//	    return err
//	}
//
// IsNotFoundError and IsDuplicateKeyError classify pgx errors.
package pg
