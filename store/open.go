package store

import "context"

// Config selects and addresses the backing database.
type Config struct {
	Driver        string // sqlite, mysql, postgres or mongo
	DSN           string
	MongoDatabase string
}

// Open returns the Store for cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Driver == "mongo" {
		s, err := OpenMongo(ctx, cfg.DSN, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := OpenGorm(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return s, nil
}
