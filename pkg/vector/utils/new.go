// Package vectorutils builds a vector.Driver from configuration.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/gridiron/pkg/config"
	"github.com/papercomputeco/gridiron/pkg/vector"
	"github.com/papercomputeco/gridiron/pkg/vector/chromem"
	"github.com/papercomputeco/gridiron/pkg/vector/pgvector"
	"github.com/papercomputeco/gridiron/pkg/vector/qdrant"
	"github.com/papercomputeco/gridiron/pkg/vector/sqlitevec"
	"github.com/papercomputeco/gridiron/pkg/vector/tidb"
)

type NewVectorDriverOpts struct {
	Store      config.VectorStoreConfig
	Dimensions uint
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	s := o.Store

	switch s.Provider {
	case "tidb":
		return tidb.NewDriver(ctx, tidb.Config{
			Host:       s.Host,
			Port:       s.Port,
			User:       s.Username,
			Password:   s.Password,
			Database:   s.Database,
			TLS:        s.TLS,
			Table:      s.Table,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "postgres":
		return pgvector.NewDriver(ctx, pgvector.Config{
			DSN:        s.Target,
			Table:      s.Table,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     s.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewDriver(ctx, qdrant.Config{
			Addr:       s.Target,
			APIKey:     s.Password,
			UseTLS:     s.TLS,
			Collection: s.Table,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chromem":
		return chromem.NewDriver(chromem.Config{
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", s.Provider)
	}
}
