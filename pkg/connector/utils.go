package connector

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fsworks/featurestore-go/pkg/connector/hopsfs"
	"github.com/fsworks/featurestore-go/pkg/connector/jdbc"
	s3provider "github.com/fsworks/featurestore-go/pkg/connector/s3"
	"github.com/fsworks/featurestore-go/pkg/dataframe"
	"github.com/fsworks/featurestore-go/pkg/featurestore"
	"github.com/fsworks/featurestore-go/pkg/formats"
)

// Resolver creates a provider for a connector descriptor.
type Resolver func(ctx context.Context, conn *featurestore.StorageConnector) (Provider, error)

// Utils resolves storage connectors and reads data sources through them.
type Utils struct {
	resolvers map[featurestore.ConnectorType]Resolver
}

// NewUtils creates a connector utility with the built-in providers.
func NewUtils() *Utils {
	u := &Utils{resolvers: make(map[featurestore.ConnectorType]Resolver)}
	u.Register(featurestore.ConnectorHopsFS, func(context.Context, *featurestore.StorageConnector) (Provider, error) {
		return hopsfs.New(), nil
	})
	u.Register(featurestore.ConnectorS3, func(ctx context.Context, conn *featurestore.StorageConnector) (Provider, error) {
		return s3provider.NewFromConnector(ctx, conn)
	})
	return u
}

// Register installs or replaces the resolver for a connector type.
func (u *Utils) Register(t featurestore.ConnectorType, r Resolver) {
	u.resolvers[t] = r
}

// Resolve returns the provider for a file-oriented connector.
func (u *Utils) Resolve(ctx context.Context, conn *featurestore.StorageConnector) (Provider, error) {
	if conn == nil {
		return nil, featurestore.NewError(featurestore.CodeValidation, "storage connector is required")
	}
	r, ok := u.resolvers[conn.Type]
	if !ok {
		return nil, featurestore.NewError(featurestore.CodeValidation,
			fmt.Sprintf("no provider for connector type %q", conn.Type))
	}
	return r(ctx, conn)
}

// Read resolves a connector plus a logical path into a lazily-evaluated row
// reader in the dataset's declared format. No caching: every call re-resolves
// and re-reads.
func (u *Utils) Read(ctx context.Context, conn *featurestore.StorageConnector, src Source, format featurestore.DataFormat, options map[string]string) (dataframe.RowReader, error) {
	if conn != nil && conn.Type == featurestore.ConnectorJDBC {
		return u.readJDBC(ctx, conn, src)
	}

	provider, err := u.Resolve(ctx, conn)
	if err != nil {
		return nil, err
	}

	all, err := provider.List(ctx, src.Path)
	if err != nil {
		return nil, err
	}
	ext := formats.Extension(format, options)
	files := make([]string, 0, len(all))
	for _, f := range all {
		if strings.HasSuffix(f, ext) {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s data files under %s", format, src.Path)
	}

	decoder, err := formats.NewDecoder(format, options)
	if err != nil {
		return nil, err
	}

	chain := &chainReader{ctx: ctx, provider: provider, decoder: decoder, files: files}
	// open the first file eagerly so resolution errors surface at call time
	if err := chain.advance(); err != nil {
		return nil, err
	}
	return chain, nil
}

func (u *Utils) readJDBC(ctx context.Context, conn *featurestore.StorageConnector, src Source) (dataframe.RowReader, error) {
	db, err := jdbc.Open(conn)
	if err != nil {
		return nil, err
	}
	reader, err := jdbc.ReadTable(ctx, db, src.Path)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &dbReader{RowReader: reader, db: db}, nil
}

// dbReader closes the database connection together with the result set.
type dbReader struct {
	dataframe.RowReader
	db io.Closer
}

func (r *dbReader) Close() error {
	err := r.RowReader.Close()
	if cerr := r.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// chainReader streams rows file by file under a prefix.
type chainReader struct {
	ctx      context.Context
	provider Provider
	decoder  formats.Decoder
	files    []string
	pos      int
	current  dataframe.RowReader
}

func (c *chainReader) advance() error {
	if c.current != nil {
		if err := c.current.Close(); err != nil {
			return err
		}
		c.current = nil
	}
	if c.pos >= len(c.files) {
		return io.EOF
	}
	raw, err := c.provider.OpenRead(c.ctx, c.files[c.pos])
	if err != nil {
		return err
	}
	reader, err := c.decoder.Decode(raw)
	if err != nil {
		return err
	}
	c.pos++
	c.current = reader
	return nil
}

func (c *chainReader) Columns() []string {
	if c.current == nil {
		return nil
	}
	return c.current.Columns()
}

func (c *chainReader) Next() ([]any, error) {
	for {
		if c.current == nil {
			return nil, io.EOF
		}
		row, err := c.current.Next()
		if err == io.EOF {
			if err := c.advance(); err == io.EOF {
				return nil, io.EOF
			} else if err != nil {
				return nil, err
			}
			continue
		}
		return row, err
	}
}

func (c *chainReader) Close() error {
	if c.current == nil {
		return nil
	}
	err := c.current.Close()
	c.current = nil
	return err
}
